package cache

import (
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/vplayer/vplayer/filesystem"
)

func TestCollect(t *testing.T) {
	Convey("Given a temp directory with old and fresh artifacts", t, func() {
		filesystem.SetMemMapFs()
		fs := filesystem.API()
		dir := "/tmp/vplayer"
		now := time.Now()

		write := func(name string, age time.Duration) string {
			path := filepath.Join(dir, name)
			So(fs.WriteFile(path, []byte("x"), 0o644), ShouldBeNil)
			So(fs.Chtimes(path, now.Add(-age), now.Add(-age)), ShouldBeNil)
			return path
		}

		fresh := write("mpv-fresh.sock", time.Minute)
		stale := write("mpv-stale.sock", 2*TTL)
		live := write("mpv-live.sock", 2*TTL)
		leftover := write("frame.tmp", 2*TTL)

		previous := alive
		alive = func(path string) bool { return path == live }
		Reset(func() { alive = previous })

		Convey("Then collect removes only expired, unused files", func() {
			So(collect(dir, now), ShouldEqual, 2)

			exists := func(path string) bool {
				ok, _ := fs.Exists(path)
				return ok
			}
			So(exists(fresh), ShouldBeTrue)
			So(exists(live), ShouldBeTrue)
			So(exists(stale), ShouldBeFalse)
			So(exists(leftover), ShouldBeFalse)
		})
	})
}
