package history

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/vplayer/vplayer/filesystem"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestHistory(t *testing.T) {
	Convey("Given a media path", t, func() {
		path := "/media/films/intro.mkv"

		Convey("When saving it", func() {
			So(Save(path), ShouldBeNil)

			Convey("Then it is in the history with its directory remembered", func() {
				store, err := Get()
				So(err, ShouldBeNil)
				So(store.Entries, ShouldContainKey, path)
				So(store.Entries[path].Name, ShouldEqual, "intro.mkv")
				So(LastDir(), ShouldEqual, "/media/films")
			})

			Convey("And saving it again counts the play", func() {
				before, _ := Get()
				plays := before.Entries[path].Plays
				So(Save(path), ShouldBeNil)
				after, _ := Get()
				So(after.Entries[path].Plays, ShouldEqual, plays+1)
			})

			Convey("And removing it drops the record", func() {
				So(Remove(path), ShouldBeNil)
				store, _ := Get()
				So(store.Entries, ShouldNotContainKey, path)
			})
		})
	})
}

func TestRecent(t *testing.T) {
	Convey("Given several saved media", t, func() {
		for _, p := range []string{"/a/one.mp4", "/b/two.mp4", "/c/three.mp4"} {
			So(Save(p), ShouldBeNil)
			time.Sleep(2 * time.Millisecond)
		}

		Convey("Recent lists the newest first", func() {
			entries, err := Recent(2)
			So(err, ShouldBeNil)
			So(entries, ShouldHaveLength, 2)
			So(entries[0].Path, ShouldEqual, "/c/three.mp4")
			So(entries[1].Path, ShouldEqual, "/b/two.mp4")
			So(LastDir(), ShouldEqual, "/c")
		})
	})
}

func TestSearch(t *testing.T) {
	Convey("Given media played a different number of times", t, func() {
		So(Save("/shows/Pilot Episode.mkv"), ShouldBeNil)
		for i := 0; i < 3; i++ {
			So(Save("/shows/Second Episode.mkv"), ShouldBeNil)
		}
		So(Save("/music/song.flac"), ShouldBeNil)

		Convey("Search matches fuzzily and ignores case", func() {
			entries, err := Search("  EPISODE ")
			So(err, ShouldBeNil)
			paths := make([]string, 0, len(entries))
			for _, e := range entries {
				paths = append(paths, e.Path)
			}
			So(paths, ShouldContain, "/shows/Pilot Episode.mkv")
			So(paths, ShouldContain, "/shows/Second Episode.mkv")
			So(paths, ShouldNotContain, "/music/song.flac")
		})

		Convey("The most played entry comes first", func() {
			entries, err := Search("epsd")
			So(err, ShouldBeNil)
			So(len(entries), ShouldBeGreaterThanOrEqualTo, 2)
			So(entries[0].Path, ShouldEqual, "/shows/Second Episode.mkv")
		})
	})
}
