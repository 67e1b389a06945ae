// Package cache prunes the transient artifacts sessions leave behind in the temp directory.
package cache

import (
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/vplayer/vplayer/filesystem"
	"github.com/vplayer/vplayer/log"
	"github.com/vplayer/vplayer/where"
)

// TTL is how old an artifact must be before it is considered abandoned.
const TTL = 24 * time.Hour

var sweepLog = log.For("cache")

// alive reports whether something still listens on the socket at path.
var alive = func(path string) bool {
	conn, err := net.DialTimeout("unix", path, 200*time.Millisecond)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// CollectGarbage removes expired files from the temp directory.
// IPC sockets are kept while an engine still listens on them.
func CollectGarbage() {
	removed := collect(where.Temp(), time.Now())
	if removed > 0 {
		sweepLog.Debugf("removed %d stale artifacts", removed)
	}
}

func collect(dir string, now time.Time) (removed int) {
	fs := filesystem.API()
	_ = afero.Walk(fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if now.Sub(info.ModTime()) <= TTL {
			return nil
		}
		if strings.HasSuffix(path, ".sock") && alive(path) {
			return nil
		}
		if fs.Remove(path) == nil {
			removed++
		}
		return nil
	})
	return removed
}

// Socket returns a fresh path for an IPC socket named after prefix.
func Socket(prefix, id string) string {
	return filepath.Join(where.Temp(), prefix+"-"+id+".sock")
}
