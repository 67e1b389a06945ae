package history

import (
	"fmt"
	"path/filepath"
	"time"
)

// Entry is a single remembered media file.
type Entry struct {
	Path     string    `json:"path"`
	Name     string    `json:"name"`
	Plays    int       `json:"plays"`
	PlayedAt time.Time `json:"played_at"`
}

func (e *Entry) String() string {
	return fmt.Sprintf("%s (%s)", e.Name, filepath.Dir(e.Path))
}

func newEntry(path string) *Entry {
	return &Entry{
		Path: path,
		Name: filepath.Base(path),
	}
}
