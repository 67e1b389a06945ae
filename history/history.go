// Package history persists recently played media and the last directory media was opened from.
package history

import (
	"path/filepath"
	"sort"
	"time"

	"github.com/metafates/gache"
	"github.com/samber/lo"
	"github.com/vplayer/vplayer/filesystem"
	"github.com/vplayer/vplayer/where"
)

// Store is the on-disk shape of the history file.
type Store struct {
	Entries map[string]*Entry `json:"entries"`
	LastDir string            `json:"last_dir"`
}

var cacher = gache.New[*Store](
	&gache.Options{
		Path:       where.History(),
		FileSystem: &filesystem.GacheFs{},
	},
)

// Get returns the stored history, or an empty store when none exists yet.
func Get() (*Store, error) {
	cached, expired, err := cacher.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return &Store{Entries: make(map[string]*Entry)}, nil
	}
	if cached.Entries == nil {
		cached.Entries = make(map[string]*Entry)
	}
	return cached, nil
}

// Save records that the media at path was opened and remembers its directory.
func Save(path string) error {
	store, err := Get()
	if err != nil {
		return err
	}

	entry, ok := store.Entries[path]
	if !ok {
		entry = newEntry(path)
		store.Entries[path] = entry
	}
	entry.Plays++
	entry.PlayedAt = time.Now()
	store.LastDir = filepath.Dir(path)

	return cacher.Set(store)
}

// Remove deletes the record for path.
func Remove(path string) error {
	store, err := Get()
	if err != nil {
		return err
	}

	delete(store.Entries, path)
	return cacher.Set(store)
}

// Recent returns at most limit entries, most recently played first.
// A non-positive limit returns all of them.
func Recent(limit int) ([]*Entry, error) {
	store, err := Get()
	if err != nil {
		return nil, err
	}

	entries := lo.Values(store.Entries)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].PlayedAt.After(entries[j].PlayedAt)
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// LastDir returns the directory of the last opened media, or "" if unknown.
func LastDir() string {
	store, err := Get()
	if err != nil {
		return ""
	}
	return store.LastDir
}
