package history

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
	"golang.org/x/exp/slices"
)

// Search returns the entries whose name or path fuzzily matches q,
// most played first. An empty q matches everything.
func Search(q string) ([]*Entry, error) {
	store, err := Get()
	if err != nil {
		return nil, err
	}

	q = sanitize(q)
	entries := lo.Filter(lo.Values(store.Entries), func(e *Entry, _ int) bool {
		return fuzzy.MatchFold(q, e.Name) || fuzzy.MatchFold(q, e.Path)
	})

	slices.SortFunc(entries, func(a, b *Entry) int {
		if a.Plays != b.Plays {
			return b.Plays - a.Plays
		}
		return b.PlayedAt.Compare(a.PlayedAt)
	})
	return entries, nil
}

func sanitize(q string) string {
	return strings.TrimSpace(strings.ToLower(q))
}
