// Package queue holds the playlist the player walks through.
package queue

import (
	"sync"

	"github.com/samber/lo"
	"github.com/samber/mo"
)

// Repeat is what happens after the last item.
type Repeat int

const (
	RepeatOff Repeat = iota
	RepeatAll
)

// Queue is an ordered list of media paths with a cursor.
type Queue struct {
	mu       sync.RWMutex
	items    []string
	order    []int
	index    int
	repeat   Repeat
	onChange func()
}

func New() *Queue {
	return &Queue{index: -1}
}

// SetOnChange registers a callback fired after every mutation, outside the lock.
func (q *Queue) SetOnChange(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onChange = fn
}

func (q *Queue) notify() {
	q.mu.RLock()
	fn := q.onChange
	q.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// Set replaces the items and rewinds the cursor.
func (q *Queue) Set(paths []string) {
	q.mu.Lock()
	q.items = append([]string(nil), paths...)
	q.order = lo.Range(len(q.items))
	q.index = -1
	q.mu.Unlock()
	q.notify()
}

// Append adds paths after the last item.
func (q *Queue) Append(paths ...string) {
	q.mu.Lock()
	for _, p := range paths {
		q.order = append(q.order, len(q.items))
		q.items = append(q.items, p)
	}
	q.mu.Unlock()
	q.notify()
}

// Clear drops every item.
func (q *Queue) Clear() {
	q.mu.Lock()
	q.items = nil
	q.order = nil
	q.index = -1
	q.mu.Unlock()
	q.notify()
}

// Shuffle reorders the items not played yet.
func (q *Queue) Shuffle() {
	q.mu.Lock()
	rest := q.order[q.index+1:]
	lo.Shuffle(rest)
	q.mu.Unlock()
	q.notify()
}

func (q *Queue) SetRepeat(r Repeat) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.repeat = r
}

// Next advances the cursor. It is absent past the end unless repeating.
func (q *Queue) Next() mo.Option[string] {
	q.mu.Lock()
	if len(q.items) == 0 {
		q.mu.Unlock()
		return mo.None[string]()
	}

	next := q.index + 1
	if next >= len(q.order) {
		if q.repeat != RepeatAll {
			q.index = len(q.order)
			q.mu.Unlock()
			return mo.None[string]()
		}
		next = 0
	}
	q.index = next
	path := q.items[q.order[next]]
	q.mu.Unlock()

	q.notify()
	return mo.Some(path)
}

// Prev moves the cursor back, stopping at the first item.
func (q *Queue) Prev() mo.Option[string] {
	q.mu.Lock()
	if len(q.items) == 0 {
		q.mu.Unlock()
		return mo.None[string]()
	}

	q.index = max(min(q.index, len(q.order))-1, 0)
	path := q.items[q.order[q.index]]
	q.mu.Unlock()

	q.notify()
	return mo.Some(path)
}

// Current is the item under the cursor.
func (q *Queue) Current() mo.Option[string] {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.index < 0 || q.index >= len(q.order) {
		return mo.None[string]()
	}
	return mo.Some(q.items[q.order[q.index]])
}

// Position returns the cursor and the number of items.
func (q *Queue) Position() (int, int) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.index, len(q.items)
}

// Items lists the paths in play order.
func (q *Queue) Items() []string {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return lo.Map(q.order, func(i, _ int) string { return q.items[i] })
}
