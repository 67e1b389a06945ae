package session

import (
	"sync"

	"github.com/vplayer/vplayer/playback"
)

// Event is a notification published by the Controller.
type Event interface {
	event()
}

type (
	StateChanged  struct{ State playback.State }
	TimeChanged   struct{ Time int64 }
	MediaChanged  struct{ Path string }
	VolumeChanged struct{ Volume int }
	// Begin is published once per media load, when the first frame setup is done.
	Begin struct{}
	// Reach is published when playback stops. Replaced is set when the stop
	// comes from binding another media, so listeners do not advance a playlist.
	Reach struct {
		Manually bool
		Replaced bool
	}
	// Jumped is published before the engine is asked to seek.
	Jumped struct{ Time int64 }
	// Decoded is published when a new frame is available, coalesced.
	Decoded       struct{}
	TracksChanged struct{}
)

func (StateChanged) event()  {}
func (TimeChanged) event()   {}
func (MediaChanged) event()  {}
func (VolumeChanged) event() {}
func (Begin) event()         {}
func (Reach) event()         {}
func (Jumped) event()        {}
func (Decoded) event()       {}
func (TracksChanged) event() {}

// Hub fans events out to subscribers in publish order.
// Publishing never blocks; each subscriber has its own unbounded queue.
type Hub struct {
	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*subscriber]struct{})}
}

// Subscribe returns a channel of events and a function that ends the subscription.
// The channel is closed when the subscription ends or the hub closes.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	s := &subscriber{
		signal: make(chan struct{}, 1),
		out:    make(chan Event),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(s.out)
		return s.out, func() {}
	}
	h.subs[s] = struct{}{}
	h.mu.Unlock()

	go s.run()

	var once sync.Once
	return s.out, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, s)
			h.mu.Unlock()
			s.stop()
		})
	}
}

// Publish queues ev for every subscriber.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		s.push(ev)
	}
}

// Close ends every subscription and waits for their goroutines.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[*subscriber]struct{})
	h.closed = true
	h.mu.Unlock()

	for s := range subs {
		s.stop()
	}
}

type subscriber struct {
	mu     sync.Mutex
	queue  []Event
	signal chan struct{}
	out    chan Event
	quit   chan struct{}
	done   chan struct{}
	once   sync.Once
}

func (s *subscriber) push(ev Event) {
	s.mu.Lock()
	s.queue = append(s.queue, ev)
	s.mu.Unlock()

	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *subscriber) run() {
	defer close(s.done)
	defer close(s.out)

	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			select {
			case <-s.signal:
				continue
			case <-s.quit:
				return
			}
		}
		ev := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- ev:
		case <-s.quit:
			return
		}
	}
}

func (s *subscriber) stop() {
	s.once.Do(func() { close(s.quit) })
	<-s.done
}
