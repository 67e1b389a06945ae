package player

import (
	"sync"
)

// recorder is a Handler that remembers every event it receives.
type recorder struct {
	mu     sync.Mutex
	events []string
	times  []int64
}

func (r *recorder) add(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, name)
}

func (r *recorder) OnDecoderReady() { r.add("ready") }
func (r *recorder) OnEndReached()   { r.add("end") }
func (r *recorder) OnRestarted()    { r.add("restarted") }
func (r *recorder) OnFrameReady()   { r.add("frame") }

func (r *recorder) OnTimeChanged(ms int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "time")
	r.times = append(r.times, ms)
}

func (r *recorder) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == name {
			n++
		}
	}
	return n
}

func (r *recorder) lastTime() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.times) == 0 {
		return -1
	}
	return r.times[len(r.times)-1]
}
