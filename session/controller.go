// Package session coordinates one playback engine: it owns the state machine,
// consumes engine events on a single loop and publishes notifications.
package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/vplayer/vplayer/log"
	"github.com/vplayer/vplayer/playback"
	"github.com/vplayer/vplayer/player"
)

var ErrRunning = errors.New("session loop already started")

// Controller is the single mutator of the playback state. Engine callbacks and
// commands are both marshalled onto the goroutine running Run.
type Controller struct {
	backend player.Backend
	opts    Options
	machine *playback.Machine
	hub     *Hub
	log     log.Entry

	inbox  *mailbox
	frames chan struct{}

	// seekMu is held while a seek is issued; time ticks arriving meanwhile are dropped.
	seekMu  sync.Mutex
	seekGen atomic.Uint64
	// epoch changes whenever the engine is halted; events from an older epoch are stale.
	epoch atomic.Uint64
	// dropped counts time ticks discarded by the seek lock.
	dropped atomic.Uint64

	loop atomic.Bool

	// owned by the loop goroutine
	media  string
	bound  bool
	volume int
	tracks map[player.TrackKind]*TrackSet

	mu      sync.Mutex
	started bool
	quit    chan struct{}
	exited  chan struct{}
	once    sync.Once
}

// New wraps backend in a controller. Run must be running for commands to take effect.
func New(backend player.Backend, opts Options) *Controller {
	c := &Controller{
		backend: backend,
		opts:    opts,
		hub:     NewHub(),
		log:     log.For("session").With(log.Fields{"engine": backend.Name()}),
		inbox:   newMailbox(),
		frames:  make(chan struct{}, 1),
		volume:  clampVolume(opts.Volume),
		tracks:  make(map[player.TrackKind]*TrackSet, len(player.Kinds)),
		quit:    make(chan struct{}),
		exited:  make(chan struct{}),
	}

	for _, kind := range player.Kinds {
		c.tracks[kind] = NewTrackSet(kind)
	}

	c.loop.Store(opts.Loop)
	c.machine = playback.NewMachine(func(from, to playback.State) {
		c.log.Debugf("state %s -> %s", from, to)
		c.hub.Publish(StateChanged{State: to})
	})

	backend.SetHandler(engineEvents{c})
	return c
}

// Run consumes commands and engine events until ctx is done or the controller is closed.
func (c *Controller) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return ErrRunning
	}
	select {
	case <-c.quit:
		c.mu.Unlock()
		return nil
	default:
	}
	c.started = true
	c.mu.Unlock()

	defer close(c.exited)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.quit:
			return nil
		case <-c.inbox.signal:
			for _, fn := range c.inbox.drain() {
				fn()
			}
		case <-c.frames:
			c.hub.Publish(Decoded{})
		}
	}
}

// Subscribe returns the notification stream and a function ending it.
func (c *Controller) Subscribe() (<-chan Event, func()) {
	return c.hub.Subscribe()
}

// Engine names the backend in use.
func (c *Controller) Engine() string {
	return c.backend.Name()
}

// Close stops playback, releases the media and shuts the engine down.
// It returns once the engine no longer raises events.
func (c *Controller) Close() error {
	var err error
	c.once.Do(func() {
		c.mu.Lock()
		close(c.quit)
		started := c.started
		c.mu.Unlock()

		if started {
			<-c.exited
		} else {
			close(c.exited)
		}

		// the loop is gone, this goroutine is now the only mutator
		c.stop(false)
		c.backend.Release()
		c.epoch.Add(1)
		c.bound = false

		err = c.backend.Close()
		c.hub.Close()
	})
	return err
}

// do runs fn on the loop and waits for it.
// It returns false when the loop exited before fn could run.
func (c *Controller) do(fn func()) bool {
	done := make(chan struct{})
	c.inbox.post(func() {
		defer close(done)
		fn()
	})

	select {
	case <-done:
		return true
	case <-c.exited:
		return false
	}
}

func query[T any](c *Controller, fn func() T) T {
	var v T
	c.do(func() { v = fn() })
	return v
}

// post queues an engine event tagged with the current epoch.
func (c *Controller) post(name string, fn func()) {
	epoch := c.epoch.Load()
	c.inbox.post(func() {
		if epoch != c.epoch.Load() {
			c.log.Tracef("discarding stale %s", name)
			return
		}
		fn()
	})
}

// halt stops the engine and invalidates every event it already queued.
func (c *Controller) halt() {
	if err := c.backend.Stop(); err != nil {
		c.log.Warnf("stop: %v", err)
	}
	c.epoch.Add(1)
}

func (c *Controller) transition(to playback.State) {
	if err := c.machine.Transition(to); err != nil {
		c.log.Warnf("%v", err)
	}
}

// engineEvents adapts the controller to player.Handler. Its methods run on
// engine goroutines and only post work to the loop.
type engineEvents struct {
	c *Controller
}

func (e engineEvents) OnDecoderReady() { e.c.post("decoder ready", e.c.onDecoderReady) }
func (e engineEvents) OnEndReached()   { e.c.post("end reached", e.c.onEndReached) }
func (e engineEvents) OnRestarted()    { e.c.post("restarted", e.c.onRestarted) }

func (e engineEvents) OnTimeChanged(ms int64) {
	if !e.c.seekMu.TryLock() {
		e.c.dropped.Add(1)
		return
	}
	gen := e.c.seekGen.Load()
	e.c.seekMu.Unlock()

	e.c.post("time update", func() { e.c.onTimeChanged(gen, ms) })
}

func (e engineEvents) OnFrameReady() {
	select {
	case e.c.frames <- struct{}{}:
	default:
	}
}
