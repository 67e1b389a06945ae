package player

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/hajimehoshi/oto/v2"
)

const (
	sampleRate     = 44100
	channelCount   = 2
	bytesPerSample = 2

	// about 100ms of audio; writers block beyond it so decoding follows playback
	maxAudioBuffer = sampleRate * channelCount * bytesPerSample / 10
)

// AudioSink plays signed 16-bit little-endian stereo PCM at 44.1kHz.
type AudioSink interface {
	io.Writer
	Pause()
	Resume()
	// Reset drops buffered samples.
	Reset()
	// SetVolume takes a gain in [0,1].
	SetVolume(v float64)
	Close() error
}

var (
	otoOnce    sync.Once
	otoContext *oto.Context
	otoErr     error
)

// sharedContext creates the process-wide oto context; oto allows only one.
func sharedContext() (*oto.Context, error) {
	otoOnce.Do(func() {
		ctx, ready, err := oto.NewContext(sampleRate, channelCount, bytesPerSample)
		if err != nil {
			otoErr = fmt.Errorf("create oto context: %w", err)
			return
		}
		<-ready
		otoContext = ctx
	})
	return otoContext, otoErr
}

// otoSink feeds an oto player from an in-memory buffer.
type otoSink struct {
	mu     sync.Mutex
	cond   *sync.Cond
	player oto.Player
	buffer bytes.Buffer
	paused bool
	closed bool
}

func newOtoSink() (*otoSink, error) {
	ctx, err := sharedContext()
	if err != nil {
		return nil, err
	}

	s := &otoSink{}
	s.cond = sync.NewCond(&s.mu)
	s.player = ctx.NewPlayer(s)
	return s, nil
}

// Read is called by oto. It blocks while paused and plays silence on underrun.
func (s *otoSink) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for s.paused && !s.closed {
		s.cond.Wait()
	}
	if s.closed {
		return 0, io.EOF
	}

	if s.buffer.Len() == 0 {
		clear(p)
		return len(p), nil
	}
	return s.buffer.Read(p)
}

func (s *otoSink) Write(data []byte) (int, error) {
	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return 0, io.ErrClosedPipe
		}
		if s.buffer.Len() < maxAudioBuffer {
			break
		}
		s.mu.Unlock()
		time.Sleep(10 * time.Millisecond)
	}
	n, err := s.buffer.Write(data)
	paused := s.paused
	s.mu.Unlock()

	// player calls happen unlocked since oto may be inside Read
	if !paused && !s.player.IsPlaying() {
		s.player.Play()
	}
	return n, err
}

func (s *otoSink) Pause() {
	s.mu.Lock()
	s.paused = true
	s.mu.Unlock()

	if s.player.IsPlaying() {
		s.player.Pause()
	}
}

func (s *otoSink) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.paused = false
	s.cond.Broadcast()
}

func (s *otoSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffer.Reset()
}

func (s *otoSink) SetVolume(v float64) {
	s.player.SetVolume(v)
}

func (s *otoSink) Close() error {
	s.mu.Lock()
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()
	return s.player.Close()
}
