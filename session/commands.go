package session

import (
	"path/filepath"

	"github.com/samber/lo"
	"github.com/vplayer/vplayer/playback"
	"github.com/vplayer/vplayer/player"
	"github.com/vplayer/vplayer/util"
)

const labelWidth = 40

// Play starts a stopped media or toggles pause.
func (c *Controller) Play() {
	c.do(c.play)
}

// Stop halts playback. A manual stop also clears the queue.
func (c *Controller) Stop(manually bool) {
	c.do(func() { c.stop(manually) })
}

// State is safe to call from any goroutine without going through the loop.
func (c *Controller) State() playback.State {
	return c.machine.Current()
}

// SetTime seeks to pos milliseconds. Seeking to the duration ends the media.
func (c *Controller) SetTime(pos int64) {
	c.do(func() { c.setTime(pos) })
}

// Time is the playback position, -1 while stopped.
func (c *Controller) Time() int64 {
	return query(c, func() int64 {
		if !c.bound || c.machine.Is(playback.Stop) {
			return -1
		}
		return c.backend.Time()
	})
}

// SetMedia binds path, emitting exactly one MediaChanged.
func (c *Controller) SetMedia(path string, manually bool) {
	c.do(func() { c.setMedia(path, manually) })
}

// Media is the bound media path, empty when nothing is bound.
func (c *Controller) Media() string {
	return query(c, func() string { return c.media })
}

// Duration in milliseconds, -1 while unknown.
func (c *Controller) Duration() int64 {
	return query(c, func() int64 {
		if !c.bound {
			return -1
		}
		return c.backend.Duration()
	})
}

// AddSubtitle loads an external subtitle file and selects it.
func (c *Controller) AddSubtitle(path string) {
	c.do(func() { c.addSubtitle(path) })
}

// SetVolume applies v clamped to [0,100].
func (c *Controller) SetVolume(v int) {
	c.do(func() { c.setVolume(v) })
}

// Volume is the engine volume, 0 when nothing is bound.
func (c *Controller) Volume() int {
	return query(c, func() int {
		if !c.bound {
			return 0
		}
		return c.backend.Volume()
	})
}

// Tracks lists the entries of every kind in mask, in menu order.
func (c *Controller) Tracks(mask player.TrackKind) []player.Track {
	return query(c, func() []player.Track {
		var out []player.Track
		for _, kind := range player.Kinds {
			if mask&kind != 0 {
				out = append(out, c.tracks[kind].List()...)
			}
		}
		return out
	})
}

// SelectTrack switches the active track of kind. Unknown ids are ignored.
func (c *Controller) SelectTrack(kind player.TrackKind, id int) {
	c.do(func() { c.selectTrack(kind, id) })
}

// Loop reports whether an ended media restarts.
func (c *Controller) Loop() bool {
	return c.loop.Load()
}

func (c *Controller) SetLoop(loop bool) {
	c.loop.Store(loop)
}

func (c *Controller) play() {
	if !c.bound {
		return
	}

	switch c.machine.Current() {
	case playback.Stop:
		// the transition happens once the decoder is ready
		if err := c.backend.Start(); err != nil {
			c.log.Errorf("start: %v", err)
		}
	case playback.Play, playback.Pause:
		if err := c.backend.TogglePause(); err != nil {
			c.log.Errorf("pause: %v", err)
			return
		}
		if err := c.machine.Toggle(); err != nil {
			c.log.Warnf("%v", err)
		}
	case playback.Loop:
		c.log.Debugf("play ignored while restarting")
	}
}

func (c *Controller) stop(manually bool) {
	c.end(Reach{Manually: manually})
}

// end stops playback and publishes reach.
func (c *Controller) end(reach Reach) {
	if !c.bound || c.machine.Is(playback.Stop) {
		return
	}

	c.halt()
	c.transition(playback.Stop)
	c.clearTracks()

	if reach.Manually && c.opts.Queue != nil {
		c.opts.Queue.Clear()
	}

	c.hub.Publish(reach)
}

func (c *Controller) setTime(pos int64) {
	if !c.bound || c.machine.Is(playback.Stop) {
		return
	}

	duration := c.backend.Duration()
	if duration >= 0 && pos >= duration {
		switch {
		case pos > duration:
			pos = duration
		case c.loop.Load() && c.machine.Is(playback.Pause):
			// paused media rewinds and stays paused
			pos = 0
		default:
			c.endOfStream()
			return
		}
	}
	pos = max(pos, 0)

	c.seekMu.Lock()
	defer c.seekMu.Unlock()

	c.seekGen.Add(1)
	c.hub.Publish(Jumped{Time: pos})
	if err := c.backend.Seek(pos); err != nil {
		c.log.Warnf("seek %d: %v", pos, err)
	}
}

func (c *Controller) setMedia(path string, manually bool) {
	c.end(Reach{Manually: manually, Replaced: true})
	if c.bound {
		c.backend.Release()
		c.epoch.Add(1)
	}
	c.bound = false
	c.media = ""

	result := c.backend.SetMedia(path)
	media, err := result.Get()
	if err != nil {
		c.log.Errorf("%v", err)
		c.hub.Publish(MediaChanged{})
		return
	}

	c.bound = true
	c.media = media.Path
	c.log.Infof("media %s", media.Path)
	c.hub.Publish(MediaChanged{Path: media.Path})

	if c.opts.Recorder != nil {
		if err := c.opts.Recorder(media.Path); err != nil {
			c.log.Warnf("history: %v", err)
		}
	}

	if c.opts.Immediate {
		c.play()
	}
}

func (c *Controller) addSubtitle(path string) {
	if !c.bound {
		return
	}

	track, err := c.backend.AddSubtitle(path)
	if err != nil {
		c.log.Errorf("%v", err)
		return
	}

	track.Label = util.ElideMiddle(filepath.Base(path), labelWidth)
	subs := c.tracks[player.Subtitle]
	subs.Add(track)
	subs.Select(track.ID)
	c.hub.Publish(TracksChanged{})
}

func (c *Controller) setVolume(v int) {
	if !c.bound {
		return
	}

	v = clampVolume(v)
	if err := c.backend.SetVolume(v); err != nil {
		c.log.Warnf("volume: %v", err)
		return
	}
	c.volume = v
	c.hub.Publish(VolumeChanged{Volume: v})
}

func (c *Controller) selectTrack(kind player.TrackKind, id int) {
	set, ok := c.tracks[kind]
	if !ok || !c.bound {
		return
	}
	if !set.Has(id) {
		c.log.Warnf("%v: no %s track %d", player.ErrTrackSelection, kind, id)
		return
	}
	if err := c.backend.SelectTrack(kind, id); err != nil {
		c.log.Warnf("%v", err)
		return
	}
	set.Select(id)
	c.hub.Publish(TracksChanged{})
}

func (c *Controller) clearTracks() {
	for _, set := range c.tracks {
		set.Clear()
	}
	c.hub.Publish(TracksChanged{})
}

func clampVolume(v int) int {
	return lo.Clamp(v, 0, 100)
}
