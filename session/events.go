package session

import (
	"github.com/vplayer/vplayer/playback"
	"github.com/vplayer/vplayer/player"
)

func (c *Controller) onDecoderReady() {
	switch c.machine.Current() {
	case playback.Stop:
		c.transition(playback.Play)
		c.applyAspect()
		if !c.opts.Subtitle {
			if err := c.backend.SelectTrack(player.Subtitle, player.DisabledTrack); err != nil {
				c.log.Debugf("disable subtitles: %v", err)
			}
		}

		c.rebuildTracks()
		// a new media starts at the configured volume, a loop keeps the live one
		c.volume = clampVolume(c.opts.Volume)
		c.restoreVolume()
		c.hub.Publish(Begin{})
	case playback.Loop:
		// confirmed by the restart acknowledgement or the first time update
		c.log.Debugf("decoder ready, waiting for restart")
	}
}

func (c *Controller) onTimeChanged(gen uint64, ms int64) {
	if gen != c.seekGen.Load() {
		return
	}

	switch c.machine.Current() {
	case playback.Stop:
		return
	case playback.Loop:
		c.confirmRestart()
	}

	c.hub.Publish(TimeChanged{Time: ms})
}

func (c *Controller) onRestarted() {
	switch c.machine.Current() {
	case playback.Loop:
		c.confirmRestart()
	case playback.Play, playback.Pause:
		// engines may only know the video parameters once output restarted
		c.applyAspect()
	}
}

func (c *Controller) applyAspect() {
	if c.opts.Provider != nil {
		c.opts.Provider.SetPixelAspect(c.backend.PixelAspect())
	}
}

func (c *Controller) onEndReached() {
	c.endOfStream()
}

// endOfStream restarts the media when looping, otherwise stops.
func (c *Controller) endOfStream() {
	if c.machine.Is(playback.Play) && c.loop.Load() {
		c.halt()
		c.transition(playback.Loop)
		if err := c.backend.Start(); err != nil {
			c.log.Errorf("restart: %v", err)
		}
		c.hub.Publish(Jumped{Time: 0})
		return
	}

	c.stop(false)
}

// confirmRestart leaves Loop and re-applies what a restart resets.
func (c *Controller) confirmRestart() {
	c.transition(playback.Play)

	for _, kind := range player.Kinds {
		c.tracks[kind].Selected().ForEach(func(t player.Track) {
			if err := c.backend.SelectTrack(kind, t.ID); err != nil {
				c.log.Debugf("reselect %s %d: %v", kind, t.ID, err)
			}
		})
	}
	c.restoreVolume()
}

func (c *Controller) rebuildTracks() {
	for _, kind := range player.Kinds {
		c.tracks[kind].Reset(c.backend.Tracks(kind))
	}
	c.hub.Publish(TracksChanged{})
}

func (c *Controller) restoreVolume() {
	if err := c.backend.SetVolume(c.volume); err != nil {
		c.log.Debugf("volume: %v", err)
		return
	}
	c.hub.Publish(VolumeChanged{Volume: c.volume})
}
