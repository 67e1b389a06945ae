package session

import (
	"context"
	"sync"
	"testing"

	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/vplayer/vplayer/playback"
	"github.com/vplayer/vplayer/player"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func isMediaChanged(ev Event) bool {
	_, ok := ev.(MediaChanged)
	return ok
}

func isReach(ev Event) bool {
	_, ok := ev.(Reach)
	return ok
}

func isDecoded(ev Event) bool {
	_, ok := ev.(Decoded)
	return ok
}

func start(c *Controller) func() {
	ctx, cancel := context.WithCancel(context.Background())
	ran := make(chan error, 1)
	go func() { ran <- c.Run(ctx) }()
	return func() {
		_ = c.Close()
		cancel()
		<-ran
	}
}

func TestController(t *testing.T) {
	Convey("Given a controller over a fake engine", t, func() {
		backend := newFakeBackend()
		provider := &aspectProvider{}
		queue := &fakeQueue{}

		var (
			mu       sync.Mutex
			recorded []string
		)
		c := New(backend, Options{
			Volume:   70,
			Subtitle: true,
			Provider: provider,
			Queue:    queue,
			Recorder: func(path string) error {
				mu.Lock()
				defer mu.Unlock()
				recorded = append(recorded, path)
				return nil
			},
		})
		w := watch(c)
		Reset(start(c))

		// flush waits until everything posted so far went through the loop
		flush := func() { c.Media() }

		Convey("Commands without media are no-ops", func() {
			c.Play()
			c.SetTime(10)
			c.SetVolume(20)
			c.AddSubtitle("/m/a.srt")

			So(c.State(), ShouldEqual, playback.Stop)
			So(c.Time(), ShouldEqual, -1)
			So(c.Duration(), ShouldEqual, -1)
			So(c.Volume(), ShouldEqual, 0)
			So(c.Media(), ShouldBeEmpty)
			So(backend.called("start"), ShouldEqual, 0)
		})

		Convey("When a media is bound", func() {
			c.SetMedia("/m/a.mkv", true)

			Convey("It is published once and recorded", func() {
				So(c.Media(), ShouldEqual, "/m/a.mkv")
				So(c.Duration(), ShouldEqual, 60_000)
				So(w.saw(MediaChanged{Path: "/m/a.mkv"}), ShouldBeTrue)
				So(w.countOf(isMediaChanged), ShouldEqual, 1)
				So(c.State(), ShouldEqual, playback.Stop)

				mu.Lock()
				defer mu.Unlock()
				So(recorded, ShouldResemble, []string{"/m/a.mkv"})
			})

			Convey("A rejected path publishes an empty media", func() {
				c.SetMedia("/missing", true)

				So(c.Media(), ShouldBeEmpty)
				So(w.saw(MediaChanged{}), ShouldBeTrue)
				So(w.countOf(isMediaChanged), ShouldEqual, 2)

				c.Play()
				So(backend.called("start"), ShouldEqual, 0)
			})

			Convey("Play waits for the decoder before leaving Stop", func() {
				c.Play()
				So(backend.called("start"), ShouldEqual, 1)
				So(c.State(), ShouldEqual, playback.Stop)
				So(c.Time(), ShouldEqual, -1)

				backend.fire(func(h player.Handler) { h.OnDecoderReady() })
				flush()

				So(c.State(), ShouldEqual, playback.Play)
				So(w.saw(Begin{}), ShouldBeTrue)
				So(w.states(), ShouldResemble, []string{"play"})
				So(provider.get(), ShouldEqual, 1.5)
				So(backend.called("volume 70"), ShouldEqual, 1)
				So(c.Volume(), ShouldEqual, 70)

				subs := c.Tracks(player.Subtitle)
				So(subs, ShouldHaveLength, 2)
				So(subs[0].ID, ShouldEqual, player.DisabledTrack)
				So(subs[0].Selected, ShouldBeFalse)
				So(subs[1].Selected, ShouldBeTrue)
				So(c.Tracks(player.Audio|player.Video), ShouldHaveLength, 3)

				Convey("Play toggles pause", func() {
					c.Play()
					So(c.State(), ShouldEqual, playback.Pause)
					c.Play()
					So(c.State(), ShouldEqual, playback.Play)
					So(backend.called("pause"), ShouldEqual, 2)
				})

				Convey("A restart refreshes the pixel aspect", func() {
					backend.mu.Lock()
					backend.aspect = 2
					backend.mu.Unlock()

					backend.fire(func(h player.Handler) { h.OnRestarted() })
					flush()
					So(provider.get(), ShouldEqual, 2)
					So(c.State(), ShouldEqual, playback.Play)
				})

				Convey("Time updates are published", func() {
					backend.fire(func(h player.Handler) { h.OnTimeChanged(1234) })
					So(w.saw(TimeChanged{Time: 1234}), ShouldBeTrue)
				})

				Convey("Seeks are clamped to the media", func() {
					c.SetTime(-50)
					So(c.Time(), ShouldEqual, 0)
					So(w.saw(Jumped{Time: 0}), ShouldBeTrue)

					c.SetTime(75_000)
					So(c.Time(), ShouldEqual, 60_000)
					So(backend.called("seek 60000"), ShouldEqual, 1)
					So(c.State(), ShouldEqual, playback.Play)
				})

				Convey("Volume is clamped", func() {
					c.SetVolume(150)
					So(c.Volume(), ShouldEqual, 100)
					c.SetVolume(-3)
					So(c.Volume(), ShouldEqual, 0)
					So(w.saw(VolumeChanged{Volume: 100}), ShouldBeTrue)
				})

				Convey("Seeking to the duration without loop stops", func() {
					c.SetTime(60_000)

					So(c.State(), ShouldEqual, playback.Stop)
					So(w.saw(Reach{Manually: false}), ShouldBeTrue)
					So(queue.count(), ShouldEqual, 0)
					So(c.Time(), ShouldEqual, -1)
					So(c.Tracks(player.AllTracks), ShouldBeEmpty)
				})

				Convey("With loop enabled the end restarts the media", func() {
					c.SetLoop(true)
					backend.fire(func(h player.Handler) { h.OnEndReached() })
					flush()

					So(c.State(), ShouldEqual, playback.Loop)
					So(backend.called("start"), ShouldEqual, 2)
					So(w.saw(Jumped{Time: 0}), ShouldBeTrue)

					Convey("Play is ignored until the restart is confirmed", func() {
						c.Play()
						So(c.State(), ShouldEqual, playback.Loop)
						So(backend.called("pause"), ShouldEqual, 0)
					})

					Convey("The first time update confirms it", func() {
						backend.fire(func(h player.Handler) { h.OnDecoderReady() })
						backend.fire(func(h player.Handler) { h.OnTimeChanged(40) })
						flush()

						So(c.State(), ShouldEqual, playback.Play)
						So(w.saw(TimeChanged{Time: 40}), ShouldBeTrue)
						So(w.states(), ShouldResemble, []string{"play", "loop", "play"})
						So(w.count(Begin{}), ShouldEqual, 1)
						So(backend.called("volume 70"), ShouldEqual, 2)
						So(backend.called("select subtitle 1"), ShouldEqual, 1)
					})

					Convey("A restart acknowledgement confirms it", func() {
						backend.fire(func(h player.Handler) { h.OnRestarted() })
						flush()
						So(c.State(), ShouldEqual, playback.Play)
					})
				})

				Convey("A volume set during playback lasts through a loop but not into the next media", func() {
					c.SetVolume(30)
					c.SetLoop(true)
					backend.fire(func(h player.Handler) { h.OnEndReached() })
					backend.fire(func(h player.Handler) { h.OnTimeChanged(10) })
					flush()

					So(c.State(), ShouldEqual, playback.Play)
					So(backend.called("volume 30"), ShouldEqual, 2)
					So(c.Volume(), ShouldEqual, 30)

					c.SetMedia("/m/b.mkv", true)
					c.Play()
					backend.fire(func(h player.Handler) { h.OnDecoderReady() })
					flush()

					So(c.State(), ShouldEqual, playback.Play)
					So(c.Volume(), ShouldEqual, 70)
					So(backend.called("volume 70"), ShouldEqual, 2)
					So(w.saw(VolumeChanged{Volume: 70}), ShouldBeTrue)
				})

				Convey("Seeking to the duration with loop enabled restarts the media", func() {
					c.SetLoop(true)
					c.SetTime(60_000)

					So(c.State(), ShouldEqual, playback.Loop)
					So(backend.called("start"), ShouldEqual, 2)
					So(w.saw(Jumped{Time: 0}), ShouldBeTrue)
					So(w.countOf(isReach), ShouldEqual, 0)

					backend.fire(func(h player.Handler) { h.OnTimeChanged(15) })
					flush()
					So(c.State(), ShouldEqual, playback.Play)
					So(eventually(func() bool { return len(w.states()) == 3 }), ShouldBeTrue)
					So(w.states(), ShouldResemble, []string{"play", "loop", "play"})
				})

				Convey("Seeking to the duration while paused with loop enabled rewinds", func() {
					c.SetLoop(true)
					c.Play()
					c.SetTime(60_000)

					So(c.State(), ShouldEqual, playback.Pause)
					So(backend.called("seek 0"), ShouldEqual, 1)
					So(w.saw(Jumped{Time: 0}), ShouldBeTrue)
					So(w.countOf(isReach), ShouldEqual, 0)
					So(c.Media(), ShouldEqual, "/m/a.mkv")
				})

				Convey("Ending while paused stops even when looping", func() {
					c.SetLoop(true)
					c.Play()
					backend.fire(func(h player.Handler) { h.OnEndReached() })
					flush()

					So(c.State(), ShouldEqual, playback.Stop)
					So(w.saw(Reach{Manually: false}), ShouldBeTrue)
				})

				Convey("Engine events queued before a halt are discarded", func() {
					c.SetLoop(true)
					entered := make(chan struct{})
					release := make(chan struct{})
					done := make(chan struct{})
					go func() {
						defer close(done)
						c.do(func() {
							close(entered)
							<-release
							c.halt()
						})
					}()

					<-entered
					backend.fire(func(h player.Handler) { h.OnEndReached() })
					close(release)
					<-done
					flush()

					So(c.State(), ShouldEqual, playback.Play)
					So(backend.called("start"), ShouldEqual, 1)
				})

				Convey("Time updates raised during a seek are dropped", func() {
					backend.mu.Lock()
					backend.fireOnSeek = true
					backend.mu.Unlock()

					c.SetTime(5000)
					flush()

					So(c.dropped.Load(), ShouldEqual, 1)
					So(w.saw(Jumped{Time: 5000}), ShouldBeTrue)
					So(w.count(TimeChanged{Time: 5000}), ShouldEqual, 0)
				})

				Convey("Time updates from before a seek are discarded", func() {
					gen := c.seekGen.Load()
					c.SetTime(5000)
					c.do(func() { c.onTimeChanged(gen, 10) })
					c.do(func() { c.onTimeChanged(c.seekGen.Load(), 20) })

					So(w.saw(TimeChanged{Time: 20}), ShouldBeTrue)
					So(w.count(TimeChanged{Time: 10}), ShouldEqual, 0)
				})

				Convey("Known tracks can be selected", func() {
					c.SelectTrack(player.Audio, 2)
					c.SelectTrack(player.Audio, 9)

					selected, ok := lo.Find(c.Tracks(player.Audio), func(t player.Track) bool { return t.Selected })
					So(ok, ShouldBeTrue)
					So(selected.ID, ShouldEqual, 2)
					So(backend.called("select audio 9"), ShouldEqual, 0)
				})

				Convey("Subtitles can be turned off", func() {
					c.SelectTrack(player.Subtitle, player.DisabledTrack)
					subs := c.Tracks(player.Subtitle)
					So(subs[0].Selected, ShouldBeTrue)
					So(subs[1].Selected, ShouldBeFalse)
				})

				Convey("A manual stop clears the queue once", func() {
					c.Stop(true)
					c.Stop(false)
					c.Stop(true)

					So(c.State(), ShouldEqual, playback.Stop)
					So(queue.count(), ShouldEqual, 1)
					So(backend.called("stop"), ShouldEqual, 1)
					So(w.saw(Reach{Manually: true}), ShouldBeTrue)
					So(w.countOf(isReach), ShouldEqual, 1)
				})

				Convey("Binding another media stops without touching the queue", func() {
					c.SetMedia("/m/b.mkv", false)

					So(c.Media(), ShouldEqual, "/m/b.mkv")
					So(c.State(), ShouldEqual, playback.Stop)
					So(backend.called("release"), ShouldEqual, 1)
					So(queue.count(), ShouldEqual, 0)
					So(w.saw(Reach{Manually: false, Replaced: true}), ShouldBeTrue)
					So(w.countOf(isReach), ShouldEqual, 1)
				})

				Convey("Frames are announced", func() {
					for i := 0; i < 3; i++ {
						backend.fire(func(h player.Handler) { h.OnFrameReady() })
					}
					So(eventually(func() bool { return w.countOf(isDecoded) > 0 }), ShouldBeTrue)
				})
			})

			Convey("An added subtitle brings the Disable entry along", func() {
				backend.mu.Lock()
				backend.tracks = lo.Reject(backend.tracks, func(t player.Track, _ int) bool {
					return t.Kind == player.Subtitle
				})
				backend.mu.Unlock()

				c.Play()
				backend.fire(func(h player.Handler) { h.OnDecoderReady() })
				flush()
				So(c.Tracks(player.Subtitle), ShouldBeEmpty)

				c.AddSubtitle("/m/extra/commentary.srt")

				subs := c.Tracks(player.Subtitle)
				So(subs, ShouldHaveLength, 2)
				So(subs[0].ID, ShouldEqual, player.DisabledTrack)
				So(subs[0].Label, ShouldEqual, DisableLabel)
				So(subs[0].Selected, ShouldBeFalse)
				So(subs[1].ID, ShouldEqual, 1001)
				So(subs[1].Label, ShouldEqual, "commentary.srt")
				So(subs[1].Selected, ShouldBeTrue)
				So(w.saw(TracksChanged{}), ShouldBeTrue)
			})
		})
	})
}

func TestOptions(t *testing.T) {
	Convey("Given a controller that plays immediately with subtitles off", t, func() {
		backend := newFakeBackend()
		c := New(backend, Options{Immediate: true, Volume: 250})
		Reset(start(c))

		c.SetMedia("/m/a.mkv", true)
		So(backend.called("start"), ShouldEqual, 1)

		backend.fire(func(h player.Handler) { h.OnDecoderReady() })
		c.Media()

		Convey("Subtitles are disabled on begin", func() {
			So(backend.called("select subtitle -1"), ShouldEqual, 1)
			subs := c.Tracks(player.Subtitle)
			So(subs[0].ID, ShouldEqual, player.DisabledTrack)
			So(subs[0].Selected, ShouldBeTrue)
		})

		Convey("The configured volume is clamped", func() {
			So(c.Volume(), ShouldEqual, 100)
		})
	})
}

func TestLifecycle(t *testing.T) {
	Convey("Given a controller", t, func() {
		backend := newFakeBackend()
		c := New(backend, Options{})

		Convey("It closes without ever running", func() {
			So(c.Close(), ShouldBeNil)
			So(backend.closed, ShouldBeTrue)

			c.Play()
			So(c.Media(), ShouldBeEmpty)
			So(c.Run(context.Background()), ShouldBeNil)
		})

		Convey("Run refuses a second loop", func() {
			stop := start(c)
			defer stop()

			So(eventually(func() bool {
				c.mu.Lock()
				defer c.mu.Unlock()
				return c.started
			}), ShouldBeTrue)
			So(c.Run(context.Background()), ShouldEqual, ErrRunning)
		})

		Convey("Close stops playback and releases the media", func() {
			stop := start(c)
			c.SetMedia("/m/a.mkv", true)
			c.Play()
			backend.fire(func(h player.Handler) { h.OnDecoderReady() })
			c.Media()
			So(c.State(), ShouldEqual, playback.Play)

			stop()
			So(c.State(), ShouldEqual, playback.Stop)
			So(backend.called("release"), ShouldEqual, 1)
			So(backend.closed, ShouldBeTrue)
		})

		Convey("Closing twice is harmless", func() {
			So(c.Close(), ShouldBeNil)
			So(c.Close(), ShouldBeNil)
		})
	})
}
