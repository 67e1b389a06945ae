package player

import (
	"errors"
	"testing"
	"time"

	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/vplayer/vplayer/filesystem"
)

func init() {
	filesystem.SetMemMapFs()
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestIPC(t *testing.T) {
	Convey("Given an mpv socket", t, func() {
		server := newFakeMPV(t)
		server.set("pid", 42.0)

		Convey("Replies are matched by request id past interleaved events", func() {
			data, err := doSendCommand(server.path, 99, []any{"get_property", "pid"})
			So(err, ShouldBeNil)
			So(data, ShouldEqual, 42.0)
		})

		Convey("Unavailable properties map to a sentinel", func() {
			server.fail("duration", "property unavailable")
			_, err := doSendCommand(server.path, 5, []any{"get_property", "duration"})
			So(errors.Is(err, errUnavailable), ShouldBeTrue)
		})

		Convey("Other errors are reported", func() {
			server.fail("bogus", "invalid parameter")
			_, err := doSendCommand(server.path, 6, []any{"get_property", "bogus"})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "invalid parameter")
		})

		Convey("A missing socket is a dial error", func() {
			_, err := doSendCommand(server.path+".missing", 1, []any{"get_property", "pid"})
			So(errors.Is(err, errDial), ShouldBeTrue)
		})
	})
}

func TestMPV(t *testing.T) {
	Convey("Given an mpv backend attached to a fake engine", t, func() {
		server := newFakeMPV(t)
		m := newMPV(server.path)
		So(m.listen(), ShouldBeNil)
		defer m.listener.Stop()
		So(eventually(server.watching), ShouldBeTrue)

		rec := &recorder{}
		m.SetHandler(rec)

		So(filesystem.API().WriteFile("/media/clip.mkv", []byte("x"), 0o644), ShouldBeNil)

		Convey("Binding a missing file fails with a bind error", func() {
			res := m.SetMedia("/media/missing.mkv")
			So(res.IsError(), ShouldBeTrue)
			So(errors.Is(res.Error(), ErrMediaBind), ShouldBeTrue)
			So(m.Duration(), ShouldEqual, -1)
		})

		Convey("Binding a directory fails", func() {
			So(m.SetMedia("/media").IsError(), ShouldBeTrue)
		})

		Convey("Commands without media are no-ops", func() {
			So(errors.Is(m.Start(), ErrNoMedia), ShouldBeTrue)
			So(errors.Is(m.Seek(10), ErrNoMedia), ShouldBeTrue)
			So(server.sent("loadfile"), ShouldBeEmpty)
		})

		Convey("When a file is bound", func() {
			res := m.SetMedia("/media/clip.mkv")
			So(res.IsOk(), ShouldBeTrue)
			So(res.MustGet().Path, ShouldEqual, "/media/clip.mkv")

			Convey("Start loads it and unpauses", func() {
				So(m.Start(), ShouldBeNil)
				loads := server.sent("loadfile")
				So(loads, ShouldHaveLength, 1)
				So(loads[0][1], ShouldEqual, "/media/clip.mkv")
				So(server.prop("pause"), ShouldEqual, false)
			})

			Convey("Engine events reach the handler", func() {
				So(m.Start(), ShouldBeNil)
				server.emit(`{"event":"file-loaded"}`)
				server.emit(`{"event":"property-change","id":1,"name":"duration","data":12.5}`)
				server.emit(`{"event":"property-change","id":2,"name":"time-pos","data":1.5}`)
				server.emit(`{"event":"playback-restart"}`)

				So(eventually(func() bool { return rec.count("restarted") == 1 }), ShouldBeTrue)
				So(rec.count("ready"), ShouldEqual, 1)
				So(rec.lastTime(), ShouldEqual, 1500)
				So(m.Time(), ShouldEqual, 1500)
				So(m.Duration(), ShouldEqual, 12500)
			})

			Convey("End of file is reported once", func() {
				So(m.Start(), ShouldBeNil)
				server.emit(`{"event":"property-change","id":4,"name":"eof-reached","data":true}`)
				server.emit(`{"event":"end-file","reason":"eof"}`)
				server.emit(`{"event":"playback-restart"}`)
				So(eventually(func() bool { return rec.count("restarted") == 1 }), ShouldBeTrue)
				So(rec.count("end"), ShouldEqual, 1)
			})

			Convey("Seek is absolute in seconds and updates the position", func() {
				So(m.Seek(2500), ShouldBeNil)
				seeks := server.sent("seek")
				So(seeks, ShouldHaveLength, 1)
				So(seeks[0][1], ShouldEqual, 2.5)
				So(m.Time(), ShouldEqual, 2500)
			})

			Convey("Volume is clamped", func() {
				So(m.SetVolume(140), ShouldBeNil)
				So(m.Volume(), ShouldEqual, 100)
				So(m.SetVolume(-3), ShouldBeNil)
				So(m.Volume(), ShouldEqual, 0)
			})

			Convey("Tracks are parsed and selectable", func() {
				server.set("track-list", []any{
					map[string]any{"id": 1.0, "type": "video", "codec": "h264", "selected": true},
					map[string]any{"id": 1.0, "type": "audio", "lang": "eng", "title": "Stereo", "selected": true},
					map[string]any{"id": 2.0, "type": "audio", "lang": "jpn"},
					map[string]any{"id": 1.0, "type": "sub", "lang": "eng"},
				})

				audio := m.Tracks(Audio)
				So(audio, ShouldHaveLength, 2)
				So(audio[0].Label, ShouldEqual, "#1 [eng] Stereo")
				So(audio[0].Selected, ShouldBeTrue)
				So(m.Tracks(Video|Subtitle), ShouldHaveLength, 2)

				So(m.SelectTrack(Audio, 2), ShouldBeNil)
				So(server.prop("aid"), ShouldEqual, 2.0)

				err := m.SelectTrack(Audio, 9)
				So(errors.Is(err, ErrTrackSelection), ShouldBeTrue)

				So(m.SelectTrack(Subtitle, DisabledTrack), ShouldBeNil)
				So(server.prop("sid"), ShouldEqual, "no")
			})

			Convey("An added subtitle is found by its file name", func() {
				So(filesystem.API().WriteFile("/media/clip.srt", []byte("1"), 0o644), ShouldBeNil)
				server.set("track-list", []any{
					map[string]any{"id": 3.0, "type": "sub", "external-filename": "/media/clip.srt", "selected": true},
				})
				track, err := m.AddSubtitle("/media/clip.srt")
				So(err, ShouldBeNil)
				So(track.ID, ShouldEqual, 3)
				So(server.sent("sub-add"), ShouldHaveLength, 1)
			})

			Convey("The pixel aspect is read from the video parameters", func() {
				server.set("video-params", map[string]any{"par": 1.25})
				So(m.PixelAspect(), ShouldEqual, 1.25)
			})

			Convey("The pixel aspect is square until the video output is configured", func() {
				So(m.PixelAspect(), ShouldEqual, 1)

				server.emit(`{"event":"property-change","id":5,"name":"video-params","data":{"par":0.9}}`)
				So(eventually(func() bool { return m.PixelAspect() == 0.9 }), ShouldBeTrue)

				Convey("And a release forgets the observed value", func() {
					m.Release()
					So(m.PixelAspect(), ShouldEqual, 1)
				})
			})

			Convey("Release stops a loaded file and silences ticks", func() {
				So(m.Start(), ShouldBeNil)
				m.Release()
				So(server.sent("stop"), ShouldHaveLength, 1)

				server.emit(`{"event":"property-change","id":2,"name":"time-pos","data":3.0}`)
				server.emit(`{"event":"playback-restart"}`)
				So(eventually(func() bool { return rec.count("restarted") == 1 }), ShouldBeTrue)
				So(rec.count("time"), ShouldEqual, 0)
				So(m.Duration(), ShouldEqual, -1)

				Convey("And a second release sends nothing", func() {
					m.Release()
					So(server.sent("stop"), ShouldHaveLength, 1)
				})
			})
		})
	})
}

func TestMPVArguments(t *testing.T) {
	Convey("Extra arguments follow the built-in ones", t, func() {
		args := mpvArguments("/tmp/s.sock", []string{"--hwdec=auto"})
		So(args, ShouldContain, "--input-ipc-server=/tmp/s.sock")
		So(args, ShouldContain, "--keep-open=yes")
		So(lo.IndexOf(args, "--hwdec=auto"), ShouldEqual, len(args)-1)
	})

	Convey("An unknown engine is a construction error", t, func() {
		_, err := New(Options{Engine: "vlc"})
		So(errors.Is(err, ErrEngineConstruction), ShouldBeTrue)
	})

	Convey("A missing mpv binary is a construction error", t, func() {
		_, err := NewMPV(Options{Binary: "definitely-not-mpv-binary"})
		So(errors.Is(err, ErrEngineConstruction), ShouldBeTrue)
	})
}
