package cmd

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/vplayer/vplayer/key"
)

func TestParseValue(t *testing.T) {
	Convey("Given values typed on the command line", t, func() {
		Convey("A known engine is accepted", func() {
			v, err := parseValue(key.PlayingBackend, []string{"ffmpeg"})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, "ffmpeg")
		})

		Convey("An unknown engine is refused with a suggestion", func() {
			_, err := parseValue(key.PlayingBackend, []string{"fmpeg"})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "fmpeg")
			So(err.Error(), ShouldContainSubstring, "ffmpeg")
		})

		Convey("Volumes are clamped", func() {
			v, err := parseValue(key.PlayingVolume, []string{"150"})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 100)

			v, err = parseValue(key.PlayingVolume, []string{"-3"})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 0)
		})

		Convey("A volume must be a number", func() {
			_, err := parseValue(key.PlayingVolume, []string{"loud"})
			So(err, ShouldNotBeNil)
		})

		Convey("Booleans are parsed", func() {
			v, err := parseValue(key.PlayingLoop, []string{"true"})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, true)

			_, err = parseValue(key.PlayingLoop, []string{"sometimes"})
			So(err, ShouldNotBeNil)
		})

		Convey("Log levels and icon variants are checked", func() {
			_, err := parseValue(key.LogsLevel, []string{"debug"})
			So(err, ShouldBeNil)
			_, err = parseValue(key.LogsLevel, []string{"verbose"})
			So(err, ShouldNotBeNil)
			_, err = parseValue(key.IconsVariant, []string{"nerd"})
			So(err, ShouldBeNil)
		})

		Convey("Lists keep every word", func() {
			v, err := parseValue(key.PlayingArguments, []string{"--hwdec=auto", "--mute"})
			So(err, ShouldBeNil)
			So(v, ShouldResemble, []string{"--hwdec=auto", "--mute"})
		})

		Convey("Free strings are not checked", func() {
			v, err := parseValue(key.PlayingMPVBinary, []string{"/opt/mpv/bin/mpv"})
			So(err, ShouldBeNil)
			So(v, ShouldEqual, "/opt/mpv/bin/mpv")
		})

		Convey("Unknown keys and missing values fail", func() {
			_, err := parseValue("playing.volum", []string{"3"})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, key.PlayingVolume)

			_, err = parseValue(key.PlayingVolume, nil)
			So(err, ShouldNotBeNil)
		})
	})
}
