package util

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestQuantify(t *testing.T) {
	Convey("Quantify", t, func() {
		So(Quantify(1, "track", "tracks"), ShouldEqual, "1 track")
		So(Quantify(2, "track", "tracks"), ShouldEqual, "2 tracks")
	})
}

func TestCapitalize(t *testing.T) {
	Convey("Capitalize", t, func() {
		So(Capitalize("hello"), ShouldEqual, "Hello")
		So(Capitalize(""), ShouldEqual, "")
	})
}

func TestFileStem(t *testing.T) {
	Convey("FileStem", t, func() {
		So(FileStem("path/to/movie.mkv"), ShouldEqual, "movie")
		So(FileStem("movie"), ShouldEqual, "movie")
	})
}

func TestElideMiddle(t *testing.T) {
	Convey("ElideMiddle", t, func() {
		Convey("Short strings are untouched", func() {
			So(ElideMiddle("movie.srt", 20), ShouldEqual, "movie.srt")
		})

		Convey("Long strings keep both ends", func() {
			out := ElideMiddle("a-very-long-subtitle-name.en.srt", 12)
			So(len([]rune(out)), ShouldEqual, 12)
			So(out, ShouldStartWith, "a-ve")
			So(out, ShouldEndWith, ".srt")
			So(out, ShouldContainSubstring, "...")
		})
	})
}

func TestFormatMillis(t *testing.T) {
	Convey("FormatMillis", t, func() {
		So(FormatMillis(-1), ShouldEqual, "--:--")
		So(FormatMillis(0), ShouldEqual, "0:00")
		So(FormatMillis(61_500), ShouldEqual, "1:01")
		So(FormatMillis(3_723_000), ShouldEqual, "1:02:03")
	})
}
