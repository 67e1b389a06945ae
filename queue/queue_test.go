package queue

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestQueue(t *testing.T) {
	Convey("Given a queue of three items", t, func() {
		q := New()
		changes := 0
		q.SetOnChange(func() { changes++ })
		q.Set([]string{"/m/1.mkv", "/m/2.mkv", "/m/3.mkv"})

		Convey("The cursor starts before the first item", func() {
			index, size := q.Position()
			So(index, ShouldEqual, -1)
			So(size, ShouldEqual, 3)
			So(q.Current().IsAbsent(), ShouldBeTrue)
			So(changes, ShouldEqual, 1)
		})

		Convey("Next walks the items and stops at the end", func() {
			So(q.Next().MustGet(), ShouldEqual, "/m/1.mkv")
			So(q.Next().MustGet(), ShouldEqual, "/m/2.mkv")
			So(q.Next().MustGet(), ShouldEqual, "/m/3.mkv")
			So(q.Next().IsAbsent(), ShouldBeTrue)
			So(q.Current().IsAbsent(), ShouldBeTrue)

			Convey("Prev returns to the last item", func() {
				So(q.Prev().MustGet(), ShouldEqual, "/m/3.mkv")
			})
		})

		Convey("Repeat wraps around", func() {
			q.SetRepeat(RepeatAll)
			q.Next()
			q.Next()
			q.Next()
			So(q.Next().MustGet(), ShouldEqual, "/m/1.mkv")
		})

		Convey("Prev stops at the first item", func() {
			q.Next()
			So(q.Prev().MustGet(), ShouldEqual, "/m/1.mkv")
			So(q.Prev().MustGet(), ShouldEqual, "/m/1.mkv")
		})

		Convey("Append keeps the cursor", func() {
			q.Next()
			q.Append("/m/4.mkv")
			So(q.Current().MustGet(), ShouldEqual, "/m/1.mkv")
			So(q.Items(), ShouldHaveLength, 4)
		})

		Convey("Shuffle keeps played items in place", func() {
			q.Next()
			q.Shuffle()
			So(q.Items()[0], ShouldEqual, "/m/1.mkv")
			So(q.Items(), ShouldContain, "/m/3.mkv")
			So(q.Current().MustGet(), ShouldEqual, "/m/1.mkv")
		})

		Convey("Clear empties it", func() {
			q.Next()
			q.Clear()
			So(q.Next().IsAbsent(), ShouldBeTrue)
			So(q.Items(), ShouldBeEmpty)
		})
	})
}
