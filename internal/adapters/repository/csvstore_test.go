package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/atdiff/internal/domain/model"
	"github.com/okian/atdiff/internal/domain/stats"
)

func record(name string, author, top, tenK int64) model.Record {
	r, err := stats.Build(model.Track{
		MapUID:       name,
		Name:         name,
		ThumbnailURL: "https://img/" + name + ".jpg",
		Times:        model.Times{AuthorMS: author, TopMS: top, TenKMS: tenK},
	})
	if err != nil {
		panic(err)
	}
	return r
}

func TestRow(t *testing.T) {
	Convey("Given the reference record", t, func() {
		r := record("X", 10_000, 9_000, 8_000)

		Convey("Then it flattens to the exported cells", func() {
			So(Row(r), ShouldResemble, []string{
				"https://img/X.jpg", "X", "10.0", "9.0", "8.0", "20.0", "10.0", "2.0", "1.0", "False",
			})
		})
	})

	Convey("Given fractional times", t, func() {
		r := record("Y", 45_123, 44_001, 47_000)
		row := Row(r)

		Convey("Then seconds keep their milliseconds", func() {
			So(row[2], ShouldEqual, "45.123")
			So(row[3], ShouldEqual, "44.001")
			So(row[7], ShouldEqual, "-1.877")
			So(row[8], ShouldEqual, "1.122")
		})
	})
}

func TestCSVStore(t *testing.T) {
	Convey("Given a store in a temp dir", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "campaign_data.csv")
		s := NewCSVStore(path)

		Convey("When loading before any export", func() {
			_, err := s.Load(ctx)
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})

		Convey("When saving and loading records", func() {
			in := []model.Record{
				record("Spring 2024 - 1", 10_000, 9_000, 8_000),
				record("Spring 2024 - 2", 30_500, 29_100, 33_000),
			}
			So(s.Save(ctx, in), ShouldBeNil)
			tb, err := s.Load(ctx)

			Convey("Then the table has the header and one row per record in order", func() {
				So(err, ShouldBeNil)
				So(tb.Columns(), ShouldResemble, Header)
				So(tb.Len(), ShouldEqual, 2)
				So(tb.Row(0), ShouldResemble, Row(in[0]))
				So(tb.Row(1), ShouldResemble, Row(in[1]))
			})

			Convey("Then no temp file is left behind", func() {
				entries, err := os.ReadDir(filepath.Dir(path))
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 1)
			})

			Convey("Then a second save overwrites the first", func() {
				So(s.Save(ctx, in[:1]), ShouldBeNil)
				tb, err := s.Load(ctx)
				So(err, ShouldBeNil)
				So(tb.Len(), ShouldEqual, 1)
			})
		})

		Convey("When saving no records", func() {
			So(s.Save(ctx, nil), ShouldBeNil)
			tb, err := s.Load(ctx)
			So(err, ShouldBeNil)
			So(tb.Len(), ShouldEqual, 0)
			So(tb.Columns(), ShouldResemble, Header)
		})

		Convey("When the file is empty", func() {
			So(os.WriteFile(path, nil, 0o644), ShouldBeNil)
			_, err := s.Load(ctx)
			So(errors.Is(err, ErrEmpty), ShouldBeTrue)
		})

		Convey("When the target directory does not exist", func() {
			bad := NewCSVStore(filepath.Join(path, "nope", "x.csv"))
			err := bad.Save(ctx, nil)
			So(errors.Is(err, ErrWrite), ShouldBeTrue)
		})
	})
}

func TestFormatFloat(t *testing.T) {
	Convey("Given floats", t, func() {
		So(formatFloat(10), ShouldEqual, "10.0")
		So(formatFloat(-4), ShouldEqual, "-4.0")
		So(formatFloat(0), ShouldEqual, "0.0")
		So(formatFloat(12.34), ShouldEqual, "12.34")
	})
}
