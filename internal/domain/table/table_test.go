package table

import (
	"errors"
	"fmt"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

var header = []string{"Thumbnail", "Track Name", "Author Time", "Top Time", "Completed", "Added"}

// sample builds a table with 12 distinct tracks so Track Name and the times are
// not categorical.
func sample() *Table {
	rows := make([][]string, 0, 12)
	for i := 0; i < 12; i++ {
		rows = append(rows, []string{
			fmt.Sprintf("https://img/%d.jpg", i),
			fmt.Sprintf("Spring 2024 - %d", i+1),
			fmt.Sprintf("%d.0", 20+i),
			fmt.Sprintf("%.3f", 19.5+float64(i)),
			"False",
			fmt.Sprintf("2024-03-%02d 12:00:00", i+1),
		})
	}
	t, err := New(header, rows)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNew(t *testing.T) {
	Convey("Given table rows", t, func() {
		Convey("When a row is too short", func() {
			_, err := New([]string{"a", "b"}, [][]string{{"1"}})
			So(errors.Is(err, ErrShape), ShouldBeTrue)
		})

		Convey("When a column name repeats", func() {
			_, err := New([]string{"a", "a"}, nil)
			So(errors.Is(err, ErrDuplicate), ShouldBeTrue)
		})

		Convey("When the table is well formed", func() {
			tb := sample()
			So(tb.Len(), ShouldEqual, 12)
			So(tb.Columns(), ShouldResemble, header)
			i, ok := tb.Index("Track Name")
			So(ok, ShouldBeTrue)
			So(tb.Cell(0, i), ShouldEqual, "Spring 2024 - 1")
		})
	})
}

func TestClassify(t *testing.T) {
	Convey("Given the sample table", t, func() {
		s, err := Classify(sample(), "Thumbnail")
		So(err, ShouldBeNil)

		kind := func(name string) Kind {
			c, ok := s.Column(name)
			So(ok, ShouldBeTrue)
			return c.Kind
		}

		Convey("Then the excluded column is flagged and not classified", func() {
			c, _ := s.Column("Thumbnail")
			So(c.Excluded, ShouldBeTrue)
			So(c.Distinct, ShouldBeEmpty)
		})

		Convey("Then each column gets exactly one kind", func() {
			So(kind("Track Name"), ShouldEqual, KindText)
			So(kind("Author Time"), ShouldEqual, KindNumeric)
			So(kind("Top Time"), ShouldEqual, KindNumeric)
			So(kind("Completed"), ShouldEqual, KindCategorical)
			So(kind("Added"), ShouldEqual, KindDatetime)
		})

		Convey("Then numeric bounds split into 100 steps", func() {
			c, _ := s.Column("Author Time")
			So(c.Min, ShouldEqual, 20.0)
			So(c.Max, ShouldEqual, 31.0)
			So(c.Step, ShouldAlmostEqual, 0.11, 1e-9)
		})

		Convey("Then coerced timestamps are zone naive with known bounds", func() {
			c, _ := s.Column("Added")
			So(c.Coerced, ShouldBeTrue)
			So(c.MinTime, ShouldEqual, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
			So(c.MaxTime, ShouldEqual, time.Date(2024, 3, 12, 12, 0, 0, 0, time.UTC))
		})

		Convey("Then boolean columns are categorical", func() {
			c, _ := s.Column("Completed")
			So(c.Boolean, ShouldBeTrue)
			So(c.Distinct, ShouldResemble, []string{"False"})
		})

		Convey("Then counts by kind cover every eligible column", func() {
			counts := s.CountByKind()
			So(counts["text"], ShouldEqual, 1)
			So(counts["numeric"], ShouldEqual, 2)
			So(counts["categorical"], ShouldEqual, 1)
			So(counts["datetime"], ShouldEqual, 1)
		})
	})

	Convey("Given an unknown excluded column", t, func() {
		_, err := Classify(sample(), "Nope")
		So(errors.Is(err, ErrUnknownColumn), ShouldBeTrue)
	})

	Convey("Given a column with fewer than 10 numeric values", t, func() {
		tb, _ := New([]string{"n"}, [][]string{{"1.5"}, {"2.5"}, {"1.5"}})
		s, _ := Classify(tb)
		c, _ := s.Column("n")
		So(c.Kind, ShouldEqual, KindCategorical)
		So(c.Distinct, ShouldResemble, []string{"1.5", "2.5"})
	})

	Convey("Given timestamps with zones", t, func() {
		rows := make([][]string, 0, 10)
		for i := 0; i < 10; i++ {
			rows = append(rows, []string{fmt.Sprintf("2024-01-%02dT08:00:00+02:00", i+1)})
		}
		tb, _ := New([]string{"when"}, rows)
		s, _ := Classify(tb)
		c, _ := s.Column("when")
		So(c.Kind, ShouldEqual, KindDatetime)
		So(c.MinTime, ShouldEqual, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC))
	})

	Convey("Given dates written out in words", t, func() {
		rows := make([][]string, 0, 12)
		for i := 1; i <= 12; i++ {
			if i%2 == 0 {
				rows = append(rows, []string{fmt.Sprintf("Sep %d, 2024", i)})
			} else {
				rows = append(rows, []string{fmt.Sprintf("%d September 2024", i)})
			}
		}
		tb, _ := New([]string{"when"}, rows)
		s, _ := Classify(tb)
		c, _ := s.Column("when")

		Convey("Then the column is coerced to dates", func() {
			So(c.Kind, ShouldEqual, KindDatetime)
			So(c.Coerced, ShouldBeTrue)
			So(c.MinTime, ShouldEqual, time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC))
			So(c.MaxTime, ShouldEqual, time.Date(2024, 9, 12, 0, 0, 0, 0, time.UTC))
		})

		Convey("Then a date range filters by calendar day", func() {
			res := Filter(s, State{
				Enabled: true,
				Active:  []string{"when"},
				Selections: map[string]Selection{"when": Dates{
					time.Date(2024, 9, 3, 0, 0, 0, 0, time.UTC),
					time.Date(2024, 9, 5, 0, 0, 0, 0, time.UTC),
				}},
			})
			So(res.Count, ShouldEqual, 3)
		})
	})

	Convey("Given a numeric column with missing values", t, func() {
		rows := make([][]string, 0, 14)
		for i := 0; i < 12; i++ {
			rows = append(rows, []string{fmt.Sprintf("%d.5", i)})
		}
		rows = append(rows, []string{"NaN"}, []string{""})
		tb, _ := New([]string{"n"}, rows)
		s, _ := Classify(tb)
		c, _ := s.Column("n")

		Convey("Then missing cells do not affect the bounds", func() {
			So(c.Kind, ShouldEqual, KindNumeric)
			So(c.Min, ShouldEqual, 0.5)
			So(c.Max, ShouldEqual, 11.5)
			So(c.Step, ShouldAlmostEqual, 0.11, 1e-9)
			_, ok := c.Number(12)
			So(ok, ShouldBeFalse)
		})

		Convey("Then the full range keeps every row and a narrower one drops the missing cells", func() {
			all := Filter(s, State{Enabled: true, Active: []string{"n"}, Selections: map[string]Selection{"n": Range{Lo: c.Min, Hi: c.Max}}})
			So(all.Count, ShouldEqual, 14)
			some := Filter(s, State{Enabled: true, Active: []string{"n"}, Selections: map[string]Selection{"n": Range{Lo: 0, Hi: 2}}})
			So(some.Count, ShouldEqual, 2)
		})
	})

	Convey("Given a column of infinities", t, func() {
		rows := make([][]string, 0, 12)
		for i := 0; i < 12; i++ {
			rows = append(rows, []string{fmt.Sprintf("%d", i)})
		}
		rows = append(rows, []string{"Inf"})
		tb, _ := New([]string{"n"}, rows)
		s, _ := Classify(tb)
		c, _ := s.Column("n")
		So(c.Kind, ShouldNotEqual, KindNumeric)
	})
}

func TestFilter(t *testing.T) {
	Convey("Given a classified sample", t, func() {
		s, _ := Classify(sample(), "Thumbnail")

		Convey("When the master toggle is off", func() {
			res := Filter(s, State{
				Active:     []string{"Author Time"},
				Selections: map[string]Selection{"Author Time": Range{Lo: 100, Hi: 200}},
			})

			Convey("Then the table comes back unchanged", func() {
				So(res.Count, ShouldEqual, 12)
				So(res.Table.Rows(), ShouldResemble, s.Table().Rows())
				So(res.Errors, ShouldBeEmpty)
			})
		})

		Convey("When the master toggle is off and columns are chosen", func() {
			res := Filter(s, State{Visible: []string{"Track Name"}})

			Convey("Then every column is still returned", func() {
				So(res.Table.Columns(), ShouldResemble, header)
				So(res.Count, ShouldEqual, 12)
				So(res.Errors, ShouldBeEmpty)
			})
		})

		Convey("When a numeric range covers the whole column", func() {
			c, _ := s.Column("Author Time")
			res := Filter(s, State{
				Enabled:    true,
				Active:     []string{"Author Time"},
				Selections: map[string]Selection{"Author Time": Range{Lo: c.Min, Hi: c.Max}},
			})
			So(res.Count, ShouldEqual, 12)
		})

		Convey("When a numeric range is narrowed", func() {
			res := Filter(s, State{
				Enabled:    true,
				Active:     []string{"Author Time"},
				Selections: map[string]Selection{"Author Time": Range{Lo: 22, Hi: 24}},
			})

			Convey("Then bounds are inclusive and order is kept", func() {
				So(res.Count, ShouldEqual, 3)
				So(res.Table.Cell(0, 1), ShouldEqual, "Spring 2024 - 3")
				So(res.Table.Cell(2, 1), ShouldEqual, "Spring 2024 - 5")
			})
		})

		Convey("When a categorical selection is empty", func() {
			res := Filter(s, State{
				Enabled:    true,
				Active:     []string{"Completed"},
				Selections: map[string]Selection{"Completed": Categories{}},
			})
			So(res.Count, ShouldEqual, 0)
		})

		Convey("When an active column has no selection", func() {
			res := Filter(s, State{Enabled: true, Active: []string{"Completed", "Added", "Track Name"}})
			So(res.Count, ShouldEqual, 12)
		})

		Convey("When two dates are selected", func() {
			res := Filter(s, State{
				Enabled: true,
				Active:  []string{"Added"},
				Selections: map[string]Selection{"Added": Dates{
					time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
					time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC),
				}},
			})

			Convey("Then whole days between them are kept", func() {
				So(res.Count, ShouldEqual, 3)
			})
		})

		Convey("When only one date is selected", func() {
			res := Filter(s, State{
				Enabled:    true,
				Active:     []string{"Added"},
				Selections: map[string]Selection{"Added": Dates{time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)}},
			})
			So(res.Count, ShouldEqual, 12)
		})

		Convey("When a regular expression is given", func() {
			res := Filter(s, State{
				Enabled:    true,
				Active:     []string{"Track Name"},
				Selections: map[string]Selection{"Track Name": Pattern(`- 1\d$`)},
			})
			So(res.Count, ShouldEqual, 3)
		})

		Convey("When matching is case sensitive", func() {
			res := Filter(s, State{
				Enabled:    true,
				Active:     []string{"Track Name"},
				Selections: map[string]Selection{"Track Name": Pattern("spring")},
			})
			So(res.Count, ShouldEqual, 0)
		})

		Convey("When the pattern is not a valid regexp", func() {
			tb, _ := New([]string{"name"}, [][]string{
				{"a(b"}, {"c"}, {"d"}, {"e"}, {"f"}, {"g"}, {"h"}, {"i"}, {"j"}, {"k"},
			})
			ts, _ := Classify(tb)
			res := Filter(ts, State{
				Enabled:    true,
				Active:     []string{"name"},
				Selections: map[string]Selection{"name": Pattern("a(")},
			})

			Convey("Then it is matched literally", func() {
				So(Pattern("a(").Literal(), ShouldBeTrue)
				So(res.Count, ShouldEqual, 1)
			})
		})

		Convey("When the selection kind does not match the column", func() {
			res := Filter(s, State{
				Enabled: true,
				Active:  []string{"Author Time", "Track Name"},
				Selections: map[string]Selection{
					"Author Time": Pattern("x"),
					"Track Name":  Pattern("- 2$"),
				},
			})

			Convey("Then only that filter is skipped and reported", func() {
				So(errors.Is(res.Errors["Author Time"], ErrKindMismatch), ShouldBeTrue)
				So(res.Count, ShouldEqual, 1)
			})
		})

		Convey("When an excluded column is filtered", func() {
			res := Filter(s, State{Enabled: true, Active: []string{"Thumbnail"}})
			So(errors.Is(res.Errors["Thumbnail"], ErrExcludedColumn), ShouldBeTrue)
			So(res.Count, ShouldEqual, 12)
		})

		Convey("When visible columns are chosen", func() {
			res := Filter(s, State{Enabled: true, Visible: []string{"Top Time", "Track Name"}})

			Convey("Then header order is kept and the row count is unchanged", func() {
				So(res.Table.Columns(), ShouldResemble, []string{"Track Name", "Top Time"})
				So(res.Count, ShouldEqual, 12)
			})
		})

		Convey("When filters are combined", func() {
			state := State{
				Enabled: true,
				Active:  []string{"Author Time", "Track Name"},
				Selections: map[string]Selection{
					"Author Time": Range{Lo: 20, Hi: 25},
					"Track Name":  Pattern("[13579]$"),
				},
			}
			res := Filter(s, state)

			Convey("Then the result is a subset of the input", func() {
				So(res.Count, ShouldEqual, 3)
				So(res.Count, ShouldBeLessThanOrEqualTo, s.Table().Len())
			})

			Convey("Then the count matches the returned rows", func() {
				So(res.Table.Len(), ShouldEqual, res.Count)
				So(res.Errors, ShouldBeEmpty)
			})
		})
	})
}

func TestDefault(t *testing.T) {
	Convey("Given every kind", t, func() {
		s, _ := Classify(sample(), "Thumbnail")
		for _, name := range []string{"Track Name", "Author Time", "Completed", "Added"} {
			c, _ := s.Column(name)
			So(Default(c).Kind(), ShouldEqual, c.Kind)
		}
	})
}
