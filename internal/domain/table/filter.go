package table

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"
)

// Selection is the widget state for one column. Each kind has exactly one
// implementation, which is also the strategy that filters rows for that kind.
type Selection interface {
	Kind() Kind
	compile(c *ColumnInfo) predicate
}

type predicate func(row int, cell string) bool

func keepAll(int, string) bool { return true }

// Categories keeps rows whose value is one of the selected values.
type Categories []string

// Kind implements Selection.
func (Categories) Kind() Kind { return KindCategorical }

func (s Categories) compile(*ColumnInfo) predicate {
	set := make(map[string]struct{}, len(s))
	for _, v := range s {
		set[v] = struct{}{}
	}
	return func(_ int, cell string) bool {
		_, ok := set[cell]
		return ok
	}
}

// Range keeps rows whose numeric value lies in [Lo, Hi].
// A range covering the whole column keeps every row, empty cells included.
type Range struct {
	Lo, Hi float64
}

// Kind implements Selection.
func (Range) Kind() Kind { return KindNumeric }

func (s Range) compile(c *ColumnInfo) predicate {
	if s.Lo <= c.Min && s.Hi >= c.Max {
		return keepAll
	}
	return func(row int, _ string) bool {
		v, ok := c.Number(row)
		return ok && v >= s.Lo && v <= s.Hi
	}
}

// Dates keeps rows whose calendar day lies between the two selected dates,
// inclusive. Any other number of dates leaves the column unfiltered.
type Dates []time.Time

// Kind implements Selection.
func (Dates) Kind() Kind { return KindDatetime }

func (s Dates) compile(c *ColumnInfo) predicate {
	if len(s) != 2 {
		return keepAll
	}
	lo, hi := Day(s[0]), Day(s[1])
	if hi.Before(lo) {
		lo, hi = hi, lo
	}
	return func(row int, _ string) bool {
		v, ok := c.Time(row)
		if !ok {
			return false
		}
		d := Day(v)
		return !d.Before(lo) && !d.After(hi)
	}
}

// Pattern keeps rows whose value contains a match of a case-sensitive regular
// expression. A pattern that does not compile is matched as a literal substring.
type Pattern string

// Kind implements Selection.
func (Pattern) Kind() Kind { return KindText }

func (s Pattern) compile(*ColumnInfo) predicate {
	if s == "" {
		return keepAll
	}
	re, err := regexp.Compile(string(s))
	if err != nil {
		lit := string(s)
		return func(_ int, cell string) bool { return strings.Contains(cell, lit) }
	}
	return func(_ int, cell string) bool { return re.MatchString(cell) }
}

// Literal reports whether the pattern is matched as a substring rather than a regexp.
func (s Pattern) Literal() bool {
	_, err := regexp.Compile(string(s))
	return err != nil
}

// Default returns the widget default for c, which keeps every row.
func Default(c *ColumnInfo) Selection {
	switch c.Kind {
	case KindCategorical:
		return Categories(slices.Clone(c.Distinct))
	case KindNumeric:
		return Range{Lo: c.Min, Hi: c.Max}
	case KindDatetime:
		return Dates{c.MinTime, c.MaxTime}
	case KindText:
		return Pattern("")
	default:
		panic(fmt.Sprintf("table: unhandled kind %d", c.Kind))
	}
}

// State is the full widget state of one view.
type State struct {
	// Enabled is the master toggle; when false the table is returned unchanged.
	Enabled bool
	// Active lists the columns to filter on, in order.
	Active []string
	// Selections holds the widget state per active column. A missing entry
	// falls back to Default.
	Selections map[string]Selection
	// Visible lists output columns; nil means all. Ignored when Enabled is false.
	Visible []string
}

// Result is the outcome of one Filter call.
type Result struct {
	Table *Table
	Count int
	// Errors holds per-column problems; the affected filter was skipped.
	Errors map[string]error
}

// Filter applies state to the classified table. The schema is never modified.
// With the master toggle off the whole table is returned, every column included.
func Filter(s *Schema, state State) Result {
	t := s.table
	res := Result{Errors: map[string]error{}}
	if !state.Enabled {
		res.Table = t
		res.Count = t.Len()
		return res
	}

	rows := make([]int, 0, t.Len())
	for r := 0; r < t.Len(); r++ {
		rows = append(rows, r)
	}

	for _, name := range state.Active {
		c, ok := s.Column(name)
		if !ok {
			res.Errors[name] = fmt.Errorf("%w: %q", ErrUnknownColumn, name)
			continue
		}
		if c.Excluded {
			res.Errors[name] = fmt.Errorf("%w: %q", ErrExcludedColumn, name)
			continue
		}
		sel, ok := state.Selections[name]
		if !ok || sel == nil {
			sel = Default(c)
		}
		if sel.Kind() != c.Kind {
			res.Errors[name] = fmt.Errorf("%w: %q is %s, got %s", ErrKindMismatch, name, c.Kind, sel.Kind())
			continue
		}
		keep := sel.compile(c)
		rows = slices.DeleteFunc(rows, func(r int) bool {
			return !keep(r, t.Cell(r, c.Index))
		})
	}

	cols := make([]int, 0, len(t.columns))
	if state.Visible == nil {
		for i := range t.columns {
			cols = append(cols, i)
		}
	} else {
		want := make(map[string]bool, len(state.Visible))
		for _, name := range state.Visible {
			if _, ok := t.Index(name); !ok {
				res.Errors[name] = fmt.Errorf("%w: %q", ErrUnknownColumn, name)
				continue
			}
			want[name] = true
		}
		for i, name := range t.columns {
			if want[name] {
				cols = append(cols, i)
			}
		}
	}

	res.Table = t.Project(rows, cols)
	res.Count = len(rows)
	return res
}
