package table

import (
	"fmt"
	"time"
)

// steps is the number of uniform increments a numeric range is divided into.
const steps = 100

// ColumnInfo is the classification of one column, computed once per table.
type ColumnInfo struct {
	Name     string
	Index    int
	Kind     Kind
	Excluded bool
	// Boolean is set when every non-empty cell is a boolean literal.
	Boolean bool
	// Coerced is set when a text column was converted to timestamps.
	Coerced bool
	// Distinct holds unique values in first-seen order, missing ones ("", "NaN", ...) included.
	Distinct []string

	Min, Max, Step   float64
	MinTime, MaxTime time.Time

	numbers []float64
	times   []time.Time
	present []bool
}

// Number returns the parsed value of row r of a numeric column.
func (c *ColumnInfo) Number(r int) (float64, bool) {
	if c.numbers == nil || !c.present[r] {
		return 0, false
	}
	return c.numbers[r], true
}

// Time returns the parsed value of row r of a datetime column.
func (c *ColumnInfo) Time(r int) (time.Time, bool) {
	if c.times == nil || !c.present[r] {
		return time.Time{}, false
	}
	return c.times[r], true
}

// Schema is the classified view of a table.
type Schema struct {
	table   *Table
	columns []ColumnInfo
}

// Table returns the classified table.
func (s *Schema) Table() *Table { return s.table }

// Columns returns every column's classification in header order.
func (s *Schema) Columns() []ColumnInfo { return s.columns }

// Column returns the classification of name.
func (s *Schema) Column(name string) (*ColumnInfo, bool) {
	i, ok := s.table.Index(name)
	if !ok {
		return nil, false
	}
	return &s.columns[i], true
}

// CountByKind returns the number of eligible columns per kind name.
func (s *Schema) CountByKind() map[string]int {
	out := make(map[string]int, len(Kinds()))
	for _, k := range Kinds() {
		out[k.String()] = 0
	}
	for i := range s.columns {
		if s.columns[i].Excluded {
			continue
		}
		out[s.columns[i].Kind.String()]++
	}
	return out
}

// Classify assigns a kind to every column of t except the excluded ones.
func Classify(t *Table, excluded ...string) (*Schema, error) {
	skip := make(map[string]bool, len(excluded))
	for _, name := range excluded {
		if _, ok := t.Index(name); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
		}
		skip[name] = true
	}

	cols := make([]ColumnInfo, len(t.columns))
	for i, name := range t.columns {
		if skip[name] {
			cols[i] = ColumnInfo{Name: name, Index: i, Kind: KindText, Excluded: true}
			continue
		}
		cols[i] = classifyColumn(t, i)
	}
	return &Schema{table: t, columns: cols}, nil
}

func classifyColumn(t *Table, col int) ColumnInfo {
	info := ColumnInfo{Name: t.columns[col], Index: col}
	n := t.Len()

	present := make([]bool, n)
	seen := make(map[string]bool)
	nonEmpty, missingDistinct := 0, 0
	allBool, allFloat, allTime := true, true, true
	numbers := make([]float64, n)
	times := make([]time.Time, n)

	for r := 0; r < n; r++ {
		v := t.Cell(r, col)
		if !seen[v] {
			seen[v] = true
			info.Distinct = append(info.Distinct, v)
			if missing(v) {
				missingDistinct++
			}
		}
		if missing(v) {
			continue
		}
		present[r] = true
		nonEmpty++
		if _, ok := parseBool(v); !ok {
			allBool = false
		}
		if allFloat {
			if f, ok := parseFloat(v); ok {
				numbers[r] = f
			} else {
				allFloat = false
			}
		}
		if allTime {
			if ts, ok := parseTime(v); ok {
				times[r] = ts
			} else {
				allTime = false
			}
		}
	}

	distinct := len(info.Distinct) - missingDistinct
	info.Boolean = nonEmpty > 0 && allBool
	if nonEmpty == 0 {
		allFloat, allTime = false, false
	}
	info.present = present

	switch {
	case info.Boolean || distinct < categoricalLimit:
		info.Kind = KindCategorical
	case allFloat:
		info.Kind = KindNumeric
		info.numbers = numbers
		first := true
		for r, f := range numbers {
			if !present[r] {
				continue
			}
			if first || f < info.Min {
				info.Min = f
			}
			if first || f > info.Max {
				info.Max = f
			}
			first = false
		}
		info.Step = (info.Max - info.Min) / steps
	case allTime:
		info.Kind = KindDatetime
		info.Coerced = true
		info.times = times
		first := true
		for r, ts := range times {
			if !present[r] {
				continue
			}
			if first || ts.Before(info.MinTime) {
				info.MinTime = ts
			}
			if first || ts.After(info.MaxTime) {
				info.MaxTime = ts
			}
			first = false
		}
	default:
		info.Kind = KindText
	}
	return info
}
