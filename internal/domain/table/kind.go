package table

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Kind is the closed set of column kinds a filter can be built for.
type Kind int

const (
	KindText Kind = iota
	KindCategorical
	KindNumeric
	KindDatetime
)

func (k Kind) String() string {
	switch k {
	case KindCategorical:
		return "categorical"
	case KindNumeric:
		return "numeric"
	case KindDatetime:
		return "datetime"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Kinds lists every kind in display order.
func Kinds() []Kind {
	return []Kind{KindCategorical, KindNumeric, KindDatetime, KindText}
}

// categoricalLimit is the distinct-value count below which a column is categorical.
const categoricalLimit = 10

// missingValues are cell values read as missing, like an empty cell.
var missingValues = map[string]bool{
	"#N/A": true, "#N/A N/A": true, "#NA": true, "-1.#IND": true, "-1.#QNAN": true,
	"-NaN": true, "-nan": true, "1.#IND": true, "1.#QNAN": true, "<NA>": true,
	"N/A": true, "NA": true, "NULL": true, "NaN": true, "NaT": true, "None": true,
	"n/a": true, "nan": true, "null": true,
}

// missing reports whether v holds no value.
func missing(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || missingValues[v]
}

func parseBool(s string) (bool, bool) {
	switch s {
	case "True", "true", "TRUE":
		return true, true
	case "False", "false", "FALSE":
		return false, true
	}
	return false, false
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// parseTime detects the layout of s and drops the zone, keeping wall time.
// Values without a zone are read as UTC; values without a year are rejected.
func parseTime(s string) (time.Time, bool) {
	t, err := dateparse.ParseIn(strings.TrimSpace(s), time.UTC)
	if err != nil || t.Year() == 0 {
		return time.Time{}, false
	}
	return naive(t), true
}

func naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// Day truncates t to midnight of its calendar day.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
