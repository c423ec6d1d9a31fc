package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/atdiff/internal/domain/table"
)

// Query parameters of the filter form. Per-column widgets use a prefix
// followed by the column name.
const (
	paramEnabled = "filter"
	paramActive  = "col"
	paramShown   = "shown" // marks that the visibility selector was submitted; needs filter
	paramShow    = "show"

	prefixPick  = "f."   // categorical values
	prefixPicks = "sel." // marks that a categorical widget was submitted
	prefixLo    = "lo."
	prefixHi    = "hi."
	prefixFrom  = "from."
	prefixTo    = "to."
	prefixRe    = "re."

	dateLayout = "2006-01-02"
)

// parseState turns form values into a filter state. Widget input that cannot
// be parsed is reported per column and that column's filter is left out.
func parseState(s *table.Schema, v url.Values) (table.State, map[string]error) {
	errs := map[string]error{}
	state := table.State{
		Enabled:    truthy(v.Get(paramEnabled)),
		Selections: map[string]table.Selection{},
	}
	if state.Enabled && v.Has(paramShown) {
		state.Visible = append([]string{}, v[paramShow]...)
	}

	for _, name := range v[paramActive] {
		c, ok := s.Column(name)
		if !ok || c.Excluded {
			// Filter reports these.
			state.Active = append(state.Active, name)
			continue
		}
		sel, err := parseSelection(c, v)
		if err != nil {
			errs[name] = WrapKind("parse "+name, ErrBadRequest, err)
			continue
		}
		state.Active = append(state.Active, name)
		if sel != nil {
			state.Selections[name] = sel
		}
	}
	return state, errs
}

// parseSelection reads the widget of c. A nil selection means the widget default.
func parseSelection(c *table.ColumnInfo, v url.Values) (table.Selection, error) {
	switch c.Kind {
	case table.KindCategorical:
		if !v.Has(prefixPicks + c.Name) {
			return nil, nil
		}
		return table.Categories(append([]string{}, v[prefixPick+c.Name]...)), nil
	case table.KindNumeric:
		lo, err := parseBound(v.Get(prefixLo+c.Name), c.Min)
		if err != nil {
			return nil, fmt.Errorf("lower bound: %w", err)
		}
		hi, err := parseBound(v.Get(prefixHi+c.Name), c.Max)
		if err != nil {
			return nil, fmt.Errorf("upper bound: %w", err)
		}
		if lo > hi {
			lo, hi = hi, lo
		}
		return table.Range{Lo: lo, Hi: hi}, nil
	case table.KindDatetime:
		var dates table.Dates
		for _, key := range []string{prefixFrom + c.Name, prefixTo + c.Name} {
			raw := strings.TrimSpace(v.Get(key))
			if raw == "" {
				continue
			}
			d, err := time.Parse(dateLayout, raw)
			if err != nil {
				return nil, fmt.Errorf("date %q: want YYYY-MM-DD", raw)
			}
			dates = append(dates, d)
		}
		if dates == nil {
			return nil, nil
		}
		return dates, nil
	case table.KindText:
		return table.Pattern(v.Get(prefixRe + c.Name)), nil
	default:
		return nil, fmt.Errorf("unhandled kind %s", c.Kind)
	}
}

func parseBound(raw string, def float64) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", raw)
	}
	return f, nil
}

func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "on", "true", "yes":
		return true
	}
	return false
}
