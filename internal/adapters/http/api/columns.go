package api

import (
	"net/http"

	"github.com/okian/atdiff/internal/domain/table"
)

// ColumnsHandler serves the column classification.
type ColumnsHandler struct {
	columns []columnResponse
}

type columnResponse struct {
	Name     string   `json:"name"`
	Kind     string   `json:"kind"`
	Excluded bool     `json:"excluded"`
	Boolean  bool     `json:"boolean,omitempty"`
	Coerced  bool     `json:"coerced,omitempty"`
	Values   []string `json:"values,omitempty"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Step     *float64 `json:"step,omitempty"`
	From     string   `json:"from,omitempty"`
	To       string   `json:"to,omitempty"`
}

// NewColumnsHandler renders the classification once; the schema never changes.
func NewColumnsHandler(schema *table.Schema) *ColumnsHandler {
	infos := schema.Columns()
	out := make([]columnResponse, 0, len(infos))
	for i := range infos {
		c := &infos[i]
		cr := columnResponse{
			Name:     c.Name,
			Kind:     c.Kind.String(),
			Excluded: c.Excluded,
			Boolean:  c.Boolean,
			Coerced:  c.Coerced,
		}
		if !c.Excluded {
			switch c.Kind {
			case table.KindCategorical:
				cr.Values = c.Distinct
			case table.KindNumeric:
				lo, hi, step := c.Min, c.Max, c.Step
				cr.Min, cr.Max, cr.Step = &lo, &hi, &step
			case table.KindDatetime:
				cr.From = c.MinTime.Format(dateLayout)
				cr.To = c.MaxTime.Format(dateLayout)
			case table.KindText:
			}
		}
		out = append(out, cr)
	}
	return &ColumnsHandler{columns: out}
}

// HandleColumns handles GET /api/columns.
func (h *ColumnsHandler) HandleColumns(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r, "columns") {
		return
	}
	writeJSON(w, http.StatusOK, h.columns)
}
