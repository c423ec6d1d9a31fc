package api

import (
	"bytes"
	"html/template"
	"net/http"
	"net/url"
	"slices"
	"sort"
	"strconv"

	"github.com/okian/atdiff/internal/domain/table"
	"github.com/okian/atdiff/pkg/logger"
)

var funcMap = template.FuncMap{
	"kind": func(k table.Kind) string { return k.String() },
}

// ViewHandler renders the filter form and the filtered table as HTML.
type ViewHandler struct {
	server *Server
	tmpl   *template.Template
}

// NewViewHandler parses the embedded page template.
func NewViewHandler(s *Server) *ViewHandler {
	return &ViewHandler{
		server: s,
		tmpl:   template.Must(template.New("page").Funcs(funcMap).ParseFS(staticFS, "index.html")),
	}
}

type option struct {
	Value    string
	Selected bool
}

type widget struct {
	Name   string
	Kind   table.Kind
	Active bool
	Error  string

	Choices []option

	Lo, Hi, Min, Max, Step string

	From, To, MinDate, MaxDate string

	Pattern string
	Literal bool
}

type cell struct {
	Value string
	Image bool
	Check bool
}

type pageData struct {
	Title       string
	Description []string
	Footer      string
	Enabled     bool
	Widgets     []widget
	Columns     []option
	Other       []string
	Count       int
	Header      []string
	Rows        [][]cell
}

// HandleView handles GET / requests.
func (h *ViewHandler) HandleView(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r, "view") {
		return
	}
	s := h.server
	v := r.URL.Query()
	res, errs := s.apply(r.Context(), v)

	data := pageData{
		Title:       s.title,
		Description: s.description,
		Footer:      s.footer,
		Enabled:     truthy(v.Get(paramEnabled)),
		Count:       res.Count,
		Header:      res.Table.Columns(),
	}

	active := make(map[string]bool, len(v[paramActive]))
	for _, name := range v[paramActive] {
		active[name] = true
	}
	infos := s.schema.Columns()
	for i := range infos {
		c := &infos[i]
		if c.Excluded {
			continue
		}
		wg := newWidget(c, v)
		wg.Active = active[c.Name]
		if err, ok := errs[c.Name]; ok {
			wg.Error = err.Error()
			delete(errs, c.Name)
		}
		data.Widgets = append(data.Widgets, wg)
	}
	for _, name := range sortedKeys(errs) {
		data.Other = append(data.Other, errs[name].Error())
	}

	visible := data.Header
	for _, name := range s.schema.Table().Columns() {
		data.Columns = append(data.Columns, option{Value: name, Selected: slices.Contains(visible, name)})
	}

	for row := 0; row < res.Table.Len(); row++ {
		cells := make([]cell, len(data.Header))
		for col, name := range data.Header {
			cells[col] = cell{
				Value: res.Table.Cell(row, col),
				Image: name == s.imageColumn,
				Check: name == s.checkColumn,
			}
		}
		data.Rows = append(data.Rows, cells)
	}

	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, "index.html", data); err != nil {
		s.logger.Error(r.Context(), "render page", logger.Error(err))
		writeError(w, http.StatusInternalServerError, WrapKind("view", ErrRender, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// newWidget fills a widget with the submitted values, or the defaults.
func newWidget(c *table.ColumnInfo, v url.Values) widget {
	wg := widget{Name: c.Name, Kind: c.Kind}
	switch c.Kind {
	case table.KindCategorical:
		picked := c.Distinct
		if v.Has(prefixPicks + c.Name) {
			picked = v[prefixPick+c.Name]
		}
		for _, d := range c.Distinct {
			wg.Choices = append(wg.Choices, option{Value: d, Selected: slices.Contains(picked, d)})
		}
	case table.KindNumeric:
		wg.Min = formatNumber(c.Min)
		wg.Max = formatNumber(c.Max)
		wg.Step = "any"
		if c.Step > 0 {
			wg.Step = formatNumber(c.Step)
		}
		wg.Lo = valueOr(v.Get(prefixLo+c.Name), wg.Min)
		wg.Hi = valueOr(v.Get(prefixHi+c.Name), wg.Max)
	case table.KindDatetime:
		wg.MinDate = c.MinTime.Format(dateLayout)
		wg.MaxDate = c.MaxTime.Format(dateLayout)
		wg.From = valueOr(v.Get(prefixFrom+c.Name), wg.MinDate)
		wg.To = valueOr(v.Get(prefixTo+c.Name), wg.MaxDate)
	case table.KindText:
		wg.Pattern = v.Get(prefixRe + c.Name)
		wg.Literal = wg.Pattern != "" && table.Pattern(wg.Pattern).Literal()
	}
	return wg
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func valueOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
