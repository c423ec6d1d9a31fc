// Package api serves the filterable track table as an HTML page and as JSON.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/okian/atdiff/internal/domain/table"
	"github.com/okian/atdiff/pkg/logger"
	"github.com/okian/atdiff/pkg/metrics"
)

// Default page text and special columns.
const (
	DefaultTitle       = "Trackmania Campaign Author Time Difficulty"
	DefaultImageColumn = "Thumbnail"
	DefaultCheckColumn = "Completed"
	DefaultFooter      = "The API used to obtain data only returns first 10,000 track times per track; " +
		"an extension to determine the number/percentage of users to obtain an author medal on each track " +
		"is suggested, if a data source is found."
)

// DefaultDescription holds the paragraphs shown under the title.
var DefaultDescription = []string{
	"The below table shows the author times for all Trackmania 2020 Campaign tracks (as of 7th September 2024) " +
		"alongside world record times and the 10,000th position on leaderboard times.",
	"It is suggested that filtering from high to low on `10k Time Difference` or " +
		"`10k Time % Difference` column gives a good indication of easy -> hard author times.",
	"All data taken from https://webservices.openplanet.dev/ on 7th September 2024.",
}

// Server wires HTTP routes for the table viewer.
type Server struct {
	schema *table.Schema
	logger logger.Logger

	title       string
	description []string
	footer      string
	imageColumn string
	checkColumn string

	healthHandler  *HealthHandler
	tracksHandler  *TracksHandler
	columnsHandler *ColumnsHandler
	viewHandler    *ViewHandler
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithPageText sets the page title and the paragraphs below it.
func WithPageText(title string, description ...string) Option {
	return func(s *Server) {
		if title != "" {
			s.title = title
		}
		if len(description) > 0 {
			s.description = description
		}
	}
}

// WithFooter sets the note shown under the table; empty hides it.
func WithFooter(text string) Option {
	return func(s *Server) { s.footer = text }
}

// WithImageColumn sets the column rendered as an image.
func WithImageColumn(name string) Option {
	return func(s *Server) { s.imageColumn = name }
}

// WithCheckColumn sets the column rendered as an unpersisted checkbox.
func WithCheckColumn(name string) Option {
	return func(s *Server) { s.checkColumn = name }
}

// WithLogger sets a custom logger for the server.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server over a classified table.
func NewServer(schema *table.Schema, opts ...Option) *Server {
	s := &Server{
		schema:      schema,
		title:       DefaultTitle,
		description: DefaultDescription,
		footer:      DefaultFooter,
		imageColumn: DefaultImageColumn,
		checkColumn: DefaultCheckColumn,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.healthHandler = NewHealthHandler()
	s.tracksHandler = NewTracksHandler(s)
	s.columnsHandler = NewColumnsHandler(schema)
	s.viewHandler = NewViewHandler(s)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/api/tracks", MetricsMiddleware(s.tracksHandler.HandleTracks, "tracks"))
	mux.HandleFunc("/api/columns", MetricsMiddleware(s.columnsHandler.HandleColumns, "columns"))
	mux.HandleFunc("/{$}", MetricsMiddleware(s.viewHandler.HandleView, "view"))
}

// apply runs one filter request. Widget errors and filter errors are merged by column.
func (s *Server) apply(ctx context.Context, v url.Values) (table.Result, map[string]error) {
	state, errs := parseState(s.schema, v)

	start := time.Now()
	res := table.Filter(s.schema, state)
	metrics.RecordFilter(float64(time.Since(start).Microseconds())/1000, res.Count)

	for name, err := range res.Errors {
		if _, ok := errs[name]; !ok {
			errs[name] = WrapKind("filter "+name, ErrBadRequest, err)
		}
	}
	if len(errs) > 0 {
		s.logger.Debug(ctx, "filter input rejected", logger.Int("widgets", len(errs)))
	}
	return res, errs
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code(err), Message: msg})
}

func requireGet(w http.ResponseWriter, r *http.Request, op string) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return true
	}
	w.Header().Set("Allow", "GET, HEAD")
	writeError(w, http.StatusMethodNotAllowed, NewKind(op, ErrMethod, r.Method))
	return false
}
