package api

import "net/http"

// TracksHandler serves the filtered table as JSON.
type TracksHandler struct {
	server *Server
}

// NewTracksHandler creates a new tracks handler.
func NewTracksHandler(s *Server) *TracksHandler {
	return &TracksHandler{server: s}
}

type tracksResponse struct {
	Count   int               `json:"count"`
	Columns []string          `json:"columns"`
	Rows    [][]string        `json:"rows"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// HandleTracks handles GET /api/tracks. It takes the same query parameters as
// the page and answers 200 even when some widgets were rejected; those are
// listed under errors.
func (h *TracksHandler) HandleTracks(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r, "tracks") {
		return
	}
	res, errs := h.server.apply(r.Context(), r.URL.Query())

	resp := tracksResponse{
		Count:   res.Count,
		Columns: res.Table.Columns(),
		Rows:    res.Table.Rows(),
	}
	if len(errs) > 0 {
		resp.Errors = make(map[string]string, len(errs))
		for name, err := range errs {
			resp.Errors[name] = err.Error()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
