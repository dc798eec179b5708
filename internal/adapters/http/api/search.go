package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/blackultras/flextrack/internal/adapters/riot"
)

// SearchHandler handles one-off player lookups.
type SearchHandler struct {
	deps Dependencies
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(deps Dependencies) *SearchHandler {
	return &SearchHandler{deps: deps}
}

// HandleSearch handles GET /api/search?name=...&tag=... requests.
func (h *SearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	tag := strings.TrimSpace(r.URL.Query().Get("tag"))
	if name == "" || tag == "" {
		writeError(w, http.StatusBadRequest, "bad_request",
			fmt.Errorf("%w: name and tag are required", ErrBadRequest))
		return
	}

	res, err := h.deps.SearchPlayer(r.Context(), name, tag)
	if err != nil {
		switch {
		case errors.Is(err, riot.ErrNotFound):
			writeError(w, http.StatusNotFound, "not_found", err)
		case errors.Is(err, riot.ErrRateLimited):
			writeError(w, http.StatusTooManyRequests, "rate_limited", err)
		default:
			writeError(w, http.StatusBadGateway, "upstream_error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, res)
}
