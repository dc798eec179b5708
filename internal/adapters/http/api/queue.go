package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/blackultras/flextrack/internal/adapters/store"
)

// QueueHandler handles the FIFO player queue.
type QueueHandler struct {
	deps Dependencies
}

// NewQueueHandler creates a new queue handler.
func NewQueueHandler(deps Dependencies) *QueueHandler {
	return &QueueHandler{deps: deps}
}

type joinRequest struct {
	PlayerName string `json:"player_name"`
}

// HandleQueue handles GET and POST /api/queue requests.
func (h *QueueHandler) HandleQueue(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		names, err := h.deps.Queue(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"queue": names})

	case http.MethodPost:
		var req joinRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request",
				fmt.Errorf("%w: invalid body", ErrBadRequest))
			return
		}
		name := strings.TrimSpace(req.PlayerName)
		if name == "" {
			writeError(w, http.StatusBadRequest, "bad_request",
				fmt.Errorf("%w: player_name is required", ErrBadRequest))
			return
		}
		added, err := h.deps.JoinQueue(r.Context(), name)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err)
			return
		}
		if !added {
			writeError(w, http.StatusBadRequest, "already_queued",
				fmt.Errorf("%w: player already in the queue", ErrBadRequest))
			return
		}
		names, err := h.deps.Queue(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"queue": names})

	default:
		http.NotFound(w, r)
	}
}

// HandleQueueEntry handles DELETE /api/queue/{name} requests.
func (h *QueueHandler) HandleQueueEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.NotFound(w, r)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/api/queue/")
	if name == "" {
		writeError(w, http.StatusBadRequest, "bad_request",
			fmt.Errorf("%w: player name is required", ErrBadRequest))
		return
	}
	if err := h.deps.LeaveQueue(r.Context(), name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"removed": name})
}
