package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/mod-troubleshooter/loadorder/internal/history"
)

// HistoryHandler serves the recorded-snapshot endpoints: listing a
// profile's save history and diffing any two snapshots from it.
type HistoryHandler struct {
	history   *history.Store
	listLimit int
}

// NewHistoryHandler builds a HistoryHandler. defaultLimit caps List
// when a caller doesn't specify its own.
func NewHistoryHandler(store *history.Store, defaultLimit int) *HistoryHandler {
	return &HistoryHandler{history: store, listLimit: defaultLimit}
}

// List handles GET /api/profiles/{handle}/history.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	handle := r.PathValue("handle")
	limit := h.listLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			limit = n
		}
	}

	snapshots, err := h.history.List(r.Context(), handle, limit)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, snapshots)
}

// Diff handles GET /api/profiles/{handle}/history/diff?from=&to=.
func (h *HistoryHandler) Diff(w http.ResponseWriter, r *http.Request) {
	fromID, err := strconv.ParseInt(r.URL.Query().Get("from"), 10, 64)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "from must be a snapshot id")
		return
	}
	toID, err := strconv.ParseInt(r.URL.Query().Get("to"), 10, 64)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "to must be a snapshot id")
		return
	}

	diff, err := h.history.Diff(r.Context(), fromID, toID)
	if err != nil {
		if errors.Is(err, history.ErrSnapshotNotFound) {
			WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, diff)
}
