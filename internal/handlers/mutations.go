package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/mod-troubleshooter/loadorder/internal/handleregistry"
	"github.com/mod-troubleshooter/loadorder/internal/history"
	"github.com/mod-troubleshooter/loadorder/internal/loadorder"
)

// MutationHandler serves the endpoints that change a load order:
// saving it to disk (recording a history snapshot on success), adding
// and removing plugins, reordering, and toggling activation.
type MutationHandler struct {
	registry *handleregistry.Registry
	history  *history.Store
}

// NewMutationHandler builds a MutationHandler. history may be nil, in
// which case Save skips snapshot recording.
func NewMutationHandler(registry *handleregistry.Registry, store *history.Store) *MutationHandler {
	return &MutationHandler{registry: registry, history: store}
}

// Save handles POST /api/profiles/{handle}/save.
func (h *MutationHandler) Save(w http.ResponseWriter, r *http.Request) {
	handle := r.PathValue("handle")
	var snapshot []loadorder.Entry

	err := h.registry.WithCore(handle, func(c *loadorder.Core) error {
		if err := c.Save(r.Context()); err != nil {
			return err
		}
		snapshot = c.Plugins()
		return nil
	})
	if err != nil {
		writeHandleOrLoadOrderError(w, err)
		return
	}

	if h.history != nil {
		if _, err := h.history.Record(r.Context(), handle, toPluginStates(snapshot)); err != nil {
			WriteError(w, http.StatusInternalServerError, "saved, but recording history failed: "+err.Error())
			return
		}
	}
	WriteSuccess(w, "load order saved")
}

func toPluginStates(entries []loadorder.Entry) []history.PluginState {
	out := make([]history.PluginState, len(entries))
	for i, e := range entries {
		out[i] = history.PluginState{Name: e.Name, IsMaster: e.IsMaster, IsLight: e.IsLight, Active: e.Active}
	}
	return out
}

// AddPluginRequest is the request body for POST /api/profiles/{handle}/plugins.
type AddPluginRequest struct {
	Name string `json:"name"`
}

// Add handles POST /api/profiles/{handle}/plugins.
func (h *MutationHandler) Add(w http.ResponseWriter, r *http.Request) {
	handle := r.PathValue("handle")
	var req AddPluginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.registry.WithCore(handle, func(c *loadorder.Core) error {
		return c.Add(r.Context(), req.Name)
	})
	if err != nil {
		writeHandleOrLoadOrderError(w, err)
		return
	}
	WriteSuccess(w, "plugin added")
}

// Remove handles DELETE /api/profiles/{handle}/plugins/{name}. The
// installed query parameter should reflect whether the plugin's file
// is still present on disk.
func (h *MutationHandler) Remove(w http.ResponseWriter, r *http.Request) {
	handle := r.PathValue("handle")
	name := r.PathValue("name")
	installed := r.URL.Query().Get("installed") == "true"

	err := h.registry.WithCore(handle, func(c *loadorder.Core) error {
		return c.Remove(r.Context(), name, installed)
	})
	if err != nil {
		writeHandleOrLoadOrderError(w, err)
		return
	}
	WriteSuccess(w, "plugin removed")
}

// SetLoadOrderRequest is the request body for PUT /api/profiles/{handle}/loadorder.
type SetLoadOrderRequest struct {
	Names []string `json:"names"`
}

// SetLoadOrder handles PUT /api/profiles/{handle}/loadorder.
func (h *MutationHandler) SetLoadOrder(w http.ResponseWriter, r *http.Request) {
	handle := r.PathValue("handle")
	var req SetLoadOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.registry.WithCore(handle, func(c *loadorder.Core) error {
		return c.SetLoadOrder(r.Context(), req.Names)
	})
	if err != nil {
		writeHandleOrLoadOrderError(w, err)
		return
	}
	WriteSuccess(w, "load order updated")
}

// SetPluginIndexRequest is the request body for
// PUT /api/profiles/{handle}/plugins/{name}/index.
type SetPluginIndexRequest struct {
	Position int `json:"position"`
}

// SetPluginIndex handles PUT /api/profiles/{handle}/plugins/{name}/index.
func (h *MutationHandler) SetPluginIndex(w http.ResponseWriter, r *http.Request) {
	handle := r.PathValue("handle")
	name := r.PathValue("name")
	var req SetPluginIndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.registry.WithCore(handle, func(c *loadorder.Core) error {
		return c.SetPluginIndex(r.Context(), name, req.Position)
	})
	if err != nil {
		writeHandleOrLoadOrderError(w, err)
		return
	}
	WriteSuccess(w, "plugin position updated")
}

// Activate handles POST /api/profiles/{handle}/plugins/{name}/activate.
func (h *MutationHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.toggleActive(w, r, func(c *loadorder.Core, name string) error { return c.Activate(name) }, "plugin activated")
}

// Deactivate handles POST /api/profiles/{handle}/plugins/{name}/deactivate.
func (h *MutationHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.toggleActive(w, r, func(c *loadorder.Core, name string) error { return c.Deactivate(name) }, "plugin deactivated")
}

func (h *MutationHandler) toggleActive(w http.ResponseWriter, r *http.Request, op func(*loadorder.Core, string) error, message string) {
	handle := r.PathValue("handle")
	name := r.PathValue("name")

	err := h.registry.WithCore(handle, func(c *loadorder.Core) error {
		return op(c, name)
	})
	if err != nil {
		writeHandleOrLoadOrderError(w, err)
		return
	}
	WriteSuccess(w, message)
}

// SetActivePluginsRequest is the request body for PUT /api/profiles/{handle}/active.
type SetActivePluginsRequest struct {
	Names []string `json:"names"`
}

// SetActivePlugins handles PUT /api/profiles/{handle}/active.
func (h *MutationHandler) SetActivePlugins(w http.ResponseWriter, r *http.Request) {
	handle := r.PathValue("handle")
	var req SetActivePluginsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.registry.WithCore(handle, func(c *loadorder.Core) error {
		return c.SetActivePlugins(req.Names)
	})
	if err != nil {
		writeHandleOrLoadOrderError(w, err)
		return
	}
	WriteSuccess(w, "active plugins updated")
}
