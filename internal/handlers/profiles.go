package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mod-troubleshooter/loadorder/internal/config"
	"github.com/mod-troubleshooter/loadorder/internal/game"
	"github.com/mod-troubleshooter/loadorder/internal/handleregistry"
	"github.com/mod-troubleshooter/loadorder/internal/loadorder"
	"github.com/mod-troubleshooter/loadorder/internal/metadata"
)

// ProfileHandler serves the load order lifecycle endpoints: opening a
// handle onto a game install, loading and saving its load order, and
// closing the handle when a client is done with it.
type ProfileHandler struct {
	registry *handleregistry.Registry
	provider metadata.Provider
}

// NewProfileHandler builds a ProfileHandler backed by registry, using
// provider to resolve plugin metadata for every Core it opens.
func NewProfileHandler(registry *handleregistry.Registry, provider metadata.Provider) *ProfileHandler {
	return &ProfileHandler{registry: registry, provider: provider}
}

// OpenProfileRequest is the request body for POST /api/profiles.
type OpenProfileRequest struct {
	Game                       string   `json:"game"`
	PluginsDirectory           string   `json:"pluginsDirectory"`
	AdditionalPluginsDirectory []string `json:"additionalPluginsDirectory"`
	ActivePluginsFile          string   `json:"activePluginsFile"`
	LoadOrderFile              string   `json:"loadOrderFile"`
}

// OpenProfileResponse is returned by POST /api/profiles.
type OpenProfileResponse struct {
	Handle string `json:"handle"`
	Game   string `json:"game"`
	Method string `json:"method"`
}

// Open handles POST /api/profiles: it resolves the named game profile,
// builds a Core over the given paths, and registers it under a new
// handle.
func (h *ProfileHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req OpenProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	gameID, err := config.ParseGameSlug(req.Game)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	profile, ok := game.Lookup(gameID)
	if !ok {
		WriteError(w, http.StatusBadRequest, "unsupported game")
		return
	}
	if req.PluginsDirectory == "" {
		WriteError(w, http.StatusBadRequest, "pluginsDirectory is required")
		return
	}

	core := loadorder.New(profile, loadorder.Paths{
		PluginsDirectory:           req.PluginsDirectory,
		AdditionalPluginsDirectory: req.AdditionalPluginsDirectory,
		ActivePluginsFile:          req.ActivePluginsFile,
		LoadOrderFile:              req.LoadOrderFile,
	}, h.provider)

	handle := h.registry.Open(core)
	WriteJSON(w, http.StatusCreated, OpenProfileResponse{
		Handle: handle,
		Game:   profile.Name,
		Method: profile.Method.String(),
	})
}

// Close handles DELETE /api/profiles/{handle}: it discards the handle
// without touching anything on disk.
func (h *ProfileHandler) Close(w http.ResponseWriter, r *http.Request) {
	handle := r.PathValue("handle")
	if err := h.registry.Close(handle); err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	WriteSuccess(w, "profile closed")
}

// Load handles POST /api/profiles/{handle}/load: it reconciles the
// persisted load order with a fresh directory scan.
func (h *ProfileHandler) Load(w http.ResponseWriter, r *http.Request) {
	handle := r.PathValue("handle")
	err := h.registry.WithCore(handle, func(c *loadorder.Core) error {
		return c.Load(r.Context())
	})
	if err != nil {
		writeHandleOrLoadOrderError(w, err)
		return
	}
	WriteSuccess(w, "load order loaded")
}

// ListPlugins handles GET /api/profiles/{handle}/plugins.
func (h *ProfileHandler) ListPlugins(w http.ResponseWriter, r *http.Request) {
	handle := r.PathValue("handle")
	var entries []loadorder.Entry
	err := h.registry.WithCore(handle, func(c *loadorder.Core) error {
		entries = c.Plugins()
		return nil
	})
	if err != nil {
		writeHandleOrLoadOrderError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, pluginViews(entries))
}

// Consistency handles GET /api/profiles/{handle}/consistency.
func (h *ProfileHandler) Consistency(w http.ResponseWriter, r *http.Request) {
	handle := r.PathValue("handle")

	type result struct {
		SelfConsistent bool `json:"selfConsistent"`
		Ambiguous      bool `json:"ambiguous"`
	}
	var res result
	err := h.registry.WithCore(handle, func(c *loadorder.Core) error {
		consistent, err := c.IsSelfConsistent()
		if err != nil {
			return err
		}
		ambiguous, err := c.IsAmbiguous()
		if err != nil {
			return err
		}
		res = result{SelfConsistent: consistent, Ambiguous: ambiguous}
		return nil
	})
	if err != nil {
		writeHandleOrLoadOrderError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

// PluginView is the JSON shape of one load order entry.
type PluginView struct {
	Name     string `json:"name"`
	IsMaster bool   `json:"isMaster"`
	IsLight  bool   `json:"isLight"`
	Active   bool   `json:"active"`
}

func pluginViews(entries []loadorder.Entry) []PluginView {
	out := make([]PluginView, len(entries))
	for i, e := range entries {
		out[i] = PluginView{Name: e.Name, IsMaster: e.IsMaster, IsLight: e.IsLight, Active: e.Active}
	}
	return out
}

// writeHandleOrLoadOrderError distinguishes an unknown-handle error
// (404) from every other load order error, which WriteLoadOrderError
// maps by loaderr.Code.
func writeHandleOrLoadOrderError(w http.ResponseWriter, err error) {
	if errors.Is(err, handleregistry.ErrHandleNotFound) {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	WriteLoadOrderError(w, err)
}
