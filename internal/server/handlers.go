package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/michaelbrown/switchboard/internal/settings"
	"github.com/michaelbrown/switchboard/internal/store"
)

// --- Response envelopes ---

type toolsResponse struct {
	Success bool            `json:"success"`
	Tools   []settings.Tool `json:"tools"`
	Message string          `json:"message,omitempty"`
}

type configResponse struct {
	Success bool          `json:"success"`
	Config  settings.Blob `json:"config,omitempty"`
	Message string        `json:"message,omitempty"`
}

type saveResponse struct {
	Success  bool   `json:"success"`
	Revision string `json:"revision,omitempty"`
	Message  string `json:"message,omitempty"`
}

type revisionsResponse struct {
	Success   bool             `json:"success"`
	Revisions []store.Revision `json:"revisions"`
	Message   string           `json:"message,omitempty"`
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// --- Tool handlers ---

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.LoadConfig(r.Context(), s.cfg.Document)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			// No config saved yet: an empty page, not an error.
			writeJSON(w, http.StatusOK, toolsResponse{Success: true, Tools: []settings.Tool{}})
			return
		}
		writeJSON(w, http.StatusInternalServerError, toolsResponse{
			Success: false,
			Tools:   []settings.Tool{},
			Message: err.Error(),
		})
		return
	}

	tools := doc.Config.Tools()

	// Attach discovered sub-tools. Sub-tools inherit the parent's enabled
	// flag; they are display-only.
	snapshot := s.registry.Snapshot()
	for i := range tools {
		subs := snapshot[tools[i].Name]
		for _, sub := range subs {
			sub.Enabled = tools[i].Enabled
			tools[i].SubTools = append(tools[i].SubTools, sub)
		}
	}

	writeJSON(w, http.StatusOK, toolsResponse{Success: true, Tools: tools})
}

// --- Configuration handlers ---

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	doc, err := s.store.LoadConfig(r.Context(), name)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			// Never-saved documents read as empty, so a fresh install can
			// open the editor.
			writeJSON(w, http.StatusOK, configResponse{Success: true, Config: settings.Blob{}})
			return
		}
		writeJSON(w, http.StatusInternalServerError, configResponse{Success: false, Message: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, configResponse{Success: true, Config: doc.Config})
}

func (s *Server) handleSaveConfig(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var blob settings.Blob
	if err := decodeJSON(r, &blob); err != nil {
		writeJSON(w, http.StatusBadRequest, saveResponse{Success: false, Message: "invalid JSON: " + err.Error()})
		return
	}

	doc, err := s.store.SaveConfig(r.Context(), name, blob)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, saveResponse{Success: false, Message: err.Error()})
		return
	}

	// Recompute derived state: reconnect tool servers per the new blob and
	// tell subscribed UIs to refetch.
	s.registry.Sync(doc.Config)
	s.events.Broadcast(Event{
		Type:     "config_updated",
		Document: doc.Name,
		Revision: doc.Revision,
		Seq:      doc.Seq,
	})

	writeJSON(w, http.StatusOK, saveResponse{Success: true, Revision: doc.Revision})
}

func (s *Server) handleListRevisions(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	revisions, err := s.store.ListRevisions(r.Context(), name, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, revisionsResponse{Success: false, Message: err.Error()})
		return
	}

	if revisions == nil {
		revisions = []store.Revision{}
	}
	writeJSON(w, http.StatusOK, revisionsResponse{Success: true, Revisions: revisions})
}

func (s *Server) handleGetRevision(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	revision := chi.URLParam(r, "revision")

	doc, err := s.store.GetRevision(r.Context(), name, revision)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeJSON(w, http.StatusNotFound, configResponse{Success: false, Message: "revision not found"})
		} else {
			writeJSON(w, http.StatusInternalServerError, configResponse{Success: false, Message: err.Error()})
		}
		return
	}

	writeJSON(w, http.StatusOK, configResponse{Success: true, Config: doc.Config})
}
