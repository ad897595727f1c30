package api

import (
	"net/http"

	"github.com/nerrad567/rza-core/internal/settings"
)

// ─── Device configurations ─────────────────────────────────────────

// handleListConfigs returns configurations with their revisions,
// optionally filtered by device_id.
func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	deviceID, err := queryInt64(r, "device_id")
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}
	configs, err := s.settings.ListConfigs(r.Context(), deviceID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, configs)
}

// handleCreateConfig creates a configuration for an existing device.
func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	var req settings.ConfigCreate
	if !decodeJSON(w, r, &req) {
		return
	}
	cfg, err := s.settings.CreateConfig(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, cfg)
}

// handleGetConfig returns a configuration with its revisions.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	cfg, err := s.settings.GetConfig(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req settings.ConfigPatch
	if !decodeJSON(w, r, &req) {
		return
	}
	cfg, err := s.settings.UpdateConfig(r.Context(), id, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// ─── Setting revisions ─────────────────────────────────────────────

// handleListRevisions returns the revisions of configuration {id}.
func (s *Server) handleListRevisions(w http.ResponseWriter, r *http.Request) {
	configID, ok := pathID(w, r)
	if !ok {
		return
	}
	revs, err := s.settings.ListRevisions(r.Context(), configID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, revs)
}

// handleCreateRevision creates a revision of configuration {id}. A revision
// created active supersedes the current active one.
func (s *Server) handleCreateRevision(w http.ResponseWriter, r *http.Request) {
	configID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req settings.RevisionCreate
	if !decodeJSON(w, r, &req) {
		return
	}
	rev, err := s.settings.CreateRevision(r.Context(), configID, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rev)
}

func (s *Server) handleGetRevision(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rev, err := s.settings.GetRevision(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rev)
}

// handleUpdateRevision applies a partial update. Setting is_active to true
// supersedes the sibling revisions.
func (s *Server) handleUpdateRevision(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req settings.RevisionPatch
	if !decodeJSON(w, r, &req) {
		return
	}
	rev, err := s.settings.UpdateRevision(r.Context(), id, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rev)
}

// handleActivateRevision makes revision {id} the single active revision
// of its configuration.
func (s *Server) handleActivateRevision(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rev, err := s.settings.ActivateRevision(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rev)
}
