package api

import (
	"net/http"

	"github.com/nerrad567/rza-core/internal/asset"
)

// ─── Panels ────────────────────────────────────────────────────────

// handleListPanels returns panels with their devices, optionally filtered by bay_id.
func (s *Server) handleListPanels(w http.ResponseWriter, r *http.Request) {
	bayID, err := queryInt64(r, "bay_id")
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}
	panels, err := s.assets.ListPanels(r.Context(), bayID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, panels)
}

// handleCreatePanel creates a panel in an existing bay.
func (s *Server) handleCreatePanel(w http.ResponseWriter, r *http.Request) {
	var req asset.PanelCreate
	if !decodeJSON(w, r, &req) {
		return
	}
	panel, err := s.assets.CreatePanel(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, panel)
}

// handleGetPanel returns a panel with its devices.
func (s *Server) handleGetPanel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	panel, err := s.assets.GetPanel(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, panel)
}

func (s *Server) handleUpdatePanel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req asset.PanelPatch
	if !decodeJSON(w, r, &req) {
		return
	}
	panel, err := s.assets.UpdatePanel(r.Context(), id, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, panel)
}

// handleDeletePanel deletes a panel and, through cascades, its devices,
// their configurations and revisions.
func (s *Server) handleDeletePanel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.assets.DeletePanel(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Devices ───────────────────────────────────────────────────────

// handleListDevices returns the devices mounted in the panel {id}.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	panelID, ok := pathID(w, r)
	if !ok {
		return
	}
	devices, err := s.assets.ListDevices(r.Context(), panelID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, devices)
}

// handleCreateDevice creates a device in the panel {id}. A panel_id in the
// body must match the path.
func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	panelID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req asset.DeviceCreate
	if !decodeJSON(w, r, &req) {
		return
	}
	dev, err := s.assets.CreateDevice(r.Context(), panelID, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dev)
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	dev, err := s.assets.GetDevice(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dev)
}

func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req asset.DevicePatch
	if !decodeJSON(w, r, &req) {
		return
	}
	dev, err := s.assets.UpdateDevice(r.Context(), id, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dev)
}

func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.assets.DeleteDevice(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
