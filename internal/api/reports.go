package api

import (
	"net/http"
	"strings"

	"github.com/nerrad567/rza-core/internal/report"
)

// handleSummaryReport returns entity counts.
func (s *Server) handleSummaryReport(w http.ResponseWriter, r *http.Request) {
	summary, err := s.reports.Summary(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleTopologyReport returns devices with their place in the hierarchy.
//
// Query parameters:
//   - vendor, model: case-insensitive substring match
//   - substation_id, switchgear_id, bay_id, panel_id: exact match
func (s *Server) handleTopologyReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := report.TopologyFilter{
		Vendor: strings.TrimSpace(q.Get("vendor")),
		Model:  strings.TrimSpace(q.Get("model")),
	}

	ids := []struct {
		name string
		dst  **int64
	}{
		{"substation_id", &filter.SubstationID},
		{"switchgear_id", &filter.SwitchgearID},
		{"bay_id", &filter.BayID},
		{"panel_id", &filter.PanelID},
	}
	for _, p := range ids {
		v, err := queryInt64(r, p.name)
		if err != nil {
			writeValidationError(w, err.Error())
			return
		}
		*p.dst = v
	}

	rows, err := s.reports.DeviceTopology(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// handleSettingsHistoryReport returns revisions newest first.
//
// Query parameters:
//   - device_id, config_id, substation_id: exact match
//   - limit: max results (default 50, clamped to 1..500)
func (s *Server) handleSettingsHistoryReport(w http.ResponseWriter, r *http.Request) {
	var filter report.HistoryFilter
	var err error
	if filter.DeviceID, err = queryInt64(r, "device_id"); err != nil {
		writeValidationError(w, err.Error())
		return
	}
	if filter.ConfigID, err = queryInt64(r, "config_id"); err != nil {
		writeValidationError(w, err.Error())
		return
	}
	if filter.SubstationID, err = queryInt64(r, "substation_id"); err != nil {
		writeValidationError(w, err.Error())
		return
	}
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		writeValidationError(w, err.Error())
		return
	}

	rows, err := s.reports.SettingsHistory(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// handleDeviceHistoryReport returns a device with every configuration and
// revision it has had.
func (s *Server) handleDeviceHistoryReport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	history, err := s.reports.DeviceHistory(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// handleStructureReport returns the full tree below a substation.
func (s *Server) handleStructureReport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	structure, err := s.reports.SubstationStructure(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, structure)
}
