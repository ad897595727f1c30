package api

import (
	"net/http"

	"github.com/nerrad567/rza-core/internal/audit"
)

// handleListAuditLogs returns paginated audit log entries, newest first.
//
// Query parameters:
//   - action: create, update, delete, create_revision, update_revision, activate_revision
//   - entity_name: Substation, Panel, SettingRevision, ...
//   - entity_id: a specific entity id
//   - actor: who made the change
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := audit.Filter{
		Action:     q.Get("action"),
		EntityName: q.Get("entity_name"),
		Actor:      q.Get("actor"),
	}

	var err error
	if filter.EntityID, err = queryInt64(r, "entity_id"); err != nil {
		writeValidationError(w, err.Error())
		return
	}
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		writeValidationError(w, err.Error())
		return
	}
	if filter.Offset, err = queryInt(r, "offset"); err != nil {
		writeValidationError(w, err.Error())
		return
	}

	result, err := s.auditRepo.List(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
