package api

import (
	"net/http"

	"github.com/nerrad567/rza-core/internal/asset"
)

// ─── Substations ───────────────────────────────────────────────────

// handleListSubstations returns every substation with its switchgears,
// bays and documents embedded.
func (s *Server) handleListSubstations(w http.ResponseWriter, r *http.Request) {
	subs, err := s.assets.ListSubstations(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

// handleCreateSubstation creates a substation.
func (s *Server) handleCreateSubstation(w http.ResponseWriter, r *http.Request) {
	var req asset.SubstationCreate
	if !decodeJSON(w, r, &req) {
		return
	}
	sub, err := s.assets.CreateSubstation(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

// handleGetSubstation returns a single substation with its children.
func (s *Server) handleGetSubstation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sub, err := s.assets.GetSubstation(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// handleUpdateSubstation applies a partial update. PUT and PATCH share it.
func (s *Server) handleUpdateSubstation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req asset.SubstationPatch
	if !decodeJSON(w, r, &req) {
		return
	}
	sub, err := s.assets.UpdateSubstation(r.Context(), id, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// handleDeleteSubstation deletes a substation and everything below it.
func (s *Server) handleDeleteSubstation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.assets.DeleteSubstation(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Switchgears ───────────────────────────────────────────────────

// handleListSwitchgears returns switchgears, optionally filtered by substation_id.
func (s *Server) handleListSwitchgears(w http.ResponseWriter, r *http.Request) {
	substationID, err := queryInt64(r, "substation_id")
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}
	sgs, err := s.assets.ListSwitchgears(r.Context(), substationID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sgs)
}

// handleCreateSwitchgear creates a switchgear under an existing substation.
func (s *Server) handleCreateSwitchgear(w http.ResponseWriter, r *http.Request) {
	var req asset.SwitchgearCreate
	if !decodeJSON(w, r, &req) {
		return
	}
	sg, err := s.assets.CreateSwitchgear(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sg)
}

// handleGetSwitchgear returns a switchgear with its bays.
func (s *Server) handleGetSwitchgear(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sg, err := s.assets.GetSwitchgear(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sg)
}

// handleUpdateSwitchgear applies a partial update.
func (s *Server) handleUpdateSwitchgear(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req asset.SwitchgearPatch
	if !decodeJSON(w, r, &req) {
		return
	}
	sg, err := s.assets.UpdateSwitchgear(r.Context(), id, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sg)
}

// handleDeleteSwitchgear deletes a switchgear and its bays.
func (s *Server) handleDeleteSwitchgear(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.assets.DeleteSwitchgear(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Bays ──────────────────────────────────────────────────────────

// handleListBays returns bays, optionally filtered by switchgear_id.
func (s *Server) handleListBays(w http.ResponseWriter, r *http.Request) {
	switchgearID, err := queryInt64(r, "switchgear_id")
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}
	bays, err := s.assets.ListBays(r.Context(), switchgearID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bays)
}

// handleCreateBay creates a bay under an existing switchgear.
func (s *Server) handleCreateBay(w http.ResponseWriter, r *http.Request) {
	var req asset.BayCreate
	if !decodeJSON(w, r, &req) {
		return
	}
	bay, err := s.assets.CreateBay(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, bay)
}

func (s *Server) handleGetBay(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	bay, err := s.assets.GetBay(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bay)
}

func (s *Server) handleUpdateBay(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req asset.BayPatch
	if !decodeJSON(w, r, &req) {
		return
	}
	bay, err := s.assets.UpdateBay(r.Context(), id, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bay)
}

func (s *Server) handleDeleteBay(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.assets.DeleteBay(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Documents ─────────────────────────────────────────────────────

// handleListDocuments returns documents, optionally filtered by substation_id.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	substationID, err := queryInt64(r, "substation_id")
	if err != nil {
		writeValidationError(w, err.Error())
		return
	}
	docs, err := s.assets.ListDocuments(r.Context(), substationID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var req asset.DocumentCreate
	if !decodeJSON(w, r, &req) {
		return
	}
	doc, err := s.assets.CreateDocument(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	doc, err := s.assets.GetDocument(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleUpdateDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req asset.DocumentPatch
	if !decodeJSON(w, r, &req) {
		return
	}
	doc, err := s.assets.UpdateDocument(r.Context(), id, req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.assets.DeleteDocument(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
