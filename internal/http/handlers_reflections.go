package http

import (
	"net/http"

	"cashflow/internal/core"
)

type addReflectionRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleListReflections(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)

	refs, err := s.ledger.ListReflections(r.Context(), session.Email)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if refs == nil {
		refs = []core.Reflection{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"reflections": refs})
}

func (s *Server) handleAddReflection(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)

	var req addReflectionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ref, err := s.ledger.AddReflection(r.Context(), session.Email, req.Text)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, ref)
}

func (s *Server) handleDeleteReflection(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)

	if err := s.ledger.DeleteReflection(r.Context(), session.Email, r.PathValue("id")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleDeleteAllReflections(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)

	if err := s.ledger.DeleteAllReflections(r.Context(), session.Email); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
