package http

import (
	"net/http"

	"cashflow/internal/core"
)

type updateProfileRequest struct {
	Name   string `json:"name"`
	NewPIN string `json:"newPin,omitempty"`
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)

	u, err := s.ledger.GetUser(r.Context(), session.Email)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, u.Settings)
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)

	var settings core.Settings
	if !decodeBody(w, r, &settings) {
		return
	}

	u, err := s.ledger.SaveSettings(r.Context(), session.Email, settings)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	// Goal progress is part of the summary payload.
	s.invalidateUser(session.Email)
	respondJSON(w, http.StatusOK, u.Settings)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)

	var req updateProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	u, err := s.ledger.UpdateProfile(r.Context(), session.Email, req.Name, req.NewPIN)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)

	export, err := s.ledger.Export(r.Context(), session.Email)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="cashflow-export.json"`)
	respondJSON(w, http.StatusOK, export)
}

type importRequest struct {
	Transactions []core.Transaction `json:"transactions"`
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)

	var req importRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.ledger.Import(r.Context(), session.Email, req.Transactions); err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.invalidateUser(session.Email)
	respondJSON(w, http.StatusOK, map[string]any{"status": "imported", "count": len(req.Transactions)})
}
