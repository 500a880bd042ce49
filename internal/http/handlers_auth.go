package http

import (
	"net/http"

	"cashflow/internal/auth"
	"cashflow/internal/core"
)

type (
	registerRequest struct {
		Email string `json:"email"`
		Name  string `json:"name"`
		PIN   string `json:"pin"`
	}

	loginRequest struct {
		Email string `json:"email"`
		PIN   string `json:"pin"`
	}

	resetPINRequest struct {
		Email  string `json:"email"`
		NewPIN string `json:"newPin"`
	}

	authResponse struct {
		Token string    `json:"token"`
		User  core.User `json:"user"`
	}
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	u, err := s.ledger.Register(r.Context(), req.Email, req.Name, req.PIN)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	token, err := auth.NewToken(u, s.jwtSecret, s.tokenTTL)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, authResponse{Token: token, User: u})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	u, err := s.ledger.Login(r.Context(), req.Email, req.PIN)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	token, err := auth.NewToken(u, s.jwtSecret, s.tokenTTL)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, authResponse{Token: token, User: u})
}

func (s *Server) handleResetPIN(w http.ResponseWriter, r *http.Request) {
	var req resetPINRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.ledger.ResetPIN(r.Context(), req.Email, req.NewPIN); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "pin reset"})
}
