package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"cashflow/internal/core"
	"cashflow/internal/services"
	"cashflow/internal/storage"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service errors onto HTTP statuses: validation
// failures are 422, missing records 404, everything else 500 with a generic
// body.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case isValidationError(err):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, services.ErrBadCredentials):
		respondError(w, http.StatusUnauthorized, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Request failed", "error", err, "url", r.URL.Path)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func isValidationError(err error) bool {
	for _, sentinel := range []error{
		core.ErrInvalidAmount, core.ErrInvalidType, core.ErrEmptyNote,
		core.ErrInvalidEmail, core.ErrInvalidPIN, core.ErrEmptyName,
		core.ErrEmptyText, core.ErrInvalidDate, core.ErrDuplicateEmail,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func sessionFrom(r *http.Request) core.Session {
	session, _ := r.Context().Value(sessionKey).(core.Session)
	return session
}

// periodFrom reads optional start/end query parameters (YYYY-MM-DD).
func periodFrom(r *http.Request) (core.Period, error) {
	var p core.Period
	if v := strings.TrimSpace(r.URL.Query().Get("start")); v != "" {
		t, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			return core.Period{}, core.ErrInvalidDate
		}
		p.Start = &t
	}
	if v := strings.TrimSpace(r.URL.Query().Get("end")); v != "" {
		t, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			return core.Period{}, core.ErrInvalidDate
		}
		p.End = &t
	}
	return p, nil
}
