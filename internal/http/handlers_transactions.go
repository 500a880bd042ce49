package http

import (
	"net/http"
	"strings"

	"cashflow/internal/core"
	"cashflow/internal/services"
)

// transactionRequest accepts amounts as JSON numbers or decimal strings
// (dot or comma separator), courtesy of Money's decoder.
type transactionRequest struct {
	Type     core.TxType `json:"type"`
	Amount   core.Money  `json:"amount"`
	Note     string      `json:"note"`
	Category string      `json:"category"`
}

func (req transactionRequest) input() services.TransactionInput {
	return services.TransactionInput{
		Type:     req.Type,
		Amount:   req.Amount,
		Note:     req.Note,
		Category: req.Category,
	}
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)

	period, err := periodFrom(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid start or end date")
		return
	}
	filter := services.ListFilter{
		Period: period,
		Type:   core.TxType(strings.TrimSpace(r.URL.Query().Get("type"))),
		Search: r.URL.Query().Get("q"),
	}
	if filter.Type != "" && !filter.Type.Valid() {
		respondError(w, http.StatusBadRequest, "invalid type filter")
		return
	}

	txs, err := s.ledger.ListTransactions(r.Context(), session.Email, filter)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"transactions": txs})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)

	var req transactionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	tx, err := s.ledger.CreateTransaction(r.Context(), session.Email, req.input())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.invalidateUser(session.Email)
	respondJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	id := r.PathValue("id")

	var req transactionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	tx, err := s.ledger.UpdateTransaction(r.Context(), session.Email, id, req.input())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.invalidateUser(session.Email)
	respondJSON(w, http.StatusOK, tx)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	id := r.PathValue("id")

	if err := s.ledger.DeleteTransaction(r.Context(), session.Email, id); err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.invalidateUser(session.Email)
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
