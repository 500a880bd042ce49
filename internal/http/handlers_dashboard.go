package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cashflow/internal/core"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)

	period, err := periodFrom(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid start or end date")
		return
	}

	key := summaryCacheKey(session.Email, period)
	if report, found := s.summaryCache.Get(key); found {
		slog.DebugContext(r.Context(), "Summary cache hit", "user", session.Email)
		respondJSON(w, http.StatusOK, report)
		return
	}

	report, err := s.ledger.Summary(r.Context(), session.Email, period)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	s.summaryCache.Set(key, report)
	respondJSON(w, http.StatusOK, report)
}

// summaryCacheKey is prefixed by the owner so a mutation can drop all of a
// user's entries at once.
func summaryCacheKey(email string, p core.Period) string {
	var b strings.Builder
	b.WriteString(email)
	b.WriteString(":summary:")
	if p.Start != nil {
		b.WriteString(p.Start.Format("2006-01-02"))
	}
	b.WriteString(":")
	if p.End != nil {
		b.WriteString(p.End.Format("2006-01-02"))
	}
	return b.String()
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)

	insights, err := s.ledger.Insights(r.Context(), session.Email)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, insights)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)

	notifications, err := s.ledger.Notifications(r.Context(), session.Email)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if notifications == nil {
		notifications = []core.Notification{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
}

func (s *Server) handleMonthlySavings(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)

	year := time.Now().Year()
	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 2000 || y > 2099 {
			respondError(w, http.StatusBadRequest, "invalid year")
			return
		}
		year = y
	}

	months, err := s.ledger.MonthlySavings(r.Context(), session.Email, year)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"year": year, "months": months})
}
