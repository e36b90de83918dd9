package http

import (
	"net/http"
	"time"

	"insights/internal/core"
	"insights/internal/dashboard"
	"insights/internal/log"
)

// handleDashboardSummary aggregates the user's transactions on the fly;
// nothing is precomputed or cached. periodOffset and labelId are accepted
// for client compatibility but not yet interpreted.
func (s *Server) handleDashboardSummary(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())

	timeframe, known := core.ParseTimeframe(r.URL.Query().Get("timeframe"))
	if !known {
		s.logger.DebugContext(r.Context(), "unknown timeframe, defaulting",
			log.FieldTimeframe, r.URL.Query().Get("timeframe"))
	}

	transactions, err := s.store.TransactionsForUser(r.Context(), user.ID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "load transactions",
			log.FieldError, err, log.FieldUserID, user.ID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	summary := dashboard.Summarize(transactions, timeframe, time.Now().UTC())
	writeJSON(w, http.StatusOK, summary)
}
