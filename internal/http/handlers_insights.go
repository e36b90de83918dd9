package http

import (
	"net/http"
	"strings"

	"insights/internal/core"
	"insights/internal/log"
)

func (s *Server) handleListInsights(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())

	modules, err := s.store.InsightModules(r.Context(), user.ID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "load insight modules",
			log.FieldError, err, log.FieldUserID, user.ID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if modules == nil {
		modules = []core.InsightModule{}
	}
	writeJSON(w, http.StatusOK, modules)
}

type insightFeedbackRequest struct {
	InsightID string `json:"insightId"`
	Value     string `json:"value"`
	Comment   string `json:"comment"`
}

func (s *Server) handleInsightFeedback(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())

	var req insightFeedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.InsightID) == "" {
		writeError(w, http.StatusBadRequest, "insightId is required")
		return
	}
	if !validFeedbackValue(req.Value) {
		writeError(w, http.StatusBadRequest, "unknown feedback value")
		return
	}

	feedback, err := s.store.RecordInsightFeedback(r.Context(), core.InsightFeedback{
		UserID:    user.ID,
		InsightID: req.InsightID,
		Value:     req.Value,
		Comment:   req.Comment,
	})
	if err != nil {
		s.logger.ErrorContext(r.Context(), "record insight feedback",
			log.FieldError, err, log.FieldUserID, user.ID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, feedback)
}

func validFeedbackValue(value string) bool {
	for _, opt := range feedbackOptions {
		if opt.Value == value {
			return true
		}
	}
	return false
}
