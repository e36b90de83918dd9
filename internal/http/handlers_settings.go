package http

import (
	"net/http"

	"insights/internal/category"
	"insights/internal/core"
	"insights/internal/log"
	"insights/internal/store"
)

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())
	writeJSON(w, http.StatusOK, user)
}

type updateProfileRequest struct {
	Name     *string `json:"name"`
	Locale   *string `json:"locale"`
	Currency *string `json:"currency"`
	Province *string `json:"province"`
	Phone    *string `json:"phone"`
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := s.store.UpdateUser(r.Context(), user.ID, store.UserUpdate{
		Name:     req.Name,
		Locale:   req.Locale,
		Currency: req.Currency,
		Province: req.Province,
		Phone:    req.Phone,
	})
	if err != nil {
		s.logger.ErrorContext(r.Context(), "update profile",
			log.FieldError, err, log.FieldUserID, user.ID)
		writeError(w, storeStatus(err), "could not update profile")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())

	accounts, err := s.store.ListAccounts(r.Context(), user.ID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "list accounts",
			log.FieldError, err, log.FieldUserID, user.ID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if accounts == nil {
		accounts = []core.Account{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

// handleListCategories serves the static category set.
func (s *Server) handleListCategories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, category.All())
}

type feedbackOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var feedbackOptions = []feedbackOption{
	{Value: "useful", Label: "This was useful"},
	{Value: "not_relevant", Label: "Not relevant to me"},
	{Value: "already_knew", Label: "I already knew this"},
	{Value: "incorrect", Label: "This looks wrong"},
}

func (s *Server) handleFeedbackOptions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, feedbackOptions)
}
