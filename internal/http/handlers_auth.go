package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"insights/internal/core"
	"insights/internal/log"
	"insights/internal/store"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Locale   string `json:"locale"`
	Currency string `json:"currency"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token string    `json:"token"`
	User  core.User `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "a valid email is required")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}
	if req.Locale == "" {
		req.Locale = "en-CA"
	}
	if req.Currency == "" {
		req.Currency = "CAD"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "hash password", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	user, err := s.store.CreateUser(r.Context(), store.NewUser{
		Email:        req.Email,
		Name:         req.Name,
		Locale:       req.Locale,
		Currency:     req.Currency,
		PasswordHash: string(hash),
	})
	if err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			writeError(w, http.StatusConflict, "email already registered")
			return
		}
		s.logger.ErrorContext(r.Context(), "create user", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.startSession(w, r, user, http.StatusCreated)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.store.FindUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no account for that email")
			return
		}
		s.logger.ErrorContext(r.Context(), "find user", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	s.startSession(w, r, user, http.StatusOK)
}

// handleDemoLogin signs into the seeded demo account without a password.
func (s *Server) handleDemoLogin(w http.ResponseWriter, r *http.Request) {
	if s.demoEmail == "" {
		writeError(w, http.StatusNotFound, "demo mode is not enabled")
		return
	}
	user, err := s.store.FindUserByEmail(r.Context(), s.demoEmail)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "demo user is not seeded")
			return
		}
		s.logger.ErrorContext(r.Context(), "find demo user", log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.startSession(w, r, user, http.StatusOK)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := sessionToken(r); token != "" {
		if err := s.store.DeleteSession(r.Context(), token); err != nil {
			s.logger.WarnContext(r.Context(), "delete session", log.FieldError, err)
		}
	}
	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// startSession creates a session, sets the cookie, and writes the response.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, user core.User, status int) {
	session, err := s.store.CreateSession(r.Context(), user.ID, s.sessionTTL)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "create session",
			log.FieldError, err, log.FieldUserID, user.ID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, status, sessionResponse{Token: session.Token, User: user})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
