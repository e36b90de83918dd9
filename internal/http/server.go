// Package http is the REST surface of the service: session auth, statement
// upload, transaction listing, dashboard summaries, settings and insights.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"insights/internal/event"
	"insights/internal/log"
	"insights/internal/store"
)

type Server struct {
	http.Server
	store       store.Store
	events      *event.Client
	logger      *log.Logger
	sessionTTL  time.Duration
	demoEmail   string
	rateLimiter *rateLimiter

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server. events may be nil when AMQP is not configured.
func NewServer(addr string, st store.Store, events *event.Client, sessionTTL time.Duration, demoEmail string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	s := &Server{
		store:       st,
		events:      events,
		logger:      logger.WithComponent(log.ComponentHTTP),
		sessionTTL:  sessionTTL,
		demoEmail:   demoEmail,
		rateLimiter: newRateLimiter(),
	}

	r := mux.NewRouter()
	r.Use(s.withRequestContext)

	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/auth/demo", s.handleDemoLogin).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", s.handleLogout).Methods(http.MethodPost)

	authed := api.NewRoute().Subrouter()
	authed.Use(s.withAuth)
	authed.HandleFunc("/auth/me", s.handleMe).Methods(http.MethodGet)

	authed.HandleFunc("/transactions", s.handleListTransactions).Methods(http.MethodGet)
	authed.HandleFunc("/transactions", s.handleCreateTransaction).Methods(http.MethodPost)
	authed.HandleFunc("/transactions/upload", s.handleUploadStatement).Methods(http.MethodPost)
	authed.HandleFunc("/transactions/{id}/category", s.handleRecategorize).Methods(http.MethodPatch)

	authed.HandleFunc("/dashboard/summary", s.handleDashboardSummary).Methods(http.MethodGet)

	authed.HandleFunc("/settings/profile", s.handleGetProfile).Methods(http.MethodGet)
	authed.HandleFunc("/settings/profile", s.handleUpdateProfile).Methods(http.MethodPatch)
	authed.HandleFunc("/settings/accounts", s.handleListAccounts).Methods(http.MethodGet)
	authed.HandleFunc("/settings/categories", s.handleListCategories).Methods(http.MethodGet)
	authed.HandleFunc("/settings/feedback-options", s.handleFeedbackOptions).Methods(http.MethodGet)

	authed.HandleFunc("/insights", s.handleListInsights).Methods(http.MethodGet)
	authed.HandleFunc("/insights/feedback", s.handleInsightFeedback).Methods(http.MethodPost)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports readiness by probing the store with a throwaway lookup.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.FindUserByID(r.Context(), "readiness-probe"); err != nil && storeStatus(err) != http.StatusNotFound {
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
