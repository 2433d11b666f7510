// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package api exposes the orchestrator over JSON HTTP: running and listing
// analyses, comparisons, strategy side-by-sides, live progress, and
// follow-up questions.
package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pdiddy/intellidrug/internal/archive"
	"github.com/pdiddy/intellidrug/internal/conversation"
	"github.com/pdiddy/intellidrug/internal/orchestrate"
	"github.com/pdiddy/intellidrug/pkg/types"
)

// Archive is the persistence the server reads and writes.
type Archive interface {
	SaveAnalysis(ctx context.Context, a *types.Analysis) (string, error)
	LoadAnalysis(ctx context.Context, id string) (types.Analysis, error)
	ListAnalyses(ctx context.Context, subject string, limit int) ([]archive.AnalysisEntry, error)
	SaveComparison(ctx context.Context, c *types.Comparison) (string, error)
	LoadComparison(ctx context.Context, id string) (types.Comparison, error)
	ListComparisons(ctx context.Context, limit int) ([]archive.ComparisonEntry, error)
}

var _ Archive = (*archive.Store)(nil)

// Server routes API requests to the orchestrator, archive and follow-up
// session.
type Server struct {
	orch    *orchestrate.Orchestrator
	archive Archive
	session *conversation.Session
	token   string
	logger  *slog.Logger
	router  chi.Router
}

// New builds a server. When token is non-empty every /api request must
// carry it as a bearer token.
func New(orch *orchestrate.Orchestrator, store Archive, session *conversation.Session, token string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		orch:    orch,
		archive: store,
		session: session,
		token:   token,
		logger:  logger,
	}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get("/strategies", s.handleStrategies)
		r.Get("/progress", s.handleProgress)

		r.Post("/analyses", s.handleAnalyze)
		r.Get("/analyses", s.handleListAnalyses)
		r.Get("/analyses/{id}", s.handleGetAnalysis)
		r.Get("/analyses/{id}/strategies", s.handleAnalysisStrategies)

		r.Post("/comparisons", s.handleCompare)
		r.Get("/comparisons", s.handleListComparisons)
		r.Get("/comparisons/{id}", s.handleGetComparison)

		r.Get("/conversations", s.handleConversation)
		r.Post("/conversations/ask", s.handleAsk)
	})
	return r
}

// authenticate rejects requests without the configured bearer token.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(s.token)) != 1 {
				writeError(w, http.StatusUnauthorized, errors.New("missing or invalid bearer token"))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"elapsed", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// ListenAndServe serves on cfg.Addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, cfg types.ServerConfig) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serving %s: %w", cfg.Addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
