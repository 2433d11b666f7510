// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pdiddy/intellidrug/internal/archive"
	"github.com/pdiddy/intellidrug/internal/conversation"
	"github.com/pdiddy/intellidrug/internal/orchestrate"
	"github.com/pdiddy/intellidrug/internal/synthesis"
	"github.com/pdiddy/intellidrug/pkg/types"
)

// AnalyzeRequest is the body of POST /api/analyses.
type AnalyzeRequest struct {
	Subject  string `json:"subject"`
	Context  string `json:"context"`
	Strategy string `json:"strategy,omitempty"`
}

// ProgressResponse is returned by GET /api/progress.
type ProgressResponse struct {
	Subject  string              `json:"subject,omitempty"`
	Progress types.ProgressState `json:"progress"`
	Done     bool                `json:"done"`
}

// AskResponse is returned by POST /api/conversations/ask.
type AskResponse struct {
	Answer   string          `json:"answer"`
	Messages []types.Message `json:"messages"`
}

func (s *Server) handleStrategies(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, synthesis.Profiles())
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	subject := r.URL.Query().Get("subject")
	if subject == "" {
		p := s.orch.Progress()
		writeJSON(w, http.StatusOK, ProgressResponse{Progress: p, Done: p.Done()})
		return
	}
	p, ok := s.orch.SubjectProgress(subject)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("no comparison run for subject %q", subject))
		return
	}
	writeJSON(w, http.StatusOK, ProgressResponse{Subject: subject, Progress: p, Done: p.Done()})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if !decode(w, r, &req) {
		return
	}
	a, err := s.orch.Run(r.Context(), orchestrate.Request{
		Subject:  req.Subject,
		Context:  req.Context,
		Strategy: types.Strategy(req.Strategy),
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	if _, err := s.archive.SaveAnalysis(r.Context(), &a); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	limit, err := limitParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	entries, err := s.archive.ListAnalyses(r.Context(), r.URL.Query().Get("subject"), limit)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	a, err := s.archive.LoadAnalysis(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleAnalysisStrategies(w http.ResponseWriter, r *http.Request) {
	a, err := s.archive.LoadAnalysis(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	recs := make([]types.Recommendation, 0, len(types.Strategies))
	for _, st := range types.Strategies {
		recs = append(recs, s.orch.Resynthesize(a, st))
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req orchestrate.CompareRequest
	if !decode(w, r, &req) {
		return
	}
	c, err := s.orch.Compare(r.Context(), req)
	if err != nil {
		s.fail(w, err)
		return
	}
	if _, err := s.archive.SaveComparison(r.Context(), &c); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleListComparisons(w http.ResponseWriter, r *http.Request) {
	limit, err := limitParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	entries, err := s.archive.ListComparisons(r.Context(), limit)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleGetComparison(w http.ResponseWriter, r *http.Request) {
	c, err := s.archive.LoadComparison(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("subject") == "" {
		writeError(w, http.StatusBadRequest, errors.New("subject is required"))
		return
	}
	writeJSON(w, http.StatusOK, s.session.Store().Conversation(q.Get("subject"), q.Get("context")))
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var q conversation.Question
	if !decode(w, r, &q) {
		return
	}
	answer, err := s.session.Ask(r.Context(), q)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AskResponse{
		Answer:   answer,
		Messages: s.session.Store().Conversation(q.Subject, q.Context),
	})
}

// fail maps err onto a status code and writes it.
func (s *Server) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeError(w, status, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, orchestrate.ErrInvalidInput), errors.Is(err, conversation.ErrIncompleteQuestion):
		return http.StatusBadRequest
	case errors.Is(err, archive.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, orchestrate.ErrCanceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func limitParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	return n, nil
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
