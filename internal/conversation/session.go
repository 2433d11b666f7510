// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/intellidrug/pkg/types"
)

// Responder turns a prompt into a free-text answer.
type Responder interface {
	Respond(ctx context.Context, prompt string) (string, error)
}

// ErrNoResponder is recorded when a question is asked without a configured
// responder.
var ErrNoResponder = errors.New("no responder configured")

// ErrIncompleteQuestion is returned by Ask when subject, worker or question
// text is blank.
var ErrIncompleteQuestion = errors.New("follow-up requires subject, worker and question")

// Question is a follow-up question addressed to one worker about one analysis.
type Question struct {
	Subject string `json:"subject"`
	Context string `json:"context"`
	Worker  string `json:"worker"`
	Text    string `json:"question"`
}

// Session answers follow-up questions and records every exchange in a Store.
type Session struct {
	store     *Store
	responder Responder
	logger    *slog.Logger
}

// NewSession returns a session over store. responder may be nil, in which
// case every answer records ErrNoResponder. A nil logger discards output.
func NewSession(store *Store, responder Responder, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{store: store, responder: responder, logger: logger}
}

// Store returns the session's store.
func (s *Session) Store() *Store { return s.store }

// Ask records the question, asks the responder with the worker's stored
// context, and records the reply. A responder failure is not returned as an
// error: the failure text is recorded and returned as the reply. Ask returns
// an error only when the question is incomplete.
func (s *Session) Ask(ctx context.Context, q Question) (string, error) {
	if strings.TrimSpace(q.Subject) == "" || strings.TrimSpace(q.Worker) == "" || strings.TrimSpace(q.Text) == "" {
		return "", ErrIncompleteQuestion
	}

	s.store.AddMessage(q.Subject, q.Context, types.Message{Role: types.RoleUser, Content: q.Text})

	wctx, _ := s.store.WorkerContext(q.Subject, q.Worker)
	answer, err := s.respond(ctx, BuildPrompt(q, wctx))
	if err != nil {
		s.logger.Warn("follow-up failed", "worker", q.Worker, "subject", q.Subject, "error", err)
		answer = fmt.Sprintf("Error getting response from %s agent: %v", q.Worker, err)
	}

	s.store.AddMessage(q.Subject, q.Context, types.Message{
		Role:    types.RoleAssistant,
		Content: answer,
		Worker:  q.Worker,
	})
	return answer, nil
}

func (s *Session) respond(ctx context.Context, prompt string) (string, error) {
	if s.responder == nil {
		return "", ErrNoResponder
	}
	answer, err := s.responder.Respond(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

// BuildPrompt renders the question and the worker's last result as a prompt.
func BuildPrompt(q Question, result types.WorkerResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert %s analyst.\n", types.DisplayName(q.Worker))
	b.WriteString("Answer the question using your expertise and the analysis context below. Be concise but thorough.\n\n")
	fmt.Fprintf(&b, "Subject: %s\n", q.Subject)
	if q.Context != "" {
		fmt.Fprintf(&b, "Context: %s\n", q.Context)
	}
	fmt.Fprintf(&b, "\nQuestion: %s\n\nAnalysis context:\n", q.Text)

	data, err := yaml.Marshal(result)
	if err != nil {
		b.WriteString("(unavailable)\n")
	} else {
		b.Write(data)
	}
	return b.String()
}
