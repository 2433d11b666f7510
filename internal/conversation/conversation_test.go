// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/intellidrug/pkg/types"
)

type stubResponder struct {
	answer string
	err    error
	prompt string
}

func (s *stubResponder) Respond(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.answer, s.err
}

func TestStore_AppendOnlyAndNormalizedKeys(t *testing.T) {
	s := NewStore()
	s.AddMessage("Aspirin", "Colorectal Cancer", types.Message{Role: types.RoleUser, Content: "q1"})
	s.AddMessage(" aspirin ", "colorectal cancer", types.Message{Role: types.RoleAssistant, Content: "a1", Worker: "patent_analysis"})

	got := s.Conversation("ASPIRIN", "colorectal cancer")
	require.Len(t, got, 2)
	assert.Equal(t, "q1", got[0].Content)
	assert.Equal(t, "patent_analysis", got[1].Worker)

	assert.Equal(t, []Key{{Subject: "aspirin", Context: "colorectal cancer"}}, s.Keys())
}

func TestStore_UnknownConversationIsEmpty(t *testing.T) {
	got := NewStore().Conversation("nothing", "here")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestStore_ConversationReturnsCopy(t *testing.T) {
	s := NewStore()
	s.AddMessage("a", "b", types.Message{Role: types.RoleUser, Content: "original"})

	got := s.Conversation("a", "b")
	got[0].Content = "mutated"

	assert.Equal(t, "original", s.Conversation("a", "b")[0].Content)
}

func TestStore_WorkerContext(t *testing.T) {
	s := NewStore()
	_, ok := s.WorkerContext("aspirin", types.WorkerPatent)
	assert.False(t, ok)

	s.SetWorkerContext("Aspirin", types.WorkerPatent, types.WorkerResult{Confidence: 0.4})
	s.SetWorkerContext("aspirin", types.WorkerPatent, types.WorkerResult{Confidence: 0.9})

	got, ok := s.WorkerContext("ASPIRIN", types.WorkerPatent)
	require.True(t, ok)
	assert.Equal(t, 0.9, got.Confidence)
}

func TestStore_ConcurrentAppend(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AddMessage("a", "b", types.Message{Role: types.RoleUser, Content: "x"})
			_ = s.Conversation("a", "b")
		}()
	}
	wg.Wait()
	assert.Len(t, s.Conversation("a", "b"), 50)
}

func TestSession_Ask(t *testing.T) {
	store := NewStore()
	store.SetWorkerContext("metformin", types.WorkerClinical, types.WorkerResult{
		Confidence: 0.7,
		Findings:   []types.Finding{types.NewFinding("Phase II trial ongoing", 70, true)},
	})
	resp := &stubResponder{answer: "  Two trials are recruiting.  "}
	sess := NewSession(store, resp, nil)

	answer, err := sess.Ask(context.Background(), Question{
		Subject: "metformin",
		Context: "breast cancer",
		Worker:  types.WorkerClinical,
		Text:    "How many trials?",
	})
	require.NoError(t, err)
	assert.Equal(t, "Two trials are recruiting.", answer)

	assert.Contains(t, resp.prompt, "Clinical Trials analyst")
	assert.Contains(t, resp.prompt, "Question: How many trials?")
	assert.Contains(t, resp.prompt, "Phase II trial ongoing")

	history := store.Conversation("metformin", "breast cancer")
	assert.Equal(t, []types.Message{
		{Role: types.RoleUser, Content: "How many trials?"},
		{Role: types.RoleAssistant, Content: "Two trials are recruiting.", Worker: types.WorkerClinical},
	}, history)
}

func TestSession_AskRecordsResponderFailure(t *testing.T) {
	store := NewStore()
	sess := NewSession(store, &stubResponder{err: errors.New("quota exceeded")}, nil)

	answer, err := sess.Ask(context.Background(), Question{
		Subject: "metformin", Context: "breast cancer", Worker: "patent_analysis", Text: "Expiry?",
	})
	require.NoError(t, err)
	assert.Equal(t, "Error getting response from patent_analysis agent: quota exceeded", answer)

	history := store.Conversation("metformin", "breast cancer")
	require.Len(t, history, 2)
	assert.Equal(t, answer, history[1].Content)
	assert.Equal(t, types.RoleAssistant, history[1].Role)
}

func TestSession_AskWithoutResponder(t *testing.T) {
	sess := NewSession(NewStore(), nil, nil)
	answer, err := sess.Ask(context.Background(), Question{Subject: "a", Worker: "w", Text: "q"})
	require.NoError(t, err)
	assert.Contains(t, answer, ErrNoResponder.Error())
}

func TestSession_AskIncomplete(t *testing.T) {
	store := NewStore()
	sess := NewSession(store, &stubResponder{answer: "x"}, nil)

	_, err := sess.Ask(context.Background(), Question{Subject: "a", Worker: "w"})
	require.ErrorIs(t, err, ErrIncompleteQuestion)
	assert.Empty(t, store.Keys(), "incomplete questions are not recorded")
}

func TestRemoteResponder(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))
		var in respondRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		json.NewEncoder(w).Encode(map[string]string{"text": "echo: " + in.Prompt})
	}))
	defer ts.Close()

	r := NewRemoteResponder(types.ResponderConfig{
		URL:        ts.URL,
		APIKey:     "key-1",
		HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second},
	})
	require.NotNil(t, r)

	got, err := r.Respond(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "echo: hello", got)
}

func TestRemoteResponder_EmptyAnswer(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	r := NewRemoteResponder(types.ResponderConfig{URL: ts.URL})
	_, err := r.Respond(context.Background(), "hello")
	assert.Error(t, err)
}

func TestNewRemoteResponder_Unconfigured(t *testing.T) {
	assert.Nil(t, NewRemoteResponder(types.ResponderConfig{}))
}
