// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/intellidrug/internal/archive"
	"github.com/pdiddy/intellidrug/internal/conversation"
	"github.com/pdiddy/intellidrug/internal/orchestrate"
	"github.com/pdiddy/intellidrug/pkg/types"
)

type echoResponder struct{}

func (echoResponder) Respond(_ context.Context, prompt string) (string, error) {
	if strings.Contains(prompt, "patent_status: active") {
		return "The patent is active.", nil
	}
	return "No context.", nil
}

type fixture struct {
	srv   *Server
	store *archive.Store
}

// recordingReporter keeps every analysis handed to it.
type recordingReporter struct {
	mu   sync.Mutex
	seen []types.Analysis
}

func (r *recordingReporter) Generate(_ context.Context, a types.Analysis) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, a)
	return "reports/" + a.Subject + ".xlsx", nil
}

func newFixture(t *testing.T, token string, opts ...orchestrate.Option) fixture {
	t.Helper()
	trials := 3
	reg, err := orchestrate.NewRegistry(
		orchestrate.NewWorker(types.WorkerPatent, func(_ context.Context, req orchestrate.Request) (types.WorkerResult, error) {
			conf := 0.9
			if req.Subject == "DrugB" {
				conf = 0.3
			}
			return types.WorkerResult{Confidence: conf, PatentStatus: types.PatentActive}, nil
		}),
		orchestrate.NewWorker(types.WorkerClinical, func(context.Context, orchestrate.Request) (types.WorkerResult, error) {
			return types.WorkerResult{Confidence: 0.6, ActiveTrials: &trials}, nil
		}),
	)
	require.NoError(t, err)

	store, err := archive.Open(types.StoreConfig{Driver: archive.DriverSQLite, DSN: filepath.Join(t.TempDir(), "api.db")})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	convs := conversation.NewStore()
	orch := orchestrate.New(reg, append([]orchestrate.Option{orchestrate.WithContextRecorder(convs)}, opts...)...)
	session := conversation.NewSession(convs, echoResponder{}, nil)
	return fixture{srv: New(orch, store, session, token, nil), store: store}
}

func (f fixture) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, "secret")
	rec := f.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "health check needs no token")
}

func TestAuthentication(t *testing.T) {
	f := newFixture(t, "secret")

	tests := []struct {
		name   string
		header []string
		want   int
	}{
		{"missing", nil, http.StatusUnauthorized},
		{"wrong", []string{"Authorization", "Bearer nope"}, http.StatusUnauthorized},
		{"wrong scheme", []string{"Authorization", "Basic secret"}, http.StatusUnauthorized},
		{"valid", []string{"Authorization", "Bearer secret"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, "/api/strategies", nil, tt.header...)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestAnalyze_SaveAndReload(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(t, http.MethodPost, "/api/analyses", AnalyzeRequest{Subject: "Aspirin", Context: "pain"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[types.Analysis](t, rec)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, types.StrategyStandard, created.Recommendation.Strategy)
	assert.Contains(t, created.Recommendation.Strengths, "Active patent protection")

	rec = f.do(t, http.MethodGet, "/api/analyses/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	loaded := decodeBody[types.Analysis](t, rec)
	assert.Equal(t, created.Recommendation, loaded.Recommendation)

	rec = f.do(t, http.MethodGet, "/api/analyses?subject=aspirin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decodeBody[[]archive.AnalysisEntry](t, rec)
	require.Len(t, entries, 1)
	assert.Equal(t, created.ID, entries[0].ID)

	rec = f.do(t, http.MethodGet, "/api/progress", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	progress := decodeBody[ProgressResponse](t, rec)
	assert.True(t, progress.Done)
	assert.Equal(t, types.StatusComplete, progress.Progress[types.WorkerPatent])
}

func TestAnalyze_Strategy(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(t, http.MethodPost, "/api/analyses", AnalyzeRequest{Subject: "Aspirin", Strategy: "Conservative"})
	require.Equal(t, http.StatusCreated, rec.Code)
	a := decodeBody[types.Analysis](t, rec)
	assert.Equal(t, types.StrategyConservative, a.Recommendation.Strategy)

	rec = f.do(t, http.MethodGet, "/api/analyses/"+a.ID+"/strategies", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	recs := decodeBody[[]types.Recommendation](t, rec)
	require.Len(t, recs, 3)
	assert.Equal(t, types.StrategyStandard, recs[0].Strategy)
	assert.Equal(t, types.StrategyOptimistic, recs[1].Strategy)
	assert.Equal(t, types.StrategyConservative, recs[2].Strategy)
	// patent 0.9 and clinical 0.6: conservative weighs patent higher.
	assert.Greater(t, recs[2].Confidence, recs[0].Confidence)
}

func TestAnalyze_BadRequests(t *testing.T) {
	f := newFixture(t, "")

	tests := []struct {
		name string
		path string
		body any
		want int
	}{
		{"blank subject", "/api/analyses", AnalyzeRequest{Subject: "  "}, http.StatusBadRequest},
		{"unknown strategy", "/api/analyses", AnalyzeRequest{Subject: "x", Strategy: "reckless"}, http.StatusBadRequest},
		{"malformed json", "/api/analyses", "{", http.StatusBadRequest},
		{"one subject", "/api/comparisons", orchestrate.CompareRequest{Subjects: []string{"a"}}, http.StatusBadRequest},
		{"incomplete question", "/api/conversations/ask", conversation.Question{Subject: "a"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code)
			assert.Contains(t, decodeBody[map[string]string](t, rec), "error")
		})
	}

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/analyses?limit=-1", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/conversations", nil).Code)
}

func TestNotFound(t *testing.T) {
	f := newFixture(t, "")

	for _, path := range []string{
		"/api/analyses/missing",
		"/api/analyses/missing/strategies",
		"/api/comparisons/missing",
		"/api/progress?subject=never-compared",
	} {
		rec := f.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestCompare(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(t, http.MethodPost, "/api/comparisons", orchestrate.CompareRequest{
		Subjects: []string{"DrugA", "DrugB"},
		Context:  "oncology",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	c := decodeBody[types.Comparison](t, rec)
	require.NotEmpty(t, c.ID)
	assert.Equal(t, []string{"DrugA"}, c.Result.BestCandidates)
	require.Len(t, c.Result.Ranked, 2)
	assert.Equal(t, "DrugB", c.Result.Ranked[1].Subject)

	rec = f.do(t, http.MethodGet, "/api/comparisons/"+c.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, c.Result.Summary, decodeBody[types.Comparison](t, rec).Result.Summary)

	entries := decodeBody[[]archive.ComparisonEntry](t, f.do(t, http.MethodGet, "/api/comparisons", nil))
	require.Len(t, entries, 1)
	assert.Equal(t, "DrugA, DrugB", entries[0].Subjects)

	rec = f.do(t, http.MethodGet, "/api/progress?subject=DrugB", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[ProgressResponse](t, rec).Done)
}

func TestAsk(t *testing.T) {
	f := newFixture(t, "")
	require.Equal(t, http.StatusCreated,
		f.do(t, http.MethodPost, "/api/analyses", AnalyzeRequest{Subject: "Aspirin", Context: "pain"}).Code)

	rec := f.do(t, http.MethodPost, "/api/conversations/ask", conversation.Question{
		Subject: "Aspirin",
		Context: "pain",
		Worker:  types.WorkerPatent,
		Text:    "Is it protected?",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[AskResponse](t, rec)
	assert.Equal(t, "The patent is active.", resp.Answer)
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, types.RoleUser, resp.Messages[0].Role)
	assert.Equal(t, types.WorkerPatent, resp.Messages[1].Worker)

	rec = f.do(t, http.MethodGet, "/api/conversations?subject=ASPIRIN&context=Pain", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]types.Message](t, rec), 2)
}

func TestAnalyze_StrategyMatchesReport(t *testing.T) {
	reporter := &recordingReporter{}
	f := newFixture(t, "", orchestrate.WithReporter(reporter))

	rec := f.do(t, http.MethodPost, "/api/analyses", AnalyzeRequest{Subject: "DrugA", Context: "pain", Strategy: "optimistic"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	a := decodeBody[types.Analysis](t, rec)

	require.Len(t, reporter.seen, 1)
	reported := reporter.seen[0].Recommendation
	assert.Equal(t, types.StrategyOptimistic, reported.Strategy)
	assert.Equal(t, reported.Strategy, a.Recommendation.Strategy)
	assert.Equal(t, reported.Score, a.Recommendation.Score)
	assert.Equal(t, reported.Recommendation, a.Recommendation.Recommendation)
	assert.Equal(t, "reports/DrugA.xlsx", a.ReportPath)

	stored, err := f.store.LoadAnalysis(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, reported.Score, stored.Recommendation.Score)
	assert.Equal(t, types.StrategyOptimistic, stored.Recommendation.Strategy)
}
