// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/intellidrug/internal/container"
	"github.com/pdiddy/intellidrug/internal/orchestrate"
	"github.com/pdiddy/intellidrug/pkg/types"
)

const fixtureYAML = `
patent_analysis:
  Aspirin:
    confidence: 0.8
    patent_status: Expired
    fto_status: Clear
    findings:
      - finding: Composition patent expired in 2001
        evidence_strength: 90
      - finding: Formulation patents remain
        evidence_strength: not-a-number
        is_positive: false
      - just a string
  "*":
    confidence: "0.5"
clinical_analysis:
  aspirin:
    confidence: 0.7
    active_trials: 3
    phase: II
`

func writeFixtures(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "workers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixtureYAML), 0o644))
	return path
}

// --- Fixtures ---

func TestFixtureWorker(t *testing.T) {
	f, err := LoadFixtures(writeFixtures(t))
	require.NoError(t, err)

	patent := NewFixtureWorker(types.WorkerPatent, f)
	res, err := patent.Analyze(context.Background(), orchestrate.Request{Subject: "ASPIRIN"})
	require.NoError(t, err)

	assert.Equal(t, 0.8, res.Confidence)
	assert.Equal(t, types.PatentExpired, res.PatentStatus)
	assert.Equal(t, types.FTOClear, res.FTOStatus)
	require.Len(t, res.Findings, 2, "non-object findings are skipped")
	assert.Equal(t, 90, res.Findings[0].Strength())
	assert.True(t, res.Findings[0].Positive())
	assert.Nil(t, res.Findings[1].EvidenceStrength, "unparsable strength is left unset")
	assert.Equal(t, 50, res.Findings[1].Strength())
	assert.False(t, res.Findings[1].Positive())

	res, err = patent.Analyze(context.Background(), orchestrate.Request{Subject: "ibuprofen"})
	require.NoError(t, err)
	assert.Equal(t, 0.5, res.Confidence, "falls back to the * entry")

	clinical := NewFixtureWorker(types.WorkerClinical, f)
	res, err = clinical.Analyze(context.Background(), orchestrate.Request{Subject: "aspirin"})
	require.NoError(t, err)
	require.NotNil(t, res.ActiveTrials)
	assert.Equal(t, 3, *res.ActiveTrials)
	assert.Equal(t, "II", res.Details["phase"])

	_, err = clinical.Analyze(context.Background(), orchestrate.Request{Subject: "ibuprofen"})
	assert.ErrorContains(t, err, "no fixture")

	_, err = NewFixtureWorker("unknown", f).Analyze(context.Background(), orchestrate.Request{Subject: "aspirin"})
	assert.Error(t, err)
}

func TestFixtureWorker_Cancelled(t *testing.T) {
	f, err := ParseFixtures([]byte(fixtureYAML))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = NewFixtureWorker(types.WorkerPatent, f).Analyze(ctx, orchestrate.Request{Subject: "aspirin"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseFixtures_Invalid(t *testing.T) {
	_, err := ParseFixtures([]byte("patent_analysis: [1, 2"))
	assert.Error(t, err)

	_, err = LoadFixtures(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

// --- Remote ---

func TestRemoteWorker(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req analyzeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, types.WorkerMarket, req.Worker)
		assert.Equal(t, "metformin", req.Subject)
		assert.Equal(t, "breast cancer", req.Context)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte(`{"confidence": 0.65, "opportunity_score": "7.2", "market_size_usd": 1200000000}`))
	}))
	defer ts.Close()

	w := NewRemoteWorker(types.WorkerConfig{
		Name:       types.WorkerMarket,
		URL:        ts.URL,
		HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "intellidrug/test"},
	}, "tok")

	res, err := w.Analyze(context.Background(), orchestrate.Request{Subject: "metformin", Context: "breast cancer"})
	require.NoError(t, err)
	assert.Equal(t, 0.65, res.Confidence)
	require.NotNil(t, res.OpportunityScore)
	assert.Equal(t, 7.2, *res.OpportunityScore)
	assert.Contains(t, res.Details, "market_size_usd")
}

func TestRemoteWorker_HTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "index offline", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	w := NewRemoteWorker(types.WorkerConfig{Name: "w", URL: ts.URL}, "")
	_, err := w.Analyze(context.Background(), orchestrate.Request{Subject: "x"})
	assert.ErrorContains(t, err, "HTTP 503")
}

// --- Container ---

type fakeRuntime struct {
	out string
	err error
	env []string
	in  string
}

func (f *fakeRuntime) Name() string { return "fake" }
func (f *fakeRuntime) Available() bool { return true }
func (f *fakeRuntime) ImageExists(context.Context, string) error { return nil }
func (f *fakeRuntime) Run(_ context.Context, _ string, env []string, stdin io.Reader, stdout io.Writer) error {
	data, _ := io.ReadAll(stdin)
	f.in = string(data)
	f.env = env
	if f.err != nil {
		return f.err
	}
	_, err := io.WriteString(stdout, f.out)
	return err
}

func TestContainerWorker(t *testing.T) {
	rt := &fakeRuntime{out: `{"confidence": 0.4, "findings": [{"finding": "HS code 3004 exports rising"}]}` + "\n"}
	w := NewContainerWorker(types.WorkerEXIM, "intellidrug/exim:latest", rt)

	res, err := w.Analyze(context.Background(), orchestrate.Request{Subject: "aspirin", Context: "pain"})
	require.NoError(t, err)

	assert.Equal(t, 0.4, res.Confidence)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, 50, res.Findings[0].Strength())
	assert.True(t, res.Findings[0].Positive())
	assert.JSONEq(t, `{"worker":"exim_analysis","subject":"aspirin","context":"pain"}`, rt.in)
	assert.Equal(t, []string{"INTELLIDRUG_WORKER=exim_analysis"}, rt.env)
}

func TestContainerWorker_Errors(t *testing.T) {
	_, err := NewContainerWorker("w", "img", &fakeRuntime{err: errors.New("exit status 2")}).
		Analyze(context.Background(), orchestrate.Request{Subject: "x"})
	assert.ErrorContains(t, err, "exit status 2")

	_, err = NewContainerWorker("w", "img", &fakeRuntime{out: "not json"}).
		Analyze(context.Background(), orchestrate.Request{Subject: "x"})
	assert.ErrorContains(t, err, "decoding img output")
}

// --- Builder ---

func TestBuilder_Build(t *testing.T) {
	path := writeFixtures(t)
	var resolved []string
	b := Builder{
		Token: "tok",
		Runtime: func(name string) (container.Runtime, error) {
			resolved = append(resolved, name)
			return &fakeRuntime{}, nil
		},
	}

	reg, err := b.Build([]types.WorkerConfig{
		{Name: types.WorkerPatent, Kind: types.WorkerKindFixture, FixturePath: path},
		{Name: types.WorkerClinical, FixturePath: path},
		{Name: types.WorkerMarket, Kind: types.WorkerKindHTTP, URL: "http://localhost:9/analyze"},
		{Name: types.WorkerEXIM, Kind: types.WorkerKindContainer, Image: "exim:latest"},
		{Name: types.WorkerWeb, Kind: types.WorkerKindContainer, Image: "web:latest"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		types.WorkerPatent, types.WorkerClinical, types.WorkerMarket, types.WorkerEXIM, types.WorkerWeb,
	}, reg.Names())
	assert.Equal(t, []string{""}, resolved, "runtime resolved once")

	w, _ := reg.Get(types.WorkerMarket)
	assert.IsType(t, &RemoteWorker{}, w)
}

func TestBuilder_BuildErrors(t *testing.T) {
	failRuntime := func(string) (container.Runtime, error) { return nil, errors.New("no docker") }
	tests := []struct {
		name string
		cfgs []types.WorkerConfig
		want string
	}{
		{"empty", nil, "no workers configured"},
		{"missing fixture", []types.WorkerConfig{{Name: "w", FixturePath: "/nonexistent/workers.yaml"}}, "reading fixtures"},
		{"http without url", []types.WorkerConfig{{Name: "w", Kind: types.WorkerKindHTTP}}, "requires url"},
		{"container without image", []types.WorkerConfig{{Name: "w", Kind: types.WorkerKindContainer}}, "requires image"},
		{"runtime unavailable", []types.WorkerConfig{{Name: "w", Kind: types.WorkerKindContainer, Image: "i"}}, "no docker"},
		{"unknown kind", []types.WorkerConfig{{Name: "w", Kind: "carrier-pigeon"}}, "unknown kind"},
		{"duplicate", []types.WorkerConfig{
			{Name: "w", Kind: types.WorkerKindHTTP, URL: "http://a"},
			{Name: "w", Kind: types.WorkerKindHTTP, URL: "http://b"},
		}, "duplicate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Builder{Runtime: failRuntime}.Build(tt.cfgs)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestBuilder_RunsThroughOrchestrator(t *testing.T) {
	path := writeFixtures(t)
	reg, err := Builder{}.Build([]types.WorkerConfig{
		{Name: types.WorkerPatent, FixturePath: path},
		{Name: types.WorkerClinical, FixturePath: path},
	})
	require.NoError(t, err)

	a, err := orchestrate.New(reg).Run(context.Background(), orchestrate.Request{Subject: "Aspirin", Context: "pain"})
	require.NoError(t, err)

	rec := a.Recommendation
	assert.Contains(t, rec.KeyFactors, "Patent status: Expired")
	assert.Contains(t, rec.Weaknesses, "Patent expired")
	assert.Contains(t, rec.Strengths, "Active in 3 clinical trials")
	// 0.8*0.25 + 0.7*0.20
	assert.InDelta(t, 0.34, rec.Confidence, 1e-9)
}
