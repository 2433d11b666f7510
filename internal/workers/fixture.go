// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package workers adapts external analysis sources to the orchestrator's
// worker contract: canned YAML fixtures, HTTP endpoints, and container
// images. Build turns configuration into a worker registry.
package workers

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/intellidrug/internal/orchestrate"
	"github.com/pdiddy/intellidrug/pkg/types"
)

// AnySubject is the fixture key used when no subject-specific entry exists.
const AnySubject = "*"

// Fixtures maps worker name to subject to canned result. Subject keys are
// matched case-insensitively.
//
//	patent_analysis:
//	  aspirin:
//	    confidence: 0.8
//	    patent_status: expired
//	  "*":
//	    confidence: 0.5
type Fixtures map[string]map[string]types.WorkerResult

// LoadFixtures reads a fixture file.
func LoadFixtures(path string) (Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixtures %s: %w", path, err)
	}
	return ParseFixtures(data)
}

// ParseFixtures decodes fixture YAML. Worker payloads are decoded leniently
// in the same way as live worker replies.
func ParseFixtures(data []byte) (Fixtures, error) {
	var raw Fixtures
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing fixtures: %w", err)
	}
	out := make(Fixtures, len(raw))
	for worker, subjects := range raw {
		norm := make(map[string]types.WorkerResult, len(subjects))
		for subject, res := range subjects {
			norm[normalizeSubject(subject)] = res
		}
		out[worker] = norm
	}
	return out, nil
}

func normalizeSubject(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// FixtureWorker answers from canned results. It is the deterministic
// registry used for demos and tests.
type FixtureWorker struct {
	name    string
	results map[string]types.WorkerResult
}

var _ orchestrate.Worker = (*FixtureWorker)(nil)

// NewFixtureWorker returns a worker serving f's entries for name.
func NewFixtureWorker(name string, f Fixtures) *FixtureWorker {
	return &FixtureWorker{name: name, results: f[name]}
}

func (w *FixtureWorker) Name() string { return w.name }

// Analyze returns the subject's fixture, the "*" fixture, or an error.
func (w *FixtureWorker) Analyze(ctx context.Context, req orchestrate.Request) (types.WorkerResult, error) {
	if err := ctx.Err(); err != nil {
		return types.WorkerResult{}, err
	}
	if res, ok := w.results[normalizeSubject(req.Subject)]; ok {
		return res, nil
	}
	if res, ok := w.results[AnySubject]; ok {
		return res, nil
	}
	return types.WorkerResult{}, fmt.Errorf("no fixture for subject %q", req.Subject)
}
