// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders a completed analysis to a file: an XLSX workbook,
// a Markdown document, or a standalone HTML page. Generator satisfies the
// orchestrator's report collaborator contract.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/intellidrug/internal/orchestrate"
	"github.com/pdiddy/intellidrug/pkg/types"
)

// Generator writes one report file per analysis into a directory.
type Generator struct {
	dir    string
	format types.ReportFormat
}

var _ orchestrate.Reporter = (*Generator)(nil)

// New returns a generator for cfg. An empty output directory or format
// falls back to the defaults.
func New(cfg types.ReportConfig) *Generator {
	g := &Generator{dir: cfg.OutputDir, format: cfg.Format}
	if g.dir == "" {
		g.dir = types.DefaultReportDir
	}
	if g.format == "" {
		g.format = types.ReportXLSX
	}
	return g
}

// Generate writes the report for a and returns its path.
func (g *Generator) Generate(ctx context.Context, a types.Analysis) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ext, ok := extensions[g.format]
	if !ok {
		return "", fmt.Errorf("unsupported report format %q", g.format)
	}
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}
	path := filepath.Join(g.dir, FileName(a.Subject, a.Context)+ext)

	var err error
	switch g.format {
	case types.ReportXLSX:
		err = WriteXLSX(path, a)
	case types.ReportMarkdown:
		err = os.WriteFile(path, Markdown(a), 0o644)
	case types.ReportHTML:
		err = os.WriteFile(path, HTML(a), 0o644)
	}
	if err != nil {
		return "", fmt.Errorf("writing report %s: %w", path, err)
	}
	return path, nil
}

var extensions = map[types.ReportFormat]string{
	types.ReportXLSX:     ".xlsx",
	types.ReportMarkdown: ".md",
	types.ReportHTML:     ".html",
}

// FileName builds the report base name "<subject>_<context>_analysis" with
// whitespace and path separators replaced by underscores.
func FileName(subject, context string) string {
	clean := func(s string) string {
		s = strings.Join(strings.Fields(s), "_")
		return strings.NewReplacer("/", "_", `\`, "_", ":", "_").Replace(s)
	}
	parts := []string{clean(subject)}
	if c := clean(context); c != "" {
		parts = append(parts, c)
	}
	parts = append(parts, "analysis")
	return strings.Join(parts, "_")
}

// workerOrder lists result keys with canonical workers first.
func workerOrder(results types.WorkerResults) []string {
	var names []string
	seen := make(map[string]bool, len(results))
	for _, w := range types.CanonicalWorkers {
		if _, ok := results[w]; ok {
			names = append(names, w)
			seen[w] = true
		}
	}
	var rest []string
	for w := range results {
		if !seen[w] {
			rest = append(rest, w)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func workerStatus(wc types.WorkerConfidence) string {
	if wc.Error != "" {
		return "failed: " + wc.Error
	}
	return "ok"
}
