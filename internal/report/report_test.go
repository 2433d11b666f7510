// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/intellidrug/internal/synthesis"
	"github.com/pdiddy/intellidrug/pkg/types"
)

func sampleAnalysis() types.Analysis {
	trials := 2
	results := types.WorkerResults{
		types.WorkerPatent: {
			Confidence:   0.8,
			PatentStatus: types.PatentExpired,
			Findings: []types.Finding{
				types.NewFinding("Core patent lapsed | generics available", 85, false),
			},
		},
		types.WorkerClinical: {
			Confidence:   0.7,
			ActiveTrials: &trials,
			Findings: []types.Finding{
				types.NewFinding("Phase II trial shows response", 60, true),
			},
		},
		types.WorkerWeb: types.ErrorResult("Timeout"),
		"custom_analysis": {
			Confidence: 0.5,
			Findings:   []types.Finding{types.NewFinding("Anecdotal reports", 20, true)},
		},
	}
	return types.Analysis{
		Subject:        "Metformin",
		Context:        "breast cancer",
		Timestamp:      time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC),
		Results:        results,
		Recommendation: synthesis.Synthesize("Metformin", "breast cancer", results, synthesis.Profile(types.StrategyStandard)),
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		subject, context, want string
	}{
		{"Metformin", "breast cancer", "Metformin_breast_cancer_analysis"},
		{"  Drug A ", "", "Drug_A_analysis"},
		{"a/b", `c:\d`, "a_b_c__d_analysis"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FileName(tt.subject, tt.context))
	}
}

func TestGenerate_XLSX(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	g := New(types.ReportConfig{OutputDir: dir, Format: types.ReportXLSX})

	path, err := g.Generate(context.Background(), sampleAnalysis())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Metformin_breast_cancer_analysis.xlsx"), path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetWorkers, SheetFindings, SheetBalance, SheetRisks}, f.GetSheetList())

	v, err := f.GetCellValue(SheetSummary, "B1")
	require.NoError(t, err)
	assert.Equal(t, "Metformin", v)

	v, err = f.GetCellValue(SheetWorkers, "A2")
	require.NoError(t, err)
	assert.Equal(t, "Patent Analysis", v)

	rows, err := f.GetRows(SheetFindings)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Patent Analysis", "Core patent lapsed | generics available", "85", "Strong", "no"}, rows[1])
	assert.Equal(t, "Clinical Trials", rows[2][0])
	assert.Equal(t, []string{"Custom Analysis", "Anecdotal reports", "20", "Weak", "yes"}, rows[3])

	rows, err = f.GetRows(SheetRisks)
	require.NoError(t, err)
	assert.Equal(t, "Risk", rows[0][0])
}

func TestGenerate_Markdown(t *testing.T) {
	g := New(types.ReportConfig{OutputDir: t.TempDir(), Format: types.ReportMarkdown})

	path, err := g.Generate(context.Background(), sampleAnalysis())
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".md"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	md := string(data)

	assert.Contains(t, md, "# Metformin analysis for breast cancer\n")
	assert.Contains(t, md, "## Worker confidences")
	assert.Contains(t, md, "| Web Intelligence | 0% | 0.15 | failed: Timeout |")
	assert.Contains(t, md, `Core patent lapsed \| generics available`)
	assert.Contains(t, md, "## Weaknesses\n\n- Patent expired")
	assert.Contains(t, md, "- **Strategy:** Standard")
}

func TestGenerate_HTML(t *testing.T) {
	g := New(types.ReportConfig{OutputDir: t.TempDir(), Format: types.ReportHTML})

	path, err := g.Generate(context.Background(), sampleAnalysis())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	page := string(data)

	assert.Contains(t, page, "<title>Metformin analysis for breast cancer</title>")
	assert.Contains(t, page, "<table>")
	assert.Contains(t, page, "<h2")
}

func TestGenerate_Errors(t *testing.T) {
	g := New(types.ReportConfig{OutputDir: t.TempDir(), Format: "pdf"})
	_, err := g.Generate(context.Background(), sampleAnalysis())
	assert.ErrorContains(t, err, "unsupported report format")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New(types.ReportConfig{OutputDir: t.TempDir()}).Generate(ctx, sampleAnalysis())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_Defaults(t *testing.T) {
	g := New(types.ReportConfig{})
	assert.Equal(t, types.DefaultReportDir, g.dir)
	assert.Equal(t, types.ReportXLSX, g.format)
}
