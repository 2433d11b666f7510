// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/pdiddy/intellidrug/internal/synthesis"
	"github.com/pdiddy/intellidrug/pkg/types"
)

// Title returns the report heading for a.
func Title(a types.Analysis) string {
	if a.Context == "" {
		return a.Subject + " analysis"
	}
	return fmt.Sprintf("%s analysis for %s", a.Subject, a.Context)
}

// Markdown renders a as a Markdown document.
func Markdown(a types.Analysis) []byte {
	rec := a.Recommendation
	var b bytes.Buffer

	fmt.Fprintf(&b, "# %s\n\n", Title(a))
	fmt.Fprintf(&b, "- **Recommendation:** %s\n", rec.Label)
	fmt.Fprintf(&b, "- **Score:** %d/100 (evidence-based %d/100)\n", rec.Score, rec.EvidenceBasedScore)
	fmt.Fprintf(&b, "- **Confidence:** %s (%s)\n", rec.ConfidenceDisplay, rec.ConfidenceLabel)
	fmt.Fprintf(&b, "- **Strategy:** %s\n", rec.Strategy.Title())
	fmt.Fprintf(&b, "- **Generated:** %s\n\n", a.Timestamp.UTC().Format(time.RFC3339))
	if rec.Summary != "" {
		fmt.Fprintf(&b, "%s\n\n", rec.Summary)
	}

	b.WriteString("## Worker confidences\n\n")
	b.WriteString("| Worker | Confidence | Weight | Status |\n|---|---|---|---|\n")
	for _, wc := range rec.WorkerConfidences {
		fmt.Fprintf(&b, "| %s | %d%% | %.2f | %s |\n", wc.DisplayName, wc.ConfidencePct, wc.Weight, cell(workerStatus(wc)))
	}
	b.WriteString("\n")

	var rows []string
	for _, w := range workerOrder(a.Results) {
		for _, fd := range a.Results[w].Findings {
			rows = append(rows, fmt.Sprintf("| %s | %s | %d | %s | %s |",
				types.DisplayName(w), cell(fd.Finding), fd.Strength(), synthesis.Grade(fd.Strength()), yesNo(fd.Positive())))
		}
	}
	if len(rows) > 0 {
		b.WriteString("## Findings\n\n")
		b.WriteString("| Worker | Finding | Strength | Grade | Positive |\n|---|---|---|---|---|\n")
		b.WriteString(strings.Join(rows, "\n"))
		b.WriteString("\n\n")
	}

	section(&b, "Key factors", rec.KeyFactors)
	section(&b, "Strengths", rec.Strengths)
	section(&b, "Weaknesses", rec.Weaknesses)
	section(&b, "Risks", rec.Risks)

	return b.Bytes()
}

// HTML renders the Markdown report as a complete HTML page.
func HTML(a types.Analysis) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	r := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: Title(a),
	})
	return markdown.ToHTML(Markdown(a), p, r)
}

func section(b *bytes.Buffer, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", heading)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
	b.WriteString("\n")
}

// cell escapes text for a table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}
