// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/intellidrug/pkg/types"
)

// addOutputFlags registers --json and --yaml on cmd.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("json", false, "output as JSON")
	cmd.Flags().Bool("yaml", false, "output as YAML")
	cmd.MarkFlagsMutuallyExclusive("json", "yaml")
}

// writeStructured encodes v per the --json/--yaml flags and reports whether
// it did so. When neither flag is set the caller prints text.
func writeStructured(cmd *cobra.Command, v any) (bool, error) {
	w := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	}
	if asYAML, _ := cmd.Flags().GetBool("yaml"); asYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return true, enc.Encode(v)
	}
	return false, nil
}

// printAnalysis writes the human-readable summary of a.
func printAnalysis(w io.Writer, a types.Analysis) {
	rec := a.Recommendation
	title := a.Subject
	if a.Context != "" {
		title += " / " + a.Context
	}
	fmt.Fprintf(w, "%s\n%s\n\n", title, strings.Repeat("=", len(title)))
	fmt.Fprintf(w, "Recommendation:  %s\n", rec.Label)
	fmt.Fprintf(w, "Score:           %d/100 (evidence-based %d/100)\n", rec.Score, rec.EvidenceBasedScore)
	fmt.Fprintf(w, "Confidence:      %s (%s)\n", rec.ConfidenceDisplay, rec.ConfidenceLabel)
	fmt.Fprintf(w, "Strategy:        %s\n", rec.Strategy.Title())
	if a.ID != "" {
		fmt.Fprintf(w, "ID:              %s\n", a.ID)
	}
	fmt.Fprintf(w, "\n%s\n", rec.Summary)

	fmt.Fprintf(w, "\n%-20s  %10s  %6s  %s\n", "Worker", "Confidence", "Weight", "Status")
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for _, wc := range rec.WorkerConfidences {
		status := "ok"
		if wc.Error != "" {
			status = "failed: " + wc.Error
		}
		fmt.Fprintf(w, "%-20s  %9d%%  %6.2f  %s\n", wc.DisplayName, wc.ConfidencePct, wc.Weight, status)
	}

	printList(w, "Key factors", rec.KeyFactors)
	printList(w, "Strengths", rec.Strengths)
	printList(w, "Weaknesses", rec.Weaknesses)
	printList(w, "Risks", rec.Risks)

	if a.ReportPath != "" {
		fmt.Fprintf(w, "\nReport: %s\n", a.ReportPath)
	}
	if a.ReportError != "" {
		fmt.Fprintf(w, "\nwarning: report failed: %s\n", a.ReportError)
	}
}

func printList(w io.Writer, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", heading)
	for _, it := range items {
		fmt.Fprintf(w, "  - %s\n", it)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
