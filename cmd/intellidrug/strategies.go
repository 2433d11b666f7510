// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/intellidrug/internal/synthesis"
	"github.com/pdiddy/intellidrug/pkg/types"
)

var strategiesCmd = &cobra.Command{
	Use:   "strategies [analysis-id]",
	Short: "Show weight profiles, or re-score an archived analysis under each",
	Long: `Without arguments, strategies prints the worker weights of the standard,
optimistic and conservative profiles. Given an archived analysis ID it
re-scores the stored worker results under every profile, side by side,
without running any worker.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStrategies,
}

func init() {
	addOutputFlags(strategiesCmd)
	rootCmd.AddCommand(strategiesCmd)
}

func runStrategies(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	profiles := synthesis.Profiles()

	if len(args) == 0 {
		if ok, err := writeStructured(cmd, profiles); ok {
			return err
		}
		fmt.Fprintf(w, "%-20s", "Worker")
		for _, p := range profiles {
			fmt.Fprintf(w, "  %12s", p.Name.Title())
		}
		fmt.Fprintf(w, "\n%s\n", strings.Repeat("-", 20+14*len(profiles)))
		for _, worker := range types.CanonicalWorkers {
			fmt.Fprintf(w, "%-20s", types.DisplayName(worker))
			for _, p := range profiles {
				weight, _ := p.Weight(worker)
				fmt.Fprintf(w, "  %12.2f", weight)
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%-20s", "Total")
		for _, p := range profiles {
			fmt.Fprintf(w, "  %12.2f", p.Total())
		}
		fmt.Fprintln(w)
		return nil
	}

	store, err := openArchive(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	a, err := store.LoadAnalysis(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	recs := make([]types.Recommendation, 0, len(profiles))
	for _, p := range profiles {
		recs = append(recs, synthesis.SynthesizeAnalysis(a, p))
	}
	if ok, err := writeStructured(cmd, recs); ok {
		return err
	}

	fmt.Fprintf(w, "%s / %s\n\n", a.Subject, a.Context)
	fmt.Fprintf(w, "%-14s  %-36s  %5s  %-12s  %s\n", "Strategy", "Recommendation", "Score", "Confidence", "Level")
	fmt.Fprintln(w, strings.Repeat("-", 84))
	for _, rec := range recs {
		fmt.Fprintf(w, "%-14s  %-36s  %5d  %-12s  %s\n",
			rec.Strategy.Title(), rec.Label, rec.Score, rec.ConfidenceDisplay, rec.ConfidenceLabel)
	}
	return nil
}
