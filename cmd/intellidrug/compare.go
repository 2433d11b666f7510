// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/intellidrug/internal/compare"
	"github.com/pdiddy/intellidrug/internal/orchestrate"
)

var compareCmd = &cobra.Command{
	Use:   "compare <subject> <subject> [subjects...]",
	Short: "Analyze several subjects in parallel and rank them",
	Long: `Compare runs a full analysis for each subject against the same context,
in parallel, and ranks the subjects by recommendation score. A subject that
fails is reported and excluded from the ranking.`,
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().String("context", "", "secondary context shared by all subjects")
	compareCmd.Flags().String("strategy", "", "weighting strategy: standard, optimistic, conservative")
	compareCmd.Flags().Int("max-parallel", 0, "maximum subjects analysed at once (default from config, unbounded)")
	compareCmd.Flags().Bool("no-save", false, "do not archive the comparison")
	addOutputFlags(compareCmd)

	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	indication, _ := cmd.Flags().GetString("context")
	noSave, _ := cmd.Flags().GetBool("no-save")
	strategy, err := strategyFlag(cmd)
	if err != nil {
		return err
	}
	c := cfg
	if n, _ := cmd.Flags().GetInt("max-parallel"); n > 0 {
		c.Orchestrator.MaxConcurrentSubjects = n
	}

	// Per-subject reports are skipped; the comparison is the deliverable.
	e, err := newEngine(c, engineOptions{strategy: strategy, noReport: true, noStore: noSave})
	if err != nil {
		return err
	}
	defer e.Close()

	res, err := e.orch.Compare(cmd.Context(), orchestrate.CompareRequest{Subjects: args, Context: indication})
	if err != nil {
		return err
	}
	if e.store != nil {
		if _, err := e.store.SaveComparison(cmd.Context(), &res); err != nil {
			return fmt.Errorf("archiving comparison: %w", err)
		}
	}

	if ok, err := writeStructured(cmd, res); ok {
		return err
	}
	w := cmd.OutOrStdout()
	compare.FormatTable(res.Result, w)
	if res.ID != "" {
		fmt.Fprintf(w, "\nID: %s\n", res.ID)
	}
	return nil
}
