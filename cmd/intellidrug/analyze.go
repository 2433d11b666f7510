// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/intellidrug/internal/orchestrate"
	"github.com/pdiddy/intellidrug/pkg/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <subject>",
	Short: "Run every worker for a subject and print the recommendation",
	Long: `Analyze runs all configured workers concurrently for the subject and
context, waits for each to complete, fail, or time out, and prints the
synthesized recommendation. The analysis is archived and a report is
written unless disabled.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("context", "", "secondary context, e.g. a disease or indication")
	analyzeCmd.Flags().String("strategy", "", "weighting strategy: standard, optimistic, conservative")
	analyzeCmd.Flags().Duration("timeout", 0, "per-worker timeout (default from config, 30s)")
	analyzeCmd.Flags().Bool("no-report", false, "skip report generation")
	analyzeCmd.Flags().Bool("no-save", false, "do not archive the analysis")
	addOutputFlags(analyzeCmd)

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	subject := strings.Join(args, " ")
	indication, _ := cmd.Flags().GetString("context")
	noReport, _ := cmd.Flags().GetBool("no-report")
	noSave, _ := cmd.Flags().GetBool("no-save")

	strategy, err := strategyFlag(cmd)
	if err != nil {
		return err
	}
	c := cfg
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		c.Orchestrator.WorkerTimeout = timeout
	}

	e, err := newEngine(c, engineOptions{strategy: strategy, noReport: noReport, noStore: noSave})
	if err != nil {
		return err
	}
	defer e.Close()

	a, err := e.orch.Run(cmd.Context(), orchestrate.Request{Subject: subject, Context: indication})
	if err != nil {
		return err
	}
	if e.store != nil {
		if _, err := e.store.SaveAnalysis(cmd.Context(), &a); err != nil {
			return fmt.Errorf("archiving analysis: %w", err)
		}
	}

	if ok, err := writeStructured(cmd, a); ok {
		return err
	}
	printAnalysis(cmd.OutOrStdout(), a)
	return nil
}

// strategyFlag parses --strategy; empty means the configured default.
func strategyFlag(cmd *cobra.Command) (types.Strategy, error) {
	raw, _ := cmd.Flags().GetString("strategy")
	if raw == "" {
		return "", nil
	}
	return types.ParseStrategy(raw)
}
