// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/intellidrug/internal/compare"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived analyses or comparisons",
	RunE:  runHistory,
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print an archived analysis or comparison",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	historyCmd.Flags().String("subject", "", "only analyses of this subject")
	historyCmd.Flags().Int("limit", 20, "maximum number of entries")
	historyCmd.Flags().Bool("comparisons", false, "list comparisons instead of analyses")
	addOutputFlags(historyCmd)

	showCmd.Flags().Bool("comparison", false, "the id names a comparison")
	addOutputFlags(showCmd)

	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(showCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	subject, _ := cmd.Flags().GetString("subject")
	limit, _ := cmd.Flags().GetInt("limit")
	comparisons, _ := cmd.Flags().GetBool("comparisons")

	store, err := openArchive(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	w := cmd.OutOrStdout()
	if comparisons {
		entries, err := store.ListComparisons(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if ok, err := writeStructured(cmd, entries); ok {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(w, "No comparisons found.")
			return nil
		}
		fmt.Fprintf(w, "%-36s  %-16s  %-30s  %-20s  %s\n", "ID", "Created", "Subjects", "Best", "Top")
		fmt.Fprintln(w, strings.Repeat("-", 115))
		for _, e := range entries {
			fmt.Fprintf(w, "%-36s  %-16s  %-30s  %-20s  %d\n",
				e.ID, e.CreatedAt.UTC().Format("2006-01-02 15:04"),
				truncate(e.Subjects, 30), truncate(e.BestCandidates, 20), e.TopScore)
		}
		fmt.Fprintf(w, "\n%d comparisons\n", len(entries))
		return nil
	}

	entries, err := store.ListAnalyses(cmd.Context(), subject, limit)
	if err != nil {
		return err
	}
	if ok, err := writeStructured(cmd, entries); ok {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "No analyses found.")
		return nil
	}
	fmt.Fprintf(w, "%-36s  %-16s  %-20s  %-20s  %-22s  %s\n", "ID", "Created", "Subject", "Context", "Recommendation", "Score")
	fmt.Fprintln(w, strings.Repeat("-", 130))
	for _, e := range entries {
		fmt.Fprintf(w, "%-36s  %-16s  %-20s  %-20s  %-22s  %d\n",
			e.ID, e.CreatedAt.UTC().Format("2006-01-02 15:04"),
			truncate(e.Subject, 20), truncate(e.Context, 20), e.Recommendation, e.Score)
	}
	fmt.Fprintf(w, "\n%d analyses\n", len(entries))
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	isComparison, _ := cmd.Flags().GetBool("comparison")

	store, err := openArchive(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	w := cmd.OutOrStdout()
	if isComparison {
		c, err := store.LoadComparison(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if ok, err := writeStructured(cmd, c); ok {
			return err
		}
		fmt.Fprintf(w, "Comparison %s (%s)\n\n", c.ID, c.Timestamp.UTC().Format(time.RFC3339))
		compare.FormatTable(c.Result, w)
		return nil
	}

	a, err := store.LoadAnalysis(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if ok, err := writeStructured(cmd, a); ok {
		return err
	}
	printAnalysis(w, a)
	return nil
}
