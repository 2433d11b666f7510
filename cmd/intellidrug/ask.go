// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/intellidrug/internal/conversation"
	"github.com/pdiddy/intellidrug/pkg/types"
)

var askCmd = &cobra.Command{
	Use:   "ask <analysis-id> <question>",
	Short: "Ask a worker a follow-up question about an archived analysis",
	Long: `Ask loads an archived analysis, hands the chosen worker's result to the
configured responder together with the question, and prints the answer.
Requires responder.url in the configuration.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().String("worker", types.WorkerPatent, "worker whose result grounds the answer")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	worker, _ := cmd.Flags().GetString("worker")

	store, err := openArchive(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	a, err := store.LoadAnalysis(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	res, ok := a.Results[worker]
	if !ok {
		return fmt.Errorf("analysis %s has no result for worker %q (have %s)",
			a.ID, worker, strings.Join(a.Results.Names(), ", "))
	}
	convs := conversation.NewStore()
	convs.SetWorkerContext(a.Subject, worker, res)

	answer, err := newSession(cfg, convs).Ask(cmd.Context(), conversation.Question{
		Subject: a.Subject,
		Context: a.Context,
		Worker:  worker,
		Text:    strings.Join(args[1:], " "),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", types.DisplayName(worker), answer)
	return nil
}
