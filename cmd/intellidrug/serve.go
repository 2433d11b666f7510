// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pdiddy/intellidrug/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API",
	Long: `Serve exposes analyses, comparisons, strategy side-by-sides, live
progress and follow-up questions over HTTP. When an api-token secret is
present every /api request must carry it as a bearer token.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config, 127.0.0.1:8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	c := cfg
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		c.Server.Addr = addr
	}

	e, err := newEngine(c, engineOptions{})
	if err != nil {
		return err
	}
	defer e.Close()

	srv := api.New(e.orch, e.store, e.session, c.Server.APIToken, slog.Default())
	return srv.ListenAndServe(cmd.Context(), c.Server)
}
