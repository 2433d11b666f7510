// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"log/slog"

	"github.com/pdiddy/intellidrug/internal/archive"
	"github.com/pdiddy/intellidrug/internal/conversation"
	"github.com/pdiddy/intellidrug/internal/orchestrate"
	"github.com/pdiddy/intellidrug/internal/report"
	"github.com/pdiddy/intellidrug/internal/workers"
	"github.com/pdiddy/intellidrug/pkg/types"
)

// engine bundles the collaborators a command needs.
type engine struct {
	orch    *orchestrate.Orchestrator
	convs   *conversation.Store
	session *conversation.Session
	store   *archive.Store
}

type engineOptions struct {
	strategy types.Strategy
	noReport bool
	noStore  bool
}

// newEngine builds the worker registry, orchestrator, conversation session
// and archive from the effective configuration.
func newEngine(c types.Config, opts engineOptions) (*engine, error) {
	logger := slog.Default()

	reg, err := workers.Builder{Token: c.Server.APIToken, Logger: logger}.Build(c.Workers)
	if err != nil {
		return nil, fmt.Errorf("configuring workers: %w", err)
	}

	e := &engine{convs: conversation.NewStore()}

	orchOpts := []orchestrate.Option{
		orchestrate.WithConfig(c.Orchestrator),
		orchestrate.WithLogger(logger),
		orchestrate.WithContextRecorder(e.convs),
	}
	if opts.strategy != "" {
		orchOpts = append(orchOpts, orchestrate.WithStrategy(opts.strategy))
	}
	if !c.Report.Disabled && !opts.noReport {
		orchOpts = append(orchOpts, orchestrate.WithReporter(report.New(c.Report)))
	}
	e.orch = orchestrate.New(reg, orchOpts...)

	e.session = newSession(c, e.convs)

	if !opts.noStore {
		if e.store, err = archive.Open(c.Store); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// newSession returns a follow-up session over convs answered by the
// configured remote responder, if any.
func newSession(c types.Config, convs *conversation.Store) *conversation.Session {
	var responder conversation.Responder
	if r := conversation.NewRemoteResponder(c.Responder); r != nil {
		responder = r
	}
	return conversation.NewSession(convs, responder, slog.Default())
}

// openArchive opens the archive without building workers.
func openArchive(c types.Config) (*archive.Store, error) {
	return archive.Open(c.Store)
}

func (e *engine) Close() error {
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}
