// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workers

import (
	"fmt"
	"log/slog"

	"github.com/pdiddy/intellidrug/internal/container"
	"github.com/pdiddy/intellidrug/internal/orchestrate"
	"github.com/pdiddy/intellidrug/pkg/types"
)

// Builder turns worker configuration into a registry.
type Builder struct {
	// Token is sent to remote workers as a bearer token.
	Token string

	// Runtime resolves a container runtime by name. Defaults to
	// container.NewRuntime.
	Runtime func(name string) (container.Runtime, error)

	// Logger receives one line per configured worker.
	Logger *slog.Logger
}

// Build constructs one worker per config entry, in order. Fixture files are
// read once per path and container runtimes are resolved once per name.
func (b Builder) Build(cfgs []types.WorkerConfig) (*orchestrate.Registry, error) {
	if len(cfgs) == 0 {
		return nil, fmt.Errorf("no workers configured")
	}
	resolve := b.Runtime
	if resolve == nil {
		resolve = container.NewRuntime
	}
	logger := b.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	fixtures := make(map[string]Fixtures)
	runtimes := make(map[string]container.Runtime)

	var ws []orchestrate.Worker
	for _, cfg := range cfgs {
		var w orchestrate.Worker
		switch cfg.Kind {
		case types.WorkerKindFixture, "":
			path := cfg.FixturePath
			if path == "" {
				path = types.DefaultFixturePath
			}
			f, ok := fixtures[path]
			if !ok {
				var err error
				if f, err = LoadFixtures(path); err != nil {
					return nil, fmt.Errorf("worker %s: %w", cfg.Name, err)
				}
				fixtures[path] = f
			}
			w = NewFixtureWorker(cfg.Name, f)

		case types.WorkerKindHTTP:
			if cfg.URL == "" {
				return nil, fmt.Errorf("worker %s: http worker requires url", cfg.Name)
			}
			w = NewRemoteWorker(cfg, b.Token)

		case types.WorkerKindContainer:
			if cfg.Image == "" {
				return nil, fmt.Errorf("worker %s: container worker requires image", cfg.Name)
			}
			rt, ok := runtimes[cfg.Runtime]
			if !ok {
				var err error
				if rt, err = resolve(cfg.Runtime); err != nil {
					return nil, fmt.Errorf("worker %s: %w", cfg.Name, err)
				}
				runtimes[cfg.Runtime] = rt
			}
			w = NewContainerWorker(cfg.Name, cfg.Image, rt)

		default:
			return nil, fmt.Errorf("worker %s: unknown kind %q", cfg.Name, cfg.Kind)
		}
		logger.Debug("worker configured", "worker", cfg.Name, "kind", cfg.Kind)
		ws = append(ws, w)
	}
	return orchestrate.NewRegistry(ws...)
}
