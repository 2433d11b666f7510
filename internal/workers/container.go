// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/pdiddy/intellidrug/internal/container"
	"github.com/pdiddy/intellidrug/internal/orchestrate"
	"github.com/pdiddy/intellidrug/pkg/types"
)

// ContainerWorker runs a worker image per request. The request JSON is
// piped to the container's stdin and a WorkerResult JSON document is read
// from its stdout. The container is killed when the orchestrator's
// timeout fires.
type ContainerWorker struct {
	name    string
	image   string
	runtime container.Runtime
}

var _ orchestrate.Worker = (*ContainerWorker)(nil)

// NewContainerWorker returns a worker running image on rt.
func NewContainerWorker(name, image string, rt container.Runtime) *ContainerWorker {
	return &ContainerWorker{name: name, image: image, runtime: rt}
}

func (w *ContainerWorker) Name() string { return w.name }

func (w *ContainerWorker) Analyze(ctx context.Context, req orchestrate.Request) (types.WorkerResult, error) {
	payload, err := json.Marshal(analyzeRequest{Worker: w.name, Subject: req.Subject, Context: req.Context})
	if err != nil {
		return types.WorkerResult{}, fmt.Errorf("encoding request: %w", err)
	}

	var out bytes.Buffer
	env := []string{"INTELLIDRUG_WORKER=" + w.name}
	if err := w.runtime.Run(ctx, w.image, env, bytes.NewReader(payload), &out); err != nil {
		return types.WorkerResult{}, err
	}

	var res types.WorkerResult
	if err := json.Unmarshal(bytes.TrimSpace(out.Bytes()), &res); err != nil {
		return types.WorkerResult{}, fmt.Errorf("decoding %s output: %w", w.image, err)
	}
	return res, nil
}
