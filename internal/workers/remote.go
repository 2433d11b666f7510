// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workers

import (
	"context"
	"net/http"

	"github.com/pdiddy/intellidrug/internal/httputil"
	"github.com/pdiddy/intellidrug/internal/orchestrate"
	"github.com/pdiddy/intellidrug/pkg/types"
)

// analyzeRequest is the body posted to remote workers and piped to
// container workers.
type analyzeRequest struct {
	Worker  string `json:"worker"`
	Subject string `json:"subject"`
	Context string `json:"context"`
}

// RemoteWorker posts analyze requests to an HTTP endpoint that replies with
// a WorkerResult document. Rate-limited replies are retried.
type RemoteWorker struct {
	name string
	url  string
	json httputil.JSONClient
}

var _ orchestrate.Worker = (*RemoteWorker)(nil)

// NewRemoteWorker builds a remote worker from cfg. token, if set, is sent as
// a bearer token.
func NewRemoteWorker(cfg types.WorkerConfig, token string) *RemoteWorker {
	return &RemoteWorker{
		name: cfg.Name,
		url:  cfg.URL,
		json: httputil.JSONClient{
			Client:     &http.Client{Timeout: cfg.Timeout},
			UserAgent:  cfg.UserAgent,
			Token:      token,
			MaxRetries: cfg.MaxRetries,
		},
	}
}

func (w *RemoteWorker) Name() string { return w.name }

func (w *RemoteWorker) Analyze(ctx context.Context, req orchestrate.Request) (types.WorkerResult, error) {
	var res types.WorkerResult
	body := analyzeRequest{Worker: w.name, Subject: req.Subject, Context: req.Context}
	if err := w.json.PostJSON(ctx, w.url, body, &res); err != nil {
		return types.WorkerResult{}, err
	}
	return res, nil
}
