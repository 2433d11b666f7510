// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package conversation

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/intellidrug/internal/httputil"
	"github.com/pdiddy/intellidrug/pkg/types"
)

// RemoteResponder posts prompts to an HTTP text-generation endpoint. The
// endpoint receives {"prompt": "..."} and replies with {"response": "..."}
// (or "text").
type RemoteResponder struct {
	url  string
	json httputil.JSONClient
}

// NewRemoteResponder builds a responder from config. It returns nil when no
// URL is configured.
func NewRemoteResponder(cfg types.ResponderConfig) *RemoteResponder {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil
	}
	return &RemoteResponder{
		url: cfg.URL,
		json: httputil.JSONClient{
			Client:    &http.Client{Timeout: cfg.Timeout},
			UserAgent: cfg.UserAgent,
			Token:     cfg.APIKey,
		},
	}
}

type respondRequest struct {
	Prompt string `json:"prompt"`
}

type respondReply struct {
	Response string `json:"response"`
	Text     string `json:"text"`
}

// Respond implements Responder.
func (r *RemoteResponder) Respond(ctx context.Context, prompt string) (string, error) {
	var reply respondReply
	if err := r.json.PostJSON(ctx, r.url, respondRequest{Prompt: prompt}, &reply); err != nil {
		return "", err
	}
	answer := reply.Response
	if answer == "" {
		answer = reply.Text
	}
	if strings.TrimSpace(answer) == "" {
		return "", fmt.Errorf("responder returned an empty answer")
	}
	return answer, nil
}
