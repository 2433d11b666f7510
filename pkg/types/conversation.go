// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Role identifies the speaker of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a follow-up conversation about an analysis.
type Message struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`

	// Worker names the worker that answered; empty for user messages.
	Worker string `json:"worker,omitempty" yaml:"worker,omitempty"`
}
