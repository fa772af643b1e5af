package ai

import (
	"context"
	"time"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider is the completion collaborator: ordered role/content messages in,
// first choice's message content out. The deadline on ctx bounds the call.
type Provider interface {
	Generate(ctx context.Context, model string, messages []Message) (string, error)
}

// Per-call timeouts and the retry budget of the primary completion.
const (
	ChatTimeout   = 40 * time.Second
	TaggerTimeout = 20 * time.Second
	ChatAttempts  = 3
)
