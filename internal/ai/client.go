package ai

import (
	"context"
	"log"
	"time"

	"server-kai/pkg/retrylimit"
)

// Client wraps a Provider with the call policy: fixed per-call timeout,
// up to ChatAttempts tries with no backoff, shared adaptive rate limiter.
type Client struct {
	provider Provider
	limiter  *retrylimit.AdaptiveLimiter
}

func NewClient(provider Provider) *Client {
	return &Client{
		provider: provider,
		limiter:  retrylimit.NewAdaptiveLimiter(5, 1, 20, 1, 0.5),
	}
}

// Chat calls the completion provider with retries. Returns the last error
// after exhaustion; callers fall back, this is never fatal to a request.
func (c *Client) Chat(ctx context.Context, model string, messages []Message, timeout time.Duration) (string, error) {
	var reply string
	attempt := 0
	err := retrylimit.WithAttempts(ctx, ChatAttempts, c.limiter, func() error {
		attempt++
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		out, err := c.provider.Generate(callCtx, model, messages)
		if err != nil {
			log.Printf("[AI] try %d/%d failed: %v", attempt, ChatAttempts, err)
			return err
		}
		reply = out
		return nil
	})
	if err != nil {
		return "", err
	}
	return reply, nil
}
