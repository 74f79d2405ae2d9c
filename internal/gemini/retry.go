package gemini

import (
	"context"
	"time"

	"prodlens/internal/logging"
	"prodlens/internal/stage"
)

// RetryInvoker wraps an Invoker with exponential backoff. Everything that
// reaches this layer is a transport-level failure (parse failures happen
// above, in the executor, and are never retried). Context cancellation and
// deadline expiry stop the attempts immediately.
type RetryInvoker struct {
	inner    stage.Invoker
	attempts int
	backoff  time.Duration
}

// NewRetryInvoker wraps inner with up to attempts total tries and an
// exponential backoff starting at backoff.
func NewRetryInvoker(inner stage.Invoker, attempts int, backoff time.Duration) *RetryInvoker {
	if attempts < 1 {
		attempts = 1
	}
	if backoff <= 0 {
		backoff = time.Second
	}
	return &RetryInvoker{inner: inner, attempts: attempts, backoff: backoff}
}

// Invoke tries the inner invoker, backing off between failures.
func (r *RetryInvoker) Invoke(ctx context.Context, prompt string, images []stage.ImagePayload) (string, error) {
	var lastErr error
	for attempt := 0; attempt < r.attempts; attempt++ {
		if attempt > 0 {
			delay := r.backoff * (1 << (attempt - 1))
			logging.Gemini("retrying after %v (attempt %d/%d): %v", delay, attempt+1, r.attempts, lastErr)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		text, err := r.inner.Invoke(ctx, prompt, images)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", lastErr
		}
	}
	return "", lastErr
}
