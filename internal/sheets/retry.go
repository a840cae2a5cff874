package sheets

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryPolicy bounds retries for every gateway call.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int
	// InitialBackoff is the delay before the second attempt; it doubles on
	// each subsequent attempt.
	InitialBackoff time.Duration
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = time.Second
	}
	return p
}

// withRetry runs fn under the client's retry policy. Transient failures
// (transport errors, HTTP 429/5xx) are retried with exponential backoff; when
// attempts are exhausted the final underlying error propagates unmodified so
// callers can still distinguish configuration errors from flaky transport.
func (c *Client) withRetry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(uint64(c.retry.MaxAttempts-1), retry.NewExponential(c.retry.InitialBackoff))
	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return err
		}
		slog.Warn("transient spreadsheet API failure",
			"component", "sheets",
			"op", op,
			"attempt", attempt,
			"error", err,
		)
		return retry.RetryableError(err)
	})
}

// isTransient reports whether an error is worth retrying. API responses with
// 429 or 5xx are transient; any other API status is a hard error. Everything
// else (network failure, timeout) is assumed transient.
func isTransient(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return true
}
