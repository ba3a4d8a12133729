package scrape

import (
	"context"
	"log/slog"
	"time"
)

// NavigateFunc loads a URL into a document.
type NavigateFunc func(ctx context.Context, url string) error

// DefaultRetryDelays returns the backoff delays for the initial page load: 1s, 2s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second}
}

// NavigateWithRetry calls navigate until it succeeds, waiting delays[i]
// before retry i+1. An empty delays slice means a single attempt.
func NavigateWithRetry(ctx context.Context, url string, navigate NavigateFunc, logger *slog.Logger, delays []time.Duration) error {
	maxAttempts := len(delays) + 1

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := navigate(ctx, url)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt >= maxAttempts-1 {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if logger != nil {
			logger.Warn("navigation failed, retrying", "url", url, "attempt", attempt+2, "err", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delays[attempt]):
		}
	}

	return lastErr
}
