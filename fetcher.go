package revex

import "context"

// Fetcher retrieves raw HTML from URLs without rendering it.
type Fetcher interface {
	// Fetch returns the response body for url.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (html string, err error)

	// Close releases resources.
	Close() error
}
