package revex

import "context"

// NotAvailable is stored in a text field whose element is missing.
const NotAvailable = "N/A"

// Review is one extracted review record.
type Review struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	Rating   *int   `json:"rating"`
	Reviewer string `json:"reviewer"`
}

// Result is the outcome of one extraction session.
type Result struct {
	URL     string    `json:"url"`
	Count   int       `json:"reviews_count"`
	Reviews []*Review `json:"reviews"`
	Pages   int       `json:"pages"`
	Rules   *RuleSet  `json:"selectors,omitempty"`
}

// Scraper runs extraction sessions.
type Scraper interface {
	// Scrape extracts all reviews reachable from url.
	// Returns EINVALID if url is empty or not an absolute http(s) URL,
	// EINFERENCE if rules could not be inferred and ENAVIGATION if the
	// initial page could not be loaded.
	Scrape(ctx context.Context, url string) (*Result, error)
}

// DomainLimiter provides per-domain rate limiting.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, domain string) error
}

// ResultWriter persists extraction results.
type ResultWriter interface {
	// WriteResult stores result and returns where it was written.
	WriteResult(ctx context.Context, result *Result) (string, error)
}
