package revex

import (
	"context"
	"time"
)

// Browser creates isolated browsing contexts.
type Browser interface {
	// Open creates a new isolated browsing context with one empty document.
	// The caller must Close the document.
	Open(ctx context.Context) (Document, error)
}

// Document is a live document inside an isolated browsing context.
type Document interface {
	// Navigate loads url and waits for the load event.
	Navigate(ctx context.Context, url string) error

	// HTML returns the current document markup.
	HTML(ctx context.Context) (string, error)

	// FindAll returns every element matching the CSS locator in document order.
	// A locator that matches nothing yields an empty slice, not an error.
	FindAll(ctx context.Context, locator string) ([]Element, error)

	// Find returns the first element matching the CSS locator.
	// Returns ENOTFOUND if nothing matches.
	Find(ctx context.Context, locator string) (Element, error)

	// Wait blocks for d or until ctx is done.
	Wait(ctx context.Context, d time.Duration) error

	// Close destroys the browsing context.
	Close() error
}

// Element is an element of a Document.
type Element interface {
	// Text returns the element's visible text.
	Text(ctx context.Context) (string, error)

	// Visible reports whether the element is rendered visibly.
	Visible(ctx context.Context) (bool, error)

	// Click activates the element.
	Click(ctx context.Context) error

	// Find returns the first descendant matching the CSS locator, or nil
	// if nothing matches.
	Find(ctx context.Context, locator string) (Element, error)
}
