package rod

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fwojciec/revex"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Compile-time interface verification.
var (
	_ revex.Browser  = (*Browser)(nil)
	_ revex.Document = (*Document)(nil)
	_ revex.Element  = (*Element)(nil)
)

// Browser opens documents in isolated incognito contexts of a managed
// Chrome instance. Sessions share no cookies or storage.
type Browser struct {
	manager *BrowserManager
}

// NewBrowser creates a new Browser backed by manager.
func NewBrowser(manager *BrowserManager) *Browser {
	return &Browser{manager: manager}
}

// Open creates an incognito context with a single blank page.
func (b *Browser) Open(ctx context.Context) (revex.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	browser, release, err := b.manager.Acquire()
	if err != nil {
		return nil, err
	}

	incognito, err := browser.Incognito()
	if err != nil {
		release()
		return nil, fmt.Errorf("creating incognito context: %w", err)
	}

	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = incognito.Close()
		release()
		return nil, fmt.Errorf("creating page: %w", err)
	}

	return &Document{page: page, incognito: incognito, release: release}, nil
}

// Document is a page inside its own incognito context.
type Document struct {
	page      *rod.Page
	incognito *rod.Browser
	release   func()
	closeOnce sync.Once
	closeErr  error
}

// Navigate loads url and waits for the load event.
func (d *Document) Navigate(ctx context.Context, url string) error {
	p := d.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return revex.Errorf(revex.ENAVIGATION, "navigating to %s: %v", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return revex.Errorf(revex.ENAVIGATION, "waiting for %s to load: %v", url, err)
	}
	return nil
}

// HTML returns the rendered markup of the page.
func (d *Document) HTML(ctx context.Context) (string, error) {
	return d.page.Context(ctx).HTML()
}

// FindAll returns every element matching locator without waiting.
func (d *Document) FindAll(ctx context.Context, locator string) ([]revex.Element, error) {
	elements, err := d.page.Context(ctx).Elements(locator)
	if err != nil {
		return nil, err
	}
	return wrap(elements), nil
}

// Find returns the first element matching locator without waiting.
func (d *Document) Find(ctx context.Context, locator string) (revex.Element, error) {
	ok, el, err := d.page.Context(ctx).Has(locator)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, revex.Errorf(revex.ENOTFOUND, "no element matches %q", locator)
	}
	return &Element{el: el}, nil
}

// Wait blocks for duration or until ctx is done.
func (d *Document) Wait(ctx context.Context, duration time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(duration):
		return nil
	}
}

// Close closes the page and its incognito context and returns the browser
// to the manager. Close is safe to call multiple times.
func (d *Document) Close() error {
	d.closeOnce.Do(func() {
		defer d.release()
		if err := d.page.Close(); err != nil {
			d.closeErr = fmt.Errorf("closing page: %w", err)
		}
		if err := d.incognito.Close(); err != nil && d.closeErr == nil {
			d.closeErr = fmt.Errorf("closing incognito context: %w", err)
		}
	})
	return d.closeErr
}

func wrap(elements rod.Elements) []revex.Element {
	out := make([]revex.Element, len(elements))
	for i, el := range elements {
		out[i] = &Element{el: el}
	}
	return out
}

// Element is a live DOM node.
type Element struct {
	el *rod.Element
}

// Text returns the rendered text of the element.
func (e *Element) Text(ctx context.Context) (string, error) {
	return e.el.Context(ctx).Text()
}

// Visible reports whether the element is rendered and not hidden.
func (e *Element) Visible(ctx context.Context) (bool, error) {
	return e.el.Context(ctx).Visible()
}

// Click scrolls the element into view and left-clicks it once.
func (e *Element) Click(ctx context.Context) error {
	return e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
}

// Find returns the first descendant matching locator, or nil.
func (e *Element) Find(ctx context.Context, locator string) (revex.Element, error) {
	ok, el, err := e.el.Context(ctx).Has(locator)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &Element{el: el}, nil
}
