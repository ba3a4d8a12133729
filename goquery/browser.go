package goquery

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/revex"
)

// Compile-time interface verification.
var (
	_ revex.Browser  = (*Browser)(nil)
	_ revex.Document = (*Document)(nil)
	_ revex.Element  = (*Element)(nil)
)

// Browser is a static renderer. It fetches markup without executing
// JavaScript and selects elements with goquery. Only links can be clicked:
// clicking one loads its href.
type Browser struct {
	fetcher revex.Fetcher
}

// NewBrowser creates a new Browser that loads pages with fetcher.
func NewBrowser(fetcher revex.Fetcher) *Browser {
	return &Browser{fetcher: fetcher}
}

// Open returns an empty document. Documents share nothing with each other.
func (b *Browser) Open(ctx context.Context) (revex.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Document{fetcher: b.fetcher}, nil
}

// Document is a parsed page loaded by a Browser.
type Document struct {
	fetcher revex.Fetcher
	url     *url.URL
	doc     *goquery.Document
	closed  bool
}

// Navigate fetches and parses url.
func (d *Document) Navigate(ctx context.Context, rawURL string) error {
	if d.closed {
		return revex.Errorf(revex.EINVALID, "document closed")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return revex.Errorf(revex.ENAVIGATION, "invalid URL %q: %v", rawURL, err)
	}

	html, err := d.fetcher.Fetch(ctx, u.String())
	if err != nil {
		return revex.Errorf(revex.ENAVIGATION, "loading %s: %v", u, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return revex.Errorf(revex.ENAVIGATION, "parsing %s: %v", u, err)
	}

	d.url = u
	d.doc = doc
	return nil
}

// HTML returns the markup of the loaded page.
func (d *Document) HTML(ctx context.Context) (string, error) {
	if err := d.ready(ctx); err != nil {
		return "", err
	}
	return d.doc.Html()
}

// FindAll returns every element matching locator.
func (d *Document) FindAll(ctx context.Context, locator string) ([]revex.Element, error) {
	if err := d.ready(ctx); err != nil {
		return nil, err
	}
	return d.wrap(d.doc.Find(locator)), nil
}

// Find returns the first element matching locator.
func (d *Document) Find(ctx context.Context, locator string) (revex.Element, error) {
	if err := d.ready(ctx); err != nil {
		return nil, err
	}
	sel := d.doc.Find(locator).First()
	if sel.Length() == 0 {
		return nil, revex.Errorf(revex.ENOTFOUND, "no element matches %q", locator)
	}
	return &Element{doc: d, sel: sel}, nil
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

// Close releases the parsed page. Close is safe to call multiple times.
func (d *Document) Close() error {
	d.closed = true
	d.doc = nil
	return nil
}

func (d *Document) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.closed {
		return revex.Errorf(revex.EINVALID, "document closed")
	}
	if d.doc == nil {
		return revex.Errorf(revex.EINVALID, "no page loaded")
	}
	return nil
}

func (d *Document) wrap(sel *goquery.Selection) []revex.Element {
	elements := make([]revex.Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		elements = append(elements, &Element{doc: d, sel: s})
	})
	return elements
}

// Element is a single node of a Document.
type Element struct {
	doc *Document
	sel *goquery.Selection
}

// Text returns the text content of the element.
func (e *Element) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return e.sel.Text(), nil
}

// Visible reports whether neither the element nor any ancestor is hidden
// through attributes or inline styles.
func (e *Element) Visible(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if t, _ := e.sel.Attr("type"); goquery.NodeName(e.sel) == "input" && strings.EqualFold(t, "hidden") {
		return false, nil
	}
	for s := e.sel; s.Length() > 0; s = s.Parent() {
		if isHidden(s) {
			return false, nil
		}
	}
	return true, nil
}

// Click follows the element's href. Elements that are not links cannot be
// activated without a JavaScript engine and return ENAVIGATION.
func (e *Element) Click(ctx context.Context) error {
	link := e.sel.Closest("a[href]")
	href, ok := link.Attr("href")
	if !ok {
		return revex.Errorf(revex.ENAVIGATION, "cannot activate <%s> without a browser", goquery.NodeName(e.sel))
	}

	target, err := resolveHref(e.doc.url, href)
	if err != nil {
		return err
	}
	return e.doc.Navigate(ctx, target)
}

// Find returns the first descendant matching locator, or nil.
func (e *Element) Find(ctx context.Context, locator string) (revex.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sel := e.sel.Find(locator).First()
	if sel.Length() == 0 {
		return nil, nil
	}
	return &Element{doc: e.doc, sel: sel}, nil
}

// resolveHref resolves href against base, rejecting links that do not load a page.
func resolveHref(base *url.URL, href string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(href))
	if trimmed == "" || strings.HasPrefix(trimmed, "#") ||
		strings.HasPrefix(trimmed, "javascript:") ||
		strings.HasPrefix(trimmed, "mailto:") {
		return "", revex.Errorf(revex.ENAVIGATION, "link %q does not load a page", href)
	}

	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", revex.Errorf(revex.ENAVIGATION, "invalid link %q: %v", href, err)
	}
	if base == nil {
		return ref.String(), nil
	}
	return base.ResolveReference(ref).String(), nil
}

func isHidden(s *goquery.Selection) bool {
	if _, ok := s.Attr("hidden"); ok {
		return true
	}
	if v, _ := s.Attr("aria-hidden"); v == "true" {
		return true
	}
	style, _ := s.Attr("style")
	style = strings.ReplaceAll(strings.ToLower(style), " ", "")
	return strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden")
}
