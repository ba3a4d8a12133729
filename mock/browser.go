package mock

import (
	"context"
	"time"

	"github.com/fwojciec/revex"
)

var (
	_ revex.Browser  = (*Browser)(nil)
	_ revex.Document = (*Document)(nil)
	_ revex.Element  = (*Element)(nil)
)

// Browser is a mock implementation of revex.Browser.
type Browser struct {
	OpenFn func(ctx context.Context) (revex.Document, error)
}

func (b *Browser) Open(ctx context.Context) (revex.Document, error) {
	return b.OpenFn(ctx)
}

// Document is a mock implementation of revex.Document.
type Document struct {
	NavigateFn func(ctx context.Context, url string) error
	HTMLFn     func(ctx context.Context) (string, error)
	FindAllFn  func(ctx context.Context, locator string) ([]revex.Element, error)
	FindFn     func(ctx context.Context, locator string) (revex.Element, error)
	WaitFn     func(ctx context.Context, d time.Duration) error
	CloseFn    func() error
}

func (d *Document) Navigate(ctx context.Context, url string) error {
	return d.NavigateFn(ctx, url)
}

func (d *Document) HTML(ctx context.Context) (string, error) {
	return d.HTMLFn(ctx)
}

func (d *Document) FindAll(ctx context.Context, locator string) ([]revex.Element, error) {
	return d.FindAllFn(ctx, locator)
}

func (d *Document) Find(ctx context.Context, locator string) (revex.Element, error) {
	return d.FindFn(ctx, locator)
}

func (d *Document) Wait(ctx context.Context, dur time.Duration) error {
	return d.WaitFn(ctx, dur)
}

func (d *Document) Close() error {
	return d.CloseFn()
}

// Element is a mock implementation of revex.Element.
type Element struct {
	TextFn    func(ctx context.Context) (string, error)
	VisibleFn func(ctx context.Context) (bool, error)
	ClickFn   func(ctx context.Context) error
	FindFn    func(ctx context.Context, locator string) (revex.Element, error)
}

func (e *Element) Text(ctx context.Context) (string, error) {
	return e.TextFn(ctx)
}

func (e *Element) Visible(ctx context.Context) (bool, error) {
	return e.VisibleFn(ctx)
}

func (e *Element) Click(ctx context.Context) error {
	return e.ClickFn(ctx)
}

func (e *Element) Find(ctx context.Context, locator string) (revex.Element, error) {
	return e.FindFn(ctx, locator)
}

// TextElement returns an Element whose Text returns text.
func TextElement(text string) *Element {
	return &Element{
		TextFn: func(context.Context) (string, error) { return text, nil },
	}
}
