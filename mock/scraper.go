package mock

import (
	"context"

	"github.com/fwojciec/revex"
)

var (
	_ revex.Scraper       = (*Scraper)(nil)
	_ revex.DomainLimiter = (*DomainLimiter)(nil)
)

// Scraper is a mock implementation of revex.Scraper.
type Scraper struct {
	ScrapeFn func(ctx context.Context, url string) (*revex.Result, error)
}

func (s *Scraper) Scrape(ctx context.Context, url string) (*revex.Result, error) {
	return s.ScrapeFn(ctx, url)
}

// DomainLimiter is a mock implementation of revex.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (l *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return l.WaitFn(ctx, domain)
}

var _ revex.ResultWriter = (*ResultWriter)(nil)

// ResultWriter is a mock implementation of revex.ResultWriter.
type ResultWriter struct {
	WriteResultFn func(ctx context.Context, result *revex.Result) (string, error)
}

func (w *ResultWriter) WriteResult(ctx context.Context, result *revex.Result) (string, error) {
	return w.WriteResultFn(ctx, result)
}
