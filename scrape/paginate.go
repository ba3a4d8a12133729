package scrape

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/revex"
	"github.com/fwojciec/revex/bloom"
)

// Pagination defaults.
const (
	DefaultSettleDelay = 2 * time.Second
	DefaultMaxPages    = 50
)

// DefaultNextLocators are tried, as one selector group, to find the control
// that advances to the next page of reviews.
func DefaultNextLocators() []string {
	return []string{"button.next", "a.next", "div.pagination-next"}
}

// PageFunc is called after each page is extracted.
type PageFunc func(page int, reviews []*revex.Review)

// Paginator extracts reviews page by page until there is no way forward.
//
// Pagination stops when no visible next control exists, activating it
// fails, MaxPages pages were extracted, the page reached after activation
// was already extracted, or ctx is done.
type Paginator struct {
	Assembler    *Assembler
	NextLocators []string
	SettleDelay  time.Duration
	MaxPages     int
	Logger       *slog.Logger
}

// NewPaginator creates a new Paginator with default settings.
func NewPaginator(assembler *Assembler, logger *slog.Logger) *Paginator {
	return &Paginator{
		Assembler:    assembler,
		NextLocators: DefaultNextLocators(),
		SettleDelay:  DefaultSettleDelay,
		MaxPages:     DefaultMaxPages,
		Logger:       logger,
	}
}

type state int

const (
	stateExtracting state = iota
	stateNavigating
	stateDone
)

// Run extracts reviews from the current page of doc and every page reached
// through its next control. It returns the reviews in page order and the
// number of pages extracted.
func (p *Paginator) Run(ctx context.Context, doc revex.Document, rules *revex.RuleSet, onPage PageFunc) ([]*revex.Review, int, error) {
	if err := rules.Validate(); err != nil {
		return nil, 0, err
	}

	logger := p.logger()
	maxPages := p.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	visited := bloom.NewFilter(uint(maxPages), 0.0001)
	if fp, ok := fingerprint(ctx, doc); ok {
		visited.Add(fp)
	}

	reviews := []*revex.Review{}
	page := 1
	st := stateExtracting
	for st != stateDone {
		switch st {
		case stateExtracting:
			found, err := p.Assembler.Assemble(ctx, doc, rules)
			if err != nil {
				logger.Warn("page extraction aborted", "page", page, "err", err)
			}
			logger.Debug("page extracted", "page", page, "reviews", len(found))
			reviews = append(reviews, found...)
			if onPage != nil {
				onPage(page, found)
			}
			st = stateNavigating

		case stateNavigating:
			st = stateDone
			if page >= maxPages {
				logger.Info("page limit reached", "pages", page)
				break
			}
			if err := ctx.Err(); err != nil {
				logger.Warn("pagination interrupted", "page", page, "err", err)
				break
			}
			if !p.next(ctx, doc, page) {
				break
			}
			if fp, ok := fingerprint(ctx, doc); ok && visited.TestAndAdd(fp) {
				logger.Info("next control did not advance", "page", page)
				break
			}
			page++
			st = stateExtracting
		}
	}

	return reviews, page, nil
}

// next activates the next control and waits for the new page to settle.
// It reports whether a new page may have been loaded.
func (p *Paginator) next(ctx context.Context, doc revex.Document, page int) bool {
	logger := p.logger()

	locators := p.NextLocators
	if len(locators) == 0 {
		locators = DefaultNextLocators()
	}
	el, err := doc.Find(ctx, strings.Join(locators, ", "))
	if err != nil {
		if revex.ErrorCode(err) != revex.ENOTFOUND {
			logger.Warn("looking up next control", "page", page, "err", err)
		}
		return false
	}

	visible, err := el.Visible(ctx)
	if err != nil || !visible {
		logger.Debug("next control not visible", "page", page, "err", err)
		return false
	}

	if err := el.Click(ctx); err != nil {
		logger.Info("next control could not be activated", "page", page, "err", err)
		return false
	}

	if err := doc.Wait(ctx, p.SettleDelay); err != nil {
		logger.Warn("settle delay interrupted", "page", page, "err", err)
		return false
	}
	return true
}

// fingerprint hashes the current markup. ok is false if it cannot be read.
func fingerprint(ctx context.Context, doc revex.Document) (uint64, bool) {
	html, err := doc.HTML(ctx)
	if err != nil {
		return 0, false
	}
	return xxhash.Sum64String(html), true
}

func (p *Paginator) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.Logger
}
