package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/fwojciec/revex"
	"github.com/google/uuid"
)

// DefaultSessionTimeout bounds a whole extraction session.
const DefaultSessionTimeout = 5 * time.Minute

// Ensure Scraper implements revex.Scraper at compile time.
var _ revex.Scraper = (*Scraper)(nil)

// Scraper runs one extraction session per call: it opens an isolated
// browsing context, infers rules from the first page and paginates.
type Scraper struct {
	Browser   revex.Browser
	Inferrer  revex.RuleInferrer
	Paginator *Paginator

	// RuleSets, if set, caches inferred rule sets per host for CacheTTL.
	RuleSets revex.RuleSetService
	CacheTTL time.Duration

	// RateLimiter, if set, throttles sessions per host.
	RateLimiter revex.DomainLimiter

	// Timeout bounds the session. Zero means no deadline.
	Timeout time.Duration

	// RetryDelays are waited between attempts to load the initial page.
	RetryDelays []time.Duration

	// StrictRules rejects rule sets in which any field fell back to its
	// built-in locator.
	StrictRules bool

	// OnPage, if set, is called after each page is extracted.
	OnPage PageFunc

	Logger *slog.Logger
}

// Scrape extracts all reviews reachable from rawURL.
func (s *Scraper) Scrape(ctx context.Context, rawURL string) (*revex.Result, error) {
	u, err := ParseTargetURL(rawURL)
	if err != nil {
		return nil, err
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	logger := s.logger().With("session", uuid.NewString(), "url", u.String())
	begin := time.Now()

	if s.RateLimiter != nil {
		if err := s.RateLimiter.Wait(ctx, u.Host); err != nil {
			return nil, err
		}
	}

	doc, err := s.Browser.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening browsing context: %w", err)
	}
	defer func() {
		if err := doc.Close(); err != nil {
			logger.Warn("closing browsing context", "err", err)
		}
	}()

	if err := NavigateWithRetry(ctx, u.String(), doc.Navigate, logger, s.RetryDelays); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, revex.Errorf(revex.ENAVIGATION, "loading %s: %v", u, err)
	}

	html, err := doc.HTML(ctx)
	if err != nil {
		return nil, revex.Errorf(revex.ENAVIGATION, "reading markup of %s: %v", u, err)
	}

	rules, cached := s.cachedRuleSet(ctx, u.Host, logger)
	if cached && s.matchesNothing(ctx, doc, rules) {
		logger.Warn("cached rules match no reviews, inferring again", "host", u.Host)
		if err := s.RuleSets.DeleteRuleSet(ctx, u.Host); err != nil {
			logger.Warn("evicting cached rules failed", "host", u.Host, "err", err)
		}
		cached = false
	}
	if !cached {
		if rules, err = s.infer(ctx, html, logger); err != nil {
			logger.Error("rule inference failed", "err", err)
			return nil, err
		}
	}
	logger.Info("rules ready",
		"title", rules.Title,
		"body", rules.Body,
		"rating", rules.Rating,
		"reviewer", rules.Reviewer,
		"container", rules.Container,
		"defaulted", rules.Defaulted,
		"cached", cached,
	)

	firstPage := 0
	onPage := func(page int, found []*revex.Review) {
		if page == 1 {
			firstPage = len(found)
		}
		if s.OnPage != nil {
			s.OnPage(page, found)
		}
	}
	reviews, pages, err := s.Paginator.Run(ctx, doc, rules, onPage)
	if err != nil {
		return nil, err
	}

	// Only rules that were fully inferred and found reviews on the first
	// page are worth reusing.
	if !cached && s.RuleSets != nil && rules.Inferred() && firstPage > 0 {
		if err := s.RuleSets.SaveRuleSet(ctx, u.Host, rules); err != nil {
			logger.Warn("caching rules failed", "host", u.Host, "err", err)
		}
	}

	logger.Info("session finished",
		"reviews", len(reviews),
		"pages", pages,
		"duration", time.Since(begin),
	)

	return &revex.Result{
		URL:     u.String(),
		Count:   len(reviews),
		Reviews: reviews,
		Pages:   pages,
		Rules:   rules,
	}, nil
}

// cachedRuleSet returns the cached rule set for host, if any.
func (s *Scraper) cachedRuleSet(ctx context.Context, host string, logger *slog.Logger) (*revex.RuleSet, bool) {
	if s.RuleSets == nil {
		return nil, false
	}
	rs, err := s.RuleSets.FindRuleSet(ctx, host, s.CacheTTL)
	if err != nil {
		if revex.ErrorCode(err) != revex.ENOTFOUND {
			logger.Warn("rule cache lookup failed", "host", host, "err", err)
		}
		return nil, false
	}
	logger.Debug("using cached rules", "host", host)
	return rs, true
}

// matchesNothing reports whether rules yield no review on the current page.
func (s *Scraper) matchesNothing(ctx context.Context, doc revex.Document, rules *revex.RuleSet) bool {
	found, err := s.Paginator.Assembler.Assemble(ctx, doc, rules)
	return err != nil || len(found) == 0
}

// infer asks the inferrer for a rule set and applies StrictRules.
func (s *Scraper) infer(ctx context.Context, html string, logger *slog.Logger) (*revex.RuleSet, error) {
	rs, err := s.Inferrer.Infer(ctx, html)
	if err != nil {
		if revex.ErrorCode(err) == revex.EINFERENCE {
			return nil, err
		}
		return nil, revex.Errorf(revex.EINFERENCE, "failed to generate selectors: %v", err)
	}

	if !rs.Inferred() {
		logger.Warn("using default locators", "fields", rs.Defaulted)
		if s.StrictRules {
			return nil, revex.Errorf(revex.EINFERENCE, "failed to extract all selectors, missing: %s", joinFields(rs.Defaulted))
		}
	}
	return rs, nil
}

// ParseTargetURL validates that rawURL is an absolute http(s) URL.
func ParseTargetURL(rawURL string) (*url.URL, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, revex.Errorf(revex.EINVALID, "Please provide a URL.")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, revex.Errorf(revex.EINVALID, "invalid URL %q: %v", rawURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, revex.Errorf(revex.EINVALID, "URL must be absolute http or https: %q", rawURL)
	}
	return u, nil
}

func joinFields(fields []revex.Field) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

func (s *Scraper) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Logger
}
