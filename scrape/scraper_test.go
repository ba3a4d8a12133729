package scrape_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fwojciec/revex"
	"github.com/fwojciec/revex/goquery"
	rxhttp "github.com/fwojciec/revex/http"
	"github.com/fwojciec/revex/llm"
	"github.com/fwojciec/revex/mock"
	"github.com/fwojciec/revex/scrape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fullRules is a rule set in which every field was inferred.
func fullRules() *revex.RuleSet {
	return &revex.RuleSet{
		Title:    "h2.review-title",
		Body:     "div.review-body",
		Rating:   "span.review-rating",
		Reviewer: "span.reviewer-name",
	}
}

// trackedDocument wraps a document loaded with pages and records Close calls.
func trackedDocument(t *testing.T, pages map[string]string, closed *bool) *mock.Browser {
	t.Helper()
	browser := goquery.NewBrowser(staticSite(pages))
	return &mock.Browser{
		OpenFn: func(ctx context.Context) (revex.Document, error) {
			doc, err := browser.Open(ctx)
			if err != nil {
				return nil, err
			}
			return &closeRecorder{Document: doc, closed: closed}, nil
		},
	}
}

type closeRecorder struct {
	revex.Document
	closed *bool
}

func (c *closeRecorder) Close() error {
	*c.closed = true
	return c.Document.Close()
}

func newScraper(browser revex.Browser, inferrer revex.RuleInferrer) *scrape.Scraper {
	return &scrape.Scraper{
		Browser:   browser,
		Inferrer:  inferrer,
		Paginator: newPaginator(),
	}
}

func TestScraper_Scrape(t *testing.T) {
	t.Parallel()

	t.Run("rejects empty URL before opening a browsing context", func(t *testing.T) {
		t.Parallel()

		browser := &mock.Browser{
			OpenFn: func(context.Context) (revex.Document, error) {
				t.Fatal("browser must not be opened")
				return nil, nil
			},
		}
		inferrer := &mock.RuleInferrer{
			InferFn: func(context.Context, string) (*revex.RuleSet, error) {
				t.Fatal("inferrer must not be called")
				return nil, nil
			},
		}

		_, err := newScraper(browser, inferrer).Scrape(context.Background(), "  ")

		require.Error(t, err)
		assert.Equal(t, revex.EINVALID, revex.ErrorCode(err))
		assert.Equal(t, "Please provide a URL.", revex.ErrorMessage(err))
	})

	t.Run("rejects relative URL", func(t *testing.T) {
		t.Parallel()

		_, err := newScraper(&mock.Browser{}, &mock.RuleInferrer{}).Scrape(context.Background(), "/reviews")

		require.Error(t, err)
		assert.Equal(t, revex.EINVALID, revex.ErrorCode(err))
	})

	t.Run("extracts reviews with inferred rules", func(t *testing.T) {
		t.Parallel()

		var closed bool
		pages := map[string]string{
			"/item": reviewPage("a", 2, `<a class="next" href="/item?page=2">Next</a>`),
		}
		var markup string
		inferrer := &mock.RuleInferrer{
			InferFn: func(_ context.Context, html string) (*revex.RuleSet, error) {
				markup = html
				return fullRules(), nil
			},
		}

		result, err := newScraper(trackedDocument(t, pages, &closed), inferrer).Scrape(context.Background(), siteBase+"/item")

		require.NoError(t, err)
		assert.Equal(t, siteBase+"/item", result.URL)
		assert.Equal(t, 2, result.Count)
		assert.Len(t, result.Reviews, 2)
		assert.Equal(t, 1, result.Pages, "next page repeats the same markup")
		assert.Contains(t, markup, "a title 1")
		assert.True(t, closed)
	})

	t.Run("closes browsing context when inference fails", func(t *testing.T) {
		t.Parallel()

		var closed bool
		pages := map[string]string{"/item": reviewPage("a", 2, "")}
		inferrer := &mock.RuleInferrer{
			InferFn: func(context.Context, string) (*revex.RuleSet, error) {
				return nil, errors.New("quota exceeded")
			},
		}
		s := newScraper(trackedDocument(t, pages, &closed), inferrer)
		var pagesSeen int
		s.OnPage = func(int, []*revex.Review) { pagesSeen++ }

		result, err := s.Scrape(context.Background(), siteBase+"/item")

		require.Error(t, err)
		assert.Nil(t, result)
		assert.Equal(t, revex.EINFERENCE, revex.ErrorCode(err))
		assert.Zero(t, pagesSeen)
		assert.True(t, closed)
	})

	t.Run("fails navigation after retries", func(t *testing.T) {
		t.Parallel()

		var closed bool
		var attempts int
		browser := &mock.Browser{
			OpenFn: func(context.Context) (revex.Document, error) {
				return &mock.Document{
					NavigateFn: func(context.Context, string) error {
						attempts++
						return errors.New("connection refused")
					},
					CloseFn: func() error {
						closed = true
						return nil
					},
				}, nil
			},
		}
		s := newScraper(browser, &mock.RuleInferrer{})
		s.RetryDelays = []time.Duration{time.Millisecond, time.Millisecond}

		_, err := s.Scrape(context.Background(), siteBase+"/item")

		require.Error(t, err)
		assert.Equal(t, revex.ENAVIGATION, revex.ErrorCode(err))
		assert.Equal(t, 3, attempts)
		assert.True(t, closed)
	})

	t.Run("returns error when browser cannot be opened", func(t *testing.T) {
		t.Parallel()

		browser := &mock.Browser{
			OpenFn: func(context.Context) (revex.Document, error) {
				return nil, revex.Errorf(revex.EINTERNAL, "browser crashed")
			},
		}

		_, err := newScraper(browser, &mock.RuleInferrer{}).Scrape(context.Background(), siteBase+"/item")

		require.Error(t, err)
		assert.Equal(t, revex.EINTERNAL, revex.ErrorCode(err))
	})

	t.Run("keeps defaulted rules unless strict", func(t *testing.T) {
		t.Parallel()

		pages := map[string]string{"/item": reviewPage("a", 3, "")}
		partial := func() *revex.RuleSet {
			rs := revex.DefaultRuleSet()
			rs.Defaulted = []revex.Field{revex.FieldRating, revex.FieldReviewer}
			return rs
		}
		inferrer := &mock.RuleInferrer{
			InferFn: func(context.Context, string) (*revex.RuleSet, error) { return partial(), nil },
		}
		var closed bool

		lenient := newScraper(trackedDocument(t, pages, &closed), inferrer)
		result, err := lenient.Scrape(context.Background(), siteBase+"/item")
		require.NoError(t, err)
		assert.Equal(t, 3, result.Count)

		strict := newScraper(trackedDocument(t, pages, &closed), inferrer)
		strict.StrictRules = true
		_, err = strict.Scrape(context.Background(), siteBase+"/item")
		require.Error(t, err)
		assert.Equal(t, revex.EINFERENCE, revex.ErrorCode(err))
		assert.Contains(t, revex.ErrorMessage(err), "rating, reviewer")
	})

	t.Run("uses cached rules", func(t *testing.T) {
		t.Parallel()

		var closed bool
		pages := map[string]string{"/item": reviewPage("a", 2, "")}
		inferrer := &mock.RuleInferrer{
			InferFn: func(context.Context, string) (*revex.RuleSet, error) {
				t.Fatal("inferrer must not be called on cache hit")
				return nil, nil
			},
		}
		var gotHost string
		var gotAge time.Duration
		s := newScraper(trackedDocument(t, pages, &closed), inferrer)
		s.CacheTTL = time.Hour
		s.RuleSets = &mock.RuleSetService{
			FindRuleSetFn: func(_ context.Context, host string, maxAge time.Duration) (*revex.RuleSet, error) {
				gotHost, gotAge = host, maxAge
				return fullRules(), nil
			},
		}

		result, err := s.Scrape(context.Background(), siteBase+"/item")

		require.NoError(t, err)
		assert.Equal(t, 2, result.Count)
		assert.Equal(t, "shop.test", gotHost)
		assert.Equal(t, time.Hour, gotAge)
	})

	t.Run("evicts cached rules that match nothing and infers again", func(t *testing.T) {
		t.Parallel()

		var closed bool
		pages := map[string]string{"/item": reviewPage("a", 2, "")}
		var inferCalls int
		inferrer := &mock.RuleInferrer{
			InferFn: func(context.Context, string) (*revex.RuleSet, error) {
				inferCalls++
				return fullRules(), nil
			},
		}
		var deleted string
		var saved *revex.RuleSet
		s := newScraper(trackedDocument(t, pages, &closed), inferrer)
		s.RuleSets = &mock.RuleSetService{
			FindRuleSetFn: func(context.Context, string, time.Duration) (*revex.RuleSet, error) {
				return &revex.RuleSet{Title: "h3.gone", Body: "p.gone", Rating: ".gone", Reviewer: ".gone"}, nil
			},
			DeleteRuleSetFn: func(_ context.Context, host string) error {
				deleted = host
				return nil
			},
			SaveRuleSetFn: func(_ context.Context, _ string, rs *revex.RuleSet) error {
				saved = rs
				return nil
			},
		}

		result, err := s.Scrape(context.Background(), siteBase+"/item")

		require.NoError(t, err)
		assert.Equal(t, 2, result.Count)
		assert.Equal(t, 1, inferCalls)
		assert.Equal(t, "shop.test", deleted)
		require.NotNil(t, saved)
		assert.Equal(t, "h2.review-title", saved.Title)
	})

	t.Run("does not cache rules that find no reviews", func(t *testing.T) {
		t.Parallel()

		var closed bool
		pages := map[string]string{"/item": reviewPage("a", 2, "")}
		inferrer := &mock.RuleInferrer{
			InferFn: func(context.Context, string) (*revex.RuleSet, error) {
				return &revex.RuleSet{Title: "h3.none", Body: "p.none", Rating: ".none", Reviewer: ".none"}, nil
			},
		}
		s := newScraper(trackedDocument(t, pages, &closed), inferrer)
		s.RuleSets = &mock.RuleSetService{
			FindRuleSetFn: func(context.Context, string, time.Duration) (*revex.RuleSet, error) {
				return nil, revex.Errorf(revex.ENOTFOUND, "no cached rules")
			},
			SaveRuleSetFn: func(context.Context, string, *revex.RuleSet) error {
				t.Fatal("rules without matches must not be cached")
				return nil
			},
		}

		result, err := s.Scrape(context.Background(), siteBase+"/item")

		require.NoError(t, err)
		assert.Zero(t, result.Count)
	})

	t.Run("caches only fully inferred rules", func(t *testing.T) {
		t.Parallel()

		pages := map[string]string{"/item": reviewPage("a", 1, "")}
		tests := []struct {
			name      string
			rules     *revex.RuleSet
			wantSaved bool
		}{
			{"inferred", fullRules(), true},
			{"defaulted", &revex.RuleSet{
				Title: "h2.review-title", Body: "div.review-body",
				Rating: "span.review-rating", Reviewer: "span.reviewer-name",
				Defaulted: []revex.Field{revex.FieldBody},
			}, false},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				var closed, saved bool
				s := newScraper(trackedDocument(t, pages, &closed), &mock.RuleInferrer{
					InferFn: func(context.Context, string) (*revex.RuleSet, error) { return tt.rules, nil },
				})
				s.RuleSets = &mock.RuleSetService{
					FindRuleSetFn: func(context.Context, string, time.Duration) (*revex.RuleSet, error) {
						return nil, revex.Errorf(revex.ENOTFOUND, "no cached rules")
					},
					SaveRuleSetFn: func(context.Context, string, *revex.RuleSet) error {
						saved = true
						return nil
					},
				}

				_, err := s.Scrape(context.Background(), siteBase+"/item")

				require.NoError(t, err)
				assert.Equal(t, tt.wantSaved, saved)
			})
		}
	})

	t.Run("waits for rate limiter", func(t *testing.T) {
		t.Parallel()

		s := newScraper(&mock.Browser{
			OpenFn: func(context.Context) (revex.Document, error) {
				t.Fatal("browser must not be opened")
				return nil, nil
			},
		}, &mock.RuleInferrer{})
		var domain string
		s.RateLimiter = &mock.DomainLimiter{
			WaitFn: func(_ context.Context, d string) error {
				domain = d
				return context.Canceled
			},
		}

		_, err := s.Scrape(context.Background(), siteBase+"/item")

		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, "shop.test", domain)
	})
}

// Drives a whole session over real HTTP: static rendering, markup
// reduction, a canned model answer, rule parsing and two pages.
func TestScraper_Scrape_EndToEnd(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		switch r.URL.Query().Get("page") {
		case "", "1":
			fmt.Fprint(w, reviewPage("first", 3, `<nav><a class="next" href="?page=2">Next</a></nav>`))
		case "2":
			fmt.Fprint(w, reviewPage("second", 3, ""))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	var prompt revex.CompletionRequest
	completer := &mock.Completer{
		CompleteFn: func(_ context.Context, req revex.CompletionRequest) (string, error) {
			prompt = req
			return "title: h2.review-title\nbody: div.review-body\nrating: span.review-rating\nreviewer: span.reviewer-name", nil
		},
	}

	fetcher := rxhttp.NewFetcher()
	t.Cleanup(func() { _ = fetcher.Close() })

	s := &scrape.Scraper{
		Browser:     goquery.NewBrowser(fetcher),
		Inferrer:    llm.NewInferrer(completer, goquery.NewReducer()),
		Paginator:   newPaginator(),
		RetryDelays: []time.Duration{},
	}

	result, err := s.Scrape(context.Background(), srv.URL+"/product")

	require.NoError(t, err)
	assert.Equal(t, 6, result.Count)
	assert.Equal(t, 2, result.Pages)
	require.Len(t, result.Reviews, 6)
	assert.Equal(t, "first title 1", result.Reviews[0].Title)
	assert.Equal(t, "second reviewer 3", result.Reviews[5].Reviewer)
	require.NotNil(t, result.Reviews[5].Rating)
	assert.Equal(t, 3, *result.Reviews[5].Rating)
	assert.Empty(t, result.Rules.Defaulted)

	assert.Equal(t, llm.SystemPrompt, prompt.SystemPrompt)
	assert.Equal(t, 150, prompt.MaxTokens)
	assert.NotContains(t, prompt.UserPrompt, "<script")
	assert.True(t, strings.Contains(prompt.UserPrompt, "first title 1"))
}
