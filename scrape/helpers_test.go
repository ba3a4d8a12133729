package scrape_test

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/fwojciec/revex"
	"github.com/fwojciec/revex/goquery"
	"github.com/fwojciec/revex/mock"
	"github.com/stretchr/testify/require"
)

const siteBase = "http://shop.test"

// staticSite serves pages keyed by URL path.
func staticSite(pages map[string]string) *mock.Fetcher {
	return &mock.Fetcher{
		FetchFn: func(_ context.Context, rawURL string) (string, error) {
			u, err := url.Parse(rawURL)
			if err != nil {
				return "", err
			}
			body, ok := pages[u.Path]
			if !ok {
				return "", fmt.Errorf("HTTP 404 for %s", rawURL)
			}
			return body, nil
		},
		CloseFn: func() error { return nil },
	}
}

// openStatic loads path from pages into a static document.
func openStatic(t *testing.T, pages map[string]string, path string) revex.Document {
	t.Helper()

	doc, err := goquery.NewBrowser(staticSite(pages)).Open(context.Background())
	require.NoError(t, err)
	require.NoError(t, doc.Navigate(context.Background(), siteBase+path))
	t.Cleanup(func() { _ = doc.Close() })
	return doc
}

// reviewPage renders count reviews labelled with prefix and an optional
// trailing fragment such as a next link.
func reviewPage(prefix string, count int, extra string) string {
	var b strings.Builder
	b.WriteString("<html><head><title>Reviews</title><script>track()</script></head><body>")
	for i := 1; i <= count; i++ {
		fmt.Fprintf(&b, `<div class="review">
<h2 class="review-title">%s title %d</h2>
<div class="review-body">%s body %d</div>
<span class="review-rating">%d</span>
<span class="reviewer-name">%s reviewer %d</span>
</div>`, prefix, i, prefix, i, i, prefix, i)
	}
	b.WriteString(extra)
	b.WriteString("</body></html>")
	return b.String()
}
