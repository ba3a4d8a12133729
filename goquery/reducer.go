package goquery

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/revex"
	"golang.org/x/net/html"
)

// Ensure Reducer implements revex.Reducer at compile time.
var _ revex.Reducer = (*Reducer)(nil)

// strippedElements carry no review content.
const strippedElements = "meta, link, noscript, style, script"

// truncationMarker closes a truncated prefix.
const truncationMarker = "</>"

// Reducer removes non-content elements from HTML and truncates it.
type Reducer struct {
	limit int
}

// ReducerOption configures a Reducer.
type ReducerOption func(*Reducer)

// WithLimit sets the maximum output length in bytes.
// Defaults to revex.MaxMarkupLength.
func WithLimit(n int) ReducerOption {
	return func(r *Reducer) {
		r.limit = n
	}
}

// NewReducer creates a new Reducer.
func NewReducer(opts ...ReducerOption) *Reducer {
	r := &Reducer{limit: revex.MaxMarkupLength}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reduce strips meta, link, noscript, style and script elements and HTML
// comments, then truncates the serialized result to the configured limit.
func (r *Reducer) Reduce(markup string) string {
	if strings.TrimSpace(markup) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return Truncate(markup, r.limit)
	}
	doc.Find(strippedElements).Remove()
	for _, n := range doc.Nodes {
		removeComments(n)
	}

	cleaned, err := doc.Html()
	if err != nil {
		return Truncate(markup, r.limit)
	}
	return Truncate(cleaned, r.limit)
}

// removeComments detaches every comment node below n.
func removeComments(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.CommentNode {
			n.RemoveChild(c)
		} else {
			removeComments(c)
		}
		c = next
	}
}

// Truncate cuts s to at most limit bytes. Strings within the limit are
// returned unchanged. Otherwise the cut backs up to the last "</" that fits
// and appends "</>", so the result never ends inside a tag name.
func Truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	if limit < len(truncationMarker) {
		return ""
	}

	cut := s[:limit-len(truncationMarker)]
	if i := strings.LastIndex(cut, "</"); i >= 0 {
		return cut[:i] + truncationMarker
	}

	// No closing tag in range: end after the last complete tag, or before
	// a tag that was cut off.
	open := strings.LastIndexByte(cut, '<')
	closed := strings.LastIndexByte(cut, '>')
	switch {
	case open > closed:
		return cut[:open]
	case closed >= 0:
		return cut[:closed+1]
	}

	for i := 0; i < utf8.UTFMax-1 && len(cut) > 0; i++ {
		if r, size := utf8.DecodeLastRuneInString(cut); r != utf8.RuneError || size != 1 {
			break
		}
		cut = cut[:len(cut)-1]
	}
	return cut
}
