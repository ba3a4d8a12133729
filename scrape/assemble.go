// Package scrape runs review extraction sessions: it applies inferred rule
// sets to live documents and follows "next page" controls.
package scrape

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/fwojciec/revex"
)

// Assembler builds review records from the elements of one page.
//
// Without a container locator the four field locators are resolved
// independently and paired by position: the i-th title, body, rating and
// reviewer form one record. Pages that interleave unrelated matches break
// that pairing; a container locator avoids it.
type Assembler struct {
	Logger *slog.Logger
}

// NewAssembler creates a new Assembler.
func NewAssembler(logger *slog.Logger) *Assembler {
	return &Assembler{Logger: logger}
}

// Assemble returns the reviews found on the current page of doc.
// A record whose elements cannot be read is skipped. A locator that cannot
// be resolved aborts the page and returns the reviews built so far together
// with an EELEMENT error.
func (a *Assembler) Assemble(ctx context.Context, doc revex.Document, rules *revex.RuleSet) ([]*revex.Review, error) {
	if rules.Container != "" {
		return a.assembleContainers(ctx, doc, rules)
	}
	return a.assemblePositional(ctx, doc, rules)
}

func (a *Assembler) assemblePositional(ctx context.Context, doc revex.Document, rules *revex.RuleSet) ([]*revex.Review, error) {
	lists := make(map[revex.Field][]revex.Element, len(revex.Fields))
	n := -1
	for _, f := range revex.Fields {
		elements, err := doc.FindAll(ctx, rules.Locator(f))
		if err != nil {
			return []*revex.Review{}, revex.Errorf(revex.EELEMENT, "resolving %s locator %q: %v", f, rules.Locator(f), err)
		}
		lists[f] = elements
		if n < 0 || len(elements) < n {
			n = len(elements)
		}
	}

	reviews := make([]*revex.Review, 0, n)
	for i := range n {
		group := make(map[revex.Field]revex.Element, len(revex.Fields))
		for _, f := range revex.Fields {
			group[f] = lists[f][i]
		}
		review, err := buildReview(ctx, group)
		if err != nil {
			a.logger().Warn("skipping review", "index", i, "err", err)
			continue
		}
		reviews = append(reviews, review)
	}
	return reviews, nil
}

func (a *Assembler) assembleContainers(ctx context.Context, doc revex.Document, rules *revex.RuleSet) ([]*revex.Review, error) {
	containers, err := doc.FindAll(ctx, rules.Container)
	if err != nil {
		return []*revex.Review{}, revex.Errorf(revex.EELEMENT, "resolving container locator %q: %v", rules.Container, err)
	}

	reviews := make([]*revex.Review, 0, len(containers))
	for i, container := range containers {
		group, err := resolveGroup(ctx, container, rules)
		if err == nil {
			var review *revex.Review
			if review, err = buildReview(ctx, group); err == nil {
				reviews = append(reviews, review)
				continue
			}
		}
		a.logger().Warn("skipping review", "index", i, "err", err)
	}
	return reviews, nil
}

// resolveGroup finds each field's first match inside container.
func resolveGroup(ctx context.Context, container revex.Element, rules *revex.RuleSet) (map[revex.Field]revex.Element, error) {
	group := make(map[revex.Field]revex.Element, len(revex.Fields))
	for _, f := range revex.Fields {
		el, err := container.Find(ctx, rules.Locator(f))
		if err != nil {
			return nil, revex.Errorf(revex.EELEMENT, "resolving %s in container: %v", f, err)
		}
		group[f] = el
	}
	return group, nil
}

// buildReview reads one record. Missing text fields become "N/A" and a
// missing or non-integer rating becomes nil.
func buildReview(ctx context.Context, group map[revex.Field]revex.Element) (*revex.Review, error) {
	var review revex.Review
	for _, f := range revex.Fields {
		text, ok, err := readText(ctx, group[f])
		if err != nil {
			return nil, revex.Errorf(revex.EELEMENT, "reading %s: %v", f, err)
		}

		switch f {
		case revex.FieldRating:
			if ok {
				review.Rating = parseRating(text)
			}
		default:
			if !ok {
				text = revex.NotAvailable
			}
			setText(&review, f, text)
		}
	}
	return &review, nil
}

func readText(ctx context.Context, el revex.Element) (string, bool, error) {
	if el == nil {
		return "", false, nil
	}
	text, err := el.Text(ctx)
	if err != nil {
		return "", false, err
	}
	return strings.TrimSpace(text), true, nil
}

func setText(review *revex.Review, f revex.Field, text string) {
	switch f {
	case revex.FieldTitle:
		review.Title = text
	case revex.FieldBody:
		review.Body = text
	case revex.FieldReviewer:
		review.Reviewer = text
	}
}

// parseRating returns the integer value of text, or nil if text is not an integer.
func parseRating(text string) *int {
	v, err := strconv.Atoi(text)
	if err != nil {
		return nil
	}
	return &v
}

func (a *Assembler) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.Logger
}
