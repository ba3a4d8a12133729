package revex

import (
	"context"
	"time"
)

// Field names a review attribute that a locator extracts.
type Field string

// Review fields, in the order they are inferred and resolved.
const (
	FieldTitle    Field = "title"
	FieldBody     Field = "body"
	FieldRating   Field = "rating"
	FieldReviewer Field = "reviewer"
)

// Fields lists every review field in resolution order.
var Fields = []Field{FieldTitle, FieldBody, FieldRating, FieldReviewer}

// Built-in locators used when inference does not produce one for a field.
const (
	DefaultTitleLocator    = "h2.review-title"
	DefaultBodyLocator     = "div.review-body"
	DefaultRatingLocator   = "span.review-rating"
	DefaultReviewerLocator = "span.reviewer-name"
)

// RuleSet maps each review field to a CSS locator for one extraction session.
// A RuleSet is built once per session and not modified afterwards.
type RuleSet struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	Rating   string `json:"rating"`
	Reviewer string `json:"reviewer"`

	// Container optionally locates one element per review. When set, field
	// locators are resolved inside each container instead of across the page.
	Container string `json:"container,omitempty"`

	// Defaulted lists the fields that fell back to a built-in locator.
	Defaulted []Field `json:"defaulted,omitempty"`
}

// DefaultRuleSet returns a rule set made of the built-in locators only.
func DefaultRuleSet() *RuleSet {
	return &RuleSet{
		Title:     DefaultTitleLocator,
		Body:      DefaultBodyLocator,
		Rating:    DefaultRatingLocator,
		Reviewer:  DefaultReviewerLocator,
		Defaulted: append([]Field(nil), Fields...),
	}
}

// DefaultLocator returns the built-in locator for a field.
func DefaultLocator(f Field) string {
	switch f {
	case FieldTitle:
		return DefaultTitleLocator
	case FieldBody:
		return DefaultBodyLocator
	case FieldRating:
		return DefaultRatingLocator
	case FieldReviewer:
		return DefaultReviewerLocator
	}
	return ""
}

// Locator returns the locator for a field.
func (rs *RuleSet) Locator(f Field) string {
	switch f {
	case FieldTitle:
		return rs.Title
	case FieldBody:
		return rs.Body
	case FieldRating:
		return rs.Rating
	case FieldReviewer:
		return rs.Reviewer
	}
	return ""
}

// SetLocator sets the locator for a field.
func (rs *RuleSet) SetLocator(f Field, locator string) {
	switch f {
	case FieldTitle:
		rs.Title = locator
	case FieldBody:
		rs.Body = locator
	case FieldRating:
		rs.Rating = locator
	case FieldReviewer:
		rs.Reviewer = locator
	}
}

// Inferred reports whether every field came from inference.
func (rs *RuleSet) Inferred() bool {
	return len(rs.Defaulted) == 0
}

// Validate returns an error if any field has no locator.
func (rs *RuleSet) Validate() error {
	for _, f := range Fields {
		if rs.Locator(f) == "" {
			return Errorf(EINVALID, "rule set missing %s locator", f)
		}
	}
	return nil
}

// RuleInferrer derives a rule set from a page's markup.
// Implementations hide how the rules are obtained (prompting a text model and
// parsing its answer, a structured-output API, a fixed table).
type RuleInferrer interface {
	// Infer returns a complete rule set for the page markup.
	// Returns EINFERENCE if the rules cannot be obtained.
	Infer(ctx context.Context, html string) (*RuleSet, error)
}

// RuleSetService caches rule sets per site host.
type RuleSetService interface {
	// FindRuleSet returns the cached rule set for host.
	// Returns ENOTFOUND if there is no entry or the entry is older than maxAge.
	// A non-positive maxAge accepts entries of any age.
	FindRuleSet(ctx context.Context, host string, maxAge time.Duration) (*RuleSet, error)

	// SaveRuleSet stores the rule set for host, replacing any previous entry.
	SaveRuleSet(ctx context.Context, host string, rs *RuleSet) error

	// DeleteRuleSet removes the entry for host.
	// Returns ENOTFOUND if there is no entry.
	DeleteRuleSet(ctx context.Context, host string) error
}
