package llm

import (
	"context"
	"strings"

	"github.com/fwojciec/revex"
)

// Defaults for inference requests. Answers are a handful of short lines.
const (
	DefaultMaxTokens   = 150
	DefaultTemperature = float32(0.7)
)

// Ensure Inferrer implements revex.RuleInferrer at compile time.
var _ revex.RuleInferrer = (*Inferrer)(nil)

// Inferrer implements revex.RuleInferrer with one text-completion request.
type Inferrer struct {
	completer   revex.Completer
	reducer     revex.Reducer
	maxTokens   int
	temperature float32
}

// Option configures an Inferrer.
type Option func(*Inferrer)

// WithMaxTokens bounds the length of the model answer.
func WithMaxTokens(n int) Option {
	return func(i *Inferrer) {
		i.maxTokens = n
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(i *Inferrer) {
		i.temperature = t
	}
}

// NewInferrer creates a new Inferrer.
func NewInferrer(completer revex.Completer, reducer revex.Reducer, opts ...Option) *Inferrer {
	i := &Inferrer{
		completer:   completer,
		reducer:     reducer,
		maxTokens:   DefaultMaxTokens,
		temperature: DefaultTemperature,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Infer reduces html, asks the model for locators and parses the answer.
func (i *Inferrer) Infer(ctx context.Context, html string) (*revex.RuleSet, error) {
	markup := i.reducer.Reduce(html)

	answer, err := i.completer.Complete(ctx, revex.CompletionRequest{
		SystemPrompt: SystemPrompt,
		UserPrompt:   BuildUserPrompt(markup),
		MaxTokens:    i.maxTokens,
		Temperature:  i.temperature,
	})
	if err != nil {
		return nil, revex.Errorf(revex.EINFERENCE, "failed to generate selectors: %v", err)
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, revex.Errorf(revex.EINFERENCE, "failed to generate selectors: empty answer")
	}

	return ParseRules(answer), nil
}
