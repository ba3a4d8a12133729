// Package gemini implements revex.Completer using Google Gemini.
package gemini

import (
	"context"
	"strings"

	"github.com/fwojciec/revex"
	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// Ensure Completer implements revex.Completer at compile time.
var _ revex.Completer = (*Completer)(nil)

// Completer implements revex.Completer using the Gemini API.
type Completer struct {
	client *genai.Client
	model  string
}

// NewCompleter creates a new Completer. An empty model selects DefaultModel.
func NewCompleter(client *genai.Client, model string) *Completer {
	if model == "" {
		model = DefaultModel
	}
	return &Completer{client: client, model: model}
}

// Model returns the model name requests are sent to.
func (c *Completer) Model() string {
	return c.model
}

// Complete sends one generate-content request and returns the answer text.
func (c *Completer) Complete(ctx context.Context, req revex.CompletionRequest) (string, error) {
	result, err := c.client.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{genai.NewContentFromText(req.UserPrompt, genai.RoleUser)},
		BuildConfig(c.model, req),
	)
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", revex.Errorf(revex.EINTERNAL, "gemini returned nil result")
	}

	return strings.TrimSpace(result.Text()), nil
}

// MinProThinkingBudget is the smallest thinking budget Pro models accept.
// They cannot run with thinking disabled.
const MinProThinkingBudget = 128

// BuildConfig returns the GenerateContentConfig for a completion request to
// model. Flash models run with thinking disabled so the whole token budget
// goes to the answer. Pro models get the minimum thinking budget on top of
// the answer budget. Other models keep their default thinking behaviour.
func BuildConfig(model string, req revex.CompletionRequest) *genai.GenerateContentConfig {
	temp := req.Temperature
	config := &genai.GenerateContentConfig{
		Temperature: &temp,
	}
	if req.SystemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemPrompt}},
		}
	}

	var budget int32
	switch {
	case strings.Contains(model, "-pro"):
		budget = MinProThinkingBudget
		config.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: &budget}
	case strings.Contains(model, "2.5-flash"):
		config.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: &budget}
	}

	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens) + budget
	}
	return config
}
