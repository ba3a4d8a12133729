// Package openai implements revex.Completer using the OpenAI chat API or any
// API-compatible backend.
package openai

import (
	"context"
	"strings"

	"github.com/fwojciec/revex"
	openai "github.com/sashabaranov/go-openai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = openai.GPT3Dot5Turbo

// Ensure Completer implements revex.Completer at compile time.
var _ revex.Completer = (*Completer)(nil)

// ChatClient is the subset of *openai.Client used by Completer.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Completer implements revex.Completer with a single chat completion.
type Completer struct {
	client ChatClient
	model  string
}

// NewCompleter creates a new Completer. An empty model selects DefaultModel.
func NewCompleter(client ChatClient, model string) *Completer {
	if model == "" {
		model = DefaultModel
	}
	return &Completer{client: client, model: model}
}

// NewClient returns an *openai.Client for apiKey. A non-empty baseURL points
// the client at an API-compatible server.
func NewClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

// Model returns the model name requests are sent to.
func (c *Completer) Model() string {
	return c.model
}

// Complete sends one chat completion request and returns the first choice.
func (c *Completer) Complete(ctx context.Context, req revex.CompletionRequest) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, BuildRequest(c.model, req))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", revex.Errorf(revex.EINTERNAL, "openai returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// BuildRequest returns the chat completion request for a completion request.
func BuildRequest(model string, req revex.CompletionRequest) openai.ChatCompletionRequest {
	var messages []openai.ChatCompletionMessage
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.UserPrompt})

	return openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		N:           1,
	}
}
