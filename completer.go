package revex

import "context"

// CompletionRequest is a single prompt sent to a text-completion model.
type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float32
}

// Completer is an opaque text-completion service.
type Completer interface {
	// Complete returns the model's answer with surrounding whitespace removed.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
