package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/revex"
)

// Ensure LoggingCompleter implements revex.Completer.
var _ revex.Completer = (*LoggingCompleter)(nil)

// LoggingCompleter wraps a Completer and logs each model call.
// Prompts are logged by size only.
type LoggingCompleter struct {
	next   revex.Completer
	model  string
	logger *slog.Logger
}

// NewLoggingCompleter creates a new LoggingCompleter. model is recorded
// with every log line.
func NewLoggingCompleter(next revex.Completer, model string, logger *slog.Logger) *LoggingCompleter {
	return &LoggingCompleter{next: next, model: model, logger: logger}
}

// Complete logs prompt and answer sizes and delegates to the wrapped completer.
func (c *LoggingCompleter) Complete(ctx context.Context, req revex.CompletionRequest) (text string, err error) {
	defer func(begin time.Time) {
		c.logger.Info("completion",
			"model", c.model,
			"prompt_bytes", len(req.SystemPrompt)+len(req.UserPrompt),
			"max_tokens", req.MaxTokens,
			"answer_bytes", len(text),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return c.next.Complete(ctx, req)
}
