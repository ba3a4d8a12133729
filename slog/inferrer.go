package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/revex"
)

// Ensure LoggingInferrer implements revex.RuleInferrer.
var _ revex.RuleInferrer = (*LoggingInferrer)(nil)

// LoggingInferrer wraps a RuleInferrer and logs the rules it produced.
type LoggingInferrer struct {
	next   revex.RuleInferrer
	logger *slog.Logger
}

// NewLoggingInferrer creates a new LoggingInferrer.
func NewLoggingInferrer(next revex.RuleInferrer, logger *slog.Logger) *LoggingInferrer {
	return &LoggingInferrer{next: next, logger: logger}
}

// Infer delegates to the wrapped inferrer and logs the outcome.
func (i *LoggingInferrer) Infer(ctx context.Context, html string) (rs *revex.RuleSet, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"html_bytes", len(html),
			"duration", time.Since(begin),
		}
		if err != nil {
			i.logger.Warn("rule inference", append(attrs, "err", err)...)
			return
		}
		i.logger.Info("rule inference", append(attrs,
			"container", rs.Container,
			"defaulted", len(rs.Defaulted),
		)...)
	}(time.Now())
	return i.next.Infer(ctx, html)
}
