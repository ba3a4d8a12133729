package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/revex"
)

// Ensure LoggingRuleSetService implements revex.RuleSetService.
var _ revex.RuleSetService = (*LoggingRuleSetService)(nil)

// LoggingRuleSetService wraps a RuleSetService with debug logging of cache
// hits and misses.
type LoggingRuleSetService struct {
	next   revex.RuleSetService
	logger *slog.Logger
}

// NewLoggingRuleSetService creates a new LoggingRuleSetService.
func NewLoggingRuleSetService(next revex.RuleSetService, logger *slog.Logger) *LoggingRuleSetService {
	return &LoggingRuleSetService{next: next, logger: logger}
}

// FindRuleSet delegates to the wrapped service and logs hit or miss.
func (s *LoggingRuleSetService) FindRuleSet(ctx context.Context, host string, maxAge time.Duration) (rs *revex.RuleSet, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("rule cache lookup",
			"host", host,
			"hit", err == nil,
			"duration", time.Since(begin),
			"err", ignoreNotFound(err),
		)
	}(time.Now())
	return s.next.FindRuleSet(ctx, host, maxAge)
}

// SaveRuleSet delegates to the wrapped service.
func (s *LoggingRuleSetService) SaveRuleSet(ctx context.Context, host string, rs *revex.RuleSet) (err error) {
	defer func(begin time.Time) {
		s.logger.Debug("rule cache save",
			"host", host,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.SaveRuleSet(ctx, host, rs)
}

// DeleteRuleSet delegates to the wrapped service.
func (s *LoggingRuleSetService) DeleteRuleSet(ctx context.Context, host string) (err error) {
	defer func(begin time.Time) {
		s.logger.Debug("rule cache delete",
			"host", host,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.DeleteRuleSet(ctx, host)
}

// ignoreNotFound drops misses so they do not read as failures.
func ignoreNotFound(err error) error {
	if revex.ErrorCode(err) == revex.ENOTFOUND {
		return nil
	}
	return err
}
