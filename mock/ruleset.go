package mock

import (
	"context"
	"time"

	"github.com/fwojciec/revex"
)

var (
	_ revex.RuleInferrer   = (*RuleInferrer)(nil)
	_ revex.RuleSetService = (*RuleSetService)(nil)
	_ revex.Reducer        = (*Reducer)(nil)
)

// RuleInferrer is a mock implementation of revex.RuleInferrer.
type RuleInferrer struct {
	InferFn func(ctx context.Context, html string) (*revex.RuleSet, error)
}

func (r *RuleInferrer) Infer(ctx context.Context, html string) (*revex.RuleSet, error) {
	return r.InferFn(ctx, html)
}

// RuleSetService is a mock implementation of revex.RuleSetService.
type RuleSetService struct {
	FindRuleSetFn   func(ctx context.Context, host string, maxAge time.Duration) (*revex.RuleSet, error)
	SaveRuleSetFn   func(ctx context.Context, host string, rs *revex.RuleSet) error
	DeleteRuleSetFn func(ctx context.Context, host string) error
}

func (s *RuleSetService) FindRuleSet(ctx context.Context, host string, maxAge time.Duration) (*revex.RuleSet, error) {
	return s.FindRuleSetFn(ctx, host, maxAge)
}

func (s *RuleSetService) SaveRuleSet(ctx context.Context, host string, rs *revex.RuleSet) error {
	return s.SaveRuleSetFn(ctx, host, rs)
}

func (s *RuleSetService) DeleteRuleSet(ctx context.Context, host string) error {
	return s.DeleteRuleSetFn(ctx, host)
}

// Reducer is a mock implementation of revex.Reducer.
type Reducer struct {
	ReduceFn func(html string) string
}

func (r *Reducer) Reduce(html string) string {
	return r.ReduceFn(html)
}
