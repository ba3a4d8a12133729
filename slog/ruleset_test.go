package slog_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/fwojciec/revex"
	"github.com/fwojciec/revex/mock"
	rxslog "github.com/fwojciec/revex/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingRuleSetService(t *testing.T) {
	t.Parallel()

	debug := &slog.HandlerOptions{Level: slog.LevelDebug}

	t.Run("logs miss without error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.RuleSetService{
			FindRuleSetFn: func(context.Context, string, time.Duration) (*revex.RuleSet, error) {
				return nil, revex.Errorf(revex.ENOTFOUND, "no rules cached")
			},
		}
		svc := rxslog.NewLoggingRuleSetService(inner, slog.New(slog.NewTextHandler(&buf, debug)))

		_, err := svc.FindRuleSet(context.Background(), "shop.test", time.Hour)

		assert.Equal(t, revex.ENOTFOUND, revex.ErrorCode(err))
		output := buf.String()
		assert.Contains(t, output, "host=shop.test")
		assert.Contains(t, output, "hit=false")
		assert.Contains(t, output, "err=<nil>")
	})

	t.Run("delegates save and delete", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		var saved, deleted string
		inner := &mock.RuleSetService{
			SaveRuleSetFn: func(_ context.Context, host string, _ *revex.RuleSet) error {
				saved = host
				return nil
			},
			DeleteRuleSetFn: func(_ context.Context, host string) error {
				deleted = host
				return nil
			},
		}
		svc := rxslog.NewLoggingRuleSetService(inner, slog.New(slog.NewTextHandler(&buf, debug)))

		require.NoError(t, svc.SaveRuleSet(context.Background(), "a.test", revex.DefaultRuleSet()))
		require.NoError(t, svc.DeleteRuleSet(context.Background(), "b.test"))

		assert.Equal(t, "a.test", saved)
		assert.Equal(t, "b.test", deleted)
		assert.Contains(t, buf.String(), "rule cache save")
		assert.Contains(t, buf.String(), "rule cache delete")
	})
}
