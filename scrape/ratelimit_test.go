package scrape_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/revex"
	"github.com/fwojciec/revex/scrape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainLimiter(t *testing.T) {
	t.Parallel()

	t.Run("implements revex.DomainLimiter interface", func(t *testing.T) {
		t.Parallel()
		var _ revex.DomainLimiter = scrape.NewDomainLimiter(1)
	})

	t.Run("allows immediate request when under limit", func(t *testing.T) {
		t.Parallel()

		limiter := scrape.NewDomainLimiter(10)

		start := time.Now()
		err := limiter.Wait(context.Background(), "shop.example.com")
		elapsed := time.Since(start)

		require.NoError(t, err)
		assert.Less(t, elapsed, 50*time.Millisecond, "first request should be immediate")
	})

	t.Run("rate limits sessions to same host", func(t *testing.T) {
		t.Parallel()

		limiter := scrape.NewDomainLimiter(10) // 100ms between sessions

		err := limiter.Wait(context.Background(), "shop.example.com")
		require.NoError(t, err)

		start := time.Now()
		err = limiter.Wait(context.Background(), "shop.example.com")
		elapsed := time.Since(start)

		require.NoError(t, err)
		assert.GreaterOrEqual(t, elapsed, 80*time.Millisecond, "should wait for rate limit")
	})

	t.Run("different hosts have independent limits", func(t *testing.T) {
		t.Parallel()

		limiter := scrape.NewDomainLimiter(10)

		err := limiter.Wait(context.Background(), "shop.example.com")
		require.NoError(t, err)

		start := time.Now()
		err = limiter.Wait(context.Background(), "store.example.org")
		elapsed := time.Since(start)

		require.NoError(t, err)
		assert.Less(t, elapsed, 50*time.Millisecond, "different host should not wait")
	})

	t.Run("zero rate disables limiting", func(t *testing.T) {
		t.Parallel()

		limiter := scrape.NewDomainLimiter(0)

		start := time.Now()
		for range 5 {
			require.NoError(t, limiter.Wait(context.Background(), "shop.example.com"))
		}

		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		limiter := scrape.NewDomainLimiter(1)

		err := limiter.Wait(context.Background(), "shop.example.com")
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		err = limiter.Wait(ctx, "shop.example.com")
		assert.Error(t, err, "should fail when context times out")
	})

	t.Run("concurrent sessions all proceed", func(t *testing.T) {
		t.Parallel()

		limiter := scrape.NewDomainLimiter(100)

		var wg sync.WaitGroup
		var completed atomic.Int32
		for range 5 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := limiter.Wait(context.Background(), "shop.example.com"); err == nil {
					completed.Add(1)
				}
			}()
		}

		wg.Wait()
		assert.Equal(t, int32(5), completed.Load(), "all requests should complete")
	})

	t.Run("drops buckets of idle hosts", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
		limiter := scrape.NewDomainLimiter(100, scrape.WithIdleTTL(time.Minute))
		limiter.Now = func() time.Time { return now }

		require.NoError(t, limiter.Wait(context.Background(), "shop.example.com"))
		require.NoError(t, limiter.Wait(context.Background(), "store.example.org"))
		assert.Equal(t, 2, limiter.Hosts())

		now = now.Add(30 * time.Second)
		require.NoError(t, limiter.Wait(context.Background(), "store.example.org"))
		assert.Equal(t, 2, limiter.Hosts(), "hosts used within the TTL are kept")

		now = now.Add(45 * time.Second)
		require.NoError(t, limiter.Wait(context.Background(), "market.example.net"))
		assert.Equal(t, 2, limiter.Hosts(), "only the host idle past the TTL is dropped")
	})

	t.Run("keeps buckets for at least one token interval", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
		limiter := scrape.NewDomainLimiter(0.01, scrape.WithIdleTTL(time.Second))
		limiter.Now = func() time.Time { return now }

		require.NoError(t, limiter.Wait(context.Background(), "shop.example.com"))
		now = now.Add(time.Minute)
		require.NoError(t, limiter.Wait(context.Background(), "store.example.org"))

		assert.Equal(t, 2, limiter.Hosts())
	})

	t.Run("disabled limiter keeps no buckets", func(t *testing.T) {
		t.Parallel()

		limiter := scrape.NewDomainLimiter(0)
		require.NoError(t, limiter.Wait(context.Background(), "shop.example.com"))

		assert.Zero(t, limiter.Hosts())
	})
}
