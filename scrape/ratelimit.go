package scrape

import (
	"context"
	"sync"
	"time"

	"github.com/fwojciec/revex"
	"golang.org/x/time/rate"
)

var _ revex.DomainLimiter = (*DomainLimiter)(nil)

// DefaultHostIdleTTL is how long a host's bucket is kept after its last session started.
const DefaultHostIdleTTL = 10 * time.Minute

// DomainLimiter throttles how often sessions start against the same host.
// Each host gets its own token bucket with a burst of 1; sessions against
// different hosts do not wait for each other. Buckets of hosts without a
// session for the idle TTL are dropped, so a long-running server does not
// keep one bucket for every host it has ever seen.
type DomainLimiter struct {
	mu        sync.Mutex
	hosts     map[string]*hostBucket
	rps       float64
	idleTTL   time.Duration
	lastSweep time.Time

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

type hostBucket struct {
	limiter  *rate.Limiter
	waiting  int
	lastUsed time.Time
}

// LimiterOption configures a DomainLimiter.
type LimiterOption func(*DomainLimiter)

// WithIdleTTL sets how long an idle host's bucket is kept. It is never
// shorter than one token interval, so dropping a bucket cannot let a
// session start early.
func WithIdleTTL(d time.Duration) LimiterOption {
	return func(l *DomainLimiter) {
		l.idleTTL = d
	}
}

// NewDomainLimiter creates a new DomainLimiter allowing rps sessions per
// second per host. A non-positive rps disables limiting.
func NewDomainLimiter(rps float64, opts ...LimiterOption) *DomainLimiter {
	l := &DomainLimiter{
		hosts:   make(map[string]*hostBucket),
		rps:     rps,
		idleTTL: DefaultHostIdleTTL,
		Now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if rps > 0 {
		l.idleTTL = max(l.idleTTL, time.Duration(float64(time.Second)/rps))
	}
	return l
}

// Wait blocks until a session against host may start.
// Returns an error if the context is canceled before the wait completes.
func (l *DomainLimiter) Wait(ctx context.Context, host string) error {
	if l.rps <= 0 {
		return nil
	}

	l.mu.Lock()
	l.evictIdle(l.Now())
	b, ok := l.hosts[host]
	if !ok {
		b = &hostBucket{limiter: rate.NewLimiter(rate.Limit(l.rps), 1)}
		l.hosts[host] = b
	}
	b.waiting++
	l.mu.Unlock()

	err := b.limiter.Wait(ctx)

	l.mu.Lock()
	b.waiting--
	b.lastUsed = l.Now()
	l.mu.Unlock()
	return err
}

// Hosts returns the number of hosts with a live bucket.
func (l *DomainLimiter) Hosts() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.hosts)
}

// evictIdle drops buckets nobody waits on that were last used at least
// idleTTL ago. It scans at most once per idleTTL. Must be called with mu held.
func (l *DomainLimiter) evictIdle(now time.Time) {
	if now.Sub(l.lastSweep) < l.idleTTL {
		return
	}
	l.lastSweep = now
	for host, b := range l.hosts {
		if b.waiting == 0 && now.Sub(b.lastUsed) >= l.idleTTL {
			delete(l.hosts, host)
		}
	}
}
