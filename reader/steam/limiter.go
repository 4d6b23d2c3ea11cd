package steam

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"skinflow/config"
)

// Limiter spaces outbound requests with a uniformly random gap so the scrape
// never falls into the lock-step pattern Steam is quick to throttle. One
// instance is shared by every request the process makes; the time of the last
// dispatch lives on the instance, not in a package global.
type Limiter struct {
	mu          sync.Mutex
	lastRequest time.Time
	rng         *rand.Rand

	minDelay time.Duration
	maxDelay time.Duration

	// bucket caps sustained throughput when requests_per_minute is set.
	// It rides on top of the random spacing, it does not replace it.
	bucket *rate.Limiter
}

// NewLimiter creates a Limiter from the rate limit configuration.
func NewLimiter(cfg config.RateLimitConfig) *Limiter {
	l := &Limiter{
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		minDelay: cfg.MinDelay,
		maxDelay: cfg.MaxDelay,
	}
	if cfg.RequestsPerMinute > 0 {
		l.bucket = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), cfg.Burst)
	}
	return l
}

// Acquire blocks until the next request may go out, then records the dispatch
// time. The gap to the previous dispatch is drawn uniformly from
// [minDelay, maxDelay]; the first request of a run goes out immediately.
func (l *Limiter) Acquire(ctx context.Context) error {
	if l.bucket != nil {
		if err := l.bucket.Wait(ctx); err != nil {
			return err
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.lastRequest.IsZero() {
		delay := l.minDelay
		if l.maxDelay > l.minDelay {
			delay += time.Duration(l.rng.Int63n(int64(l.maxDelay - l.minDelay)))
		}
		if wait := delay - time.Since(l.lastRequest); wait > 0 {
			timer := time.NewTimer(wait)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
	}

	l.lastRequest = time.Now()
	return nil
}
