package steam

import (
	"context"
	"testing"
	"time"

	"skinflow/config"
)

func TestLimiterSpacing(t *testing.T) {
	l := NewLimiter(config.RateLimitConfig{
		MinDelay: 50 * time.Millisecond,
		MaxDelay: 60 * time.Millisecond,
	})
	ctx := context.Background()

	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	last := time.Now()
	for i := 0; i < 3; i++ {
		if err := l.Acquire(ctx); err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
		gap := time.Since(last)
		if gap < 50*time.Millisecond {
			t.Errorf("acquire %d: gap %v below minimum spacing", i, gap)
		}
		last = time.Now()
	}
}

func TestLimiterFirstAcquireImmediate(t *testing.T) {
	l := NewLimiter(config.RateLimitConfig{
		MinDelay: 5 * time.Second,
		MaxDelay: 10 * time.Second,
	})
	start := time.Now()
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("first acquire blocked for %v", elapsed)
	}
}

func TestLimiterContextCancelled(t *testing.T) {
	l := NewLimiter(config.RateLimitConfig{
		MinDelay: 10 * time.Second,
		MaxDelay: 20 * time.Second,
	})
	ctx := context.Background()
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := l.Acquire(ctx)
	if err == nil {
		t.Fatal("expected context error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("acquire held the caller for %v after cancellation", elapsed)
	}
}
