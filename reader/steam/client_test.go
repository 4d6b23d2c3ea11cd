package steam

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"skinflow/config"
)

// testConfig points every endpoint at the given test server and shrinks the
// delays so tests run fast.
func testConfig(serverURL string) *config.Config {
	cfg := config.Default()
	cfg.Source.Steam.ListingURL = serverURL + "/market/listings/730"
	cfg.Source.Steam.HistogramURL = serverURL + "/market/itemordershistogram"
	cfg.Source.Steam.OverviewURL = serverURL + "/market/priceoverview/"
	cfg.Client.Timeout = 5 * time.Second
	cfg.Client.RateLimit.MinDelay = time.Millisecond
	cfg.Client.RateLimit.MaxDelay = 2 * time.Millisecond
	cfg.Client.RateLimit.Backoff = 10 * time.Millisecond
	cfg.Client.RateLimit.MaxRetries = 3
	return cfg
}

func newTestClient(serverURL string) *Client {
	cfg := testConfig(serverURL)
	return NewClient(cfg, NewLimiter(cfg.Client.RateLimit))
}

func TestGetRetriesOn429(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`ok`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	body, err := c.get(context.Background(), endpointListing, "hash", server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != "ok" {
		t.Errorf("body = %q, want %q", string(body), "ok")
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}

func TestGetRateLimitExhausted(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Client.RateLimit.MaxRetries = 2
	c := NewClient(cfg, NewLimiter(cfg.Client.RateLimit))

	_, err := c.get(context.Background(), endpointListing, "hash", server.URL)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, ErrRateLimitExhausted) {
		t.Errorf("expected ErrRateLimitExhausted, got %v", err)
	}
	// 1 initial + 2 retries = 3 attempts
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestGetSendsUserAgent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("User-Agent"), "Mozilla") {
			t.Errorf("User-Agent = %q, want a browser string", r.Header.Get("User-Agent"))
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	if _, err := c.get(context.Background(), endpointListing, "hash", server.URL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGetPropagatesTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse all connections

	c := newTestClient(server.URL)
	_, err := c.get(context.Background(), endpointListing, "hash", server.URL)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if errors.Is(err, ErrRateLimitExhausted) {
		t.Errorf("transport failure misreported as rate limit exhaustion: %v", err)
	}
}

func TestGetContextCancelledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Client.RateLimit.Backoff = 5 * time.Second
	c := NewClient(cfg, NewLimiter(cfg.Client.RateLimit))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.get(ctx, endpointListing, "hash", server.URL)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context deadline, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("backoff ignored cancellation, took %v", elapsed)
	}
}
