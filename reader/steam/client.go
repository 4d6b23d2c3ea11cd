package steam

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"skinflow/config"
	ratemetrics "skinflow/internal/metrics/rate"
	"skinflow/logger"
)

// endpoint names used in errors, logs and metrics.
const (
	endpointListing   = "listing_page"
	endpointHistogram = "order_histogram"
	endpointOverview  = "price_overview"
)

// Client fetches listing pages, order histograms and price overviews from the
// community market. Every request is paced through a shared Limiter and
// retried on 429 up to the configured retry bound.
type Client struct {
	config     *config.Config
	httpClient *http.Client
	limiter    *Limiter
	log        *logger.Log
	pace       *ratemetrics.PaceTracker

	backoff    time.Duration
	maxRetries int
}

// NewClient creates a Client around the given Limiter. The limiter is owned
// by the caller so the whole process paces against one piece of state.
func NewClient(cfg *config.Config, limiter *Limiter) *Client {
	log := logger.GetLogger()

	client := &Client{
		config:     cfg,
		httpClient: newHTTPClient(cfg),
		limiter:    limiter,
		log:        log,
		pace:       ratemetrics.NewPaceTracker(),
		backoff:    cfg.Client.RateLimit.Backoff,
		maxRetries: cfg.Client.RateLimit.MaxRetries,
	}

	log.WithComponent("steam_client").WithFields(logger.Fields{
		"max_idle_conns":     cfg.Source.Steam.ConnectionPool.MaxIdleConns,
		"max_conns_per_host": cfg.Source.Steam.ConnectionPool.MaxConnsPerHost,
		"timeout":            cfg.Client.Timeout,
	}).Info("steam client initialized")

	return client
}

// ReportPace emits the client's current request pacing metrics.
func (c *Client) ReportPace() {
	ratemetrics.ReportPace(c.log, c.pace)
}

// get issues one rate-limited GET and returns the body. A 429 is retried
// after a backoff (server Retry-After when sane, the fixed backoff otherwise)
// up to maxRetries, then surfaces ErrRateLimitExhausted. Any other status
// returns the body as-is: the market serves error pages with a 200, so the
// marker parsers are the judge of what actually came back.
func (c *Client) get(ctx context.Context, endpoint, hashname, url string) ([]byte, error) {
	log := c.log.WithComponent("steam_client")

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Acquire(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("%s: create request: %w", endpoint, err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", endpoint, err)
		}
		c.pace.Register()

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			ratemetrics.ReportRateLimitExceeded(c.log, endpoint, hashname)
			if attempt >= c.maxRetries {
				ratemetrics.ReportRetriesExhausted(c.log, endpoint, hashname)
				return nil, fmt.Errorf("%s: %w", endpoint, ErrRateLimitExhausted)
			}

			wait := c.backoff
			if d, ok := ratemetrics.RetryAfter(resp.Header.Get("Retry-After")); ok {
				wait = d
			}
			log.WithFields(logger.Fields{
				"endpoint": endpoint,
				"hashname": hashname,
				"attempt":  attempt + 1,
				"wait":     wait,
			}).Warn("throttled, backing off")

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
			continue
		}

		if readErr != nil {
			return nil, fmt.Errorf("%s: read response: %w", endpoint, readErr)
		}
		return body, nil
	}
}
