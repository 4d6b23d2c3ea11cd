package steam

import (
	"net/http"

	"skinflow/config"
)

type userAgentTransport struct {
	agent string
	base  http.RoundTripper
}

func (t userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.agent)
	return t.base.RoundTrip(req)
}

// newHTTPClient builds the pooled HTTP client all scrape traffic goes
// through. Every endpoint lives on one host, so the pool stays small.
func newHTTPClient(cfg *config.Config) *http.Client {
	pool := cfg.Source.Steam.ConnectionPool
	transport := &http.Transport{
		MaxIdleConns:        pool.MaxIdleConns,
		MaxIdleConnsPerHost: pool.MaxIdleConns,
		MaxConnsPerHost:     pool.MaxConnsPerHost,
		IdleConnTimeout:     pool.IdleConnTimeout,
		DisableCompression:  false,
	}

	return &http.Client{
		Transport: userAgentTransport{agent: cfg.Client.UserAgent, base: transport},
		Timeout:   cfg.Client.Timeout,
	}
}
