package steam

import (
	"errors"
	"fmt"
)

// ErrRateLimitExhausted is returned when a request keeps drawing 429s after
// every allowed retry. Callers can match it to tell a throttled-out item from
// an ordinary transport failure.
var ErrRateLimitExhausted = errors.New("rate limit retries exhausted")

// ParseError reports that an expected marker was missing or unusable in a
// response body. Typical causes: the item is delisted, the page format
// drifted, or a throttling interstitial was served instead of real content.
type ParseError struct {
	Endpoint string
	Marker   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: marker %q not found in response", e.Endpoint, e.Marker)
}
