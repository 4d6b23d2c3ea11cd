package rate

import (
	"strconv"
	"strings"
	"time"
)

// maxRetryAfter caps how long a server-supplied Retry-After is honored before
// the fixed backoff takes over instead.
const maxRetryAfter = 300 * time.Second

// extractInts returns all integer substrings contained in s. Any non-digit
// characters are treated as separators. Missing or unparsable values result in
// an empty slice.
func extractInts(s string) []int64 {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r < '0' || r > '9'
	})
	nums := make([]int64, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		if n, err := strconv.ParseInt(p, 10, 64); err == nil {
			nums = append(nums, n)
		}
	}
	return nums
}

// RetryAfter interprets a Retry-After header value as a wait duration. Only
// plain second counts are honored; HTTP dates carry several integers and are
// rejected, as are zero, negative and absurdly large waits.
func RetryAfter(value string) (time.Duration, bool) {
	nums := extractInts(value)
	if len(nums) != 1 {
		return 0, false
	}
	d := time.Duration(nums[0]) * time.Second
	if d <= 0 || d > maxRetryAfter {
		return 0, false
	}
	return d, true
}
