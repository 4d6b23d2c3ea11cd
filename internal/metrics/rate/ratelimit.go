package rate

import (
	"strings"

	"skinflow/logger"
)

// ReportRateLimitExceeded increments the rate limit counter for the given
// endpoint and emits the metric to CloudWatch. The hashname of the item being
// fetched is attached to the log entry.
func ReportRateLimitExceeded(log *logger.Log, endpoint, hashname string) {
	component := "steam_" + strings.ToLower(endpoint)
	l := log.WithComponent(component)
	fields := logger.Fields{
		"endpoint": strings.ToLower(endpoint),
		"hashname": hashname,
	}
	logger.IncrementRateLimitHit()
	l.LogMetric(component, "rate_limit_exceeded", int64(1), "counter", fields)
	l.WithFields(fields).Warn("rate limit exceeded")
}

// ReportRetriesExhausted records that an item burned through every 429 retry
// for the given endpoint and emits the metric to CloudWatch.
func ReportRetriesExhausted(log *logger.Log, endpoint, hashname string) {
	component := "steam_" + strings.ToLower(endpoint)
	l := log.WithComponent(component)
	fields := logger.Fields{
		"endpoint": strings.ToLower(endpoint),
		"hashname": hashname,
	}
	l.LogMetric(component, "rate_limit_exhausted", int64(1), "counter", fields)
	l.WithFields(fields).Error("rate limit retries exhausted")
}

// detectLimit inspects a response body and determines whether it is a
// throttling interstitial rather than real content. Steam serves these as
// plain 200 pages, so status codes alone are not enough.
func detectLimit(msg string) bool {
	lowerMsg := strings.ToLower(msg)
	return strings.Contains(lowerMsg, "too many requests") ||
		strings.Contains(lowerMsg, "rate limit") ||
		strings.Contains(lowerMsg, "please try again later")
}

// ReportLimitFromMessage checks the provided body text for throttling wording
// and records the rate limit metric when it matches. No action is taken for
// ordinary content.
func ReportLimitFromMessage(log *logger.Log, endpoint, hashname, msg string) {
	if detectLimit(msg) {
		ReportRateLimitExceeded(log, endpoint, hashname)
	}
}
