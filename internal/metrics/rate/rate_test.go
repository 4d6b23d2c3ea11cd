package rate

import (
	"testing"
	"time"

	"skinflow/logger"
)

func TestReportRateLimitExceeded(t *testing.T) {
	log := logger.GetLogger()
	ReportRateLimitExceeded(log, "order_histogram", "AK-47%20%7C%20Redline%20%28Factory%20New%29")
}

func TestReportRetriesExhausted(t *testing.T) {
	log := logger.GetLogger()
	ReportRetriesExhausted(log, "listing_page", "AK-47%20%7C%20Redline%20%28Factory%20New%29")
}

func TestDetectLimit(t *testing.T) {
	cases := []struct {
		msg       string
		throttled bool
	}{
		{"You have made too many requests recently. Please wait and try your request again later.", true},
		{"rate limit exceeded", true},
		{"An error occurred, please try again later.", true},
		{"<html>Counter-Strike 2 listings</html>", false},
		{"", false},
	}
	for _, c := range cases {
		if got := detectLimit(c.msg); got != c.throttled {
			t.Errorf("detectLimit(%q) = %v, want %v", c.msg, got, c.throttled)
		}
	}
}

func TestRetryAfter(t *testing.T) {
	cases := []struct {
		value string
		want  time.Duration
		ok    bool
	}{
		{"5", 5 * time.Second, true},
		{" 120 ", 120 * time.Second, true},
		{"0", 0, false},
		{"100000", 0, false},
		{"Wed, 21 Oct 2015 07:28:00 GMT", 0, false},
		{"soon", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		got, ok := RetryAfter(c.value)
		if ok != c.ok || got != c.want {
			t.Errorf("RetryAfter(%q) = (%v, %v), want (%v, %v)", c.value, got, ok, c.want, c.ok)
		}
	}
}

func TestExtractInts(t *testing.T) {
	nums := extractInts("wait 30 seconds, then 5 more")
	if len(nums) != 2 || nums[0] != 30 || nums[1] != 5 {
		t.Errorf("unexpected ints: %v", nums)
	}
	if got := extractInts("no digits here"); len(got) != 0 {
		t.Errorf("expected empty slice, got %v", got)
	}
}

func TestPaceTracker(t *testing.T) {
	tracker := NewPaceTracker()
	tracker.Register()
	tracker.Register()
	reqMinute, total := tracker.Stats()
	if reqMinute != 2 {
		t.Errorf("reqMinute = %d, want 2", reqMinute)
	}
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
	ReportPace(logger.GetLogger(), tracker)
}
