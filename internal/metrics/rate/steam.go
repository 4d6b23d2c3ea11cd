package rate

import (
	"sync"
	"time"

	"skinflow/logger"
)

// PaceTracker tracks how many requests went out in the current minute window
// and over the whole run. The scraper paces itself, so this is the number to
// watch when tuning delays against Steam's tolerance.
type PaceTracker struct {
	mu        sync.Mutex
	minWindow time.Time
	minCount  int
	total     int
}

// NewPaceTracker creates a new request pace tracker.
func NewPaceTracker() *PaceTracker {
	return &PaceTracker{minWindow: time.Now()}
}

// Register records one outbound request.
func (t *PaceTracker) Register() {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	if now.Sub(t.minWindow) >= time.Minute {
		t.minCount = 0
		t.minWindow = now
	}
	t.minCount++
	t.total++
}

// Stats returns requests in the current minute and total requests this run.
func (t *PaceTracker) Stats() (reqMinute int, total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	if now.Sub(t.minWindow) >= time.Minute {
		t.minCount = 0
		t.minWindow = now
	}
	return t.minCount, t.total
}

// ReportPace emits the current request pacing as gauge metrics.
func ReportPace(log *logger.Log, t *PaceTracker) {
	reqMinute, total := t.Stats()
	l := log.WithComponent("steam_client")
	l.LogMetric("steam_client", "requests_current_minute", int64(reqMinute), "gauge", nil)
	l.LogMetric("steam_client", "requests_total", int64(total), "counter", nil)
}
