package logger

import (
	"fmt"
	"sync"
	"time"
)

// ProgressFunc receives (current, total, message) progress events.
type ProgressFunc func(current, total int, message string)

// Progress is a point-in-time view of a phase's progress.
type Progress struct {
	Phase   string  `json:"phase"`
	Current int     `json:"current"`
	Total   int     `json:"total"`
	Message string  `json:"message"`
	Percent float64 `json:"percent"`
}

// ProgressReporter remembers the latest progress event of a phase and logs it,
// throttled to one record every interval except for completion.
type ProgressReporter struct {
	mu         sync.RWMutex
	phase      string
	current    int
	total      int
	message    string
	startTime  time.Time
	lastUpdate time.Time
	interval   time.Duration
	logger     *Logger
}

// NewProgressReporter creates a reporter for the named phase.
func NewProgressReporter(phase string) *ProgressReporter {
	return &ProgressReporter{
		phase:     phase,
		startTime: time.Now(),
		interval:  5 * time.Second,
		logger:    GetLogger().WithField("component", "progress"),
	}
}

// Report records an event; it satisfies ProgressFunc when passed as a method value.
func (pr *ProgressReporter) Report(current, total int, message string) {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	pr.current = current
	pr.total = total
	pr.message = message

	now := time.Now()
	if now.Sub(pr.lastUpdate) >= pr.interval || (total > 0 && current >= total) {
		pr.reportProgress()
		pr.lastUpdate = now
	}
}

// Start resets the reporter for a new phase.
func (pr *ProgressReporter) Start(phase string, total int) {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	pr.phase = phase
	pr.current = 0
	pr.total = total
	pr.message = ""
	pr.startTime = time.Now()
	pr.lastUpdate = time.Time{}
}

// Snapshot returns the latest event.
func (pr *ProgressReporter) Snapshot() Progress {
	pr.mu.RLock()
	defer pr.mu.RUnlock()

	return Progress{
		Phase:   pr.phase,
		Current: pr.current,
		Total:   pr.total,
		Message: pr.message,
		Percent: percent(pr.current, pr.total),
	}
}

// reportProgress logs the current progress (must be called with lock held)
func (pr *ProgressReporter) reportProgress() {
	p := percent(pr.current, pr.total)
	elapsed := time.Since(pr.startTime)

	var eta string
	if pr.current > 0 && pr.current < pr.total {
		avgTimePerItem := elapsed / time.Duration(pr.current)
		remaining := time.Duration(pr.total-pr.current) * avgTimePerItem
		eta = fmt.Sprintf(" (ETA: %s)", remaining.Round(time.Second))
	}

	pr.logger.WithFields(map[string]interface{}{
		"phase":   pr.phase,
		"current": pr.current,
		"total":   pr.total,
		"elapsed": elapsed.Round(time.Second).String(),
	}).Info(fmt.Sprintf("%s: %d/%d (%.1f%%)%s %s", pr.phase, pr.current, pr.total, p, eta, pr.message))
}

func percent(current, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(current) / float64(total) * 100
}
