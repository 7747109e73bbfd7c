package logger

import (
	"sync"
	"time"
)

// DefaultRunLogCapacity is how many lines a run log keeps for display.
const DefaultRunLogCapacity = 10

// Sink receives human-readable run log lines.
type Sink interface {
	Append(msg string)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(msg string)

func (f SinkFunc) Append(msg string) { f(msg) }

// Discard drops every line.
var Discard Sink = SinkFunc(func(string) {})

// RunLog is a bounded ring of timestamped lines owned by a single pipeline run.
// Every appended line is also forwarded to the structured logger.
type RunLog struct {
	mu       sync.Mutex
	lines    []string
	next     int
	full     bool
	appended int
	now      func() time.Time
	log      *Logger
}

// NewRunLog creates a run log holding the last capacity lines.
func NewRunLog(capacity int, l *Logger) *RunLog {
	if capacity <= 0 {
		capacity = DefaultRunLogCapacity
	}
	if l == nil {
		l = GetLogger()
	}
	return &RunLog{
		lines: make([]string, capacity),
		now:   time.Now,
		log:   l.WithField("component", "run_log"),
	}
}

// SetClock overrides the time source used for line prefixes.
func (r *RunLog) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// Append stores msg prefixed with "[HH:MM:SS]".
func (r *RunLog) Append(msg string) {
	r.mu.Lock()
	line := "[" + r.now().Format("15:04:05") + "] " + msg
	r.lines[r.next] = line
	r.next = (r.next + 1) % len(r.lines)
	if r.next == 0 {
		r.full = true
	}
	r.appended++
	r.mu.Unlock()

	r.log.Info(msg)
}

// Snapshot returns the retained lines, oldest first.
func (r *RunLog) Snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.full {
		out := make([]string, r.next)
		copy(out, r.lines[:r.next])
		return out
	}
	out := make([]string, 0, len(r.lines))
	out = append(out, r.lines[r.next:]...)
	out = append(out, r.lines[:r.next]...)
	return out
}

// Appended reports how many lines were ever appended, including evicted ones.
func (r *RunLog) Appended() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.appended
}

// Reset clears the log for a new run.
func (r *RunLog) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.lines {
		r.lines[i] = ""
	}
	r.next = 0
	r.full = false
	r.appended = 0
}
