package handler

import (
	"context"
	"sync"
	"time"

	"opportunity-engine/pkg/api"
	"opportunity-engine/pkg/logger"
	"opportunity-engine/pkg/pipeline"
)

// session is one wizard run. The pipeline state is only replaced under mu; the work
// itself runs outside the lock, serialized by exec.
type session struct {
	id       string
	created  time.Time
	runLog   *logger.RunLog
	progress *logger.ProgressReporter
	exec     *api.SequentialExecutor
	runner   *pipeline.Runner
	ctx      context.Context
	cancel   context.CancelFunc

	mu       sync.RWMutex
	state    pipeline.State
	lastErr  error
	finished time.Time
}

// StatusResponse is the polling view of a session.
type StatusResponse struct {
	ID         string            `json:"id"`
	Step       string            `json:"step"`
	Running    bool              `json:"running"`
	Property   string            `json:"property"`
	Year       int               `json:"year"`
	Created    time.Time         `json:"created"`
	Progress   logger.Progress   `json:"progress"`
	Log        []string          `json:"log"`
	Queries    int               `json:"queries"`
	Selected   int               `json:"selected"`
	Error      string            `json:"error,omitempty"`
	ReportFile string            `json:"report_file,omitempty"`
	Trends     map[string]string `json:"trends,omitempty"`
}

func (s *session) snapshot() pipeline.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *session) finish(next pipeline.State, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = next
	s.lastErr = err
	if err != nil || next.Step == pipeline.Done {
		s.finished = time.Now()
	} else {
		s.finished = time.Time{}
	}
}

// expired reports whether a finished or failed session has been idle for ttl.
func (s *session) expired(now time.Time, ttl time.Duration) bool {
	if s.exec.Busy() {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.finished.IsZero() && now.Sub(s.finished) >= ttl
}

// start runs work in the background unless the session is already busy.
func (s *session) start(work func(ctx context.Context)) error {
	started := make(chan error, 1)
	go func() {
		err := s.exec.TryExecute(s.ctx, func() error {
			started <- nil
			work(s.ctx)
			return nil
		})
		if err != nil {
			started <- err
		}
	}()
	return <-started
}

func (s *session) status() StatusResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resp := StatusResponse{
		ID:       s.id,
		Step:     s.state.Step.String(),
		Running:  s.exec.Busy(),
		Property: s.state.Settings.Property,
		Year:     s.state.Settings.Year,
		Created:  s.created,
		Progress: s.progress.Snapshot(),
		Log:      s.runLog.Snapshot(),
		Queries:  len(s.state.Candidates),
		Selected: len(s.state.Selection),
	}
	if s.lastErr != nil {
		resp.Error = s.lastErr.Error()
	}
	if s.state.ReportPath != "" {
		resp.ReportFile = reportFileName(s.state.ReportPath)
	}
	if len(s.state.Signals) > 0 {
		resp.Trends = make(map[string]string, len(s.state.Signals))
		for q, sig := range s.state.Signals {
			if sig.NoData {
				resp.Trends[q] = "no data"
			} else {
				resp.Trends[q] = string(sig.Direction)
			}
		}
	}
	return resp
}
