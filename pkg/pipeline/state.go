// Package pipeline threads an explicit run state through the extraction, review,
// enrichment and reporting steps.
package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"opportunity-engine/pkg/aggregate"
	"opportunity-engine/pkg/api"
	"opportunity-engine/pkg/dataset"
	"opportunity-engine/pkg/report"
	"opportunity-engine/pkg/trends"
)

// Step is the position of a run in the wizard.
type Step int

const (
	Configuring Step = iota
	Reviewing
	Enriching
	Reporting
	Done
)

func (s Step) String() string {
	switch s {
	case Configuring:
		return "configuring"
	case Reviewing:
		return "reviewing"
	case Enriching:
		return "enriching"
	case Reporting:
		return "reporting"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// ErrInvalidTransition is returned when a transition is applied in the wrong step.
var ErrInvalidTransition = errors.New("invalid pipeline transition")

// Settings are the operator inputs of a run.
type Settings struct {
	Token        string `json:"-"`
	Property     string `json:"property"`
	Country      string `json:"country"`
	Year         int    `json:"year"`
	EnableTrends bool   `json:"enable_trends"`
}

// Validate checks the inputs required before extraction can start.
func (s Settings) Validate() error {
	var missing []string
	if strings.TrimSpace(s.Token) == "" {
		missing = append(missing, "token")
	}
	if strings.TrimSpace(s.Property) == "" {
		missing = append(missing, "property")
	}
	if len(missing) > 0 {
		return &api.ValidationError{
			Op:      "configure",
			Message: strings.Join(missing, " and ") + " required",
		}
	}
	return nil
}

// State is the whole run state. Transitions never mutate their input.
type State struct {
	Step     Step
	Settings Settings

	Dataset    dataset.MonthlyDataset
	Candidates []string
	Summaries  []aggregate.QuerySummary
	Selection  []string
	Signals    map[string]trends.TrendSignal

	Report     *report.Report
	ReportPath string
}

// New starts a run in the Configuring step.
func New(settings Settings) State {
	return State{Step: Configuring, Settings: settings}
}

// ReviewTable returns the rows the operator reviews before selecting queries.
func (s State) ReviewTable(analyze map[string]bool) []aggregate.ReviewRow {
	return aggregate.ReviewTable(s.Summaries, analyze)
}

func (s State) expect(step Step, transition string) error {
	if s.Step != step {
		return fmt.Errorf("%w: %s requires step %s, run is %s", ErrInvalidTransition, transition, step, s.Step)
	}
	return nil
}

// Select applies the operator's analyze flags. Queries without a flag are kept.
// The run moves to Enriching only when trends are enabled and something is selected.
func Select(s State, analyze map[string]bool) (State, error) {
	if err := s.expect(Reviewing, "select"); err != nil {
		return s, err
	}
	next := s
	next.Selection = aggregate.Select(s.Candidates, analyze)
	next.Signals = nil
	if s.Settings.EnableTrends && len(next.Selection) > 0 {
		next.Step = Enriching
	} else {
		next.Step = Reporting
	}
	return next, nil
}
