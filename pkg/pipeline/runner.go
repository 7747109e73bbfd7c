package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"opportunity-engine/pkg/aggregate"
	"opportunity-engine/pkg/dataset"
	"opportunity-engine/pkg/logger"
	"opportunity-engine/pkg/report"
	"opportunity-engine/pkg/trends"
)

// Extractor fetches the twelve monthly datasets of a run.
type Extractor interface {
	Run(ctx context.Context, sink logger.Sink, progress logger.ProgressFunc) (dataset.MonthlyDataset, error)
}

// Enricher attaches trend signals to the selected queries.
type Enricher interface {
	Enrich(ctx context.Context, queries []string, sink logger.Sink, progress logger.ProgressFunc) map[string]trends.TrendSignal
}

// Runner applies the side-effecting transitions with its collaborators.
type Runner struct {
	Extractor Extractor
	Enricher  Enricher
	OutputDir string
	Sink      logger.Sink
	Progress  logger.ProgressFunc

	log *logger.Logger
}

// NewRunner returns a Runner; nil sink and progress are replaced with no-ops.
func NewRunner(extractor Extractor, enricher Enricher, outputDir string, sink logger.Sink, progress logger.ProgressFunc) *Runner {
	if sink == nil {
		sink = logger.Discard
	}
	if progress == nil {
		progress = func(int, int, string) {}
	}
	return &Runner{
		Extractor: extractor,
		Enricher:  enricher,
		OutputDir: outputDir,
		Sink:      sink,
		Progress:  progress,
		log:       logger.GetLogger().WithField("component", "pipeline"),
	}
}

// Extract validates the settings and runs the extraction. On failure the state stays
// in Configuring so the run can be retried with corrected settings.
func (r *Runner) Extract(ctx context.Context, s State) (State, error) {
	if err := s.expect(Configuring, "extract"); err != nil {
		return s, err
	}
	if err := s.Settings.Validate(); err != nil {
		r.Sink.Append(err.Error())
		return s, err
	}

	d, err := r.Extractor.Run(ctx, r.Sink, r.Progress)
	if err != nil {
		r.log.WithError(err).Error("Extraction aborted")
		return s, err
	}

	next := s
	next.Dataset = d
	next.Candidates = aggregate.UniqueQueries(d)
	next.Summaries = aggregate.Summarize(d)
	next.Step = Reviewing

	if len(next.Candidates) == 0 {
		r.Sink.Append("No data found to aggregate")
	} else {
		r.Sink.Append(fmt.Sprintf("Extraction complete: %d records, %d unique queries", d.RecordCount(), len(next.Candidates)))
	}
	r.log.WithFields(map[string]interface{}{
		"records": d.RecordCount(),
		"queries": len(next.Candidates),
	}).Info("Extraction complete")
	return next, nil
}

// Enrich fetches trend signals for the selection and moves the run to Reporting.
func (r *Runner) Enrich(ctx context.Context, s State) (State, error) {
	if err := s.expect(Enriching, "enrich"); err != nil {
		return s, err
	}
	if r.Enricher == nil {
		return s, errors.New("trend enrichment is not configured")
	}
	signals := r.Enricher.Enrich(ctx, s.Selection, r.Sink, r.Progress)
	if err := ctx.Err(); err != nil {
		r.Sink.Append("Trend analysis interrupted, no report generated")
		return s, err
	}
	next := s
	next.Signals = signals
	next.Step = Reporting
	return next, nil
}

// Report assembles and writes the workbook. An all-empty dataset ends the run with
// ErrEmptyReport and no artifact; any other failure leaves the run in Reporting.
func (r *Runner) Report(s State) (State, error) {
	if err := s.expect(Reporting, "report"); err != nil {
		return s, err
	}

	rep, err := report.Assemble(s.Dataset, s.Signals)
	if errors.Is(err, report.ErrEmptyReport) {
		r.Sink.Append("No records found, no report generated")
		next := s
		next.Report = rep
		next.Step = Done
		return next, err
	}
	if err != nil {
		r.Sink.Append(fmt.Sprintf("Unable to build the report: %v", err))
		return s, err
	}

	path := filepath.Join(r.OutputDir, report.FileName(s.Settings.Property, s.Settings.Year))
	if err := report.WriteXLSX(rep, path); err != nil {
		r.Sink.Append(fmt.Sprintf("Unable to write the report: %v", err))
		return s, err
	}

	next := s
	next.Report = rep
	next.ReportPath = path
	next.Step = Done
	r.Sink.Append("Report ready: " + filepath.Base(path))
	r.log.WithField("path", path).Info("Report written")
	return next, nil
}

// Complete runs every remaining transition from s, selecting with analyze once the
// run reaches Reviewing. A canceled ctx stops the run before the next transition.
func (r *Runner) Complete(ctx context.Context, s State, analyze map[string]bool) (State, error) {
	var err error
	for s.Step != Done {
		if err := ctx.Err(); err != nil {
			return s, err
		}
		switch s.Step {
		case Configuring:
			s, err = r.Extract(ctx, s)
		case Reviewing:
			s, err = Select(s, analyze)
		case Enriching:
			s, err = r.Enrich(ctx, s)
		case Reporting:
			s, err = r.Report(s)
		}
		if err != nil {
			return s, err
		}
	}
	return s, nil
}
