package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/valyala/fasthttp"

	"opportunity-engine/pkg/api"
	"opportunity-engine/pkg/dataset"
	"opportunity-engine/pkg/logger"
)

// Engine pulls one month of performance records per calendar month of the target year.
type Engine struct {
	doer    api.Doer
	config  Config
	pattern string
	policy  api.RetryPolicy
	log     *logger.Logger
}

// NewEngine creates an extraction engine.
func NewEngine(doer api.Doer, config Config) *Engine {
	config = config.withDefaults()
	return &Engine{
		doer:    doer,
		config:  config,
		pattern: DerivePropertyPattern(config.Property),
		policy:  api.ExtractionRetryPolicy(config.MaxAttempts, config.Sleep),
		log:     logger.GetLogger().WithField("component", "extraction"),
	}
}

// PropertyPattern is the pattern sent with every request.
func (e *Engine) PropertyPattern() string {
	return e.pattern
}

// Run fetches all twelve months in order. A month that fails for any reason other than
// authentication is left empty. An AuthenticationError stops the run at once and is
// returned together with the months collected so far.
func (e *Engine) Run(ctx context.Context, sink logger.Sink, progress logger.ProgressFunc) (dataset.MonthlyDataset, error) {
	if sink == nil {
		sink = logger.Discard
	}
	windows := dataset.YearWindows(e.config.Year, e.config.Locale)
	data := dataset.NewMonthlyDataset(windows)

	sink.Append("Property pattern detected: " + e.PropertyPattern())
	e.log.WithField("pattern", e.PropertyPattern()).Debug("Property pattern derived")

	for i, w := range windows {
		sink.Append(fmt.Sprintf("Requesting %s (%s - %s)...", w.Label, w.StartDate(), w.EndDate()))

		records, err := e.FetchMonth(ctx, w, sink)
		switch {
		case api.IsAuthentication(err):
			sink.Append(fmt.Sprintf("Extraction aborted at %s: %v", w.Label, err))
			return data, err
		case ctx.Err() != nil:
			return data, ctx.Err()
		case err != nil:
			sink.Append(fmt.Sprintf("%s: no data (%v)", w.Label, err))
		case len(records) == 0:
			sink.Append(fmt.Sprintf("%s: no data returned", w.Label))
		default:
			sink.Append(fmt.Sprintf("%s: %d records found", w.Label, len(records)))
		}
		data.Slots[i].Records = records

		if progress != nil {
			progress(i+1, len(windows), w.Label)
		}

		if err := e.config.Sleep(ctx, e.config.CourtesyDelay); err != nil {
			return data, err
		}
	}

	e.log.WithFields(map[string]interface{}{
		"property": e.config.Property,
		"year":     e.config.Year,
		"records":  data.RecordCount(),
	}).Info("Extraction completed")
	return data, nil
}

// FetchMonth requests one month under the extraction retry policy. It returns an empty
// slice and a non-nil error when the month could not be retrieved.
func (e *Engine) FetchMonth(ctx context.Context, w dataset.MonthWindow, sink logger.Sink) ([]dataset.PerformanceRecord, error) {
	if sink == nil {
		sink = logger.Discard
	}
	payload := MonthRequest{
		DateRangeStart:        w.StartDate(),
		DateRangeEnd:          w.EndDate(),
		SearchConsoleProperty: e.config.Property,
		Country:               []string{e.config.Country},
		LocationDataForSEO:    e.config.Location,
		PropertyPattern:       e.pattern,
		ShowKeywords:          e.config.ShowKeywords,
		ExcludedQueries:       []string{},
	}

	var records []dataset.PerformanceRecord
	err := e.policy.Execute(ctx, func(attempt int) error {
		var err error
		records, err = e.doMonth(w, payload, sink)
		if err != nil {
			sink.Append(describeFailure(err, attempt))
		}
		return err
	})
	if err != nil {
		e.log.WithError(err).WithField("month", w.Label).Warn("Month extraction failed")
		return []dataset.PerformanceRecord{}, err
	}

	return records, nil
}

func (e *Engine) doMonth(w dataset.MonthWindow, payload MonthRequest, sink logger.Sink) ([]dataset.PerformanceRecord, error) {
	resp, err := api.PostJSON(e.doer, w.Label, e.config.Endpoint, payload, func(req *fasthttp.Request) {
		req.Header.Set("Authorization", "Bearer "+e.config.Token)
	}, e.config.Timeout)
	if err != nil {
		return nil, err
	}

	if resp.Status != http.StatusOK {
		statusErr := api.StatusError(w.Label, resp.Status)
		e.log.WithFields(map[string]interface{}{
			"month":  w.Label,
			"status": resp.Status,
			"body":   api.Truncate(string(resp.Body), 200),
		}).Warn("Performance API returned non-200 status")
		return nil, statusErr
	}

	var body MonthResponse
	dec := json.NewDecoder(bytes.NewReader(resp.Body))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return nil, &api.ValidationError{Op: w.Label, Message: "undecodable response", Err: err}
	}
	if !body.Success {
		return nil, &api.ValidationError{Op: w.Label, Message: fmt.Sprintf("success=false: %s", body.Message)}
	}

	records, dropped := dataset.DecodeRecords(body.Data, w.Label)
	if dropped > 0 {
		sink.Append(fmt.Sprintf("%s: skipped %d records without a query", w.Label, dropped))
		e.log.WithFields(map[string]interface{}{
			"month":   w.Label,
			"dropped": dropped,
		}).Warn("Records without a query were skipped")
	}
	return records, nil
}

func describeFailure(err error, attempt int) string {
	switch api.NewErrorClassifier().ClassifyError(err) {
	case api.ClassAuthentication:
		return "Unauthorized (401). Check the token."
	case api.ClassValidation:
		return fmt.Sprintf("API rejected the request: %v", err)
	case api.ClassRateLimited:
		return fmt.Sprintf("Rate limited. Waiting %ds...", 1<<attempt)
	default:
		return fmt.Sprintf("%v. Waiting %ds...", err, 1<<attempt)
	}
}
