package trends

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/valyala/fasthttp"

	"opportunity-engine/pkg/api"
	"opportunity-engine/pkg/logger"
)

// Enricher fetches one trend signal per query, strictly one request at a time.
type Enricher struct {
	doer   api.Doer
	config Config
	policy api.RetryPolicy
	log    *logger.Logger
}

// NewEnricher creates a trend enricher.
func NewEnricher(doer api.Doer, config Config) *Enricher {
	config = config.withDefaults()
	return &Enricher{
		doer:   doer,
		config: config,
		policy: api.EnrichmentRetryPolicy(config.RateLimitPause, config.Sleep),
		log:    logger.GetLogger().WithField("component", "trends"),
	}
}

// Enrich fetches signals for queries in order. A query that fails for any reason,
// including a rate limit, is left out of the result; the batch always runs to the end
// unless ctx is canceled. A repeated query overwrites its earlier signal.
func (e *Enricher) Enrich(ctx context.Context, queries []string, sink logger.Sink, progress logger.ProgressFunc) map[string]TrendSignal {
	if sink == nil {
		sink = logger.Discard
	}
	if progress == nil {
		progress = func(int, int, string) {}
	}

	total := len(queries)
	results := make(map[string]TrendSignal, total)
	sink.Append(fmt.Sprintf("Starting trend analysis for %d selected queries...", total))

	for i, q := range queries {
		signal, err := e.FetchTrend(ctx, q)
		message := "Fetched trend for: " + q
		switch {
		case err == nil:
			results[q] = signal
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return results
		default:
			enrichErr := &api.EnrichmentError{Query: q, Err: err}
			if api.NewErrorClassifier().ClassifyError(err) == api.ClassRateLimited {
				message = "Rate limited and sleeping..."
				sink.Append(fmt.Sprintf("Rate limit hit for %q, paused %s and skipped it", q, e.config.RateLimitPause))
			} else {
				message = "Failed trend for: " + q
				sink.Append(enrichErr.Error())
			}
			e.log.WithError(enrichErr).Warn("Trend enrichment failed")
		}

		if err := e.config.Sleep(ctx, e.config.Delay); err != nil {
			return results
		}
		progress(i+1, total, message)
	}

	progress(total, total, "Trends fetch complete")
	sink.Append(fmt.Sprintf("Trends collected for %d queries.", len(results)))
	return results
}

// FetchTrend requests the series for one query under the enrichment retry policy.
func (e *Enricher) FetchTrend(ctx context.Context, query string) (TrendSignal, error) {
	var signal TrendSignal
	err := e.policy.Execute(ctx, func(int) error {
		var err error
		signal, err = e.fetch(query)
		return err
	})
	return signal, err
}

func (e *Enricher) fetch(query string) (TrendSignal, error) {
	payload := []Task{{
		Keywords:     []string{query},
		LocationCode: e.config.LocationCode,
		LanguageCode: e.config.LanguageCode,
		DateFrom:     e.config.DateFrom(),
		DateTo:       e.config.DateTo(),
	}}

	resp, err := api.PostJSON(e.doer, query, e.config.Endpoint, payload, func(req *fasthttp.Request) {
		req.Header.Set("Authorization", basicAuth(e.config.Username, e.config.Password))
	}, e.config.Timeout)
	if err != nil {
		return TrendSignal{}, err
	}
	if resp.Status != http.StatusOK {
		return TrendSignal{}, api.StatusError(query, resp.Status)
	}

	var body Response
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return TrendSignal{}, &api.ValidationError{Op: query, Message: "undecodable response", Err: err}
	}
	if body.StatusCode != StatusOK {
		return TrendSignal{}, &api.ValidationError{
			Op:      query,
			Message: fmt.Sprintf("API error %d: %s", body.StatusCode, body.StatusMessage),
		}
	}

	points, ok := body.Points()
	if !ok {
		return TrendSignal{}, &api.ValidationError{Op: query, Message: "response has no task result"}
	}
	return Analyze(points), nil
}

func basicAuth(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}
