package trends

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/valyala/fasthttp"

	"opportunity-engine/pkg/logger"
)

type fakeResponse struct {
	status int
	body   string
	err    error
}

type capturedRequest struct {
	auth    string
	tasks   []Task
	timeout time.Duration
}

type fakeDoer struct {
	requests  []capturedRequest
	responses map[string]fakeResponse
}

func (f *fakeDoer) DoTimeout(req *fasthttp.Request, resp *fasthttp.Response, timeout time.Duration) error {
	captured := capturedRequest{
		auth:    string(req.Header.Peek("Authorization")),
		timeout: timeout,
	}
	_ = json.Unmarshal(req.Body(), &captured.tasks)
	f.requests = append(f.requests, captured)

	r := f.responses[captured.tasks[0].Keywords[0]]
	if r.err != nil {
		return r.err
	}
	resp.SetStatusCode(r.status)
	resp.SetBodyString(r.body)
	return nil
}

type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}

const seriesBody = `{"status_code": 20000, "status_message": "Ok.", "tasks": [{"result": [{"items": [
	{"date_from": "2025-01-01", "date_to": "2025-01-07", "values": [20]},
	{"date_from": "2025-06-01", "date_to": "2025-06-07", "values": [35]},
	{"date_from": "2025-12-21", "date_to": "2025-12-27", "values": [64]}
]}]}]}`

func newTestEnricher(doer *fakeDoer, rec *sleepRecorder) *Enricher {
	return NewEnricher(doer, Config{
		Endpoint: "https://trends.example/v3/keywords_data/google_trends/explore/live",
		Username: "seo@example.it",
		Password: "pw",
		Year:     2025,
		Sleep:    rec.sleep,
	})
}

func TestEnrich_OmitsFailedQueries(t *testing.T) {
	doer := &fakeDoer{responses: map[string]fakeResponse{
		"shoes": {err: errors.New("connection reset by peer")},
		"boots": {status: 200, body: seriesBody},
		"bags":  {status: 429, body: `{}`},
		"hats":  {status: 200, body: `{"status_code": 40501, "status_message": "Invalid Field"}`},
		"caps":  {status: 200, body: `{"status_code": 20000, "tasks": [{"result": [{"items": []}]}]}`},
		"socks": {status: 200, body: `{"status_code": 20000, "tasks": []}`},
		"belts": {status: 200, body: `{"status_code": 20000, "tasks": [{"result": null}]}`},
	}}
	rec := &sleepRecorder{}
	enricher := newTestEnricher(doer, rec)

	type event struct {
		current, total int
		message        string
	}
	var events []event
	var lines []string

	results := enricher.Enrich(context.Background(),
		[]string{"shoes", "boots", "bags", "hats", "caps", "socks", "belts"},
		logger.SinkFunc(func(msg string) { lines = append(lines, msg) }),
		func(current, total int, message string) { events = append(events, event{current, total, message}) },
	)

	if _, ok := results["shoes"]; ok {
		t.Error("failed query must be omitted")
	}
	if _, ok := results["bags"]; ok {
		t.Error("rate-limited query must be omitted, not re-fetched")
	}
	if _, ok := results["hats"]; ok {
		t.Error("API error query must be omitted")
	}
	if got := results["boots"]; got != (TrendSignal{LastValue: 64, Direction: Up, DataPoints: 3}) {
		t.Errorf("boots = %+v", got)
	}
	for _, q := range []string{"socks", "belts"} {
		if got, ok := results[q]; ok {
			t.Errorf("%s = %+v, a response without task result must be omitted", q, got)
		}
	}
	if got := results["caps"]; !got.NoData {
		t.Errorf("caps = %+v, want NoData", got)
	}
	if len(results) != 2 {
		t.Errorf("results = %v, want 2 entries", results)
	}

	if len(doer.requests) != 7 {
		t.Errorf("requests = %d, want exactly one per query", len(doer.requests))
	}

	want := []time.Duration{
		500 * time.Millisecond,
		500 * time.Millisecond,
		5 * time.Second, 500 * time.Millisecond,
		500 * time.Millisecond,
		500 * time.Millisecond,
		500 * time.Millisecond,
		500 * time.Millisecond,
	}
	if len(rec.delays) != len(want) {
		t.Fatalf("sleeps = %v, want %v", rec.delays, want)
	}
	for i := range want {
		if rec.delays[i] != want[i] {
			t.Errorf("sleep %d = %v, want %v", i, rec.delays[i], want[i])
		}
	}

	if len(events) != 8 {
		t.Fatalf("progress events = %d, want 8", len(events))
	}
	if events[0].current != 1 || events[0].total != 7 {
		t.Errorf("first event = %+v", events[0])
	}
	if last := events[7]; last.current != 7 || last.total != 7 || last.message != "Trends fetch complete" {
		t.Errorf("final event = %+v", last)
	}
	if len(lines) < 4 {
		t.Errorf("expected a log line per anomaly, got %v", lines)
	}
}

func TestEnrich_RequestShape(t *testing.T) {
	doer := &fakeDoer{responses: map[string]fakeResponse{
		"ufficio design": {status: 200, body: seriesBody},
	}}
	enricher := newTestEnricher(doer, &sleepRecorder{})

	enricher.Enrich(context.Background(), []string{"ufficio design"}, nil, nil)

	if len(doer.requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(doer.requests))
	}
	req := doer.requests[0]
	if req.auth != "Basic c2VvQGV4YW1wbGUuaXQ6cHc=" {
		t.Errorf("Authorization = %q", req.auth)
	}
	if req.timeout != 30*time.Second {
		t.Errorf("timeout = %v, want 30s", req.timeout)
	}
	if len(req.tasks) != 1 {
		t.Fatalf("tasks = %d, want a single-element array", len(req.tasks))
	}
	task := req.tasks[0]
	if task.LocationCode != 2380 || task.LanguageCode != "it" {
		t.Errorf("location/language = %d/%s", task.LocationCode, task.LanguageCode)
	}
	if task.DateFrom != "2025-01-01" || task.DateTo != "2025-12-31" {
		t.Errorf("window = %s..%s", task.DateFrom, task.DateTo)
	}
}

func TestEnrich_DuplicateQueriesOverwrite(t *testing.T) {
	doer := &fakeDoer{responses: map[string]fakeResponse{
		"shoes": {status: 200, body: seriesBody},
	}}
	enricher := newTestEnricher(doer, &sleepRecorder{})

	results := enricher.Enrich(context.Background(), []string{"shoes", "shoes"}, nil, nil)

	if len(results) != 1 || len(doer.requests) != 2 {
		t.Errorf("results = %d, requests = %d; want 1 and 2", len(results), len(doer.requests))
	}
}

func TestEnrich_EmptySelection(t *testing.T) {
	doer := &fakeDoer{}
	var events [][2]int
	results := newTestEnricher(doer, &sleepRecorder{}).Enrich(context.Background(), nil, nil,
		func(current, total int, _ string) { events = append(events, [2]int{current, total}) })

	if len(results) != 0 || len(doer.requests) != 0 {
		t.Errorf("expected no work, got %d results and %d requests", len(results), len(doer.requests))
	}
	if len(events) != 1 || events[0] != [2]int{0, 0} {
		t.Errorf("expected only the completion event, got %v", events)
	}
}
