package trends

import (
	"fmt"
	"time"

	"opportunity-engine/pkg/api"
)

// Defaults for the trend API.
const (
	DefaultLocationCode   = 2380
	DefaultLanguageCode   = "it"
	DefaultDelay          = 500 * time.Millisecond
	DefaultRateLimitPause = 5 * time.Second

	// StatusOK is the application-level success code of the trend API.
	StatusOK = 20000
)

// Direction of a trend over the target year.
type Direction string

const (
	Up   Direction = "Up"
	Down Direction = "Down"
)

// NoDataMarker is stored when the API returns no time-series points.
const NoDataMarker = "No Data"

// TrendSignal summarizes a query's relative search-volume series.
type TrendSignal struct {
	LastValue  float64   `json:"last_value,omitempty"`
	Direction  Direction `json:"year_trend,omitempty"`
	DataPoints int       `json:"data_points,omitempty"`
	NoData     bool      `json:"no_data,omitempty"`
}

// Field is one named value of a signal as it appears in the summary sheet.
type Field struct {
	Name  string
	Value any
}

// Fields lists the signal's columns in a stable order.
func (s TrendSignal) Fields() []Field {
	if s.NoData {
		return []Field{{Name: "trend", Value: NoDataMarker}}
	}
	return []Field{
		{Name: "last_value", Value: s.LastValue},
		{Name: "year_trend", Value: string(s.Direction)},
		{Name: "data_points", Value: s.DataPoints},
	}
}

// FieldNames is every field name a signal can carry, in column order.
var FieldNames = []string{"last_value", "year_trend", "data_points", "trend"}

// Config drives trend enrichment.
type Config struct {
	Endpoint     string
	Username     string
	Password     string
	LocationCode int
	LanguageCode string
	Year         int

	Delay          time.Duration
	RateLimitPause time.Duration
	Timeout        time.Duration
	Sleep          api.SleepFunc
}

func (c Config) withDefaults() Config {
	if c.LocationCode == 0 {
		c.LocationCode = DefaultLocationCode
	}
	if c.LanguageCode == "" {
		c.LanguageCode = DefaultLanguageCode
	}
	if c.Delay <= 0 {
		c.Delay = DefaultDelay
	}
	if c.RateLimitPause <= 0 {
		c.RateLimitPause = DefaultRateLimitPause
	}
	if c.Timeout <= 0 {
		c.Timeout = api.TrendRequestTimeout
	}
	if c.Sleep == nil {
		c.Sleep = api.ContextSleep
	}
	return c
}

// DateFrom is the first day of the target year.
func (c Config) DateFrom() string { return fmt.Sprintf("%04d-01-01", c.Year) }

// DateTo is the last day of the target year.
func (c Config) DateTo() string { return fmt.Sprintf("%04d-12-31", c.Year) }

// Task is one element of the trend API request array.
type Task struct {
	Keywords     []string `json:"keywords"`
	LocationCode int      `json:"location_code"`
	LanguageCode string   `json:"language_code"`
	DateFrom     string   `json:"date_from"`
	DateTo       string   `json:"date_to"`
}

// Point is one time-series item of the trend API response.
type Point struct {
	DateFrom string     `json:"date_from"`
	DateTo   string     `json:"date_to"`
	Values   []*float64 `json:"values"`
}

// Response is the trend API response envelope.
type Response struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
	Tasks         []struct {
		Result []struct {
			Items []Point `json:"items"`
		} `json:"result"`
	} `json:"tasks"`
}

// Points returns the series of the first task's first result. ok is false when the
// response carries no task or no result at all, as opposed to an empty series.
func (r Response) Points() (points []Point, ok bool) {
	if len(r.Tasks) == 0 || len(r.Tasks[0].Result) == 0 {
		return nil, false
	}
	return r.Tasks[0].Result[0].Items, true
}
