package extraction

import (
	"time"

	"golang.org/x/text/language"

	"opportunity-engine/pkg/api"
)

// Defaults for the performance API request.
const (
	DefaultShowKeywords  = "nobrand"
	DefaultLocation      = "ITA"
	DefaultMaxAttempts   = 3
	DefaultCourtesyDelay = time.Second
)

// Config drives one extraction run.
type Config struct {
	Endpoint     string
	Token        string
	Property     string
	Country      string
	Location     string
	ShowKeywords string
	Year         int
	Locale       language.Tag

	MaxAttempts   int
	CourtesyDelay time.Duration
	Timeout       time.Duration
	Sleep         api.SleepFunc
}

func (c Config) withDefaults() Config {
	if c.Location == "" {
		c.Location = DefaultLocation
	}
	if c.ShowKeywords == "" {
		c.ShowKeywords = DefaultShowKeywords
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.CourtesyDelay <= 0 {
		c.CourtesyDelay = DefaultCourtesyDelay
	}
	if c.Timeout <= 0 {
		c.Timeout = api.ExtractionRequestTimeout
	}
	if c.Sleep == nil {
		c.Sleep = api.ContextSleep
	}
	return c
}

// MonthRequest is the performance API request body for one month.
type MonthRequest struct {
	DateRangeStart        string   `json:"dateRangeStart"`
	DateRangeEnd          string   `json:"dateRangeEnd"`
	SearchConsoleProperty string   `json:"searchConsoleProperty"`
	Country               []string `json:"country"`
	LocationDataForSEO    string   `json:"locationDataForSEO"`
	PropertyPattern       string   `json:"propertyPattern"`
	ShowKeywords          string   `json:"showKeywords"`
	ExcludedQueries       []string `json:"excluded_queries"`
}

// MonthResponse is the performance API response envelope.
type MonthResponse struct {
	Success bool             `json:"success"`
	Data    []map[string]any `json:"data"`
	Message string           `json:"message,omitempty"`
}
