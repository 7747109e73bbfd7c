package api

import (
	"time"

	"github.com/valyala/fasthttp"
)

// Request timeouts. Extraction tolerates very slow backend processing while trend
// calls use a short transport default.
const (
	ExtractionRequestTimeout = 27100 * time.Second
	TrendRequestTimeout      = 30 * time.Second
)

// ConnectionConfig holds configuration for HTTP connections
type ConnectionConfig struct {
	Name                string        `json:"name"`
	MaxConnsPerHost     int           `json:"max_conns_per_host"`
	MaxIdleConnDuration time.Duration `json:"max_idle_conn_duration"`
	RequestTimeout      time.Duration `json:"request_timeout"`
}

// ExtractionConnectionConfig is tuned for a handful of very long requests.
func ExtractionConnectionConfig(timeout time.Duration) ConnectionConfig {
	if timeout <= 0 {
		timeout = ExtractionRequestTimeout
	}
	return ConnectionConfig{
		Name:                "opportunity-engine/extraction",
		MaxConnsPerHost:     2,
		MaxIdleConnDuration: 90 * time.Second,
		RequestTimeout:      timeout,
	}
}

// TrendConnectionConfig is tuned for many short sequential requests.
func TrendConnectionConfig(timeout time.Duration) ConnectionConfig {
	if timeout <= 0 {
		timeout = TrendRequestTimeout
	}
	return ConnectionConfig{
		Name:                "opportunity-engine/trends",
		MaxConnsPerHost:     2,
		MaxIdleConnDuration: 30 * time.Second,
		RequestTimeout:      timeout,
	}
}

// NewHTTPDoer builds a fasthttp client whose read and write deadlines follow the
// configured request timeout.
func NewHTTPDoer(config ConnectionConfig) *fasthttp.Client {
	return &fasthttp.Client{
		Name:                config.Name,
		ReadTimeout:         config.RequestTimeout,
		WriteTimeout:        config.RequestTimeout,
		MaxConnsPerHost:     config.MaxConnsPerHost,
		MaxIdleConnDuration: config.MaxIdleConnDuration,
	}
}
