package api

import (
	"errors"
	"fmt"
)

// ErrRetriesExhausted marks a unit of work that failed on every allowed attempt.
var ErrRetriesExhausted = errors.New("retries exhausted")

// AuthenticationError is fatal: the credentials were rejected and the run must stop.
type AuthenticationError struct {
	Op     string
	Status int
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("%s: unauthorized (status %d), check the token", e.Op, e.Status)
}

// ValidationError is a business rejection that retrying cannot fix.
type ValidationError struct {
	Op      string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: rejected: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: rejected: %s", e.Op, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// TransientError covers network failures, timeouts, rate limits and server errors.
type TransientError struct {
	Op          string
	Status      int
	RateLimited bool
	Err         error
}

func (e *TransientError) Error() string {
	switch {
	case e.RateLimited:
		return fmt.Sprintf("%s: rate limited (status %d)", e.Op, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Status)
	}
}

func (e *TransientError) Unwrap() error { return e.Err }

// EnrichmentError drops the trend signal of a single query.
type EnrichmentError struct {
	Query string
	Err   error
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("trend for %q: %v", e.Query, e.Err)
}

func (e *EnrichmentError) Unwrap() error { return e.Err }

// ReportError is a failure while assembling or writing the report artifact.
type ReportError struct {
	Op  string
	Err error
}

func (e *ReportError) Error() string {
	return fmt.Sprintf("report %s: %v", e.Op, e.Err)
}

func (e *ReportError) Unwrap() error { return e.Err }

// IsAuthentication reports whether err carries an AuthenticationError.
func IsAuthentication(err error) bool {
	var authErr *AuthenticationError
	return errors.As(err, &authErr)
}
