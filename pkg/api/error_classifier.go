package api

import (
	"context"
	"errors"
	"net/http"
)

// ErrorClass is the retry-relevant category of a failure.
type ErrorClass int

const (
	ClassNone ErrorClass = iota
	ClassTransient
	ClassRateLimited
	ClassValidation
	ClassAuthentication
	ClassCanceled
)

func (c ErrorClass) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassTransient:
		return "transient"
	case ClassRateLimited:
		return "rate_limited"
	case ClassValidation:
		return "validation"
	case ClassAuthentication:
		return "authentication"
	case ClassCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// ErrorClassifier maps errors to classes.
type ErrorClassifier interface {
	ClassifyError(err error) ErrorClass
	ShouldStopProcessing(err error) bool
}

// TypedErrorClassifier classifies by the typed errors of this package.
// Unknown errors are treated as transient.
type TypedErrorClassifier struct{}

// NewErrorClassifier creates the default classifier.
func NewErrorClassifier() ErrorClassifier {
	return TypedErrorClassifier{}
}

func (TypedErrorClassifier) ClassifyError(err error) ErrorClass {
	if err == nil {
		return ClassNone
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ClassCanceled
	}

	var authErr *AuthenticationError
	if errors.As(err, &authErr) {
		return ClassAuthentication
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return ClassValidation
	}
	var transientErr *TransientError
	if errors.As(err, &transientErr) && transientErr.RateLimited {
		return ClassRateLimited
	}
	return ClassTransient
}

// ShouldStopProcessing is true only for failures that end the whole run.
func (c TypedErrorClassifier) ShouldStopProcessing(err error) bool {
	switch c.ClassifyError(err) {
	case ClassAuthentication, ClassCanceled:
		return true
	default:
		return false
	}
}

// StatusError turns a non-200 HTTP status into a typed error.
func StatusError(op string, status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return &AuthenticationError{Op: op, Status: status}
	case status == http.StatusTooManyRequests:
		return &TransientError{Op: op, Status: status, RateLimited: true}
	default:
		return &TransientError{Op: op, Status: status}
	}
}
