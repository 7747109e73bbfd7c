package api

import (
	"context"
	"fmt"
	"time"
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// ContextSleep is the production SleepFunc.
func ContextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryPolicy describes how one unit of work is attempted.
// After every failure whose class is retryable the policy sleeps Backoff(attempt, class)
// (skipped when zero) and, if attempts remain, tries again.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     func(attempt int, class ErrorClass) time.Duration
	Retryable   func(class ErrorClass) bool
	Classifier  ErrorClassifier
	Sleep       SleepFunc
}

// ExponentialBackoff waits base * 2^attempt.
func ExponentialBackoff(base time.Duration) func(int, ErrorClass) time.Duration {
	return func(attempt int, _ ErrorClass) time.Duration {
		return base << uint(attempt)
	}
}

// TransientOnly retries network, server and rate-limit failures.
func TransientOnly(class ErrorClass) bool {
	return class == ClassTransient || class == ClassRateLimited
}

// ExtractionRetryPolicy allows 3 attempts with 1s, 2s, 4s pauses.
func ExtractionRetryPolicy(maxAttempts int, sleep SleepFunc) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		Backoff:     ExponentialBackoff(time.Second),
		Retryable:   TransientOnly,
		Classifier:  NewErrorClassifier(),
		Sleep:       sleep,
	}
}

// EnrichmentRetryPolicy makes a single attempt; a rate limit pauses for rateLimitPause
// and the work is given up rather than re-fetched.
func EnrichmentRetryPolicy(rateLimitPause time.Duration, sleep SleepFunc) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 1,
		Backoff: func(_ int, class ErrorClass) time.Duration {
			if class == ClassRateLimited {
				return rateLimitPause
			}
			return 0
		},
		Retryable:  TransientOnly,
		Classifier: NewErrorClassifier(),
		Sleep:      sleep,
	}
}

// Execute runs fn until it succeeds, fails with a non-retryable class,
// or runs out of attempts. Exhaustion wraps both ErrRetriesExhausted and the last error.
func (p RetryPolicy) Execute(ctx context.Context, fn func(attempt int) error) error {
	classifier := p.Classifier
	if classifier == nil {
		classifier = NewErrorClassifier()
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = ContextSleep
	}
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		class := classifier.ClassifyError(err)
		if p.Retryable == nil || !p.Retryable(class) {
			return err
		}

		if p.Backoff != nil {
			if delay := p.Backoff(attempt, class); delay > 0 {
				if serr := sleep(ctx, delay); serr != nil {
					return serr
				}
			}
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempts, lastErr)
}
