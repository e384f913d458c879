package resilience

import (
	"context"
	"errors"
	"fmt"
)

// Class tags a failure with how the retry loop should treat it
type Class int

const (
	ClassTransport   Class = iota // Unrecognised failure, never retried
	ClassRateLimited              // The credential was refused, retry with the next one
	ClassMalformed                // Upstream answered but the payload is unusable
)

// String returns the metric label for a class
func (c Class) String() string {
	switch c {
	case ClassRateLimited:
		return "rate_limited"
	case ClassMalformed:
		return "malformed"
	default:
		return "transport"
	}
}

// ClassifiedError wraps an error with its Class. Error() is the wrapped
// message unchanged.
type ClassifiedError struct {
	Class      Class
	StatusCode int // HTTP status, 0 when no response was received
	Err        error
}

func (e *ClassifiedError) Error() string {
	return e.Err.Error()
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// Classify wraps err with class. A nil err stays nil.
func Classify(class Class, statusCode int, err error) error {
	if err == nil {
		return nil
	}
	return &ClassifiedError{Class: class, StatusCode: statusCode, Err: err}
}

// ClassOf returns the class carried by err, or ClassTransport when err
// carries none.
func ClassOf(err error) Class {
	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified.Class
	}
	return ClassTransport
}

// IsRateLimited reports whether err should trigger a retry with another credential
func IsRateLimited(err error) bool {
	return err != nil && ClassOf(err) == ClassRateLimited
}

// ErrAttemptsExhausted is returned by Retry when every attempt failed with a
// retryable error
var ErrAttemptsExhausted = errors.New("retry attempts exhausted")

// RetryConfig holds configuration for retry logic
type RetryConfig struct {
	MaxAttempts int // Maximum number of attempts, including the first

	// OnRetryable runs after every retryable failure, including the last one.
	OnRetryable func(attempt int, err error)
}

// RetryableFunc is a function that can be retried. attempt starts at 0.
type RetryableFunc func(ctx context.Context, attempt int) error

// IsRetryableError checks if an error is retryable
type IsRetryableError func(error) bool

// Retry runs fn until it succeeds, returns a non-retryable error, or uses up
// MaxAttempts. There is no sleep between attempts: callers change something
// (the credential) in OnRetryable instead of waiting. On exhaustion the result
// wraps both ErrAttemptsExhausted and the last error.
func Retry(ctx context.Context, config RetryConfig, fn RetryableFunc, isRetryable IsRetryableError) error {
	if isRetryable == nil {
		isRetryable = IsRateLimited
	}

	var lastErr error
	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Classify(ClassTransport, 0, err)
		}

		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		lastErr = err

		if config.OnRetryable != nil {
			config.OnRetryable(attempt, err)
		}
	}

	if lastErr == nil {
		return ErrAttemptsExhausted
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrAttemptsExhausted, config.MaxAttempts, lastErr)
}
