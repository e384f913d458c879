package resilience

import (
	"context"
	"errors"
	"testing"
)

func rateLimited(msg string) error {
	return Classify(ClassRateLimited, 429, errors.New(msg))
}

func TestRetry_Success(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), RetryConfig{MaxAttempts: 3}, func(ctx context.Context, attempt int) error {
		attempts++
		return nil
	}, nil)

	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts)
	}
}

func TestRetry_FailureThenSuccess(t *testing.T) {
	attempts := 0
	var retried []int
	config := RetryConfig{
		MaxAttempts: 3,
		OnRetryable: func(attempt int, err error) { retried = append(retried, attempt) },
	}

	err := Retry(context.Background(), config, func(ctx context.Context, attempt int) error {
		attempts++
		if attempt < 2 {
			return rateLimited("quota")
		}
		return nil
	}, nil)

	if err != nil {
		t.Errorf("Expected no error after retries, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
	if len(retried) != 2 || retried[0] != 0 || retried[1] != 1 {
		t.Errorf("Expected OnRetryable for attempts [0 1], got %v", retried)
	}
}

func TestRetry_MaxAttempts(t *testing.T) {
	attempts := 0
	hooks := 0
	config := RetryConfig{
		MaxAttempts: 2,
		OnRetryable: func(attempt int, err error) { hooks++ },
	}

	err := Retry(context.Background(), config, func(ctx context.Context, attempt int) error {
		attempts++
		return rateLimited("persistent 429")
	}, nil)

	if !errors.Is(err, ErrAttemptsExhausted) {
		t.Errorf("Expected ErrAttemptsExhausted, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts)
	}
	if hooks != 2 {
		t.Errorf("Expected OnRetryable after each failure, got %d calls", hooks)
	}
	if ClassOf(err) != ClassRateLimited {
		t.Errorf("Expected last error class to be preserved, got %v", ClassOf(err))
	}
}

func TestRetry_NonRetryableError(t *testing.T) {
	attempts := 0
	hooks := 0
	config := RetryConfig{
		MaxAttempts: 3,
		OnRetryable: func(attempt int, err error) { hooks++ },
	}

	malformed := Classify(ClassMalformed, 200, errors.New("no audio"))
	err := Retry(context.Background(), config, func(ctx context.Context, attempt int) error {
		attempts++
		return malformed
	}, nil)

	if err != malformed {
		t.Errorf("Expected the malformed error unchanged, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt for non-retryable error, got %d", attempts)
	}
	if hooks != 0 {
		t.Errorf("Expected no OnRetryable calls, got %d", hooks)
	}
}

func TestRetry_CustomPredicate(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), RetryConfig{MaxAttempts: 3}, func(ctx context.Context, attempt int) error {
		attempts++
		return errors.New("plain error")
	}, func(error) bool { return true })

	if err == nil {
		t.Error("Expected error after max attempts")
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestRetry_ZeroAttempts(t *testing.T) {
	called := false
	err := Retry(context.Background(), RetryConfig{}, func(ctx context.Context, attempt int) error {
		called = true
		return nil
	}, nil)

	if !errors.Is(err, ErrAttemptsExhausted) {
		t.Errorf("Expected ErrAttemptsExhausted, got %v", err)
	}
	if called {
		t.Error("Expected fn not to be called")
	}
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	err := Retry(ctx, RetryConfig{MaxAttempts: 5}, func(ctx context.Context, attempt int) error {
		attempts++
		cancel()
		return rateLimited("429")
	}, nil)

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt before cancellation, got %d", attempts)
	}
}

func TestClassOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Class
	}{
		{"rate limited", rateLimited("429"), ClassRateLimited},
		{"malformed", Classify(ClassMalformed, 200, errors.New("x")), ClassMalformed},
		{"wrapped", errors.Join(errors.New("ctx"), rateLimited("429")), ClassRateLimited},
		{"unclassified", errors.New("boom"), ClassTransport},
		{"nil", nil, ClassTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassOf(tt.err); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestClassifiedError_MessageVerbatim(t *testing.T) {
	inner := errors.New(`{"error":{"message":"Quota exceeded"}}`)
	err := Classify(ClassRateLimited, 429, inner)

	if err.Error() != inner.Error() {
		t.Errorf("Expected message %q, got %q", inner.Error(), err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("Expected Unwrap to expose the inner error")
	}
	if Classify(ClassTransport, 0, nil) != nil {
		t.Error("Expected Classify(nil) to be nil")
	}
}

func TestClass_String(t *testing.T) {
	if ClassRateLimited.String() != "rate_limited" || ClassMalformed.String() != "malformed" || ClassTransport.String() != "transport" {
		t.Error("Unexpected class labels")
	}
}
