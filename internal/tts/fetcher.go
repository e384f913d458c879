package tts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lexiqai/speech-studio/internal/credentials"
	"github.com/lexiqai/speech-studio/internal/observability"
	"github.com/lexiqai/speech-studio/internal/resilience"
)

// Fetcher synthesizes one piece of text, rotating through the credential
// pool when a credential is refused. It makes at most one pass over the pool.
type Fetcher struct {
	synth   Synthesizer
	rotator *credentials.Rotator
	logger  zerolog.Logger
}

// NewFetcher creates a fetcher over a shared rotator
func NewFetcher(synth Synthesizer, rotator *credentials.Rotator, logger zerolog.Logger) *Fetcher {
	return &Fetcher{
		synth:   synth,
		rotator: rotator,
		logger:  logger,
	}
}

// Synthesize returns the raw audio bytes for text. It fails with
// credentials.ErrEmptyPool on an empty pool and with ErrExhaustedPool once
// every credential has been refused. Malformed and transport failures are
// returned immediately without rotating.
func (f *Fetcher) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	poolSize := f.rotator.Len()
	if poolSize == 0 {
		return nil, credentials.ErrEmptyPool
	}

	var (
		audioData []byte
		lastErr   error
	)
	config := resilience.RetryConfig{
		MaxAttempts: poolSize,
		OnRetryable: func(attempt int, err error) {
			lastErr = err
			f.rotator.Advance()
			observability.RecordKeyRotation()
			f.logger.Warn().
				Int("attempt", attempt+1).
				Int("pool_size", poolSize).
				Int("next_key_index", f.rotator.Cursor()).
				Err(err).
				Msg("API key refused, rotating")
		},
	}

	err := resilience.Retry(ctx, config, func(ctx context.Context, attempt int) error {
		key, err := f.rotator.Current()
		if err != nil {
			return err
		}

		start := time.Now()
		data, err := f.synth.Synthesize(ctx, key, text, voiceID)
		if err != nil {
			observability.RecordSynthesis(resilience.ClassOf(err).String(), time.Since(start))
			return err
		}
		observability.RecordSynthesis("success", time.Since(start))

		audioData = data
		return nil
	}, resilience.IsRateLimited)

	switch {
	case err == nil:
		return audioData, nil
	case errors.Is(err, resilience.ErrAttemptsExhausted):
		return nil, fmt.Errorf("%w after %d attempts: %w", ErrExhaustedPool, poolSize, lastErr)
	default:
		return nil, err
	}
}
