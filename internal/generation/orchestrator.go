// Package generation sequences chunking, per-chunk synthesis and audio
// reassembly for one request.
package generation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lexiqai/speech-studio/internal/audio"
	"github.com/lexiqai/speech-studio/internal/credentials"
	"github.com/lexiqai/speech-studio/internal/observability"
	"github.com/lexiqai/speech-studio/internal/textchunk"
)

// ErrNoCredentials is returned before any work when the pool is empty.
// It wraps credentials.ErrEmptyPool.
var ErrNoCredentials error = noCredentialsError{}

// ErrEmptyText is returned for blank input
var ErrEmptyText = errors.New("text is empty")

type noCredentialsError struct{}

func (noCredentialsError) Error() string { return "no API keys configured: add a key first" }
func (noCredentialsError) Unwrap() error { return credentials.ErrEmptyPool }

// Fetcher synthesizes one chunk of text
type Fetcher interface {
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}

// Pool reports how many credentials are available
type Pool interface {
	Len() int
}

// Options configures an Orchestrator
type Options struct {
	MaxChunkSize int
	PreviewText  string
	Logger       zerolog.Logger

	// Now defaults to time.Now
	Now func() time.Time
}

// Orchestrator runs generations. Chunks of one run are fetched strictly in
// order, one at a time.
type Orchestrator struct {
	fetcher      Fetcher
	pool         Pool
	maxChunkSize int
	previewText  string
	logger       zerolog.Logger
	now          func() time.Time
}

// NewOrchestrator creates an orchestrator
func NewOrchestrator(fetcher Fetcher, pool Pool, opts Options) *Orchestrator {
	if opts.MaxChunkSize <= 0 {
		opts.MaxChunkSize = textchunk.DefaultMaxChunkSize
	}
	if opts.PreviewText == "" {
		opts.PreviewText = "Hello."
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{
		fetcher:      fetcher,
		pool:         pool,
		maxChunkSize: opts.MaxChunkSize,
		previewText:  opts.PreviewText,
		logger:       opts.Logger,
		now:          opts.Now,
	}
}

// Generate turns req.Text into one WAV file. Progress is reported after
// every chunk. Any failure aborts the run and discards partial audio; the
// returned Run is then in StateFailed and carries the error.
func (o *Orchestrator) Generate(ctx context.Context, req Request, progress ProgressFunc) (*Run, error) {
	run := &Run{
		ID:        observability.NewRunID(),
		VoiceID:   req.VoiceID,
		State:     StateIdle,
		StartedAt: o.now(),
	}
	logger := observability.WithRunID(o.logger, run.ID)

	if strings.TrimSpace(req.Text) == "" {
		return o.fail(run, logger, nil, ErrEmptyText)
	}
	if o.pool.Len() == 0 {
		return o.fail(run, logger, nil, ErrNoCredentials)
	}

	metrics := observability.NewRunMetrics()

	maxChunkSize := o.maxChunkSize
	if req.MaxChunkSize > 0 {
		maxChunkSize = req.MaxChunkSize
	}

	o.transition(run, logger, StateChunking)
	chunks := textchunk.Split(req.Text, maxChunkSize)
	run.Chunks = len(chunks)

	logger.Info().
		Str("voice", req.VoiceID).
		Int("characters", len([]rune(req.Text))).
		Int("chunks", run.Chunks).
		Int("max_chunk_size", maxChunkSize).
		Msg("Generation started")

	o.transition(run, logger, StateFetching)
	fragments := make([][]byte, 0, len(chunks))
	for i, chunk := range chunks {
		data, err := o.fetcher.Synthesize(ctx, chunk, req.VoiceID)
		if err != nil {
			logger.Error().Err(err).Int("chunk", i+1).Int("chunks", run.Chunks).Msg("Chunk synthesis failed")
			if errors.Is(err, credentials.ErrEmptyPool) {
				err = ErrNoCredentials
			}
			return o.fail(run, logger, metrics, err)
		}

		fragments = append(fragments, data)
		metrics.RecordChunk()

		run.Completed = i + 1
		run.Progress = percent(run.Completed, run.Chunks)
		logger.Debug().Int("chunk", run.Completed).Int("bytes", len(data)).Int("progress", run.Progress).Msg("Chunk synthesized")
		if progress != nil {
			progress(run.Progress)
		}
	}

	o.transition(run, logger, StateReassembling)
	run.Audio = audio.Assemble(fragments)
	run.Filename = Filename(req.VoiceID, o.now())

	o.transition(run, logger, StateDone)
	run.FinishedAt = o.now()
	metrics.RecordEnd("success", len(run.Audio))

	logger.Info().
		Int("bytes", len(run.Audio)).
		Dur("audio_duration", audio.Duration(len(run.Audio)-audio.HeaderSize)).
		Dur("elapsed", run.FinishedAt.Sub(run.StartedAt)).
		Str("filename", run.Filename).
		Msg("Generation finished")

	return run, nil
}

// Preview synthesizes the preview phrase for voiceID as a playable WAV.
// It shares the credential rotator with full runs but no run state.
func (o *Orchestrator) Preview(ctx context.Context, voiceID string) ([]byte, error) {
	if o.pool.Len() == 0 {
		return nil, ErrNoCredentials
	}

	data, err := o.fetcher.Synthesize(ctx, o.previewText, voiceID)
	if err != nil {
		if errors.Is(err, credentials.ErrEmptyPool) {
			return nil, ErrNoCredentials
		}
		o.logger.Warn().Err(err).Str("voice", voiceID).Msg("Preview failed")
		return nil, err
	}
	return audio.EnsureContainer(data), nil
}

func (o *Orchestrator) transition(run *Run, logger zerolog.Logger, next State) {
	logger.Debug().Str("from", run.State.String()).Str("to", next.String()).Msg("Run state")
	run.State = next
}

// fail ends run with err. A nil metrics means the run was rejected before
// any work started.
func (o *Orchestrator) fail(run *Run, logger zerolog.Logger, metrics *observability.RunMetrics, err error) (*Run, error) {
	o.transition(run, logger, StateFailed)
	run.Err = err
	run.Audio = nil
	run.FinishedAt = o.now()
	if metrics != nil {
		metrics.RecordEnd("failed", 0)
	} else {
		observability.RecordRunRejected()
	}
	return run, err
}
