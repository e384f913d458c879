package generation

import (
	"fmt"
	"math"
	"time"
)

// State is the lifecycle position of a generation run
type State int

const (
	StateIdle State = iota
	StateChunking
	StateFetching
	StateReassembling
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateChunking:
		return "chunking"
	case StateFetching:
		return "fetching"
	case StateReassembling:
		return "reassembling"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Request describes one generation
type Request struct {
	Text    string
	VoiceID string

	// MaxChunkSize overrides the orchestrator's chunk budget when positive
	MaxChunkSize int
}

// ProgressFunc receives the completed percentage (0-100) after each chunk
type ProgressFunc func(percent int)

// Run is the state of one end-to-end generation. It is never persisted.
type Run struct {
	ID         string
	VoiceID    string
	State      State
	Chunks     int
	Completed  int
	Progress   int
	Audio      []byte
	Filename   string
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Filename suggests a download name encoding the voice and a timestamp
func Filename(voiceID string, at time.Time) string {
	return fmt.Sprintf("tts-%s-%d.wav", voiceID, at.UnixMilli())
}

// percent returns round(done/total*100)
func percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}
