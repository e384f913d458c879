package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Generation run metrics
	activeRuns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "speech_studio_active_runs",
		Help: "Number of generation runs in flight",
	})

	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "speech_studio_runs_total",
		Help: "Total number of generation runs by final status",
	}, []string{"status"})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "speech_studio_run_duration_seconds",
		Help:    "Duration of generation runs in seconds",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	})

	chunksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "speech_studio_chunks_total",
		Help: "Total number of text chunks synthesized",
	})

	// Synthesis request metrics
	synthesisRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "speech_studio_synthesis_requests_total",
		Help: "Total number of synthesis requests by outcome",
	}, []string{"outcome"})

	synthesisLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "speech_studio_synthesis_latency_seconds",
		Help:    "Synthesis request latency in seconds",
		Buckets: []float64{0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
	})

	keyRotations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "speech_studio_key_rotations_total",
		Help: "Total number of credential rotations after rate limiting",
	})

	// Audio metrics
	audioBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "speech_studio_audio_bytes_total",
		Help: "Total bytes of assembled audio produced",
	})
)

// RunMetrics tracks metrics for a single generation run
type RunMetrics struct {
	startTime time.Time
}

// NewRunMetrics starts tracking a generation run
func NewRunMetrics() *RunMetrics {
	activeRuns.Inc()
	return &RunMetrics{startTime: time.Now()}
}

// RecordChunk records one synthesized chunk
func (m *RunMetrics) RecordChunk() {
	chunksTotal.Inc()
}

// RecordEnd records the end of a run with its final status
func (m *RunMetrics) RecordEnd(status string, bytes int) {
	activeRuns.Dec()
	runDuration.Observe(time.Since(m.startTime).Seconds())
	runsTotal.WithLabelValues(status).Inc()
	if bytes > 0 {
		audioBytes.Add(float64(bytes))
	}
}

// RecordRunRejected counts a run refused before any work started
func RecordRunRejected() {
	runsTotal.WithLabelValues("rejected").Inc()
}

// RecordSynthesis records one synthesis request and its outcome
func RecordSynthesis(outcome string, latency time.Duration) {
	synthesisRequests.WithLabelValues(outcome).Inc()
	synthesisLatency.Observe(latency.Seconds())
}

// RecordKeyRotation increments the rotation counter
func RecordKeyRotation() {
	keyRotations.Inc()
}
