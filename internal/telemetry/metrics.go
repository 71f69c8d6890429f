// Package telemetry watches the frame loop: prometheus metrics, a goakt actor
// that logs a rolling frame rate, and the HTTP endpoint serving the metrics.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lao-tseu-is-alive/go-gpu-boids/internal/engine"
)

var (
	// Frames counts finished frame cycles by result
	Frames = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boids_frames_total",
			Help: "Frame cycles by result (presented, skipped, reconfigured, failed)",
		},
		[]string{"result"},
	)

	// FrameDelta tracks the measured time between frames
	FrameDelta = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "boids_frame_delta_seconds",
			Help:    "Measured frame delta fed to the simulation",
			Buckets: []float64{0.004, 0.008, 0.0167, 0.025, 0.033, 0.05, 0.1, 0.25, 1},
		},
	)

	Agents = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "boids_agents",
			Help: "Agents per slot",
		},
	)

	FrameIndex = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "boids_frame_index",
			Help: "Frames that submitted compute work",
		},
	)
)

// FrameMetrics records every frame report into the package metrics.
type FrameMetrics struct{}

var _ engine.Observer = FrameMetrics{}

func (FrameMetrics) ObserveFrame(r engine.FrameReport) {
	Frames.WithLabelValues(r.Result.String()).Inc()
	FrameDelta.Observe(r.Delta.Seconds())
	Agents.Set(float64(r.Agents))
	FrameIndex.Set(float64(r.Index))
}
