package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConversationsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dialogue_conversations_active",
		Help: "Currently running conversation tasks",
	})

	ConversationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dialogue_conversations_total",
		Help: "Total conversations started",
	})

	TurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dialogue_turns_total",
		Help: "Generated turns by entity",
	}, []string{"entity"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dialogue_stage_duration_seconds",
		Help:    "Per-stage latency",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 3.0, 5.0, 10.0},
	}, []string{"stage"})

	HandshakeOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dialogue_handshake_outcomes_total",
		Help: "Playback handshake results",
	}, []string{"outcome"})

	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dialogue_errors_total",
		Help: "Error counts by stage",
	}, []string{"stage", "error_type"})

	ArtifactsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dialogue_artifacts_deleted_total",
		Help: "Audio artifacts removed by deferred cleanup",
	})
)
