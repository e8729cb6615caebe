package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline counters, exported on /metrics. Labels stay low-cardinality:
// category names, not call IDs.
var (
	SegmentsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "copilot",
		Name:      "segments_processed_total",
		Help:      "Final transcript segments run through the analysis fan-out.",
	})

	SegmentsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "copilot",
		Name:      "segments_dropped_total",
		Help:      "Final segments dropped because the analysis queue was full.",
	})

	NudgesRaised = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "copilot",
		Name:      "nudges_raised_total",
		Help:      "Coaching nudges raised, by category.",
	}, []string{"category"})

	TriggersRaised = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "copilot",
		Name:      "cue_card_triggers_total",
		Help:      "Cue card triggers raised, by objection category.",
	}, []string{"category"})

	CallsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "copilot",
		Name:      "calls_started_total",
		Help:      "Call sessions started.",
	})

	CallsEnded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "copilot",
		Name:      "calls_ended_total",
		Help:      "Call sessions ended.",
	})

	GenerationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "copilot",
		Name:      "generation_latency_seconds",
		Help:      "Latency of LLM completion calls.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	})

	GenerationErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "copilot",
		Name:      "generation_errors_total",
		Help:      "Failed LLM completion calls.",
	})
)
