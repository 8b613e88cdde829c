// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DiscoverySurfaces = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_gateway_discovery_surfaces_total",
			Help: "Model listing calls by API version and result",
		},
		[]string{"api_version", "result"},
	)

	ProbeAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_gateway_probe_attempts_total",
			Help: "Generation attempts by API version and outcome",
		},
		[]string{"api_version", "outcome"},
	)

	ProbeExhausted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "advisor_gateway_probe_exhausted_total",
			Help: "Requests where every model candidate failed",
		},
	)

	ComposerSlots = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_gateway_composer_slots_total",
			Help: "Composed provider results by provider and availability",
		},
		[]string{"provider", "result"},
	)

	Translations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_gateway_translations_total",
			Help: "Localization passes by result (cache_hit, translated, fallback)",
		},
		[]string{"result"},
	)

	GenerationLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "advisor_gateway_generation_seconds",
			Help:    "Time to obtain raw answer text per strategy",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"strategy"},
	)
)
