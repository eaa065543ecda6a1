// Package metrics registers the Prometheus collectors used by the engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Extraction sources.
const (
	SourceLocal    = "local"
	SourceRemote   = "remote"
	SourceFallback = "fallback"
)

var (
	TurnsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dexter_turns_processed_total",
			Help: "Total number of conversation turns processed, by resulting state",
		},
		[]string{"kind", "state"},
	)

	TurnsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dexter_turns_rejected_total",
			Help: "Total number of turns rejected before processing",
		},
		[]string{"reason"},
	)

	Extractions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dexter_extractions_total",
			Help: "Total number of entity extractions, by source",
		},
		[]string{"source"},
	)

	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dexter_llm_request_duration_seconds",
			Help:    "Duration of language model calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)

	LLMFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dexter_llm_failures_total",
			Help: "Total number of failed language model calls",
		},
		[]string{"model", "reason"},
	)

	CatalogFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dexter_catalog_failures_total",
			Help: "Total number of failed package catalog queries",
		},
	)

	PackagesRecommended = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dexter_packages_recommended",
			Help:    "Number of packages returned per recommendation",
			Buckets: []float64{0, 1, 2, 3},
		},
	)

	HandoverNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dexter_handover_notifications_total",
			Help: "Total number of adviser handover notifications, by channel and result",
		},
		[]string{"channel", "result"},
	)
)
