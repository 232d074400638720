// Package observability exposes the worker's Prometheus metrics: one
// registry-scoped Metrics bundle shared by the activities.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the pipeline counters. Label "pass" distinguishes the
// extraction passes (entities, feelings, relationships, concepts).
type Metrics struct {
	ExtractedItems      *prometheus.CounterVec
	ExtractionFailures  *prometheus.CounterVec
	CurationCompletions *prometheus.CounterVec
	CurationDecisions   *prometheus.CounterVec
	GraphWrites         prometheus.Counter
	GraphWriteFailures  prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates and registers the pipeline metrics on a fresh registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		ExtractedItems: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "minerva",
			Name:      "extracted_items_total",
			Help:      "Items produced by the LLM extraction passes.",
		}, []string{"pass"}),
		ExtractionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "minerva",
			Name:      "extraction_failures_total",
			Help:      "Extraction activity attempts that failed after service-level handling.",
		}, []string{"pass"}),
		CurationCompletions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "minerva",
			Name:      "curation_completions_total",
			Help:      "Human curation gates that fully drained.",
		}, []string{"phase"}),
		CurationDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "minerva",
			Name:      "curation_decisions_total",
			Help:      "Accept/reject decisions recorded through the curation surface.",
		}, []string{"decision"}),
		GraphWrites: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "minerva",
			Name:      "graph_writes_total",
			Help:      "Completed graph write stages.",
		}),
		GraphWriteFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "minerva",
			Name:      "graph_write_failures_total",
			Help:      "Graph write stages that failed.",
		}),
		registry: registry,
	}
}

// Handler serves the metrics endpoint for this bundle's registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
