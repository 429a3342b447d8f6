// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pdiddy/paperfuse/pkg/types"
)

// Namespace prefixes every metric name.
const Namespace = "paperfuse"

// Metrics holds the search pipeline's Prometheus collectors. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	// SourceRequests counts adapter calls, labeled by source.
	SourceRequests *prometheus.CounterVec

	// SourceFailures counts failed adapter calls, labeled by source and failure kind.
	SourceFailures *prometheus.CounterVec

	// SourceDuration observes adapter call latency in seconds, labeled by source.
	SourceDuration *prometheus.HistogramVec

	// PapersReturned counts papers returned, labeled by source.
	PapersReturned *prometheus.CounterVec

	// DuplicatesRemoved counts deduplicated papers, labeled by kind (doi, title).
	DuplicatesRemoved *prometheus.CounterVec

	// SearchDuration observes end-to-end search duration in seconds.
	SearchDuration prometheus.Histogram

	// Relaxations counts searches where include keywords were relaxed.
	Relaxations prometheus.Counter
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SourceRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "source_requests_total",
			Help:      "Total number of source adapter calls",
		}, []string{"source"}),
		SourceFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "source_failures_total",
			Help:      "Total number of failed source adapter calls",
		}, []string{"source", "kind"}),
		SourceDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "source_request_duration_seconds",
			Help:      "Duration of source adapter calls in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"source"}),
		PapersReturned: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "papers_returned_total",
			Help:      "Total number of papers returned by sources",
		}, []string{"source"}),
		DuplicatesRemoved: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "duplicates_removed_total",
			Help:      "Total number of duplicate papers removed",
		}, []string{"kind"}),
		SearchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "search_duration_seconds",
			Help:      "Duration of complete searches in seconds",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
		}),
		Relaxations: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "relaxations_total",
			Help:      "Total number of searches that relaxed include keywords",
		}),
	}
}

// RecordSourceResult records one adapter call. An empty failure kind marks
// success.
func (m *Metrics) RecordSourceResult(source string, papers int, failureKind string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.SourceRequests.WithLabelValues(source).Inc()
	m.SourceDuration.WithLabelValues(source).Observe(durationSeconds)
	if failureKind != "" {
		m.SourceFailures.WithLabelValues(source, failureKind).Inc()
		return
	}
	m.PapersReturned.WithLabelValues(source).Add(float64(papers))
}

// RecordDedupe records the duplicates removed by one pass.
func (m *Metrics) RecordDedupe(stats types.DedupeStats) {
	if m == nil {
		return
	}
	m.DuplicatesRemoved.WithLabelValues("doi").Add(float64(stats.RemovedByDOI))
	m.DuplicatesRemoved.WithLabelValues("title").Add(float64(stats.RemovedByTitle))
}

// RecordSearch records a finished search.
func (m *Metrics) RecordSearch(durationSeconds float64, relaxed bool) {
	if m == nil {
		return
	}
	m.SearchDuration.Observe(durationSeconds)
	if relaxed {
		m.Relaxations.Inc()
	}
}
