package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the Prometheus metrics exposed by the screening service.
type Metrics struct {
	SearchesTotal   *prometheus.CounterVec
	MatchScores     prometheus.Histogram
	BatchItemsTotal *prometheus.CounterVec
	IndexEntries    prometheus.Gauge
	IndexRecords    prometheus.Gauge
	ReloadDuration  prometheus.Histogram
}

// New creates all screening metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SearchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "screening",
				Name:      "searches_total",
				Help:      "Total single screening searches by outcome",
			},
			[]string{"outcome"}, // match, no_match, auto_cleared, auto_confirmed
		),
		MatchScores: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "screening",
				Name:      "match_score",
				Help:      "Confidence scores of returned top matches",
				Buckets:   prometheus.LinearBuckets(50, 5, 11),
			},
		),
		BatchItemsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "screening",
				Name:      "batch_items_total",
				Help:      "Total batch screening items by status",
			},
			[]string{"status"},
		),
		IndexEntries: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "screening",
				Name:      "index_name_entries",
				Help:      "Normalized name entries in the active snapshot",
			},
		),
		IndexRecords: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "screening",
				Name:      "index_records",
				Help:      "Distinct active records in the active snapshot",
			},
		),
		ReloadDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "screening",
				Name:      "reload_duration_seconds",
				Help:      "Time spent rebuilding the index snapshot",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}
}
