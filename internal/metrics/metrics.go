// Package metrics exposes Prometheus counters for the analysis pipeline.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// LogsLoaded counts load attempts by result (ok, malformed_json, invalid_schema, error).
	LogsLoaded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "beaconbay",
			Name:      "logs_loaded_total",
			Help:      "Total number of scan log load attempts",
		},
		[]string{"result"},
	)

	// DevicesAnalyzed counts devices that made it through the record tier.
	DevicesAnalyzed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "beaconbay",
			Name:      "devices_analyzed_total",
			Help:      "Total number of devices aggregated",
		},
	)

	// ChartsRendered counts chart requests by kind and outcome.
	ChartsRendered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "beaconbay",
			Name:      "charts_rendered_total",
			Help:      "Total number of chart render requests",
		},
		[]string{"kind", "outcome"},
	)

	// ExportsCreated counts export bundles.
	ExportsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "beaconbay",
			Name:      "exports_total",
			Help:      "Total number of export bundles created",
		},
	)

	// MappingErrors counts failed mapping store operations.
	MappingErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "beaconbay",
			Name:      "mapping_errors_total",
			Help:      "Total number of failed mapping store operations",
		},
		[]string{"op"},
	)

	// PipelineDuration tracks how long each pipeline stage takes.
	PipelineDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "beaconbay",
			Name:      "pipeline_duration_seconds",
			Help:      "Duration of pipeline stages",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		},
		[]string{"stage"},
	)

	once sync.Once
)

// InitMetrics registers all metrics with the default registry. Safe to call repeatedly.
func InitMetrics() {
	once.Do(func() {
		prometheus.DefaultRegisterer.Register(LogsLoaded)
		prometheus.DefaultRegisterer.Register(DevicesAnalyzed)
		prometheus.DefaultRegisterer.Register(ChartsRendered)
		prometheus.DefaultRegisterer.Register(ExportsCreated)
		prometheus.DefaultRegisterer.Register(MappingErrors)
		prometheus.DefaultRegisterer.Register(PipelineDuration)
	})
}

// ObserveStage records the time since start for stage.
func ObserveStage(stage string, start time.Time) {
	PipelineDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
