// Package metrics provides Prometheus metrics for a rawBeans run.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
	pkgerrors "github.com/pkg/errors"
)

// JobName is the Pushgateway job a run reports under
const JobName = "rawbeans"

// Run holds the metrics of one run. Each run has its own registry, so a batch process
// can push its final values without a long-lived scrape endpoint.
type Run struct {
	Registry *prometheus.Registry

	// RecordsTotal tracks records read from sources
	RecordsTotal prometheus.Counter

	// DuplicatesTotal tracks records dropped as duplicates, by matching rule
	DuplicatesTotal *prometheus.CounterVec

	// SourceErrorsTotal tracks per-source failures by error kind
	SourceErrorsTotal *prometheus.CounterVec

	// EnrichmentAnomaliesTotal tracks records that could not be priced per kilogram
	EnrichmentAnomaliesTotal prometheus.Counter

	// CatalogSize is the size of the merged catalog
	CatalogSize prometheus.Gauge

	// ExchangeRate is the rate used for converted prices, by where it came from
	ExchangeRate *prometheus.GaugeVec

	// StageDuration tracks pipeline stage durations in seconds
	StageDuration *prometheus.HistogramVec
}

// NewRun creates the metrics for one run on a fresh registry
func NewRun() *Run {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Run{
		Registry: registry,
		RecordsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "rawbeans",
			Subsystem: "merge",
			Name:      "records_total",
			Help:      "Total number of records read from supplier sources",
		}),
		DuplicatesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rawbeans",
			Subsystem: "merge",
			Name:      "duplicates_total",
			Help:      "Total number of records dropped as duplicates",
		}, []string{"rule"}),
		SourceErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rawbeans",
			Name:      "source_errors_total",
			Help:      "Total number of supplier sources that were missing or unreadable",
		}, []string{"kind"}),
		EnrichmentAnomaliesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "rawbeans",
			Name:      "enrichment_anomalies_total",
			Help:      "Total number of records without a computable unit price",
		}),
		CatalogSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "rawbeans",
			Name:      "catalog_size",
			Help:      "Number of records in the merged catalog",
		}),
		ExchangeRate: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "rawbeans",
			Name:      "exchange_rate",
			Help:      "Exchange rate used for converted prices",
		}, []string{"source"}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rawbeans",
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages in seconds",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10, 30},
		}, []string{"stage"}),
	}
}

// Push sends the run's metrics to a Pushgateway, grouped by run id
func (r *Run) Push(ctx context.Context, gatewayURL, runID string) error {
	err := push.New(gatewayURL, JobName).
		Gatherer(r.Registry).
		Grouping("run_id", runID).
		PushContext(ctx)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to push metrics to %s", gatewayURL)
	}
	return nil
}
