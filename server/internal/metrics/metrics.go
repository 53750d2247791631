package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every wastestats collector plus the Go runtime and process
// collectors. It is served by Handler.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// RequestTotal counts HTTP requests by method, route and status.
	RequestTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wastestats_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	// RequestDuration is the latency of HTTP requests.
	RequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wastestats_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	// QueriesTotal counts query executions by query name and outcome
	// (ok, not_found, insufficient_data, division_undefined).
	QueriesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wastestats_queries_total",
			Help: "Total number of query executions by outcome",
		},
		[]string{"query", "outcome"},
	)
	// DatasetRecords is the number of records in the table being served.
	DatasetRecords = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "wastestats_dataset_records",
			Help: "Number of records in the served dataset",
		},
	)
	// DatasetSkippedRows is the number of rows dropped by the last load.
	DatasetSkippedRows = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "wastestats_dataset_skipped_rows",
			Help: "Number of unusable rows dropped by the last dataset load",
		},
	)
	// DatasetReloads counts dataset reload attempts by result (success, failure).
	DatasetReloads = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wastestats_dataset_reloads_total",
			Help: "Total number of dataset reloads by result",
		},
		[]string{"result"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves Registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

// ObserveDataset records the size of a freshly loaded table.
func ObserveDataset(records, skipped int) {
	DatasetRecords.Set(float64(records))
	DatasetSkippedRows.Set(float64(skipped))
}
