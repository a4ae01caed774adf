package infrastructure

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine-facing Prometheus collectors. One instance is
// created at startup and threaded through the data service.
type Metrics struct {
	registry *prometheus.Registry

	DatasetLoads   *prometheus.CounterVec
	DatasetQueries *prometheus.CounterVec
	RowsDropped    *prometheus.CounterVec
	ExportBytes    *prometheus.CounterVec
}

// NewMetrics creates a metrics set on a fresh registry so tests can
// instantiate it repeatedly without duplicate-registration panics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		DatasetLoads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "plapulse_dataset_loads_total",
			Help: "Dataset load operations, by kind and result.",
		}, []string{"kind", "result"}),
		DatasetQueries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "plapulse_dataset_queries_total",
			Help: "Date-range queries served, by kind and result.",
		}, []string{"kind", "result"}),
		RowsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "plapulse_rows_dropped_total",
			Help: "Source rows dropped during normalization, by kind.",
		}, []string{"kind"}),
		ExportBytes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "plapulse_export_bytes_total",
			Help: "Bytes written by CSV/XLSX exports, by format.",
		}, []string{"format"}),
	}
}

// Handler exposes the registry for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
