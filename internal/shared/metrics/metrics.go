package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry = prometheus.NewRegistry()

	reportsBuiltTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reports_built_total",
			Help: "Total reports built",
		},
		[]string{"kind"},
	)
	reportsFailedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reports_failed_total",
			Help: "Total report builds that failed to fetch their inputs",
		},
		[]string{"kind"},
	)
	exportsDeliveredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exports_delivered_total",
			Help: "Total export files handed to a sink",
		},
		[]string{"format"},
	)
	reportBuildDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "report_build_duration_seconds",
			Help:    "Report build duration in seconds, fetch included",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"kind"},
	)
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		reportsBuiltTotal,
		reportsFailedTotal,
		exportsDeliveredTotal,
		reportBuildDuration,
	)
}

// IncReportBuilt increments the built counter for kind.
func IncReportBuilt(kind string) {
	reportsBuiltTotal.WithLabelValues(kind).Inc()
}

// IncReportFailed increments the failed counter for kind.
func IncReportFailed(kind string) {
	reportsFailedTotal.WithLabelValues(kind).Inc()
}

// IncExportDelivered increments the delivered counter for format.
func IncExportDelivered(format string) {
	exportsDeliveredTotal.WithLabelValues(format).Inc()
}

// ObserveReportDuration records how long a report build took.
func ObserveReportDuration(kind string, d time.Duration) {
	if d < 0 {
		d = 0
	}
	reportBuildDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// Registry exposes the collector registry, mainly for tests.
func Registry() *prometheus.Registry {
	return registry
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
