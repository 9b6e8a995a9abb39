package registry

import (
	"time"

	"github.com/c360studio/semstreams/metric"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsService = "semreg"

// repositoryMetrics holds Prometheus metrics for repository operations.
type repositoryMetrics struct {
	operationsTotal    *prometheus.CounterVec   // By operation and status (ok/error)
	operationDuration  *prometheus.HistogramVec // By operation
	cacheInvalidations *prometheus.CounterVec   // By namespace key
	snapshotElements   *prometheus.GaugeVec     // By namespace key and kind
}

// newRepositoryMetrics creates and registers repository metrics with the provided registry.
func newRepositoryMetrics(registry *metric.MetricsRegistry) (*repositoryMetrics, error) {
	if registry == nil {
		return nil, nil // Metrics disabled
	}

	m := &repositoryMetrics{
		operationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "semreg",
			Subsystem: "repository",
			Name:      "operations_total",
			Help:      "Total number of repository operations",
		}, []string{"operation", "status"}),

		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "semreg",
			Subsystem: "repository",
			Name:      "operation_duration_seconds",
			Help:      "Repository operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),

		cacheInvalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "semreg",
			Subsystem: "repository",
			Name:      "cache_invalidations_total",
			Help:      "Total number of schema cache invalidations",
		}, []string{"namespace"}),

		snapshotElements: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "semreg",
			Subsystem: "repository",
			Name:      "snapshot_elements",
			Help:      "Number of elements in the most recently built snapshot",
		}, []string{"namespace", "kind"}),
	}

	if err := registry.RegisterCounterVec(metricsService, "operations_total", m.operationsTotal); err != nil {
		return nil, err
	}
	if err := registry.RegisterHistogramVec(metricsService, "operation_duration_seconds", m.operationDuration); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec(metricsService, "cache_invalidations_total", m.cacheInvalidations); err != nil {
		return nil, err
	}
	if err := registry.RegisterGaugeVec(metricsService, "snapshot_elements", m.snapshotElements); err != nil {
		return nil, err
	}

	return m, nil
}

// recordOperation observes one repository operation. Safe on a nil
// receiver so call sites don't guard on metrics being enabled.
func (m *repositoryMetrics) recordOperation(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.operationsTotal.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// recordInvalidation counts one cache invalidation.
func (m *repositoryMetrics) recordInvalidation(namespaceKey string) {
	if m == nil {
		return
	}
	m.cacheInvalidations.WithLabelValues(namespaceKey).Inc()
}

// recordSnapshot records the element counts of a freshly built
// snapshot.
func (m *repositoryMetrics) recordSnapshot(namespaceKey string, concepts, relationships, properties int) {
	if m == nil {
		return
	}
	m.snapshotElements.WithLabelValues(namespaceKey, "concept").Set(float64(concepts))
	m.snapshotElements.WithLabelValues(namespaceKey, "relationship").Set(float64(relationships))
	m.snapshotElements.WithLabelValues(namespaceKey, "property").Set(float64(properties))
}
