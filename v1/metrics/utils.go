package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Aleph-Alpha/rabbitbus/v1/observability"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// ObserveOperation implements observability.Observer. It records one
// operation reported by the rabbit client or the bus client.
//
// Parameters:
//   - op: The reported operation. Component and Operation become labels,
//     Error decides the status label, Duration feeds the duration histogram
//     and a positive Size feeds the payload histogram.
//
// Example:
//
//	m.ObserveOperation(observability.OperationContext{
//	    Component: "bus",
//	    Operation: "publish",
//	    Duration:  12 * time.Millisecond,
//	    Size:      512,
//	})
func (m *Metrics) ObserveOperation(op observability.OperationContext) {
	status := statusSuccess
	if op.Error != nil {
		status = statusError
	}

	m.operationsTotal.WithLabelValues(op.Component, op.Operation, status).Inc()
	m.operationDuration.WithLabelValues(op.Component, op.Operation).Observe(op.Duration.Seconds())

	if op.Size > 0 {
		m.payloadSize.WithLabelValues(op.Component, op.Operation).Observe(float64(op.Size))
	}
}

// CreateCounter creates a new CounterVec metric and registers it.
//
// Parameters:
//   - name: Metric name, prefixed with the configured namespace
//   - help: Help text exposed with the metric
//   - labels: Label names of the vector
//
// Returns the registered counter vector. Registering the same name twice
// panics, as with prometheus.MustRegister.
//
// Example:
//
//	rejected := m.CreateCounter("orders_rejected_total", "Rejected orders", []string{"reason"})
//	rejected.WithLabelValues("out_of_stock").Inc()
func (m *Metrics) CreateCounter(name, help string, labels []string) *prometheus.CounterVec {
	counter := createCounterVec(m.namespace, name, help, labels)
	m.registerer.MustRegister(counter)
	return counter
}

// CreateHistogram creates a new HistogramVec metric and registers it.
//
// Parameters:
//   - name: Metric name, prefixed with the configured namespace
//   - help: Help text exposed with the metric
//   - labels: Label names of the vector
//   - buckets: Upper bounds of the buckets; nil selects prometheus.DefBuckets
//
// Returns the registered histogram vector.
func (m *Metrics) CreateHistogram(name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	hist := createHistogramVec(m.namespace, name, help, labels, buckets)
	m.registerer.MustRegister(hist)
	return hist
}

// CreateGauge creates a new GaugeVec metric and registers it.
//
// Parameters:
//   - name: Metric name, prefixed with the configured namespace
//   - help: Help text exposed with the metric
//   - labels: Label names of the vector
//
// Returns the registered gauge vector.
func (m *Metrics) CreateGauge(name, help string, labels []string) *prometheus.GaugeVec {
	gauge := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Name:      name,
			Help:      help,
		},
		labels,
	)
	m.registerer.MustRegister(gauge)
	return gauge
}

func createCounterVec(namespace, name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		},
		labels,
	)
}

func createHistogramVec(namespace, name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
			Buckets:   buckets,
		},
		labels,
	)
}
