package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/Aleph-Alpha/rabbitbus/v1/observability"
)

func TestObserveOperationCountsByStatus(t *testing.T) {
	m := NewMetrics(Config{})

	m.ObserveOperation(observability.OperationContext{
		Component: "rabbit",
		Operation: "produce",
		Resource:  "orders",
		Duration:  15 * time.Millisecond,
		Size:      512,
	})
	m.ObserveOperation(observability.OperationContext{
		Component: "rabbit",
		Operation: "produce",
		Duration:  time.Millisecond,
		Error:     errors.New("channel closed"),
	})
	m.ObserveOperation(observability.OperationContext{
		Component: "bus",
		Operation: "invoke",
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("rabbit", "produce", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("rabbit", "produce", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("bus", "invoke", "success")))

	assert.Equal(t, 2, testutil.CollectAndCount(m.operationDuration))
	assert.Equal(t, 1, testutil.CollectAndCount(m.payloadSize))
}

func TestMetricNamesAndServiceLabel(t *testing.T) {
	m := NewMetrics(Config{ServiceName: "billing"})
	m.ObserveOperation(observability.OperationContext{Component: "ackable", Operation: "ack"})

	families, err := m.Registry.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
		for _, metric := range f.GetMetric() {
			var service string
			for _, label := range metric.GetLabel() {
				if label.GetName() == "service" {
					service = label.GetValue()
				}
			}
			assert.Equal(t, "billing", service, f.GetName())
		}
	}
	assert.True(t, names["rabbitbus_operations_total"])
	assert.True(t, names["rabbitbus_operation_duration_seconds"])
}

func TestCustomMetricsShareNamespace(t *testing.T) {
	m := NewMetrics(Config{Namespace: "orders"})

	counter := m.CreateCounter("retries_total", "Retries", []string{"queue"})
	counter.WithLabelValues("q").Add(3)
	m.CreateGauge("inflight", "In flight", nil).WithLabelValues().Set(2)
	m.CreateHistogram("batch_size", "Batch size", nil, []float64{1, 5, 10}).WithLabelValues().Observe(4)

	assert.Equal(t, 3.0, testutil.ToFloat64(counter.WithLabelValues("q")))

	families, err := m.Registry.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "orders_retries_total")
	assert.Contains(t, names, "orders_inflight")
	assert.Contains(t, names, "orders_batch_size")
}

func TestMetricsEndpoint(t *testing.T) {
	m := NewMetrics(Config{EnableDefaultCollectors: true})
	m.ObserveOperation(observability.OperationContext{Component: "rabbit", Operation: "consume"})

	srv := httptest.NewServer(m.Server.Handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `rabbitbus_operations_total{component="rabbit",operation="consume",status="success"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestFXModuleProvidesObserver(t *testing.T) {
	var observer observability.Observer
	app := fxtest.New(t,
		FXModule,
		fx.Supply(Config{Address: "127.0.0.1:0"}),
		fx.Populate(&observer),
	)
	app.RequireStart()

	m, ok := observer.(*Metrics)
	require.True(t, ok)
	observer.ObserveOperation(observability.OperationContext{Component: "bus", Operation: "invoke"})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("bus", "invoke", "success")))

	app.RequireStop()
}
