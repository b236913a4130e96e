// Package metrics records rabbitbus operations in Prometheus.
//
// *Metrics implements observability.Observer, so it can be handed to the
// rabbit client and the bus client as their observer. Every reported
// operation increments
//
//	rabbitbus_operations_total{component, operation, status}
//
// where status is "success" or "error", and observes its wall time in
// rabbitbus_operation_duration_seconds{component, operation}. Operations
// that carry a body size also feed rabbitbus_payload_size_bytes.
//
// Each Metrics owns an isolated registry. When ServiceName is set every
// metric also carries a constant service label. The registry is served at
// /metrics on Config.Address; under fx the server follows the application
// lifecycle:
//
//	app := fx.New(
//		metrics.FXModule,
//		fx.Supply(metrics.Config{Address: ":9090", ServiceName: "billing"}),
//	)
//
// Without fx:
//
//	m := metrics.NewMetrics(metrics.Config{})
//	go m.Server.ListenAndServe()
//	client := bus.New(factory, bus.WithObserver(m))
//
// Applications can add their own series on the same registry with
// CreateCounter, CreateHistogram and CreateGauge; they share the namespace.
//
// Environment variables:
//
//	METRICS_ADDRESS=:9090
//	METRICS_ENABLE_DEFAULT_COLLECTORS=true
//	METRICS_NAMESPACE=rabbitbus
//	METRICS_SERVICE_NAME=billing
package metrics
