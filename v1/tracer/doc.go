// Package tracer wires OpenTelemetry tracing into rabbitbus.
//
// A Tracer owns an sdk TracerProvider and a W3C trace-context plus baggage
// propagator. Publishers call Inject to turn the active span into message
// headers; consumers call Extract on the received headers so the handler
// span continues the producer's trace.
//
//	t, err := tracer.NewClient(tracer.Config{ServiceName: "billing"}, log)
//	if err != nil {
//		return err
//	}
//	ctx, span := t.StartSpan(ctx, "orders publish", trace.SpanKindProducer)
//	defer span.End()
//	headers := t.Inject(ctx)
//
// Export is off by default. With EnableExport the provider batches spans to
// the OTLP/HTTP endpoint named by OTEL_EXPORTER_OTLP_ENDPOINT.
package tracer
