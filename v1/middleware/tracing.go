package middleware

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/rabbitbus/v1/pipe"
	"github.com/Aleph-Alpha/rabbitbus/v1/rabbit"
	"github.com/Aleph-Alpha/rabbitbus/v1/tracer"
)

type tracing struct {
	pipe.Base
	tracer *tracer.Tracer
	kind   trace.SpanKind
}

func newTracing(r pipe.Resolver, args ...any) (pipe.Linker, error) {
	kind, ok := pipe.Arg[trace.SpanKind](args)
	if !ok {
		kind = trace.SpanKindProducer
	}
	return &tracing{tracer: optional[*tracer.Tracer](r, TracerService), kind: kind}, nil
}

// Invoke wraps the rest of the chain in a span and stores the propagation
// headers under pipe.HeadersKey for basic-properties. Without a tracer the
// node only forwards.
func (m *tracing) Invoke(ctx context.Context, pc *pipe.Context) error {
	if m.tracer == nil {
		return m.Next(ctx, pc)
	}

	operation := pipe.GetOr(pc, pipe.OperationKey, "invoke")
	destination := destinationOf(pc)

	ctx, span := m.tracer.StartSpan(ctx, fmt.Sprintf("%s %s", destination, operation), m.kind)
	defer span.End()

	span.SetAttributes(
		attribute.String("component", "rabbitbus"),
		attribute.String("messaging.system", "rabbitmq"),
		semconv.MessagingDestinationName(destination),
	)
	if id := pipe.Get[string](pc, pipe.GlobalExecutionIDKey); id != "" {
		span.SetAttributes(attribute.String("rabbitbus.execution_id", id))
	}

	headers := pipe.Get[map[string]string](pc, pipe.HeadersKey)
	if headers == nil {
		headers = make(map[string]string)
	}
	for k, v := range m.tracer.Inject(ctx) {
		headers[k] = v
	}
	pc.Set(pipe.HeadersKey, headers)

	err := m.Next(ctx, pc)
	if err != nil {
		m.tracer.RecordErrorOnSpan(span, err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	return err
}

// destinationOf names the exchange or queue the chain talks to.
func destinationOf(pc *pipe.Context) string {
	if cfg, ok := pipe.Lookup[rabbit.PublishConfig](pc, pipe.PublishConfigurationKey); ok {
		if cfg.Exchange != "" {
			return cfg.Exchange
		}
		if cfg.RoutingKey != "" {
			return cfg.RoutingKey
		}
	}
	if cfg, ok := pipe.Lookup[rabbit.ConsumeConfig](pc, pipe.ConsumeConfigurationKey); ok && cfg.Queue != "" {
		return cfg.Queue
	}
	if cfg, ok := pipe.Lookup[GetConfig](pc, pipe.GetConfigurationKey); ok && cfg.Queue != "" {
		return cfg.Queue
	}
	if q := declaredQueue(pc); q != "" {
		return q
	}
	return "(default)"
}
