package bus

import (
	"context"
	"maps"

	"go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/rabbitbus/v1/middleware"
	"github.com/Aleph-Alpha/rabbitbus/v1/pipe"
	"github.com/Aleph-Alpha/rabbitbus/v1/rabbit"
)

// Publish serializes msg and publishes it.
//
// The message goes to the ExchangeName option or the configured default
// exchange, which is declared on first use. The routing key is the
// RoutingKey option, the QueueName option on the default exchange, or the
// message type name. When QueueName is given the queue is declared and bound
// so the message has somewhere to go.
func (c *Client) Publish(ctx context.Context, msg any, opts ...Option) error {
	o := c.options(opts)

	_, err := c.Invoke(ctx, publishAction(o), func(pc *pipe.Context) {
		pc.Set(pipe.OperationKey, "publish")
		o.seedPublish(pc, msg)
	})
	return err
}

func publishAction(o options) pipe.Action {
	return func(b pipe.Builder) {
		b.Use(middleware.ExecutionIDKey).
			Use(middleware.TracingKey, trace.SpanKindProducer).
			Use(middleware.ChannelKey, middleware.ChannelOptions{CloseAfterUse: true}).
			Use(middleware.ExchangeDeclareKey)
		if o.queueName != "" {
			b.Use(middleware.QueueDeclareKey).
				Use(middleware.QueueBindKey)
		}
		b.Use(middleware.BodySerializationKey).
			Use(middleware.BasicPropertiesKey).
			Use(middleware.PublishKey)
	}
}

// seedPublish stores the message and its addressing in pc.
func (o options) seedPublish(pc *pipe.Context, msg any) {
	key := o.publishKey(msg)

	pc.Set(pipe.MessageKey, msg)
	if o.exchangeName != "" {
		pc.Set(pipe.ExchangeDeclarationKey, o.exchange())
	}
	if o.queueName != "" {
		pc.Set(pipe.QueueDeclarationKey, o.queue())
		pc.Set(pipe.QueueBindingKey, rabbit.QueueBinding{Exchange: o.exchangeName, RoutingKey: key})
	}
	pc.Set(pipe.PublishConfigurationKey, rabbit.PublishConfig{
		Exchange:   o.exchangeName,
		RoutingKey: key,
		Persistent: o.durable,
	})

	if o.contentType != "" {
		pc.Set(pipe.ContentTypeKey, o.contentType)
	}
	if o.correlationID != "" {
		pc.Set(pipe.CorrelationIDKey, o.correlationID)
	}
	if len(o.headers) > 0 {
		pc.Set(pipe.HeadersKey, maps.Clone(o.headers))
	}
}

func (o options) exchange() rabbit.ExchangeDeclaration {
	return rabbit.ExchangeDeclaration{
		Name:    o.exchangeName,
		Type:    o.exchangeType,
		Durable: o.durable,
	}
}

// queue declares the QueueName option, or a server-named queue private to
// the consumer when no name is given.
func (o options) queue() rabbit.QueueDeclaration {
	if o.queueName == "" {
		return rabbit.QueueDeclaration{Exclusive: true, AutoDelete: true}
	}
	return rabbit.QueueDeclaration{Name: o.queueName, Durable: o.durable}
}
