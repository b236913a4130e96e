package bus

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Aleph-Alpha/rabbitbus/v1/ackable"
	"github.com/Aleph-Alpha/rabbitbus/v1/middleware"
	"github.com/Aleph-Alpha/rabbitbus/v1/pipe"
	"github.com/Aleph-Alpha/rabbitbus/v1/rabbit"
	"github.com/Aleph-Alpha/rabbitbus/v1/subscription"
)

// Subscribe consumes messages of type T and passes each to handler until the
// returned subscription is closed.
//
// The QueueName option selects a shared, declared queue; without it a
// private server-named queue is used. When an exchange is configured the
// queue is bound to it with the RoutingKey option, or the name of T.
//
// With AutoAck(true) a message is acked when handler returns nil and nacked
// with requeue when it fails. Without it the handler settles the message
// through the Ackable. Messages that cannot be decoded are rejected without
// requeue when AutoAck is on.
func Subscribe[T any](ctx context.Context, c *Client, handler func(ctx context.Context, msg *ackable.Ackable[T]) error, opts ...Option) (*subscription.Subscription, error) {
	o := c.options(opts)
	var zero T

	return c.subscribe(ctx, "subscribe", o, o.bindingKey(zero), decoderFor[T](), func(ctx context.Context, pc *pipe.Context) error {
		raw, err := pipe.Require[*ackable.Ackable[amqp.Delivery]](pc, pipe.AckableKey)
		if err != nil {
			return err
		}
		msg, err := ackable.Map(raw, func(amqp.Delivery) (T, error) {
			return pipe.Require[T](pc, pipe.DeserializedMessageKey)
		})
		if err != nil {
			return err
		}
		return handler(ctx, msg)
	})
}

// subscribe starts a consumer running handle for every delivery.
func (c *Client) subscribe(ctx context.Context, operation string, o options, bindingKey string, decode middleware.Decoder, handle middleware.Handler) (*subscription.Subscription, error) {
	if o.queueName == "" && o.exchangeName == "" {
		return nil, ErrNoDestination
	}

	action := func(b pipe.Builder) {
		b.Use(middleware.ChannelKey).
			Use(middleware.ExchangeDeclareKey).
			Use(middleware.QueueDeclareKey).
			Use(middleware.QueueBindKey).
			Use(middleware.ConsumeKey).
			Use(middleware.SubscriptionKey).
			Use(middleware.MessageDispatchKey).
			Use(middleware.BodyDeserializationKey).
			Use(middleware.HandlerKey).
			Use(middleware.AutoAckKey)
	}

	pc, err := c.Invoke(ctx, action, func(pc *pipe.Context) {
		pc.Set(pipe.OperationKey, operation)
		pc.Set(pipe.QueueDeclarationKey, o.queue())
		if o.exchangeName != "" {
			pc.Set(pipe.ExchangeDeclarationKey, o.exchange())
			pc.Set(pipe.QueueBindingKey, rabbit.QueueBinding{Exchange: o.exchangeName, RoutingKey: bindingKey})
		}
		pc.Set(pipe.ConsumeConfigurationKey, rabbit.ConsumeConfig{})
		pc.Set(pipe.PrefetchCountKey, o.prefetchCount)
		pc.Set(pipe.AutoAckKey, o.autoAck)
		pc.Set(pipe.DeserializerKey, decode)
		pc.Set(pipe.MessageHandlerKey, middleware.Handler(func(ctx context.Context, pc *pipe.Context) error {
			if d, ok := pipe.Lookup[amqp.Delivery](pc, pipe.DeliveryKey); ok {
				ctx = withDelivery(ctx, d)
			}
			return handle(ctx, pc)
		}))
	})
	if err != nil {
		return nil, err
	}
	return pipe.Require[*subscription.Subscription](pc, pipe.SubscriptionKey)
}
