package bus

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/rabbitbus/v1/middleware"
	"github.com/Aleph-Alpha/rabbitbus/v1/pipe"
	"github.com/Aleph-Alpha/rabbitbus/v1/rabbit"
	"github.com/Aleph-Alpha/rabbitbus/v1/subscription"
)

// DirectReplyTo is the RabbitMQ pseudo queue requests receive replies on.
const DirectReplyTo = "amq.rabbitmq.reply-to"

// Request publishes msg like Publish and waits for the correlated reply,
// decoded as TResp.
//
// Replies arrive through RabbitMQ direct reply-to on the channel the request
// was published on. The wait is bounded by the Timeout option, the
// configured request timeout, and ctx. A reply reporting a handler failure
// yields an error wrapping ErrRemote.
func Request[TReq, TResp any](ctx context.Context, c *Client, msg TReq, opts ...Option) (TResp, error) {
	var zero TResp
	o := c.options(opts)

	timeout := o.timeout
	if timeout <= 0 {
		timeout = c.defaults.RequestTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	correlationID := o.correlationID
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	action := func(b pipe.Builder) {
		b.Use(middleware.ExecutionIDKey).
			Use(middleware.TracingKey, trace.SpanKindClient).
			Use(middleware.ChannelKey, middleware.ChannelOptions{CloseAfterUse: true}).
			Use(middleware.ExchangeDeclareKey).
			Use(middleware.ConsumeKey).
			Use(middleware.BodySerializationKey).
			Use(middleware.BasicPropertiesKey).
			Use(middleware.PublishKey).
			Use(middleware.ReplyReceiveKey).
			Use(RemoteErrorKey).
			Use(middleware.BodyDeserializationKey)
	}

	pc, err := c.Invoke(ctx, action, func(pc *pipe.Context) {
		pc.Set(pipe.OperationKey, "request")
		o.seedPublish(pc, msg)
		pc.Set(pipe.CorrelationIDKey, correlationID)
		pc.Set(pipe.ReplyToKey, DirectReplyTo)
		pc.Set(pipe.ConsumeConfigurationKey, rabbit.ConsumeConfig{Queue: DirectReplyTo, AutoAck: true})
		pc.Set(pipe.DeserializerKey, decoderFor[TResp]())
	})
	if err != nil {
		return zero, err
	}
	return pipe.Require[TResp](pc, pipe.DeserializedMessageKey)
}

// Respond serves requests of type TReq with handler until the returned
// subscription is closed. Queue and binding options work as for Subscribe.
//
// The reply goes to the requester's reply-to address with the request's
// correlation id and content type. A handler error is sent back as an error
// reply and the request is acked. Requests without a reply-to address are
// handled and acked without a reply.
func Respond[TReq, TResp any](ctx context.Context, c *Client, handler func(ctx context.Context, req TReq) (TResp, error), opts ...Option) (*subscription.Subscription, error) {
	o := c.options(opts)
	o.autoAck = true
	var zero TReq

	return c.subscribe(ctx, "respond", o, o.bindingKey(zero), decoderFor[TReq](), func(ctx context.Context, pc *pipe.Context) error {
		d, err := pipe.Require[amqp.Delivery](pc, pipe.DeliveryKey)
		if err != nil {
			return err
		}
		req, err := pipe.Require[TReq](pc, pipe.DeserializedMessageKey)
		if err != nil {
			return err
		}

		resp, handlerErr := handler(ctx, req)
		if d.ReplyTo == "" {
			return handlerErr
		}
		if handlerErr != nil {
			c.logWarn(ctx, "Request handler failed", handlerErr, map[string]interface{}{
				"queue":          d.RoutingKey,
				"message_id":     d.MessageId,
				"correlation_id": d.CorrelationId,
			})
		}
		return c.reply(ctx, d, resp, handlerErr)
	})
}

// reply publishes resp, or the error of a failed handler, to the reply-to
// address of request.
func (c *Client) reply(ctx context.Context, request amqp.Delivery, resp any, handlerErr error) error {
	action := func(b pipe.Builder) {
		b.Use(middleware.ExecutionIDKey).
			Use(middleware.TracingKey, trace.SpanKindServer).
			Use(middleware.ChannelKey, middleware.ChannelOptions{CloseAfterUse: true}).
			Use(middleware.BodySerializationKey).
			Use(middleware.BasicPropertiesKey).
			Use(middleware.PublishKey)
	}

	_, err := c.Invoke(ctx, action, func(pc *pipe.Context) {
		pc.Set(pipe.OperationKey, "reply")
		pc.Set(pipe.PublishConfigurationKey, rabbit.PublishConfig{RoutingKey: request.ReplyTo})
		pc.Set(pipe.CorrelationIDKey, request.CorrelationId)
		if request.ContentType != "" {
			pc.Set(pipe.ContentTypeKey, request.ContentType)
		}
		if handlerErr != nil {
			pc.Set(pipe.MessageKey, []byte{})
			pc.Set(pipe.HeadersKey, map[string]string{ErrorHeader: handlerErr.Error()})
			return
		}
		pc.Set(pipe.MessageKey, resp)
	})
	if err != nil {
		return fmt.Errorf("reply to %q: %w", request.ReplyTo, err)
	}
	return nil
}
