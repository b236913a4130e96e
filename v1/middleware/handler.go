package middleware

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Aleph-Alpha/rabbitbus/v1/ackable"
	"github.com/Aleph-Alpha/rabbitbus/v1/pipe"
	"github.com/Aleph-Alpha/rabbitbus/v1/serialization"
)

type bodyDeserialization struct {
	pipe.Base
	serializers *serialization.Registry
}

func newBodyDeserialization(r pipe.Resolver, _ ...any) (pipe.Linker, error) {
	serializers := optional[*serialization.Registry](r, SerializersService)
	if serializers == nil {
		serializers = serialization.NewRegistry()
	}
	return &bodyDeserialization{serializers: serializers}, nil
}

// Invoke decodes the body of pipe.DeliveryKey with the Decoder under
// pipe.DeserializerKey and stores the value under
// pipe.DeserializedMessageKey. Without a Decoder the raw body is stored.
func (m *bodyDeserialization) Invoke(ctx context.Context, pc *pipe.Context) error {
	d, err := pipe.Require[amqp.Delivery](pc, pipe.DeliveryKey)
	if err != nil {
		return err
	}

	decode, ok := pipe.Lookup[Decoder](pc, pipe.DeserializerKey)
	if !ok {
		pc.Set(pipe.DeserializedMessageKey, d.Body)
		return m.Next(ctx, pc)
	}

	s, err := m.serializers.Lookup(d.ContentType)
	if err != nil {
		return fmt.Errorf("deserialize message %q: %w", d.MessageId, err)
	}
	v, err := decode(s, d.Body)
	if err != nil {
		return fmt.Errorf("deserialize message %q: %w", d.MessageId, err)
	}

	pc.Set(pipe.DeserializedMessageKey, v)
	return m.Next(ctx, pc)
}

type handler struct {
	pipe.Base
}

func newHandler(pipe.Resolver, ...any) (pipe.Linker, error) {
	return &handler{}, nil
}

// Invoke runs the Handler under pipe.MessageHandlerKey and records its
// result under pipe.HandlerResultKey. The rest of the chain runs either way
// so auto-ack can settle a failed message; the handler error is returned.
func (m *handler) Invoke(ctx context.Context, pc *pipe.Context) error {
	h, err := pipe.Require[Handler](pc, pipe.MessageHandlerKey)
	if err != nil {
		return err
	}

	handlerErr := h(ctx, pc)
	pc.Set(pipe.HandlerResultKey, handlerErr)

	if err := m.Next(ctx, pc); err != nil {
		return errors.Join(handlerErr, err)
	}
	return handlerErr
}

type autoAck struct {
	pipe.Base
}

func newAutoAck(pipe.Resolver, ...any) (pipe.Linker, error) {
	return &autoAck{}, nil
}

// Invoke settles the ackable under pipe.AckableKey when pipe.AutoAckKey is
// true: ack when pipe.HandlerResultKey holds no error, nack with requeue
// otherwise. Ackables the handler settled itself are left alone.
func (m *autoAck) Invoke(ctx context.Context, pc *pipe.Context) error {
	if !pipe.Get[bool](pc, pipe.AutoAckKey) {
		return m.Next(ctx, pc)
	}
	a, ok := pipe.Lookup[Settler](pc, pipe.AckableKey)
	if !ok || a.Acknowledged() {
		return m.Next(ctx, pc)
	}

	var err error
	if handlerErr := pipe.Get[error](pc, pipe.HandlerResultKey); handlerErr != nil {
		err = a.Nack(ctx, true)
	} else {
		err = a.Ack(ctx)
	}
	if err != nil && !errors.Is(err, ackable.ErrAlreadyAcknowledged) {
		return err
	}
	return m.Next(ctx, pc)
}
