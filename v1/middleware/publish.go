package middleware

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Aleph-Alpha/rabbitbus/v1/pipe"
	"github.com/Aleph-Alpha/rabbitbus/v1/policy"
	"github.com/Aleph-Alpha/rabbitbus/v1/rabbit"
	"github.com/Aleph-Alpha/rabbitbus/v1/serialization"
)

type bodySerialization struct {
	pipe.Base
	serializers *serialization.Registry
}

func newBodySerialization(r pipe.Resolver, _ ...any) (pipe.Linker, error) {
	serializers := optional[*serialization.Registry](r, SerializersService)
	if serializers == nil {
		serializers = serialization.NewRegistry()
	}
	return &bodySerialization{serializers: serializers}, nil
}

// Invoke serializes pipe.MessageKey into pipe.SerializedMessageKey with the
// serializer named by pipe.ContentTypeKey, or the default one. Raw []byte
// messages are sent as they are.
func (m *bodySerialization) Invoke(ctx context.Context, pc *pipe.Context) error {
	msg, ok := pc.Get(pipe.MessageKey)
	if !ok {
		_, err := pipe.Require[any](pc, pipe.MessageKey)
		return err
	}

	if !pc.Has(pipe.MessageTypeKey) {
		pc.Set(pipe.MessageTypeKey, TypeName(msg))
	}

	if body, raw := msg.([]byte); raw {
		pc.Set(pipe.SerializedMessageKey, body)
		return m.Next(ctx, pc)
	}

	s, err := m.serializers.Lookup(pipe.Get[string](pc, pipe.ContentTypeKey))
	if err != nil {
		return err
	}
	body, err := s.Marshal(msg)
	if err != nil {
		return fmt.Errorf("serialize %T: %w", msg, err)
	}

	pc.Set(pipe.SerializedMessageKey, body)
	pc.Set(pipe.ContentTypeKey, s.ContentType())
	return m.Next(ctx, pc)
}

// TypeName returns the type name of v without package path or pointer.
func TypeName(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

type basicProperties struct {
	pipe.Base
}

func newBasicProperties(pipe.Resolver, ...any) (pipe.Linker, error) {
	return &basicProperties{}, nil
}

// Invoke builds the amqp.Publishing stored under pipe.BasicPropertiesKey. A
// publishing already present there is used as a template and only its empty
// fields are filled in.
func (m *basicProperties) Invoke(ctx context.Context, pc *pipe.Context) error {
	msg := pipe.Get[amqp.Publishing](pc, pipe.BasicPropertiesKey)

	msg.Body = pipe.Get[[]byte](pc, pipe.SerializedMessageKey)
	if msg.ContentType == "" {
		msg.ContentType = pipe.Get[string](pc, pipe.ContentTypeKey)
	}
	if msg.MessageId == "" {
		msg.MessageId = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	if msg.Type == "" {
		msg.Type = pipe.Get[string](pc, pipe.MessageTypeKey)
	}
	if msg.CorrelationId == "" {
		msg.CorrelationId = pipe.Get[string](pc, pipe.CorrelationIDKey)
	}
	if msg.ReplyTo == "" {
		msg.ReplyTo = pipe.Get[string](pc, pipe.ReplyToKey)
	}
	if msg.DeliveryMode == 0 && pipe.Get[rabbit.PublishConfig](pc, pipe.PublishConfigurationKey).Persistent {
		msg.DeliveryMode = amqp.Persistent
	}

	headers := make(amqp.Table, len(msg.Headers))
	for k, v := range msg.Headers {
		headers[k] = v
	}
	for k, v := range pipe.Get[map[string]string](pc, pipe.HeadersKey) {
		headers[k] = v
	}
	if id := pipe.Get[string](pc, pipe.GlobalExecutionIDKey); id != "" {
		headers[ExecutionIDHeader] = id
	}
	if len(headers) > 0 {
		msg.Headers = headers
	}

	pc.Set(pipe.BasicPropertiesKey, msg)
	return m.Next(ctx, pc)
}

type publish struct {
	pipe.Base
}

func newPublish(pipe.Resolver, ...any) (pipe.Linker, error) {
	return &publish{}, nil
}

// Invoke publishes pipe.BasicPropertiesKey as addressed by
// pipe.PublishConfigurationKey.
func (m *publish) Invoke(ctx context.Context, pc *pipe.Context) error {
	cfg, err := pipe.Require[rabbit.PublishConfig](pc, pipe.PublishConfigurationKey)
	if err != nil {
		return err
	}
	msg, err := pipe.Require[amqp.Publishing](pc, pipe.BasicPropertiesKey)
	if err != nil {
		return err
	}
	ch, err := pipe.Require[rabbit.Channel](pc, pipe.ChannelKey)
	if err != nil {
		return err
	}

	err = policy.Execute(ctx, pc, policy.Publish, component, map[string]interface{}{
		"exchange":    cfg.Exchange,
		"routing_key": cfg.RoutingKey,
		"message_id":  msg.MessageId,
	}, func(ctx context.Context) error {
		return ch.Publish(ctx, cfg.Exchange, cfg.RoutingKey, cfg.Mandatory, msg)
	})
	if err != nil {
		return fmt.Errorf("publish to exchange %q with key %q: %w", cfg.Exchange, cfg.RoutingKey, err)
	}
	return m.Next(ctx, pc)
}
