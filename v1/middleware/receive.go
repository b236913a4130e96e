package middleware

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Aleph-Alpha/rabbitbus/v1/ackable"
	"github.com/Aleph-Alpha/rabbitbus/v1/pipe"
	"github.com/Aleph-Alpha/rabbitbus/v1/policy"
	"github.com/Aleph-Alpha/rabbitbus/v1/rabbit"
	"github.com/Aleph-Alpha/rabbitbus/v1/subscription"
	"github.com/Aleph-Alpha/rabbitbus/v1/tracer"
)

type basicGet struct {
	pipe.Base
}

func newBasicGet(pipe.Resolver, ...any) (pipe.Linker, error) {
	return &basicGet{}, nil
}

// Invoke fetches up to BatchSize messages with basic.get on one channel and
// stops early at the first empty answer. The result is a DeliveryBatch under
// pipe.AckableKey, empty but never nil. When the chain owns the channel the
// batch takes it over and closes it on Dispose.
func (m *basicGet) Invoke(ctx context.Context, pc *pipe.Context) error {
	cfg, err := pipe.Require[GetConfig](pc, pipe.GetConfigurationKey)
	if err != nil {
		return err
	}
	if cfg.Queue == "" {
		cfg.Queue = declaredQueue(pc)
	}

	ackPolicy := policy.FromContext(pc, policy.Ack)
	items := make([]*ackable.Ackable[amqp.Delivery], 0, max(cfg.BatchSize, 0))

	var ch rabbit.Channel
	if cfg.BatchSize > 0 {
		if cfg.Queue == "" {
			return fmt.Errorf("basic.get: %w", ErrNoQueue)
		}
		if ch, err = pipe.Require[rabbit.Channel](pc, pipe.ChannelKey); err != nil {
			return err
		}
	}

	for len(items) < cfg.BatchSize {
		var (
			d     amqp.Delivery
			found bool
		)
		err := policy.Execute(ctx, pc, policy.BasicGet, component, map[string]interface{}{
			"queue":   cfg.Queue,
			"fetched": len(items),
		}, func(ctx context.Context) error {
			var err error
			d, found, err = ch.Get(ctx, cfg.Queue, false)
			return err
		})
		if err != nil {
			return fmt.Errorf("basic.get from %q: %w", cfg.Queue, err)
		}
		if !found {
			break
		}
		items = append(items, ackable.FromDelivery(d, ch, ackable.WithPolicy(ackPolicy)))
	}

	opts := []ackable.Option{ackable.WithPolicy(ackPolicy)}
	if ch != nil && pipe.Get[bool](pc, pipe.ChannelOwnedKey) {
		opts = append(opts, ackable.WithRelease(func() { _ = ch.Close() }))
		pc.Set(pipe.ChannelOwnedKey, false)
	}

	var acker ackable.Acknowledger
	if ch != nil {
		acker = ch
	}
	pc.Set(pipe.AckableKey, ackable.NewBatch(items, acker, opts...))
	pc.Set(pipe.DeliveryFoundKey, len(items) > 0)
	return m.Next(ctx, pc)
}

type consume struct {
	pipe.Base
}

func newConsume(pipe.Resolver, ...any) (pipe.Linker, error) {
	return &consume{}, nil
}

// Invoke registers a consumer as configured under
// pipe.ConsumeConfigurationKey and stores it under pipe.ConsumerKey. A
// positive pipe.PrefetchCountKey is applied to the channel first.
func (m *consume) Invoke(ctx context.Context, pc *pipe.Context) error {
	cfg, err := pipe.Require[rabbit.ConsumeConfig](pc, pipe.ConsumeConfigurationKey)
	if err != nil {
		return err
	}
	if cfg.Queue == "" {
		if cfg.Queue = declaredQueue(pc); cfg.Queue == "" {
			return fmt.Errorf("consume: %w", ErrNoQueue)
		}
	}
	ch, err := pipe.Require[rabbit.Channel](pc, pipe.ChannelKey)
	if err != nil {
		return err
	}

	if n := pipe.Get[int](pc, pipe.PrefetchCountKey); n > 0 {
		if err := ch.Qos(n); err != nil {
			return fmt.Errorf("set prefetch %d: %w", n, err)
		}
	}

	var consumer *rabbit.Consumer
	err = policy.Execute(ctx, pc, policy.Consume, component, map[string]interface{}{
		"queue": cfg.Queue,
	}, func(ctx context.Context) error {
		var err error
		consumer, err = ch.Consume(ctx, cfg)
		return err
	})
	if err != nil {
		return fmt.Errorf("consume from %q: %w", cfg.Queue, err)
	}

	pc.Set(pipe.ConsumerKey, consumer)
	return m.Next(ctx, pc)
}

type subscribe struct {
	pipe.Base
	repository *subscription.Repository
	logger     Logger
}

func newSubscription(r pipe.Resolver, _ ...any) (pipe.Linker, error) {
	return &subscribe{
		repository: optional[*subscription.Repository](r, SubscriptionsService),
		logger:     optional[Logger](r, LoggerService),
	}, nil
}

// Invoke tracks the consumer as a Subscription under pipe.SubscriptionKey
// and in the repository. If the rest of the chain fails the subscription is
// closed and forgotten again.
func (m *subscribe) Invoke(ctx context.Context, pc *pipe.Context) error {
	consumer, err := pipe.Require[*rabbit.Consumer](pc, pipe.ConsumerKey)
	if err != nil {
		return err
	}

	var log subscription.Logger
	if m.logger != nil {
		log = m.logger
	}
	sub := subscription.New(consumer, consumer.QueueName(), log)
	if m.repository != nil {
		m.repository.Add(sub)
	}
	pc.Set(pipe.SubscriptionKey, sub)

	if err := m.Next(ctx, pc); err != nil {
		if m.repository != nil {
			m.repository.Remove(sub)
		}
		_ = sub.Close(ctx)
		return err
	}
	return nil
}

type messageDispatch struct {
	pipe.Base
	repository *subscription.Repository
	tracer     *tracer.Tracer
	logger     Logger
}

func newMessageDispatch(r pipe.Resolver, _ ...any) (pipe.Linker, error) {
	return &messageDispatch{
		repository: optional[*subscription.Repository](r, SubscriptionsService),
		tracer:     optional[*tracer.Tracer](r, TracerService),
		logger:     optional[Logger](r, LoggerService),
	}, nil
}

// Invoke starts delivering the consumer's messages and returns. Each delivery
// runs the rest of the chain on a clone of the context holding
// pipe.DeliveryKey and an ackable under pipe.AckableKey, one delivery at a
// time. The loop ends when the consumer is cancelled or its channel closes;
// a channel owned by the chain is handed to the loop and closed then. A
// stream that ends without a cancel abandons the subscription under
// pipe.SubscriptionKey and removes it from the repository.
//
// The loop keeps the values of ctx but not its cancellation. A delivery
// carrying an execution id header runs under that id.
func (m *messageDispatch) Invoke(ctx context.Context, pc *pipe.Context) error {
	consumer, err := pipe.Require[*rabbit.Consumer](pc, pipe.ConsumerKey)
	if err != nil {
		return err
	}

	owned := pipe.Get[bool](pc, pipe.ChannelOwnedKey)
	pc.Set(pipe.ChannelOwnedKey, false)

	go m.loop(context.WithoutCancel(ctx), pc, consumer, owned)
	return nil
}

func (m *messageDispatch) loop(ctx context.Context, pc *pipe.Context, consumer *rabbit.Consumer, owned bool) {
	ch := consumer.Channel()
	defer func() {
		if owned && ch != nil && !ch.IsClosed() {
			_ = ch.Close()
		}
	}()

	ackPolicy := policy.FromContext(pc, policy.Ack)
	for d := range consumer.Deliveries() {
		m.deliver(ctx, pc, consumer, d, ackPolicy)
	}

	sub, ok := pipe.Lookup[*subscription.Subscription](pc, pipe.SubscriptionKey)
	if !ok || !sub.Abandon() {
		return
	}
	if m.repository != nil {
		m.repository.Remove(sub)
	}
	if m.logger != nil {
		m.logger.WarnWithContext(ctx, "Consumer stopped without cancel", nil, map[string]interface{}{
			"queue":        consumer.QueueName(),
			"consumer_tag": consumer.ConsumerTag(),
		})
	}
}

func (m *messageDispatch) deliver(ctx context.Context, pc *pipe.Context, consumer *rabbit.Consumer, d amqp.Delivery, ackPolicy policy.Policy) {
	mpc := pc.Clone()
	mpc.Delete(pipe.ChannelOwnedKey)
	mpc.Set(pipe.DeliveryKey, d)

	var acker ackable.Acknowledger
	if ch := consumer.Channel(); ch != nil {
		acker = ch
	}
	delivery := ackable.FromDelivery(d, acker, ackable.WithPolicy(ackPolicy))
	mpc.Set(pipe.AckableKey, delivery)

	if id, ok := d.Headers[ExecutionIDHeader].(string); ok && id != "" {
		mpc.Set(pipe.GlobalExecutionIDKey, id)
		ctx = pipe.WithExecutionID(ctx, id)
	}
	if d.CorrelationId != "" {
		mpc.Set(pipe.CorrelationIDKey, d.CorrelationId)
	}

	var span trace.Span
	if m.tracer != nil {
		ctx = m.tracer.Extract(ctx, headerStrings(d.Headers))
		ctx, span = m.tracer.StartSpan(ctx, consumer.QueueName()+" receive", trace.SpanKindConsumer)
		span.SetAttributes(
			attribute.String("messaging.system", "rabbitmq"),
			attribute.String("messaging.message_id", d.MessageId),
			attribute.String("messaging.destination.name", consumer.QueueName()),
		)
		defer span.End()
	}

	err := m.Next(ctx, mpc)
	if err == nil {
		return
	}
	if span != nil {
		m.tracer.RecordErrorOnSpan(span, err)
	}
	if m.logger != nil {
		m.logger.ErrorWithContext(ctx, "Failed to process delivery", err, map[string]interface{}{
			"queue":        consumer.QueueName(),
			"consumer_tag": consumer.ConsumerTag(),
			"delivery_tag": d.DeliveryTag,
			"message_id":   d.MessageId,
		})
	}

	if pipe.Get[bool](mpc, pipe.AutoAckKey) && !delivery.Acknowledged() {
		if rejectErr := delivery.Reject(ctx, false); rejectErr != nil && m.logger != nil {
			m.logger.WarnWithContext(ctx, "Failed to reject delivery", rejectErr, map[string]interface{}{
				"queue":        consumer.QueueName(),
				"delivery_tag": d.DeliveryTag,
			})
		}
	}
}

// headerStrings returns the string valued headers of a delivery.
func headerStrings(headers amqp.Table) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

type replyReceive struct {
	pipe.Base
}

func newReplyReceive(pipe.Resolver, ...any) (pipe.Linker, error) {
	return &replyReceive{}, nil
}

// Invoke waits on the consumer under pipe.ConsumerKey for the delivery whose
// correlation id matches pipe.CorrelationIDKey and stores it under
// pipe.DeliveryKey and pipe.ResponseKey. Replies for other requests are
// dropped. Bound the wait with a deadline on ctx.
func (m *replyReceive) Invoke(ctx context.Context, pc *pipe.Context) error {
	consumer, err := pipe.Require[*rabbit.Consumer](pc, pipe.ConsumerKey)
	if err != nil {
		return err
	}
	correlationID := pipe.Get[string](pc, pipe.CorrelationIDKey)

	for {
		select {
		case d, ok := <-consumer.Deliveries():
			if !ok {
				return ErrReplyStreamClosed
			}
			if correlationID != "" && d.CorrelationId != correlationID {
				continue
			}
			pc.Set(pipe.DeliveryKey, d)
			pc.Set(pipe.ResponseKey, d)
			return m.Next(ctx, pc)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
