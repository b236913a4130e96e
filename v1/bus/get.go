package bus

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Aleph-Alpha/rabbitbus/v1/ackable"
	"github.com/Aleph-Alpha/rabbitbus/v1/middleware"
	"github.com/Aleph-Alpha/rabbitbus/v1/pipe"
	"github.com/Aleph-Alpha/rabbitbus/v1/policy"
	"github.com/Aleph-Alpha/rabbitbus/v1/rabbit"
)

// Get fetches at most one message of type T from the QueueName queue. ok is
// false when the queue was empty.
//
// The message holds its channel until it is settled and disposed. With
// AutoAck(true) it is acked and its channel released before Get returns.
func Get[T any](ctx context.Context, c *Client, opts ...Option) (msg *ackable.Ackable[T], ok bool, err error) {
	batch, err := GetMany[T](ctx, c, 1, opts...)
	if err != nil {
		return nil, false, err
	}
	if len(batch.Content) == 0 {
		batch.Dispose()
		return nil, false, nil
	}

	msg, err = ackable.Map(batch, func(items []*ackable.Ackable[T]) (T, error) {
		return items[0].Content, nil
	})
	if err != nil {
		batch.Dispose()
		return nil, false, err
	}
	return msg, true, nil
}

// GetMany fetches up to batchSize messages of type T from the QueueName
// queue with one basic.get per message on a single channel, stopping early
// when the queue runs empty.
//
// The batch is never nil. Its items can be settled one by one and the rest
// settled through the batch; Dispose releases the channel, which requeues
// whatever is still unsettled. A batchSize of zero or less returns an empty
// batch without touching the broker.
//
// If a message cannot be decoded the whole batch is released and the error
// returned.
func GetMany[T any](ctx context.Context, c *Client, batchSize int, opts ...Option) (*ackable.Ackable[[]*ackable.Ackable[T]], error) {
	if batchSize <= 0 {
		return ackable.NewBatch[T](nil, nil), nil
	}

	o := c.options(opts)
	if o.queueName == "" {
		return nil, ErrNoDestination
	}

	action := func(b pipe.Builder) {
		b.Use(middleware.ChannelKey).
			Use(middleware.BasicGetKey)
	}
	pc, err := c.Invoke(ctx, action, func(pc *pipe.Context) {
		pc.Set(pipe.OperationKey, "get")
		pc.Set(pipe.GetConfigurationKey, middleware.GetConfig{Queue: o.queueName, BatchSize: batchSize})
	})

	var raw *middleware.DeliveryBatch
	if pc != nil {
		raw, _ = pipe.Lookup[*middleware.DeliveryBatch](pc, pipe.AckableKey)
	}
	if err != nil {
		if raw != nil {
			raw.Dispose()
		}
		return nil, err
	}
	if raw == nil {
		_, err := pipe.Require[*middleware.DeliveryBatch](pc, pipe.AckableKey)
		return nil, err
	}

	items := make([]*ackable.Ackable[T], 0, len(raw.Content))
	for _, item := range raw.Content {
		typed, err := ackable.Map(item, func(d amqp.Delivery) (T, error) {
			return decodeDelivery[T](c.serializers, d)
		})
		if err != nil {
			raw.Dispose()
			return nil, fmt.Errorf("get from %q: %w", o.queueName, err)
		}
		items = append(items, typed)
	}

	var acker ackable.Acknowledger
	if ch, ok := pipe.Lookup[rabbit.Channel](pc, pipe.ChannelKey); ok && ch != nil {
		acker = ch
	}
	batch := ackable.NewBatch(items, acker,
		ackable.WithPolicy(c.policies.GetPolicy(policy.Ack)),
		ackable.WithRelease(raw.Dispose),
	)

	if o.autoAck {
		var err error
		if len(items) > 0 {
			err = batch.Ack(ctx)
		}
		batch.Dispose()
		if err != nil {
			return nil, fmt.Errorf("ack batch from %q: %w", o.queueName, err)
		}
	}
	return batch, nil
}
