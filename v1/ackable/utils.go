package ackable

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

// DeliveryTag is the TagFunc of a single AMQP delivery.
func DeliveryTag(d amqp.Delivery) []uint64 {
	return []uint64{d.DeliveryTag}
}

// FromDelivery wraps a raw delivery received on ch.
func FromDelivery(d amqp.Delivery, ch Acknowledger, opts ...Option) *Ackable[amqp.Delivery] {
	return New(d, ch, DeliveryTag, opts...)
}

// Map converts the content of a into a new Ackable that settles the same
// delivery tags on the same channel. Settling or disposing the result
// settles or disposes a.
func Map[T, U any](a *Ackable[T], convert func(T) (U, error)) (*Ackable[U], error) {
	content, err := convert(a.Content)
	if err != nil {
		return nil, err
	}

	mapped := &Ackable[U]{
		Content: content,
		channel: a.channel,
		tags:    func(U) []uint64 { return a.tags(a.Content) },
		policy:  a.policy,
		release: a.Dispose,
		settled: a.markAcknowledged,
	}
	if a.Acknowledged() {
		mapped.markAcknowledged()
	}
	return mapped, nil
}

// NewBatch wraps items in one outer Ackable. Its delivery tags are the tags
// of the items not yet acknowledged at the time they are computed, so items
// may be settled individually and the rest settled through the batch. A
// successful batch settle marks every remaining item acknowledged. Dispose
// disposes every item and then runs the batch release.
func NewBatch[T any](items []*Ackable[T], ch Acknowledger, opts ...Option) *Ackable[[]*Ackable[T]] {
	if items == nil {
		items = []*Ackable[T]{}
	}

	batch := New(items, ch, pendingTags[T], opts...)

	batch.settled = func() {
		for _, item := range batch.Content {
			item.markAcknowledged()
		}
	}

	release := batch.release
	batch.release = func() {
		for _, item := range batch.Content {
			item.Dispose()
		}
		if release != nil {
			release()
		}
	}
	return batch
}

func pendingTags[T any](items []*Ackable[T]) []uint64 {
	var tags []uint64
	for _, item := range items {
		if item == nil || item.Acknowledged() {
			continue
		}
		tags = append(tags, item.DeliveryTags()...)
	}
	return tags
}
