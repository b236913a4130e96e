package ackable

import "context"

// Acknowledger settles deliveries on the channel they were received on.
//
// rabbit.Channel satisfies this interface.
type Acknowledger interface {
	Ack(ctx context.Context, tag uint64, multiple bool) error
	Nack(ctx context.Context, tag uint64, multiple, requeue bool) error
	Reject(ctx context.Context, tag uint64, requeue bool) error
}

// TagFunc maps content to the delivery tags it was received under.
type TagFunc[T any] func(content T) []uint64
