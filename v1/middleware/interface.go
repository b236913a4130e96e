package middleware

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Aleph-Alpha/rabbitbus/v1/ackable"
	"github.com/Aleph-Alpha/rabbitbus/v1/pipe"
	"github.com/Aleph-Alpha/rabbitbus/v1/serialization"
)

// Logger is the logging contract of the standard nodes.
type Logger interface {
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}

// Handler processes one message. It is stored under pipe.MessageHandlerKey.
type Handler func(ctx context.Context, pc *pipe.Context) error

// Decoder turns a body into a typed value with the serializer chosen for the
// delivery's content type. It is stored under pipe.DeserializerKey.
type Decoder func(s serialization.Serializer, body []byte) (any, error)

// Settler is the settle surface shared by every ackable the nodes store
// under pipe.AckableKey.
type Settler interface {
	Ack(ctx context.Context) error
	Nack(ctx context.Context, requeue bool) error
	Reject(ctx context.Context, requeue bool) error
	Acknowledged() bool
	Dispose()
}

// DeliveryBatch is what basic-get stores under pipe.AckableKey.
type DeliveryBatch = ackable.Ackable[[]*ackable.Ackable[amqp.Delivery]]

// ChannelOptions configures the channel node.
type ChannelOptions struct {
	// CloseAfterUse closes an opened channel once the rest of the chain
	// returns. Channels handed over to an ackable or a subscription are
	// never closed by the node.
	CloseAfterUse bool
}

// GetConfig configures basic-get. It is stored under
// pipe.GetConfigurationKey.
type GetConfig struct {
	// Queue to read from. Falls back to the declared queue.
	Queue string

	// BatchSize is the maximum number of messages fetched. Zero or less
	// fetches nothing.
	BatchSize int
}
