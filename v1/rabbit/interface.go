package rabbit

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ChannelFactory opens broker channels.
//
// This interface is implemented by the concrete *RabbitClient type.
type ChannelFactory interface {
	// OpenChannel opens a new channel configured with the client defaults.
	OpenChannel(ctx context.Context) (Channel, error)
}

// ReconnectNotifier is implemented by channel factories that re-establish
// their connection after it is lost. Topology declared on the old connection
// may be gone on the new one, and channels opened before are closed.
//
// This interface is implemented by the concrete *RabbitClient type.
type ReconnectNotifier interface {
	// OnReconnect registers fn to run after every successful reconnect and
	// returns a function that unregisters it.
	OnReconnect(fn func()) (remove func())
}

// Channel is a logical broker session. Implementations are not required to be
// safe for use by two invocations at once; callers allocate one channel per
// invocation where exclusive use matters.
type Channel interface {
	// Publish sends msg to exchange with routingKey.
	Publish(ctx context.Context, exchange, routingKey string, mandatory bool, msg amqp.Publishing) error

	// Consume registers a consumer and returns its handle.
	Consume(ctx context.Context, cfg ConsumeConfig) (*Consumer, error)

	// Get performs a non-blocking single message retrieval. ok is false when
	// the queue had no message.
	Get(ctx context.Context, queue string, autoAck bool) (delivery amqp.Delivery, ok bool, err error)

	// Ack acknowledges the delivery identified by tag.
	Ack(ctx context.Context, tag uint64, multiple bool) error

	// Nack negatively acknowledges the delivery identified by tag.
	Nack(ctx context.Context, tag uint64, multiple, requeue bool) error

	// Reject rejects the delivery identified by tag.
	Reject(ctx context.Context, tag uint64, requeue bool) error

	// Cancel stops the consumer identified by consumerTag.
	Cancel(ctx context.Context, consumerTag string) error

	// DeclareQueue declares a queue and returns the broker's view of it.
	DeclareQueue(ctx context.Context, d QueueDeclaration) (amqp.Queue, error)

	// DeclareExchange declares an exchange.
	DeclareExchange(ctx context.Context, d ExchangeDeclaration) error

	// BindQueue binds a queue to an exchange.
	BindQueue(ctx context.Context, b QueueBinding) error

	// Qos limits unacknowledged deliveries on the channel.
	Qos(prefetchCount int) error

	// IsClosed reports whether the channel has been closed.
	IsClosed() bool

	// Close closes the channel.
	Close() error
}

// Consumer is the broker-native handle of a consumer registration.
type Consumer struct {
	tag        string
	queue      string
	channel    Channel
	deliveries <-chan amqp.Delivery
}

// NewConsumer builds a Consumer handle. Channel implementations call it from
// Consume.
func NewConsumer(tag, queue string, ch Channel, deliveries <-chan amqp.Delivery) *Consumer {
	return &Consumer{tag: tag, queue: queue, channel: ch, deliveries: deliveries}
}

// ConsumerTag returns the broker-assigned consumer tag.
func (c *Consumer) ConsumerTag() string { return c.tag }

// QueueName returns the consumed queue.
func (c *Consumer) QueueName() string { return c.queue }

// Channel returns the channel the consumer is registered on.
func (c *Consumer) Channel() Channel { return c.channel }

// Deliveries returns the delivery stream. It is closed when the consumer is
// cancelled or the channel closes.
func (c *Consumer) Deliveries() <-chan amqp.Delivery { return c.deliveries }
