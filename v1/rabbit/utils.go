package rabbit

import (
	"context"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// amqpChannel adapts *amqp.Channel to the Channel interface. Every call is
// observed and its error translated into the package's sentinel errors.
type amqpChannel struct {
	client   *RabbitClient
	ch       *amqp.Channel
	confirms bool
}

func newAMQPChannel(client *RabbitClient, ch *amqp.Channel) *amqpChannel {
	return &amqpChannel{
		client:   client,
		ch:       ch,
		confirms: client.cfg.Channel.PublisherConfirms,
	}
}

// Publish sends a message to exchange with routingKey. When publisher
// confirms are enabled the call blocks until the broker confirms the message
// or ctx is done.
func (c *amqpChannel) Publish(ctx context.Context, exchange, routingKey string, mandatory bool, msg amqp.Publishing) (err error) {
	start := time.Now()
	defer func() {
		c.client.observeOperation("produce", exchange, routingKey, time.Since(start), err, int64(len(msg.Body)))
	}()

	if err = ctx.Err(); err != nil {
		return err
	}

	if !c.confirms {
		return TranslateError(c.ch.PublishWithContext(ctx, exchange, routingKey, mandatory, false, msg))
	}

	confirmation, err := c.ch.PublishWithDeferredConfirmWithContext(ctx, exchange, routingKey, mandatory, false, msg)
	if err != nil {
		return TranslateError(err)
	}
	if confirmation == nil {
		return nil
	}
	acked, err := confirmation.WaitContext(ctx)
	if err != nil {
		return err
	}
	if !acked {
		return ErrPublishNotConfirmed
	}
	return nil
}

// Consume registers a consumer on the channel. A consumer tag is generated
// when cfg.ConsumerTag is empty.
func (c *amqpChannel) Consume(ctx context.Context, cfg ConsumeConfig) (*Consumer, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tag := cfg.ConsumerTag
	if tag == "" {
		tag = "ctag-" + uuid.NewString()
	}

	deliveries, err := c.ch.Consume(
		cfg.Queue,
		tag,
		cfg.AutoAck,
		cfg.Exclusive,
		cfg.NoLocal,
		false, // noWait
		cfg.Arguments,
	)
	err = TranslateError(err)
	c.client.observeOperation("consume", cfg.Queue, tag, time.Since(start), err, 0)
	if err != nil {
		return nil, err
	}

	return NewConsumer(tag, cfg.Queue, c, deliveries), nil
}

// Get retrieves a single message from queue without blocking.
func (c *amqpChannel) Get(ctx context.Context, queue string, autoAck bool) (amqp.Delivery, bool, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return amqp.Delivery{}, false, err
	}

	delivery, ok, err := c.ch.Get(queue, autoAck)
	err = TranslateError(err)
	c.client.observeOperation("get", queue, "", time.Since(start), err, int64(len(delivery.Body)))
	return delivery, ok, err
}

func (c *amqpChannel) Ack(ctx context.Context, tag uint64, multiple bool) error {
	start := time.Now()
	err := TranslateError(c.ch.Ack(tag, multiple))
	c.client.observeOperation("ack", "", "", time.Since(start), err, 0)
	return err
}

func (c *amqpChannel) Nack(ctx context.Context, tag uint64, multiple, requeue bool) error {
	start := time.Now()
	err := TranslateError(c.ch.Nack(tag, multiple, requeue))
	c.client.observeOperation("nack", "", "", time.Since(start), err, 0)
	return err
}

func (c *amqpChannel) Reject(ctx context.Context, tag uint64, requeue bool) error {
	start := time.Now()
	err := TranslateError(c.ch.Reject(tag, requeue))
	c.client.observeOperation("reject", "", "", time.Since(start), err, 0)
	return err
}

// Cancel stops the consumer identified by consumerTag. The broker closes the
// consumer's delivery stream once in-flight deliveries are drained.
func (c *amqpChannel) Cancel(ctx context.Context, consumerTag string) error {
	start := time.Now()
	err := TranslateError(c.ch.Cancel(consumerTag, false))
	c.client.observeOperation("cancel", "", consumerTag, time.Since(start), err, 0)
	return err
}

// DeclareQueue declares a queue. Dead-letter settings are translated into
// the x-dead-letter-exchange, x-dead-letter-routing-key and x-message-ttl
// arguments.
func (c *amqpChannel) DeclareQueue(ctx context.Context, d QueueDeclaration) (amqp.Queue, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return amqp.Queue{}, err
	}

	q, err := c.ch.QueueDeclare(
		d.Name,
		d.Durable,
		d.AutoDelete,
		d.Exclusive,
		false, // noWait
		queueArguments(d),
	)
	err = TranslateError(err)
	c.client.observeOperation("declare_queue", d.Name, "", time.Since(start), err, 0)
	return q, err
}

func queueArguments(d QueueDeclaration) amqp.Table {
	args := amqp.Table{}
	for k, v := range d.Arguments {
		args[k] = v
	}

	if d.DeadLetter.ExchangeName != "" {
		args["x-dead-letter-exchange"] = d.DeadLetter.ExchangeName
		if d.DeadLetter.RoutingKey != "" {
			args["x-dead-letter-routing-key"] = d.DeadLetter.RoutingKey
		}
		if d.DeadLetter.Ttl > 0 {
			args["x-message-ttl"] = d.DeadLetter.Ttl * 1000 // Convert to milliseconds
		}
	}

	if len(args) == 0 {
		return nil
	}
	return args
}

func (c *amqpChannel) DeclareExchange(ctx context.Context, d ExchangeDeclaration) error {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return err
	}

	kind := d.Type
	if kind == "" {
		kind = amqp.ExchangeTopic
	}

	err := TranslateError(c.ch.ExchangeDeclare(
		d.Name,
		kind,
		d.Durable,
		d.AutoDelete,
		d.Internal,
		false, // noWait
		d.Arguments,
	))
	c.client.observeOperation("declare_exchange", d.Name, kind, time.Since(start), err, 0)
	return err
}

func (c *amqpChannel) BindQueue(ctx context.Context, b QueueBinding) error {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return err
	}

	err := TranslateError(c.ch.QueueBind(
		b.Queue,
		b.RoutingKey,
		b.Exchange,
		false, // noWait
		b.Arguments,
	))
	c.client.observeOperation("bind_queue", b.Queue, b.Exchange, time.Since(start), err, 0)
	return err
}

func (c *amqpChannel) Qos(prefetchCount int) error {
	return TranslateError(c.ch.Qos(prefetchCount, 0, false))
}

func (c *amqpChannel) IsClosed() bool {
	return c.ch.IsClosed()
}

// Close closes the channel and releases it from the owning client.
func (c *amqpChannel) Close() error {
	c.client.release(c)
	if c.ch.IsClosed() {
		return nil
	}
	return TranslateError(c.ch.Close())
}
