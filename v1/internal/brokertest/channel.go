package brokertest

import (
	"context"
	"fmt"
	"sort"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Aleph-Alpha/rabbitbus/v1/rabbit"
)

// Channel is an in-memory rabbit.Channel.
type Channel struct {
	broker    *Broker
	id        int
	nextTag   uint64
	unacked   map[uint64]unacked
	consumers map[string]*consumer
	prefetch  int
	closed    bool
}

var _ rabbit.Channel = (*Channel)(nil)

// ID returns the 1-based channel number.
func (c *Channel) ID() int { return c.id }

// Unacked returns the delivery tags awaiting settlement on the channel.
func (c *Channel) Unacked() []uint64 {
	c.broker.mu.Lock()
	defer c.broker.mu.Unlock()
	out := make([]uint64, 0, len(c.unacked))
	for tag := range c.unacked {
		out = append(out, tag)
	}
	return out
}

// Prefetch returns the last Qos prefetch count.
func (c *Channel) Prefetch() int {
	c.broker.mu.Lock()
	defer c.broker.mu.Unlock()
	return c.prefetch
}

// begin records the call and returns the error it must fail with, if any.
// Callers hold the broker lock.
func (c *Channel) begin(ctx context.Context, method string, args ...any) error {
	c.broker.record(c.id, method, args...)
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	if c.closed {
		return rabbit.TranslateError(amqp.ErrClosed)
	}
	return c.broker.takeFailure(method)
}

// fail closes the channel after a channel-level exception, like a broker.
func (c *Channel) fail(err *amqp.Error) error {
	c.shutdown()
	return rabbit.TranslateError(err)
}

func (c *Channel) Publish(ctx context.Context, exchangeName, routingKey string, mandatory bool, msg amqp.Publishing) error {
	b := c.broker
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := c.begin(ctx, "Publish", exchangeName, routingKey, msg); err != nil {
		return err
	}

	if msg.ReplyTo == DirectReplyTo {
		if _, ok := c.consumers[c.replyQueue()]; !ok {
			return c.fail(&amqp.Error{Code: amqp.PreconditionFailed, Reason: "PRECONDITION_FAILED - fast reply consumer does not exist"})
		}
		msg.ReplyTo = c.replyQueue()
	}

	targets, err := b.route(exchangeName, routingKey)
	if err != nil {
		return c.fail(err.(*amqp.Error))
	}
	for _, q := range targets {
		b.enqueue(q, exchangeName, routingKey, msg)
	}
	return nil
}

func (c *Channel) replyQueue() string {
	return fmt.Sprintf("%s.ch%d", DirectReplyTo, c.id)
}

func (c *Channel) Consume(ctx context.Context, cfg rabbit.ConsumeConfig) (*rabbit.Consumer, error) {
	b := c.broker
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := c.begin(ctx, "Consume", cfg.Queue, cfg.ConsumerTag, cfg.AutoAck); err != nil {
		return nil, err
	}

	queueName := cfg.Queue
	if queueName == DirectReplyTo {
		queueName = c.replyQueue()
		if _, ok := b.queues[queueName]; !ok {
			b.queues[queueName] = &queue{name: queueName}
		}
		cfg.AutoAck = true
		cfg.ConsumerTag = queueName
	}

	q, ok := b.queues[queueName]
	if !ok {
		return nil, c.fail(&amqp.Error{
			Code:   amqp.NotFound,
			Reason: fmt.Sprintf("NOT_FOUND - no queue '%s' in vhost '/'", cfg.Queue),
		})
	}

	tag := cfg.ConsumerTag
	if tag == "" {
		tag = fmt.Sprintf("ctag-%d.%d", c.id, len(b.calls))
	}
	if _, exists := c.consumers[tag]; exists {
		return nil, c.fail(&amqp.Error{Code: amqp.NotAllowed, Reason: "NOT_ALLOWED - attempt to reuse consumer tag"})
	}

	cons := &consumer{
		tag:     tag,
		ch:      c,
		autoAck: cfg.AutoAck,
		out:     make(chan amqp.Delivery, consumerBuffer),
	}
	c.consumers[tag] = cons
	q.consumers = append(q.consumers, cons)
	b.dispatch(q)

	return rabbit.NewConsumer(tag, cfg.Queue, c, cons.out), nil
}

func (c *Channel) Get(ctx context.Context, queueName string, autoAck bool) (amqp.Delivery, bool, error) {
	b := c.broker
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := c.begin(ctx, "Get", queueName, autoAck); err != nil {
		return amqp.Delivery{}, false, err
	}

	q, ok := b.queues[queueName]
	if !ok {
		return amqp.Delivery{}, false, c.fail(&amqp.Error{
			Code:   amqp.NotFound,
			Reason: fmt.Sprintf("NOT_FOUND - no queue '%s' in vhost '/'", queueName),
		})
	}
	if len(q.messages) == 0 {
		return amqp.Delivery{}, false, nil
	}

	d := q.messages[0]
	q.messages = q.messages[1:]
	c.nextTag++
	d.DeliveryTag = c.nextTag
	d.MessageCount = uint32(len(q.messages))
	if !autoAck {
		c.unacked[d.DeliveryTag] = unacked{queue: q.name, delivery: d}
	}
	return d, true, nil
}

func (c *Channel) Ack(ctx context.Context, tag uint64, multiple bool) error {
	return c.settle(ctx, "Ack", tag, multiple, false)
}

func (c *Channel) Nack(ctx context.Context, tag uint64, multiple, requeue bool) error {
	return c.settle(ctx, "Nack", tag, multiple, requeue)
}

func (c *Channel) Reject(ctx context.Context, tag uint64, requeue bool) error {
	return c.settle(ctx, "Reject", tag, false, requeue)
}

func (c *Channel) settle(ctx context.Context, method string, tag uint64, multiple, requeue bool) error {
	b := c.broker
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := c.begin(ctx, method, tag, multiple, requeue); err != nil {
		return err
	}

	u, ok := c.unacked[tag]
	if !ok {
		return c.fail(&amqp.Error{
			Code:   amqp.PreconditionFailed,
			Reason: fmt.Sprintf("PRECONDITION_FAILED - unknown delivery tag %d", tag),
		})
	}

	tags := []uint64{tag}
	if multiple {
		tags = tags[:0]
		for t := range c.unacked {
			if t <= tag {
				tags = append(tags, t)
			}
		}
	}
	for _, t := range tags {
		u = c.unacked[t]
		delete(c.unacked, t)
		b.settle(u, method != "Ack" && requeue)
	}
	return nil
}

func (c *Channel) Cancel(ctx context.Context, consumerTag string) error {
	b := c.broker
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := c.begin(ctx, "Cancel", consumerTag); err != nil {
		return err
	}

	if cons, ok := c.consumers[consumerTag]; ok {
		delete(c.consumers, consumerTag)
		b.removeConsumer(cons)
	}
	return nil
}

func (c *Channel) DeclareQueue(ctx context.Context, d rabbit.QueueDeclaration) (amqp.Queue, error) {
	b := c.broker
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := c.begin(ctx, "DeclareQueue", d); err != nil {
		return amqp.Queue{}, err
	}

	name := d.Name
	if name == "" {
		name = newQueueName()
	}

	if q, ok := b.queues[name]; ok {
		if q.durable != d.Durable {
			return amqp.Queue{}, c.fail(&amqp.Error{
				Code:   amqp.PreconditionFailed,
				Reason: fmt.Sprintf("PRECONDITION_FAILED - inequivalent arg 'durable' for queue '%s'", name),
			})
		}
		return amqp.Queue{Name: name, Messages: len(q.messages), Consumers: len(q.consumers)}, nil
	}

	args := cloneTable(d.Arguments)
	if d.DeadLetter.ExchangeName != "" {
		if args == nil {
			args = amqp.Table{}
		}
		args["x-dead-letter-exchange"] = d.DeadLetter.ExchangeName
		if d.DeadLetter.RoutingKey != "" {
			args["x-dead-letter-routing-key"] = d.DeadLetter.RoutingKey
		}
	}

	b.queues[name] = &queue{name: name, durable: d.Durable, args: args}
	return amqp.Queue{Name: name}, nil
}

func (c *Channel) DeclareExchange(ctx context.Context, d rabbit.ExchangeDeclaration) error {
	b := c.broker
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := c.begin(ctx, "DeclareExchange", d); err != nil {
		return err
	}

	kind := d.Type
	if kind == "" {
		kind = amqp.ExchangeTopic
	}
	if ex, ok := b.exchanges[d.Name]; ok {
		if ex.kind != kind || ex.durable != d.Durable {
			return c.fail(&amqp.Error{
				Code:   amqp.PreconditionFailed,
				Reason: fmt.Sprintf("PRECONDITION_FAILED - inequivalent arg 'type' for exchange '%s'", d.Name),
			})
		}
		return nil
	}

	b.exchanges[d.Name] = &exchange{kind: kind, durable: d.Durable}
	return nil
}

func (c *Channel) BindQueue(ctx context.Context, bnd rabbit.QueueBinding) error {
	b := c.broker
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := c.begin(ctx, "BindQueue", bnd); err != nil {
		return err
	}

	ex, ok := b.exchanges[bnd.Exchange]
	if !ok {
		return c.fail(&amqp.Error{
			Code:   amqp.NotFound,
			Reason: fmt.Sprintf("NOT_FOUND - no exchange '%s' in vhost '/'", bnd.Exchange),
		})
	}
	if _, ok := b.queues[bnd.Queue]; !ok {
		return c.fail(&amqp.Error{
			Code:   amqp.NotFound,
			Reason: fmt.Sprintf("NOT_FOUND - no queue '%s' in vhost '/'", bnd.Queue),
		})
	}
	for _, existing := range ex.bindings {
		if existing.queue == bnd.Queue && existing.key == bnd.RoutingKey {
			return nil
		}
	}
	ex.bindings = append(ex.bindings, binding{queue: bnd.Queue, key: bnd.RoutingKey})
	return nil
}

func (c *Channel) Qos(prefetchCount int) error {
	b := c.broker
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := c.begin(nil, "Qos", prefetchCount); err != nil {
		return err
	}
	c.prefetch = prefetchCount
	return nil
}

func (c *Channel) IsClosed() bool {
	c.broker.mu.Lock()
	defer c.broker.mu.Unlock()
	return c.closed
}

// Close closes the channel. Unacked deliveries are requeued and consumer
// streams are closed.
func (c *Channel) Close() error {
	b := c.broker
	b.mu.Lock()
	defer b.mu.Unlock()

	b.record(c.id, "Close")
	c.shutdown()
	return nil
}

// shutdown requires the broker lock.
func (c *Channel) shutdown() {
	if c.closed {
		return
	}
	c.closed = true

	for tag, cons := range c.consumers {
		delete(c.consumers, tag)
		c.broker.removeConsumer(cons)
	}
	tags := make([]uint64, 0, len(c.unacked))
	for tag := range c.unacked {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] > tags[j] })
	for _, tag := range tags {
		u := c.unacked[tag]
		delete(c.unacked, tag)
		c.broker.settle(u, true)
	}
	if q, ok := c.broker.queues[c.replyQueue()]; ok && len(q.consumers) == 0 {
		delete(c.broker.queues, q.name)
	}
}
