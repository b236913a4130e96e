// Package brokertest provides an in-memory broker that satisfies
// rabbit.ChannelFactory and rabbit.Channel for tests.
//
// It models exchanges (direct, fanout, topic), queues, consumers with
// per-channel delivery tags, basic.get, acknowledgements with requeue,
// dead-lettering and RabbitMQ direct reply-to. Failures can be injected per
// method with FailNext.
package brokertest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Aleph-Alpha/rabbitbus/v1/rabbit"
)

// DirectReplyTo is the pseudo queue used for RPC replies.
const DirectReplyTo = "amq.rabbitmq.reply-to"

// consumerBuffer bounds deliveries waiting in a consumer stream.
const consumerBuffer = 1024

// Call records one Channel method call.
type Call struct {
	Channel int
	Method  string
	Args    []any
}

type binding struct {
	queue string
	key   string
}

type exchange struct {
	kind     string
	durable  bool
	bindings []binding
}

type queue struct {
	name      string
	durable   bool
	args      amqp.Table
	messages  []amqp.Delivery
	consumers []*consumer
	next      int
}

type consumer struct {
	tag     string
	ch      *Channel
	autoAck bool
	out     chan amqp.Delivery
}

type unacked struct {
	queue    string
	delivery amqp.Delivery
}

// Broker is an in-memory message broker.
type Broker struct {
	mu        sync.Mutex
	exchanges map[string]*exchange
	queues    map[string]*queue
	channels  []*Channel
	calls     []Call
	failures  map[string][]error
	hooks     map[int]func()
	nextHook  int

	// OpenErr, when set, is returned by OpenChannel.
	OpenErr error
}

// New returns an empty Broker with the default exchanges declared.
func New() *Broker {
	b := &Broker{
		exchanges: make(map[string]*exchange),
		queues:    make(map[string]*queue),
		failures:  make(map[string][]error),
		hooks:     make(map[int]func()),
	}
	b.exchanges["amq.direct"] = &exchange{kind: amqp.ExchangeDirect, durable: true}
	b.exchanges["amq.topic"] = &exchange{kind: amqp.ExchangeTopic, durable: true}
	b.exchanges["amq.fanout"] = &exchange{kind: amqp.ExchangeFanout, durable: true}
	return b
}

// OpenChannel implements rabbit.ChannelFactory.
func (b *Broker) OpenChannel(ctx context.Context) (rabbit.Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.record(0, "OpenChannel")
	if b.OpenErr != nil {
		return nil, b.OpenErr
	}
	if err := b.takeFailure("OpenChannel"); err != nil {
		return nil, err
	}

	ch := &Channel{
		broker:    b,
		id:        len(b.channels) + 1,
		unacked:   make(map[uint64]unacked),
		consumers: make(map[string]*consumer),
	}
	b.channels = append(b.channels, ch)
	return ch, nil
}

var _ rabbit.ReconnectNotifier = (*Broker)(nil)

// OnReconnect implements rabbit.ReconnectNotifier. Hooks run at the end of
// Restart.
func (b *Broker) OnReconnect(fn func()) func() {
	if fn == nil {
		return func() {}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextHook
	b.nextHook++
	b.hooks[id] = fn
	return func() {
		b.mu.Lock()
		delete(b.hooks, id)
		b.mu.Unlock()
	}
}

// Restart simulates a broker restart followed by a client reconnect. Every
// open channel is closed, which ends its consumer streams. Non-durable
// exchanges and queues are dropped together with their messages and the
// bindings pointing at them. The reconnect hooks run last.
func (b *Broker) Restart() {
	b.mu.Lock()
	for _, ch := range b.channels {
		ch.shutdown()
	}
	for name, q := range b.queues {
		if !q.durable {
			delete(b.queues, name)
		}
	}
	for name, ex := range b.exchanges {
		if !ex.durable {
			delete(b.exchanges, name)
			continue
		}
		kept := ex.bindings[:0]
		for _, bnd := range ex.bindings {
			if _, ok := b.queues[bnd.queue]; ok {
				kept = append(kept, bnd)
			}
		}
		ex.bindings = kept
	}
	hooks := make([]func(), 0, len(b.hooks))
	for _, fn := range b.hooks {
		hooks = append(hooks, fn)
	}
	b.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

// FailNext makes the next len(errs) calls of method return errs in order.
// The errors are passed through rabbit.TranslateError like real broker errors.
func (b *Broker) FailNext(method string, errs ...error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[method] = append(b.failures[method], errs...)
}

// Calls returns the recorded calls of method, or every call when method is "".
func (b *Broker) Calls(method string) []Call {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []Call
	for _, c := range b.calls {
		if method == "" || c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Channels returns every channel opened so far.
func (b *Broker) Channels() []*Channel {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Channel, len(b.channels))
	copy(out, b.channels)
	return out
}

// OpenChannels counts channels not yet closed.
func (b *Broker) OpenChannels() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, ch := range b.channels {
		if !ch.closed {
			n++
		}
	}
	return n
}

// Enqueue appends a message to queue, declaring the queue if needed.
func (b *Broker) Enqueue(queueName string, msg amqp.Publishing) {
	b.mu.Lock()
	defer b.mu.Unlock()

	q, ok := b.queues[queueName]
	if !ok {
		q = &queue{name: queueName}
		b.queues[queueName] = q
	}
	b.enqueue(q, "", queueName, msg)
}

// QueueDepth returns the number of ready messages in queue.
func (b *Broker) QueueDepth(queueName string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if q, ok := b.queues[queueName]; ok {
		return len(q.messages)
	}
	return 0
}

// ConsumerCount returns the number of consumers on queue.
func (b *Broker) ConsumerCount(queueName string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if q, ok := b.queues[queueName]; ok {
		return len(q.consumers)
	}
	return 0
}

// HasQueue reports whether queue was declared.
func (b *Broker) HasQueue(queueName string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.queues[queueName]
	return ok
}

// HasExchange reports whether exchange was declared.
func (b *Broker) HasExchange(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.exchanges[name]
	return ok
}

func (b *Broker) record(channel int, method string, args ...any) {
	b.calls = append(b.calls, Call{Channel: channel, Method: method, Args: args})
}

func (b *Broker) takeFailure(method string) error {
	errs := b.failures[method]
	if len(errs) == 0 {
		return nil
	}
	b.failures[method] = errs[1:]
	return rabbit.TranslateError(errs[0])
}

// route returns the queues a message published to exchangeName with key
// reaches.
func (b *Broker) route(exchangeName, key string) ([]*queue, error) {
	if exchangeName == "" {
		if q, ok := b.queues[key]; ok {
			return []*queue{q}, nil
		}
		return nil, nil
	}

	ex, ok := b.exchanges[exchangeName]
	if !ok {
		return nil, &amqp.Error{
			Code:   amqp.NotFound,
			Reason: fmt.Sprintf("NOT_FOUND - no exchange '%s' in vhost '/'", exchangeName),
		}
	}

	seen := make(map[string]bool)
	var out []*queue
	for _, bnd := range ex.bindings {
		if seen[bnd.queue] || !matches(ex.kind, bnd.key, key) {
			continue
		}
		if q, ok := b.queues[bnd.queue]; ok {
			seen[bnd.queue] = true
			out = append(out, q)
		}
	}
	return out, nil
}

func (b *Broker) enqueue(q *queue, exchangeName, key string, msg amqp.Publishing) {
	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	q.messages = append(q.messages, amqp.Delivery{
		Headers:         cloneTable(msg.Headers),
		ContentType:     msg.ContentType,
		ContentEncoding: msg.ContentEncoding,
		DeliveryMode:    msg.DeliveryMode,
		Priority:        msg.Priority,
		CorrelationId:   msg.CorrelationId,
		ReplyTo:         msg.ReplyTo,
		Expiration:      msg.Expiration,
		MessageId:       msg.MessageId,
		Timestamp:       ts,
		Type:            msg.Type,
		UserId:          msg.UserId,
		AppId:           msg.AppId,
		Exchange:        exchangeName,
		RoutingKey:      key,
		Body:            append([]byte(nil), msg.Body...),
	})
	b.dispatch(q)
}

// dispatch hands ready messages to consumers round-robin. Sends never block;
// a full consumer buffer leaves the message queued.
func (b *Broker) dispatch(q *queue) {
	for len(q.messages) > 0 && len(q.consumers) > 0 {
		delivered := false
		for i := 0; i < len(q.consumers); i++ {
			c := q.consumers[(q.next+i)%len(q.consumers)]
			d := q.messages[0]
			tag := c.ch.nextTag + 1
			d.DeliveryTag = tag
			d.ConsumerTag = c.tag

			select {
			case c.out <- d:
				c.ch.nextTag = tag
				if !c.autoAck {
					c.ch.unacked[tag] = unacked{queue: q.name, delivery: d}
				}
				q.messages = q.messages[1:]
				q.next = (q.next + i + 1) % len(q.consumers)
				delivered = true
			default:
			}
			if delivered {
				break
			}
		}
		if !delivered {
			return
		}
	}
}

// settle removes an unacked delivery. With requeue it goes back to the head
// of its queue marked redelivered; without, it is dead-lettered when the
// queue has a dead-letter exchange.
func (b *Broker) settle(u unacked, requeue bool) {
	q, ok := b.queues[u.queue]
	if !ok {
		return
	}

	d := u.delivery
	d.DeliveryTag = 0
	d.ConsumerTag = ""

	if requeue {
		d.Redelivered = true
		q.messages = append([]amqp.Delivery{d}, q.messages...)
		b.dispatch(q)
		return
	}

	dlx, ok := q.args["x-dead-letter-exchange"].(string)
	if !ok {
		return
	}
	key := d.RoutingKey
	if k, ok := q.args["x-dead-letter-routing-key"].(string); ok && k != "" {
		key = k
	}
	targets, err := b.route(dlx, key)
	if err != nil {
		return
	}
	for _, target := range targets {
		b.enqueue(target, dlx, key, publishingOf(d))
	}
}

func (b *Broker) removeConsumer(c *consumer) {
	for _, q := range b.queues {
		for i, existing := range q.consumers {
			if existing == c {
				q.consumers = append(q.consumers[:i], q.consumers[i+1:]...)
				if len(q.consumers) > 0 {
					q.next %= len(q.consumers)
				} else {
					q.next = 0
				}
				break
			}
		}
	}
	close(c.out)
}

func publishingOf(d amqp.Delivery) amqp.Publishing {
	return amqp.Publishing{
		Headers:         d.Headers,
		ContentType:     d.ContentType,
		ContentEncoding: d.ContentEncoding,
		DeliveryMode:    d.DeliveryMode,
		Priority:        d.Priority,
		CorrelationId:   d.CorrelationId,
		ReplyTo:         d.ReplyTo,
		Expiration:      d.Expiration,
		MessageId:       d.MessageId,
		Timestamp:       d.Timestamp,
		Type:            d.Type,
		UserId:          d.UserId,
		AppId:           d.AppId,
		Body:            d.Body,
	}
}

func cloneTable(t amqp.Table) amqp.Table {
	if t == nil {
		return nil
	}
	out := make(amqp.Table, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// matches implements direct, fanout and topic binding semantics.
func matches(kind, pattern, key string) bool {
	switch kind {
	case amqp.ExchangeFanout:
		return true
	case amqp.ExchangeTopic:
		return topicMatch(strings.Split(pattern, "."), strings.Split(key, "."))
	default:
		return pattern == key
	}
}

func topicMatch(pattern, words []string) bool {
	if len(pattern) == 0 {
		return len(words) == 0
	}
	switch pattern[0] {
	case "#":
		for i := 0; i <= len(words); i++ {
			if topicMatch(pattern[1:], words[i:]) {
				return true
			}
		}
		return false
	case "*":
		return len(words) > 0 && topicMatch(pattern[1:], words[1:])
	default:
		return len(words) > 0 && pattern[0] == words[0] && topicMatch(pattern[1:], words[1:])
	}
}

func newQueueName() string {
	return "amq.gen-" + uuid.NewString()
}
