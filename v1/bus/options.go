package bus

import (
	"time"

	"github.com/Aleph-Alpha/rabbitbus/v1/middleware"
)

// Option configures a single bus operation.
type Option func(*options)

type options struct {
	autoAck         bool
	routingKey      string
	queueName       string
	exchangeName    string
	exchangeType    string
	durable         bool
	optional        bool
	abortsExecution bool
	timeout         time.Duration
	prefetchCount   int
	contentType     string
	correlationID   string
	headers         map[string]string
}

// AutoAck lets the bus settle received messages: ack after the handler
// succeeds, nack with requeue when it fails. Messages the handler settled
// itself are left alone.
func AutoAck(enabled bool) Option {
	return func(o *options) { o.autoAck = enabled }
}

// RoutingKey sets the routing key messages are published with, or the
// binding key a subscription queue is bound with.
func RoutingKey(key string) Option {
	return func(o *options) { o.routingKey = key }
}

// QueueName sets the queue consumed from, read from, or published to
// through the default exchange.
func QueueName(name string) Option {
	return func(o *options) { o.queueName = name }
}

// ExchangeName sets the exchange, overriding the configured default. Use ""
// for the default exchange.
func ExchangeName(name string) Option {
	return func(o *options) { o.exchangeName = name }
}

// ExchangeType sets the type of exchanges the operation declares.
func ExchangeType(kind string) Option {
	return func(o *options) { o.exchangeType = kind }
}

// Durable overrides the configured durability of declared exchanges and
// named queues.
func Durable(durable bool) Option {
	return func(o *options) { o.durable = durable }
}

// Optional marks a sequence step that may be skipped without aborting the
// sequence.
func Optional(optional bool) Option {
	return func(o *options) { o.optional = optional }
}

// AbortsExecution marks a sequence step that ends the sequence when it
// completes.
func AbortsExecution(aborts bool) Option {
	return func(o *options) { o.abortsExecution = aborts }
}

// Timeout bounds Request and the wait of ExecuteSequence.
func Timeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// PrefetchCount limits the unacknowledged deliveries of a subscription.
func PrefetchCount(n int) Option {
	return func(o *options) { o.prefetchCount = n }
}

// ContentType selects the serializer of published messages.
func ContentType(contentType string) Option {
	return func(o *options) { o.contentType = contentType }
}

// CorrelationID sets the correlation id of published messages.
func CorrelationID(id string) Option {
	return func(o *options) { o.correlationID = id }
}

// Header adds a string header to published messages.
func Header(key, value string) Option {
	return func(o *options) {
		if o.headers == nil {
			o.headers = make(map[string]string)
		}
		o.headers[key] = value
	}
}

func (c *Client) options(opts []Option) options {
	o := options{
		exchangeName:  c.defaults.Exchange,
		exchangeType:  c.defaults.ExchangeType,
		durable:       c.defaults.Durable,
		prefetchCount: c.defaults.PrefetchCount,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// publishKey returns the routing key msg is published with: the RoutingKey
// option, the queue name on the default exchange, or the message type name.
func (o options) publishKey(msg any) string {
	if o.routingKey != "" {
		return o.routingKey
	}
	if o.exchangeName == "" && o.queueName != "" {
		return o.queueName
	}
	return middleware.TypeName(msg)
}

// bindingKey returns the key a subscription queue is bound with: the
// RoutingKey option, the name of the expected type, or "#".
func (o options) bindingKey(zero any) string {
	if o.routingKey != "" {
		return o.routingKey
	}
	if name := middleware.TypeName(zero); name != "" {
		return name
	}
	return "#"
}
