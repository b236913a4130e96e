package middleware

import (
	"github.com/Aleph-Alpha/rabbitbus/v1/pipe"
)

// Register adds every standard node to r.
func Register(r *pipe.Registry) {
	r.Register(ExecutionIDKey, newExecutionID)
	r.Register(TracingKey, newTracing)
	r.Register(ChannelKey, newChannel)
	r.Register(ExchangeDeclareKey, newExchangeDeclare)
	r.Register(QueueDeclareKey, newQueueDeclare)
	r.Register(QueueBindKey, newQueueBind)
	r.Register(BodySerializationKey, newBodySerialization)
	r.Register(BasicPropertiesKey, newBasicProperties)
	r.Register(PublishKey, newPublish)
	r.Register(BasicGetKey, newBasicGet)
	r.Register(ConsumeKey, newConsume)
	r.Register(SubscriptionKey, newSubscription)
	r.Register(MessageDispatchKey, newMessageDispatch)
	r.Register(ReplyReceiveKey, newReplyReceive)
	r.Register(BodyDeserializationKey, newBodyDeserialization)
	r.Register(HandlerKey, newHandler)
	r.Register(AutoAckKey, newAutoAck)
}

// NewRegistry returns a registry holding the standard nodes.
func NewRegistry() *pipe.Registry {
	r := pipe.NewRegistry()
	Register(r)
	return r
}

// optional resolves name, returning the zero value when the service is
// missing or has another type.
func optional[T any](r pipe.Resolver, name string) T {
	v, err := pipe.Resolve[T](r, name)
	if err != nil {
		var zero T
		return zero
	}
	return v
}
