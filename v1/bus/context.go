package bus

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

type deliveryKey struct{}

func withDelivery(ctx context.Context, d amqp.Delivery) context.Context {
	return context.WithValue(ctx, deliveryKey{}, d)
}

// DeliveryFromContext returns the delivery a Subscribe, Respond or sequence
// step handler was called for. Use it to read headers or to correlate
// follow-up messages.
func DeliveryFromContext(ctx context.Context) (amqp.Delivery, bool) {
	d, ok := ctx.Value(deliveryKey{}).(amqp.Delivery)
	return d, ok
}
