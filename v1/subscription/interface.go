package subscription

import (
	"context"

	"github.com/Aleph-Alpha/rabbitbus/v1/rabbit"
)

// Canceller cancels consumers on the channel they were registered on.
//
// rabbit.Channel satisfies this interface.
type Canceller interface {
	Cancel(ctx context.Context, consumerTag string) error
	IsClosed() bool
}

// brokerConsumer is the shape of a broker-native consumer handle. Only
// consumers of this shape get full tracking.
type brokerConsumer interface {
	ConsumerTag() string
	QueueName() string
	Channel() rabbit.Channel
}

// Logger is the logging contract of this package.
type Logger interface {
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}
