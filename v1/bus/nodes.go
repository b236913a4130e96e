package bus

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Aleph-Alpha/rabbitbus/v1/pipe"
)

// RemoteErrorKey is the registry key of the node turning error replies into
// ErrRemote.
const RemoteErrorKey = "remote-error"

// ErrorHeader carries the error message of a failed Respond handler.
const ErrorHeader = "x-error"

type remoteError struct {
	pipe.Base
}

func newRemoteError(pipe.Resolver, ...any) (pipe.Linker, error) {
	return &remoteError{}, nil
}

// Invoke fails with ErrRemote when the delivery under pipe.DeliveryKey
// carries ErrorHeader.
func (m *remoteError) Invoke(ctx context.Context, pc *pipe.Context) error {
	d, err := pipe.Require[amqp.Delivery](pc, pipe.DeliveryKey)
	if err != nil {
		return err
	}
	if msg, ok := d.Headers[ErrorHeader].(string); ok {
		return fmt.Errorf("%w: %s", ErrRemote, msg)
	}
	return m.Next(ctx, pc)
}
