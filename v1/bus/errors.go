package bus

import "errors"

var (
	// ErrClosed is returned by operations started after Close.
	ErrClosed = errors.New("bus: client closed")

	// ErrRemote wraps the error a responder reported for a request.
	ErrRemote = errors.New("bus: remote handler failed")

	// ErrNoChannelFactory is returned by New without a channel factory.
	ErrNoChannelFactory = errors.New("bus: no channel factory")

	// ErrNoDestination is returned when an operation names neither a queue
	// nor an exchange to work on.
	ErrNoDestination = errors.New("bus: no queue or exchange")
)
