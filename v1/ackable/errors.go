package ackable

import "errors"

var (
	// ErrAlreadyAcknowledged is returned when Ack, Nack or Reject is called
	// after a previous settle call succeeded. No broker call is made.
	ErrAlreadyAcknowledged = errors.New("ackable: already acknowledged")

	// ErrDisposed is returned when settling an Ackable whose channel was released.
	ErrDisposed = errors.New("ackable: disposed")

	// ErrNoChannel is returned when content carries delivery tags but no
	// channel is attached to settle them on.
	ErrNoChannel = errors.New("ackable: no channel")
)
