package middleware

import "errors"

var (
	// ErrNoQueue is returned when a node needs a queue name and neither its
	// configuration nor a previous declaration provides one.
	ErrNoQueue = errors.New("middleware: no queue name")

	// ErrReplyStreamClosed is returned when the reply consumer stops before
	// a matching response arrives.
	ErrReplyStreamClosed = errors.New("middleware: reply stream closed")
)
