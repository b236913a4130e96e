package rabbit

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Common RabbitMQ error types that can be used by consumers of this package.
// These provide a standardized set of errors that abstract away the
// underlying AMQP-specific error details.
var (
	// ErrConnectionFailed is returned when connection to RabbitMQ cannot be established
	ErrConnectionFailed = errors.New("connection failed")

	// ErrConnectionLost is returned when connection to RabbitMQ is lost
	ErrConnectionLost = errors.New("connection lost")

	// ErrConnectionClosed is returned when connection is closed
	ErrConnectionClosed = errors.New("connection closed")

	// ErrChannelClosed is returned when channel is closed
	ErrChannelClosed = errors.New("channel closed")

	// ErrAuthenticationFailed is returned when authentication fails
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrAccessDenied is returned when access is denied to a resource
	ErrAccessDenied = errors.New("access denied")

	// ErrExchangeNotFound is returned when exchange doesn't exist
	ErrExchangeNotFound = errors.New("exchange not found")

	// ErrQueueNotFound is returned when queue doesn't exist
	ErrQueueNotFound = errors.New("queue not found")

	// ErrNotFound is returned when an entity referenced by a call doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrResourceLocked is returned when resource is locked
	ErrResourceLocked = errors.New("resource locked")

	// ErrPreconditionFailed is returned when a declaration conflicts with an existing entity
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrChannelError is returned for channel-related errors
	ErrChannelError = errors.New("channel error")

	// ErrNotAllowed is returned when operation is not allowed
	ErrNotAllowed = errors.New("not allowed")

	// ErrInternalError is returned for internal errors
	ErrInternalError = errors.New("internal error")

	// ErrProtocolError is returned for frame and syntax level protocol violations
	ErrProtocolError = errors.New("protocol error")

	// ErrResourceAlarm is returned when the broker blocks publishers due to a resource alarm
	ErrResourceAlarm = errors.New("resource alarm")

	// ErrNetworkError is returned for network-related errors
	ErrNetworkError = errors.New("network error")

	// ErrTimeout is returned when operation times out
	ErrTimeout = errors.New("timeout")

	// ErrMessageTooLarge is returned when message exceeds size limits
	ErrMessageTooLarge = errors.New("message too large")

	// ErrPublishFailed is returned when the broker refuses to route a message
	ErrPublishFailed = errors.New("publish failed")

	// ErrPublishNotConfirmed is returned when the broker nacks a published message
	ErrPublishNotConfirmed = errors.New("publish not confirmed")
)

// TranslateError converts AMQP-specific errors into standardized application errors.
// The returned error wraps both the sentinel and the original error so either
// can be matched with errors.Is. Context errors are returned unchanged.
//
// Parameters:
//   - err: The error returned by amqp091-go or the network stack
//
// The mapping is decided in this order:
//   - amqp.ErrClosed: ErrChannelClosed
//   - *amqp.Error: by reply code, then by reason text
//   - syscall errno: refused, reset or timed out sockets
//   - net.Error: ErrTimeout or ErrNetworkError
//   - message text as a last resort
//
// Errors matching none of these are returned as they are.
//
// Example:
//
//	err := rabbit.TranslateError(amqpErr)
//	if errors.Is(err, rabbit.ErrPreconditionFailed) {
//		// the queue exists with different arguments
//	}
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	if sentinel := classify(err); sentinel != nil && !errors.Is(err, sentinel) {
		return fmt.Errorf("%w: %w", sentinel, err)
	}
	return err
}

func classify(err error) error {
	if errors.Is(err, amqp.ErrClosed) {
		return ErrChannelClosed
	}

	// Check for AMQP specific errors
	var amqpErr *amqp.Error
	if errors.As(err, &amqpErr) {
		return translateAMQPError(amqpErr)
	}

	// Check for syscall errors first; syscall.Errno also satisfies net.Error
	var syscallErr syscall.Errno
	if errors.As(err, &syscallErr) {
		switch syscallErr {
		case syscall.ECONNREFUSED:
			return ErrConnectionFailed
		case syscall.ECONNRESET, syscall.ECONNABORTED, syscall.EPIPE:
			return ErrConnectionLost
		case syscall.ETIMEDOUT:
			return ErrTimeout
		default:
			return ErrNetworkError
		}
	}

	// Check for network errors
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrTimeout
		}
		return ErrNetworkError
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused"):
		return ErrConnectionFailed
	case strings.Contains(msg, "connection reset"):
		return ErrConnectionLost
	case strings.Contains(msg, "channel closed"):
		return ErrChannelClosed
	}
	return nil
}

// translateAMQPError maps AMQP error codes to custom errors
func translateAMQPError(amqpErr *amqp.Error) error {
	switch amqpErr.Code {
	case amqp.ConnectionForced:
		return ErrConnectionClosed
	case amqp.AccessRefused:
		return ErrAccessDenied
	case amqp.NotFound:
		reason := strings.ToLower(amqpErr.Reason)
		switch {
		case strings.Contains(reason, "exchange"):
			return ErrExchangeNotFound
		case strings.Contains(reason, "queue"):
			return ErrQueueNotFound
		}
		return ErrNotFound
	case amqp.ResourceLocked:
		return ErrResourceLocked
	case amqp.PreconditionFailed:
		return ErrPreconditionFailed
	case amqp.ContentTooLarge:
		return ErrMessageTooLarge
	case amqp.NoRoute, amqp.NoConsumers:
		return ErrPublishFailed
	case amqp.ChannelError:
		return ErrChannelError
	case amqp.NotAllowed:
		return ErrNotAllowed
	case amqp.InternalError:
		return ErrInternalError
	case amqp.ResourceError:
		return ErrResourceAlarm
	case amqp.SyntaxError, amqp.CommandInvalid, amqp.FrameError, amqp.UnexpectedFrame:
		return ErrProtocolError
	}

	reason := strings.ToLower(amqpErr.Reason)
	switch {
	case strings.Contains(reason, "login refused"), strings.Contains(reason, "authentication failed"):
		return ErrAuthenticationFailed
	case strings.Contains(reason, "alarm"):
		return ErrResourceAlarm
	}
	return nil
}

// IsRetryableError returns true if the error is retryable. It is the retry
// predicate of the bus retry policy.
// Connection loss, closed channels, timeouts and broker alarms are
// transient; declaration conflicts and permission problems are not.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, ErrConnectionFailed),
		errors.Is(err, ErrConnectionLost),
		errors.Is(err, ErrConnectionClosed),
		errors.Is(err, ErrChannelClosed),
		errors.Is(err, ErrNetworkError),
		errors.Is(err, ErrTimeout),
		errors.Is(err, ErrResourceLocked),
		errors.Is(err, ErrResourceAlarm),
		errors.Is(err, ErrInternalError):
		return true
	}

	var amqpErr *amqp.Error
	if errors.As(err, &amqpErr) {
		return amqpErr.Recover
	}
	return false
}

// IsChannelError returns true if the error invalidates the channel it
// occurred on. The broker closes a channel after any channel-level exception.
func IsChannelError(err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, ErrChannelClosed),
		errors.Is(err, ErrChannelError),
		errors.Is(err, ErrPreconditionFailed),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrQueueNotFound),
		errors.Is(err, ErrExchangeNotFound),
		errors.Is(err, ErrAccessDenied),
		errors.Is(err, ErrResourceLocked):
		return true
	}
	return false
}

// IsPermanentError returns true if retrying the call cannot succeed.
func IsPermanentError(err error) bool {
	if err == nil {
		return false
	}
	return !IsRetryableError(err)
}
