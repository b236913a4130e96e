package bus

import (
	"context"
)

// Logger is the logging contract of the bus client. It is satisfied by
// *logger.LoggerClient.
type Logger interface {
	// Warn logs a warning without a context. Retry policies report through it.
	Warn(msg string, err error, fields ...map[string]interface{})

	// InfoWithContext logs an informational message with trace context.
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})

	// WarnWithContext logs a warning message with trace context.
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})

	// ErrorWithContext logs an error message with trace context.
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}
