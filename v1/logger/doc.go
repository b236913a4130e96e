// Package logger provides structured logging for the message bus and its
// applications.
//
// The logger wraps zap with a small method set (message, optional error,
// optional field maps). Packages of this module that log declare a narrow
// interface for the subset they use, so *LoggerClient plugs into the rabbit
// client, the retry policies, the middleware nodes and the bus client alike.
//
// # Direct Usage (Without FX)
//
//	log := logger.NewLoggerClient(logger.Config{
//		Level:         logger.Info,
//		ServiceName:   "billing",
//		EnableTracing: true,
//	})
//
//	client, err := bus.New(rc, bus.WithLogger(log))
//
//	log.WarnWithContext(ctx, "Dropped reply", err, map[string]interface{}{
//		"correlation_id": d.CorrelationId,
//	})
//
// # FX Module Integration
//
//	app := fx.New(
//		logger.FXModule, // provides *LoggerClient and logger.Logger
//		fx.Supply(logger.Config{Level: logger.Debug}),
//	)
//
// # Context Fields
//
// The *WithContext variants add execution_id whenever ctx carries the
// execution id of a bus invocation (see pipe.WithExecutionID). With
// EnableTracing they also add the trace_id and span_id of the active
// OpenTelemetry span.
//
// # Configuration
//
//	ZAP_LOGGER_LEVEL=debug       # debug, info, warning, error
//	LOGGER_SERVICE_NAME=billing
//	LOGGER_ENABLE_TRACING=true
//	LOGGER_ENCODING=console      # json (default) or console
//	LOGGER_OUTPUT=stdout         # stderr (default), stdout or a file path
//
// All methods are safe for concurrent use.
package logger
