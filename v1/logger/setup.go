package logger

import (
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerClient is a wrapper around Uber's Zap logger.
// It adds the execution id of bus invocations and, optionally, the active
// trace context to entries logged with a context.
type LoggerClient struct {
	// Zap is the underlying zap.Logger instance
	// This is exposed to allow direct access to Zap-specific functionality
	// when needed, but most logging should go through the wrapper methods.
	Zap *zap.Logger

	// tracingEnabled indicates whether tracing integration is enabled
	// When true, logging methods will automatically extract trace context
	// and include trace/span IDs in log entries
	tracingEnabled bool
}

// New builds a logger from cfg.
//
// Entries carry:
//   - an ISO8601 "timestamp" and a capitalised level ("INFO", "ERROR")
//   - "pid" and "service" as default fields
//   - the caller (file and line)
//
// Parameters:
//   - cfg: Level, encoding ("json" or "console"), output and tracing settings
//
// Returns the logger, or an error for an unknown encoding or an output that
// cannot be opened.
//
// Example:
//
//	log, err := logger.New(logger.Config{Level: logger.Debug, Encoding: logger.EncodingConsole})
//	if err != nil {
//		return err
//	}
//	log.Info("Consumer started", nil, map[string]interface{}{"queue": "orders"})
func New(cfg Config) (*LoggerClient, error) {
	zapCfg, err := zapConfig(cfg)
	if err != nil {
		return nil, err
	}

	z, err := zapCfg.Build(zap.AddCaller(), zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return &LoggerClient{Zap: z, tracingEnabled: cfg.EnableTracing}, nil
}

// NewLoggerClient is New for program start-up: it calls log.Fatal instead of
// returning an error.
//
// Example:
//
//	log := logger.NewLoggerClient(logger.Config{Level: logger.Info})
//	log.Info("Application started", nil, nil)
func NewLoggerClient(cfg Config) *LoggerClient {
	l, err := New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	return l
}

// NewWithZap wraps an existing zap logger.
func NewWithZap(z *zap.Logger, enableTracing bool) *LoggerClient {
	return &LoggerClient{Zap: z, tracingEnabled: enableTracing}
}

// Named returns a child logger whose entries carry component as the
// "component" field. The rabbit, metrics and tracer packages each log
// through one.
func (l *LoggerClient) Named(component string) *LoggerClient {
	return &LoggerClient{
		Zap:            l.Zap.With(zap.String("component", component)),
		tracingEnabled: l.tracingEnabled,
	}
}

func zapConfig(cfg Config) (zap.Config, error) {
	encoding := cfg.Encoding
	if encoding == "" {
		encoding = EncodingJSON
	}
	if encoding != EncodingJSON && encoding != EncodingConsole {
		return zap.Config{}, fmt.Errorf("unknown log encoding %q", encoding)
	}

	output := cfg.Output
	if output == "" {
		output = "stderr"
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderCfg.EncodeCaller = zapcore.ShortCallerEncoder
	encoderCfg.EncodeDuration = zapcore.MillisDurationEncoder

	return zap.Config{
		Level:            zap.NewAtomicLevelAt(parseLevel(cfg.Level)),
		Encoding:         encoding,
		EncoderConfig:    encoderCfg,
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{"stderr"},
		InitialFields: map[string]interface{}{
			"pid":     os.Getpid(),
			"service": cfg.ServiceName,
		},
	}, nil
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case Debug:
		return zap.DebugLevel
	case Warning:
		return zap.WarnLevel
	case Error:
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}
