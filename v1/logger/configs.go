package logger

const (
	Debug   = "debug"
	Info    = "info"
	Warning = "warning"
	Error   = "error"
)

// Encodings accepted by Config.Encoding.
const (
	EncodingJSON    = "json"
	EncodingConsole = "console"
)

type Config struct {
	// 1. production -> INFO
	// 2. development -> DEBUG
	// else -> INFO
	Level string `yaml:"level" envconfig:"ZAP_LOGGER_LEVEL" default:"info"`

	// ServiceName is added to every entry as the "service" field
	ServiceName string `yaml:"service_name" envconfig:"LOGGER_SERVICE_NAME" default:"rabbitbus"`

	// EnableTracing adds trace_id and span_id to entries logged with a context
	EnableTracing bool `yaml:"enable_tracing" envconfig:"LOGGER_ENABLE_TRACING"`

	// Encoding is "json" or "console"
	Encoding string `yaml:"encoding" envconfig:"LOGGER_ENCODING" default:"json"`

	// Output is a zap sink: "stderr", "stdout" or a file path
	Output string `yaml:"output" envconfig:"LOGGER_OUTPUT" default:"stderr"`
}
