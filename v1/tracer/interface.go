package tracer

// Logger is the logging surface used by the tracer.
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
}
