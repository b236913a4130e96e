package metrics

// DefaultMetricsAddress is where the /metrics endpoint listens when Address
// is empty.
const DefaultMetricsAddress = ":9090"

// DefaultNamespace prefixes every rabbitbus metric name.
const DefaultNamespace = "rabbitbus"

// Config configures the metrics registry and its HTTP endpoint.
type Config struct {
	// Address is the listen address of the /metrics endpoint.
	Address string `yaml:"address" envconfig:"METRICS_ADDRESS"`

	// EnableDefaultCollectors registers the Go runtime, process and build
	// info collectors.
	EnableDefaultCollectors bool `yaml:"enable_default_collectors" envconfig:"METRICS_ENABLE_DEFAULT_COLLECTORS"`

	// Namespace prefixes metric names. Defaults to "rabbitbus".
	Namespace string `yaml:"namespace" envconfig:"METRICS_NAMESPACE"`

	// ServiceName is attached to every metric as the "service" label.
	ServiceName string `yaml:"service_name" envconfig:"METRICS_SERVICE_NAME"`
}
