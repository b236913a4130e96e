package rabbit

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Config defines the top-level configuration structure for the RabbitMQ client.
// It contains the connection settings and the defaults applied to every
// channel the client opens.
type Config struct {
	// Connection contains the settings needed to establish a connection to the RabbitMQ server
	Connection Connection `yaml:"connection"`

	// Channel contains the defaults applied to channels opened by the client
	Channel ChannelConfig `yaml:"channel"`
}

// Connection contains the configuration parameters needed to establish
// a connection to a RabbitMQ server, including authentication and TLS settings.
type Connection struct {
	// Host is the RabbitMQ server hostname or IP address
	Host string `yaml:"host" envconfig:"RABBIT_HOST" default:"localhost"`

	// Port is the RabbitMQ server port (typically 5672 for non-SSL, 5671 for SSL)
	Port uint `yaml:"port" envconfig:"RABBIT_PORT" default:"5672"`

	// User is the RabbitMQ username for authentication
	User string `yaml:"user" envconfig:"RABBIT_USER" default:"guest"`

	// Password is the RabbitMQ password for authentication
	Password string `yaml:"password" envconfig:"RABBIT_PASSWORD" default:"guest"`

	// VirtualHost is the vhost path; empty selects the default vhost
	VirtualHost string `yaml:"virtual_host" envconfig:"RABBIT_VHOST"`

	// IsSSLEnabled determines whether to use SSL/TLS for the connection
	// When true, connections will use the AMQPs protocol
	IsSSLEnabled bool `yaml:"is_ssl_enabled" envconfig:"RABBIT_SSL_ENABLED"`

	// UseCert determines whether to use client certificate authentication
	UseCert bool `yaml:"use_cert" envconfig:"RABBIT_USE_CERT"`

	// CACertPath is the file path to the CA certificate for verifying the server
	CACertPath string `yaml:"ca_cert_path" envconfig:"RABBIT_CA_CERT_PATH"`

	// ClientCertPath is the file path to the client certificate
	ClientCertPath string `yaml:"client_cert_path" envconfig:"RABBIT_CLIENT_CERT_PATH"`

	// ClientKeyPath is the file path to the client certificate's private key
	ClientKeyPath string `yaml:"client_key_path" envconfig:"RABBIT_CLIENT_KEY_PATH"`

	// ServerName is the server name to use for TLS verification
	ServerName string `yaml:"server_name" envconfig:"RABBIT_SERVER_NAME"`
}

// ChannelConfig contains the defaults for AMQP channels opened by the client.
type ChannelConfig struct {
	// DelayToReconnect is the time in milliseconds to wait between reconnection attempts
	DelayToReconnect int `yaml:"delay_to_reconnect" envconfig:"RABBIT_DELAY_TO_RECONNECT" default:"1000"`

	// PrefetchCount limits the number of unacknowledged messages that can be sent to a consumer
	// A value of 0 means no limit (not recommended for production)
	PrefetchCount int `yaml:"prefetch_count" envconfig:"RABBIT_PREFETCH_COUNT" default:"50"`

	// PublisherConfirms puts every opened channel into confirm mode
	PublisherConfirms bool `yaml:"publisher_confirms" envconfig:"RABBIT_PUBLISHER_CONFIRMS"`

	// ContentType is the default MIME type of published messages
	ContentType string `yaml:"content_type" envconfig:"RABBIT_CONTENT_TYPE" default:"application/json"`
}

// DeadLetter contains configuration for dead-letter handling.
// Dead-letter exchanges receive messages that are rejected, expire, or exceed queue limits.
type DeadLetter struct {
	// ExchangeName is the name of the dead-letter exchange
	ExchangeName string `yaml:"exchange_name"`

	// RoutingKey is the routing key used when dead-lettering messages
	RoutingKey string `yaml:"routing_key"`

	// Ttl is the time-to-live for messages in seconds
	// A value of 0 means no TTL (messages never expire)
	Ttl int `yaml:"ttl"`
}

// QueueDeclaration describes a queue to declare.
type QueueDeclaration struct {
	Name       string
	Durable    bool
	AutoDelete bool
	Exclusive  bool
	Arguments  amqp.Table

	// DeadLetter, when its ExchangeName is set, adds the x-dead-letter-*
	// and x-message-ttl arguments.
	DeadLetter DeadLetter
}

// ExchangeDeclaration describes an exchange to declare.
type ExchangeDeclaration struct {
	Name       string
	Type       string
	Durable    bool
	AutoDelete bool
	Internal   bool
	Arguments  amqp.Table
}

// QueueBinding binds a queue to an exchange.
type QueueBinding struct {
	Queue      string
	Exchange   string
	RoutingKey string
	Arguments  amqp.Table
}

// ConsumeConfig describes a consumer registration.
type ConsumeConfig struct {
	Queue string

	// ConsumerTag identifies the consumer on its channel. A unique tag is
	// generated when empty.
	ConsumerTag string

	AutoAck   bool
	Exclusive bool
	NoLocal   bool
	Arguments amqp.Table
}

// PublishConfig addresses a publication.
type PublishConfig struct {
	// Exchange is the target exchange; "" is the default exchange, which
	// routes by queue name.
	Exchange string

	RoutingKey string

	// Mandatory asks the broker to return unroutable messages.
	Mandatory bool

	// Persistent marks messages as persistent (delivery mode 2).
	Persistent bool
}

// Logger is the context-aware subset of logger.Logger used by the client.
// It provides context-aware structured logging with optional error and field parameters.
type Logger interface {
	// InfoWithContext logs an informational message with trace context.
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})

	// WarnWithContext logs a warning message with trace context.
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})

	// ErrorWithContext logs an error message with trace context.
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}
