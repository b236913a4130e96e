package middleware

// Registry keys of the standard nodes.
const (
	ExecutionIDKey         = "execution-id"
	TracingKey             = "tracing"
	ChannelKey             = "channel"
	ExchangeDeclareKey     = "exchange-declare"
	QueueDeclareKey        = "queue-declare"
	QueueBindKey           = "queue-bind"
	BodySerializationKey   = "body-serialization"
	BasicPropertiesKey     = "basic-properties"
	PublishKey             = "publish"
	BasicGetKey            = "basic-get"
	ConsumeKey             = "consume"
	SubscriptionKey        = "subscription"
	MessageDispatchKey     = "message-dispatch"
	ReplyReceiveKey        = "reply-receive"
	BodyDeserializationKey = "body-deserialization"
	HandlerKey             = "handler"
	AutoAckKey             = "auto-ack"
)

// Service names resolved by the node constructors.
const (
	ChannelFactoryService = "channel-factory"
	SerializersService    = "serializers"
	TopologyService       = "topology-cache"
	TracerService         = "tracer"
	SubscriptionsService  = "subscriptions"
	LoggerService         = "logger"
)

// ExecutionIDHeader carries the global execution id between services.
const ExecutionIDHeader = "x-execution-id"

const component = "middleware"
