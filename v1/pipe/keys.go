package pipe

// Well-known Context keys. Each key belongs to one concern; middleware that
// produce a value own its key.
const (
	OperationKey            = "operation"
	ChannelKey              = "channel"
	ChannelOwnedKey         = "channel-owned"
	ConsumerKey             = "consumer"
	SubscriptionKey         = "subscription"
	ConsumeConfigurationKey = "consume-configuration"
	PublishConfigurationKey = "publish-configuration"
	GetConfigurationKey     = "get-configuration"
	QueueDeclarationKey     = "queue-declaration"
	ExchangeDeclarationKey  = "exchange-declaration"
	QueueBindingKey         = "queue-binding"
	MessageKey              = "message"
	MessageTypeKey          = "message-type"
	SerializedMessageKey    = "serialized-message"
	ContentTypeKey          = "content-type"
	BasicPropertiesKey      = "basic-properties"
	DeliveryKey             = "delivery"
	DeliveryFoundKey        = "delivery-found"
	AckableKey              = "ackable"
	MessageHandlerKey       = "message-handler"
	HandlerResultKey        = "handler-result"
	DeserializerKey         = "deserializer"
	DeserializedMessageKey  = "deserialized-message"
	PolicyProviderKey       = "policy-provider"
	GlobalExecutionIDKey    = "global-execution-id"
	CorrelationIDKey        = "correlation-id"
	ReplyToKey              = "reply-to"
	ResponseKey             = "response"
	HeadersKey              = "headers"
	AutoAckKey              = "auto-ack"
	PrefetchCountKey        = "prefetch-count"
)
