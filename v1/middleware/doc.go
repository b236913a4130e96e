// Package middleware holds the standard pipeline nodes of rabbitbus.
//
// Every node is registered in a pipe.Registry under a stable key and is
// built by pipe.Factory with the services it needs resolved by name:
//
//	ChannelFactoryService  rabbit.ChannelFactory       (required by "channel")
//	SerializersService     *serialization.Registry     (JSON default when absent)
//	TopologyService        *TopologyCache              (declare every time when absent)
//	TracerService          *tracer.Tracer              (no spans when absent)
//	SubscriptionsService   *subscription.Repository    (untracked when absent)
//	LoggerService          Logger                      (silent when absent)
//
// Nodes read their inputs from and write their results to the pipe.Context
// under the keys of package pipe. Every broker call is wrapped in the policy
// that policy.FromContext returns for the call's well-known name, so retries
// are configured per invocation and default to none.
//
// A publish chain:
//
//	b.Use(middleware.ExecutionIDKey).
//		Use(middleware.TracingKey, trace.SpanKindProducer).
//		Use(middleware.ChannelKey, middleware.ChannelOptions{CloseAfterUse: true}).
//		Use(middleware.ExchangeDeclareKey).
//		Use(middleware.BodySerializationKey).
//		Use(middleware.BasicPropertiesKey).
//		Use(middleware.PublishKey)
//
// A consume chain ends in message-dispatch followed by the per-message
// nodes; message-dispatch returns as soon as the consumer is running and
// runs the nodes after it once per delivery:
//
//	b.Use(middleware.ChannelKey).
//		Use(middleware.QueueDeclareKey).
//		Use(middleware.ConsumeKey).
//		Use(middleware.SubscriptionKey).
//		Use(middleware.MessageDispatchKey).
//		Use(middleware.BodyDeserializationKey).
//		Use(middleware.HandlerKey).
//		Use(middleware.AutoAckKey)
//
// Function values stored in the context must have the named types Handler
// and Decoder; plain func literals are not found.
package middleware
