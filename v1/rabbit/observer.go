package rabbit

import (
	"time"

	"github.com/Aleph-Alpha/rabbitbus/v1/observability"
)

const component = "rabbit"

// observeOperation reports one broker call to the observer, if any.
// resource is the exchange or queue, subResource the routing key, consumer
// tag or exchange kind.
func (rb *RabbitClient) observeOperation(operation, resource, subResource string, duration time.Duration, err error, size int64) {
	if rb.observer == nil {
		return
	}
	rb.observer.ObserveOperation(observability.OperationContext{
		Component:   component,
		Operation:   operation,
		Resource:    resource,
		SubResource: subResource,
		Duration:    duration,
		Error:       err,
		Size:        size,
	})
}
