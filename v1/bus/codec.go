package bus

import (
	"fmt"
	"reflect"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Aleph-Alpha/rabbitbus/v1/middleware"
	"github.com/Aleph-Alpha/rabbitbus/v1/serialization"
)

// decoderFor returns the middleware.Decoder producing values of type T.
func decoderFor[T any]() middleware.Decoder {
	return func(s serialization.Serializer, body []byte) (any, error) {
		return decode[T](s, body)
	}
}

// decode unmarshals body into a T. Pointer types are allocated first so
// that protobuf messages decode into a usable value; []byte receives the
// body unchanged.
func decode[T any](s serialization.Serializer, body []byte) (T, error) {
	var v T

	if raw, ok := any(&v).(*[]byte); ok {
		*raw = append([]byte(nil), body...)
		return v, nil
	}

	if t := reflect.TypeOf(v); t != nil && t.Kind() == reflect.Ptr {
		v = reflect.New(t.Elem()).Interface().(T)
		err := s.Unmarshal(body, v)
		return v, err
	}

	err := s.Unmarshal(body, &v)
	return v, err
}

// decodeDelivery decodes d with the serializer matching its content type.
func decodeDelivery[T any](serializers *serialization.Registry, d amqp.Delivery) (T, error) {
	var zero T

	s, err := serializers.Lookup(d.ContentType)
	if err != nil {
		return zero, fmt.Errorf("decode message %q: %w", d.MessageId, err)
	}
	v, err := decode[T](s, d.Body)
	if err != nil {
		return zero, fmt.Errorf("decode message %q: %w", d.MessageId, err)
	}
	return v, nil
}
