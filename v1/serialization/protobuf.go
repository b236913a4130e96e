package serialization

import (
	"fmt"

	"google.golang.org/protobuf/proto"
)

// ContentTypeProtobuf is the content type of protobuf bodies.
const ContentTypeProtobuf = "application/x-protobuf"

type protobufSerializer struct{}

// Protobuf returns the binary protobuf serializer. Values must implement
// proto.Message.
func Protobuf() Serializer { return protobufSerializer{} }

func (protobufSerializer) ContentType() string { return ContentTypeProtobuf }

func (protobufSerializer) Marshal(v any) ([]byte, error) {
	m, ok := v.(proto.Message)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotProtoMessage, v)
	}
	return proto.Marshal(m)
}

func (protobufSerializer) Unmarshal(data []byte, v any) error {
	m, ok := v.(proto.Message)
	if !ok {
		return fmt.Errorf("%w: %T", ErrNotProtoMessage, v)
	}
	return proto.Unmarshal(data, m)
}
