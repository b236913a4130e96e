package serialization

import "errors"

var (
	// ErrNotProtoMessage is returned when the protobuf serializer is given a
	// value that does not implement proto.Message.
	ErrNotProtoMessage = errors.New("serialization: value is not a proto.Message")

	// ErrUnsupportedContentType is returned when no serializer is registered
	// for a content type.
	ErrUnsupportedContentType = errors.New("serialization: unsupported content type")
)
