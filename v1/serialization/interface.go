package serialization

// Serializer converts messages to and from message bodies.
type Serializer interface {
	// ContentType is the MIME type written to the content-type property.
	ContentType() string

	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}
