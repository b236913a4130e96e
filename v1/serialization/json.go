package serialization

import (
	jsoniter "github.com/json-iterator/go"
)

// ContentTypeJSON is the content type of JSON bodies.
const ContentTypeJSON = "application/json"

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

type jsonSerializer struct{}

// JSON returns the JSON serializer.
func JSON() Serializer { return jsonSerializer{} }

func (jsonSerializer) ContentType() string { return ContentTypeJSON }

func (jsonSerializer) Marshal(v any) ([]byte, error) {
	return jsonAPI.Marshal(v)
}

func (jsonSerializer) Unmarshal(data []byte, v any) error {
	return jsonAPI.Unmarshal(data, v)
}
