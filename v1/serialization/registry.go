package serialization

import (
	"fmt"
	"mime"
	"sync"
)

// Registry selects serializers by content type.
type Registry struct {
	mu          sync.RWMutex
	serializers map[string]Serializer
	fallback    Serializer
}

// NewRegistry returns a registry holding JSON and Protobuf with JSON as the
// default.
func NewRegistry() *Registry {
	r := &Registry{serializers: make(map[string]Serializer)}
	r.Register(JSON())
	r.Register(Protobuf())
	r.fallback = JSON()
	return r
}

// Register adds s under its content type.
func (r *Registry) Register(s Serializer) *Registry {
	r.mu.Lock()
	r.serializers[s.ContentType()] = s
	r.mu.Unlock()
	return r
}

// SetDefault sets the serializer used for messages without a content type.
func (r *Registry) SetDefault(s Serializer) *Registry {
	r.mu.Lock()
	r.fallback = s
	r.mu.Unlock()
	return r
}

// Default returns the default serializer.
func (r *Registry) Default() Serializer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fallback
}

// Lookup returns the serializer for contentType. Parameters such as charset
// are ignored. An empty content type resolves to the default.
func (r *Registry) Lookup(contentType string) (Serializer, error) {
	if contentType == "" {
		return r.Default(), nil
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.serializers[mediaType]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedContentType, contentType)
}
