package pipe

import (
	"sort"
	"sync"
)

// Context is the property bag carried through one pipeline invocation.
//
// Keys are process-unique per concern (see keys.go). Readers tolerate absence
// and receive the zero value; only keys documented as required are read with
// Require. A Context is created fresh for every invocation and is not shared
// between invocations.
type Context struct {
	mu         sync.RWMutex
	properties map[string]any
}

// NewContext returns an empty Context.
func NewContext() *Context {
	return &Context{properties: make(map[string]any)}
}

// Get returns the raw value stored under key.
func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.properties[key]
	return v, ok
}

// Set stores value under key, replacing any previous value.
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	c.properties[key] = value
	c.mu.Unlock()
}

// Delete removes key from the bag.
func (c *Context) Delete(key string) {
	c.mu.Lock()
	delete(c.properties, key)
	c.mu.Unlock()
}

// Has reports whether key is present.
func (c *Context) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Keys returns the stored keys in lexical order.
func (c *Context) Keys() []string {
	c.mu.RLock()
	keys := make([]string, 0, len(c.properties))
	for k := range c.properties {
		keys = append(keys, k)
	}
	c.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy. Values themselves are not copied.
func (c *Context) Clone() *Context {
	c.mu.RLock()
	defer c.mu.RUnlock()
	clone := &Context{properties: make(map[string]any, len(c.properties))}
	for k, v := range c.properties {
		clone.properties[k] = v
	}
	return clone
}

// Lookup returns the value under key converted to T. The boolean is false when
// the key is absent or holds a value of a different type.
func Lookup[T any](c *Context, key string) (T, bool) {
	var zero T
	if c == nil {
		return zero, false
	}
	raw, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	v, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// Get returns the value under key converted to T, or the zero value of T.
func Get[T any](c *Context, key string) T {
	v, _ := Lookup[T](c, key)
	return v
}

// GetOr returns the value under key converted to T, or fallback.
func GetOr[T any](c *Context, key string, fallback T) T {
	if v, ok := Lookup[T](c, key); ok {
		return v
	}
	return fallback
}

// Require returns the value under key or an error wrapping ErrMissingKey.
// It is used for keys a middleware documents as mandatory.
func Require[T any](c *Context, key string) (T, error) {
	v, ok := Lookup[T](c, key)
	if !ok {
		return v, missingKey(key)
	}
	return v, nil
}
