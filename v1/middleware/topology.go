package middleware

import "sync"

// TopologyCache remembers which exchanges, queues and bindings a client has
// declared so each is declared once. A nil cache remembers nothing.
type TopologyCache struct {
	mu       sync.RWMutex
	declared map[string]struct{}
}

// NewTopologyCache returns an empty cache.
func NewTopologyCache() *TopologyCache {
	return &TopologyCache{declared: make(map[string]struct{})}
}

// Seen reports whether key was marked.
func (c *TopologyCache) Seen(key string) bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.declared[key]
	return ok
}

// Mark records key as declared.
func (c *TopologyCache) Mark(key string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.declared[key] = struct{}{}
	c.mu.Unlock()
}

// Reset forgets everything, e.g. after a reconnect.
func (c *TopologyCache) Reset() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.declared = make(map[string]struct{})
	c.mu.Unlock()
}

// Len returns the number of remembered declarations.
func (c *TopologyCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.declared)
}

func exchangeKey(name string) string { return "exchange:" + name }

func queueKey(name string) string { return "queue:" + name }

func bindingKey(queue, exchange, routingKey string) string {
	return "binding:" + queue + "|" + exchange + "|" + routingKey
}
