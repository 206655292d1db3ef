package tmpl

import "sync"

// Cache holds compiled templates by key. It is safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Template
}

func NewCache() *Cache {
	return &Cache{entries: map[string]*Template{}}
}

func (c *Cache) Get(key string) (*Template, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.entries[key]
	return t, ok
}

func (c *Cache) Put(key string, t *Template) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = t
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}
