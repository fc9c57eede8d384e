package memory

import (
	"sync"
	"time"
)

// Cache is a lightweight in-memory TTL cache for hot lookups.
type Cache struct {
	items map[string]item
	mu    sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

type item struct {
	value      interface{}
	expiration time.Time
}

// New creates a cache whose entries live for ttl. A background sweeper drops
// expired entries until Close is called.
func New(ttl time.Duration) *Cache {
	cache := &Cache{
		items: make(map[string]item),
		ttl:   ttl,
		now:   time.Now,
		stop:  make(chan struct{}),
	}

	go cache.sweep(5 * time.Minute)

	return cache
}

// Get retrieves a live value from the cache.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	itm, exists := c.items[key]
	if !exists || c.now().After(itm.expiration) {
		return nil, false
	}

	return itm.value, true
}

// Set stores a value in the cache.
func (c *Cache) Set(key string, value interface{}) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = item{
		value:      value,
		expiration: c.now().Add(c.ttl),
	}
}

// Delete removes a value from the cache.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// Len reports the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close stops the background sweeper.
func (c *Cache) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *Cache) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.purgeExpired()
		}
	}
}

func (c *Cache) purgeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, itm := range c.items {
		if now.After(itm.expiration) {
			delete(c.items, key)
		}
	}
}

// GetOrSet returns the cached value for key or computes and stores it with fn.
// Errors from fn are returned and nothing is cached.
func (c *Cache) GetOrSet(key string, fn func() (interface{}, error)) (interface{}, error) {
	if val, found := c.Get(key); found {
		return val, nil
	}

	val, err := fn()
	if err != nil {
		return nil, err
	}

	c.Set(key, val)
	return val, nil
}
