package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/gameshelf/backend/internal/domain"
)

// cacheItem represents a single item in the cache with optional expiration
type cacheItem struct {
	key        string
	value      []byte
	expiration time.Time // zero means no expiry
}

func (i *cacheItem) expired(now time.Time) bool {
	return !i.expiration.IsZero() && now.After(i.expiration)
}

// MemoryCache is a thread-safe in-memory LRU cache with TTL support.
// maxEntries <= 0 leaves it unbounded.
type MemoryCache struct {
	data       map[string]*list.Element
	order      *list.List // front = most recently used
	maxEntries int
	mutex      sync.Mutex

	stop      chan struct{}
	closeOnce sync.Once
}

// NewMemoryCache creates a new in-memory cache and starts its sweeper
func NewMemoryCache(maxEntries int, sweepInterval time.Duration) *MemoryCache {
	cache := &MemoryCache{
		data:       make(map[string]*list.Element),
		order:      list.New(),
		maxEntries: maxEntries,
		stop:       make(chan struct{}),
	}

	if sweepInterval <= 0 {
		sweepInterval = 10 * time.Minute
	}
	go cache.cleanupExpired(sweepInterval)

	return cache
}

// Get retrieves a value from the cache
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	elem, exists := c.data[key]
	if !exists {
		return nil, domain.ErrCacheMiss
	}

	item := elem.Value.(*cacheItem)
	if item.expired(time.Now()) {
		c.removeElement(elem)
		return nil, domain.ErrCacheMiss
	}

	c.order.MoveToFront(elem)
	return cloneBytes(item.value), nil
}

// Set stores a value in the cache; ttl <= 0 keeps it until evicted
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	var expiration time.Time
	if ttl > 0 {
		expiration = time.Now().Add(ttl)
	}

	if elem, exists := c.data[key]; exists {
		item := elem.Value.(*cacheItem)
		item.value = cloneBytes(value)
		item.expiration = expiration
		c.order.MoveToFront(elem)
		return nil
	}

	elem := c.order.PushFront(&cacheItem{key: key, value: cloneBytes(value), expiration: expiration})
	c.data[key] = elem

	for c.maxEntries > 0 && c.order.Len() > c.maxEntries {
		c.removeElement(c.order.Back())
	}

	return nil
}

// Delete removes a value from the cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if elem, exists := c.data[key]; exists {
		c.removeElement(elem)
	}
	return nil
}

// Exists checks if a key exists in the cache and is not expired
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	elem, exists := c.data[key]
	if !exists {
		return false, nil
	}
	return !elem.Value.(*cacheItem).expired(time.Now()), nil
}

// Close stops the sweeper goroutine. The cache stays readable.
func (c *MemoryCache) Close() error {
	c.closeOnce.Do(func() { close(c.stop) })
	return nil
}

// cleanupExpired removes expired entries from the cache periodically
func (c *MemoryCache) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.mutex.Lock()
			now := time.Now()
			for _, elem := range c.data {
				if elem.Value.(*cacheItem).expired(now) {
					c.removeElement(elem)
				}
			}
			c.mutex.Unlock()
		}
	}
}

// removeElement must be called with the mutex held
func (c *MemoryCache) removeElement(elem *list.Element) {
	item := c.order.Remove(elem).(*cacheItem)
	delete(c.data, item.key)
}

// Size returns the current number of items in the cache (for debugging/monitoring)
func (c *MemoryCache) Size() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.data)
}

// Clear removes all items from the cache
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.data = make(map[string]*list.Element)
	c.order.Init()
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
