// Package storecache decorates a domain.ShopSource with an in-memory LRU
// cache for offering lookups, which repeat heavily across discovery queries
// from the same area.
package storecache

import (
	"context"
	"sync"

	"github.com/motoatlas/shop-discovery-service/internal/domain"
	"github.com/motoatlas/shop-discovery-service/internal/observability"
)

// CachedSource wraps a ShopSource, caching HasAvailableOffering results.
// Shop listings pass through uncached; they change with every catalog batch
// and the store serves them in a single query.
type CachedSource struct {
	inner   domain.ShopSource
	cache   *lruCache
	metrics *observability.Metrics
}

// New creates a cache decorator around a shop source. Metrics may be nil.
func New(inner domain.ShopSource, maxEntries int, metrics *observability.Metrics) *CachedSource {
	return &CachedSource{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedSource) ListGeolocatedShops(ctx context.Context) ([]domain.Shop, error) {
	return c.inner.ListGeolocatedShops(ctx)
}

func (c *CachedSource) ListShops(ctx context.Context) ([]domain.Shop, error) {
	return c.inner.ListShops(ctx)
}

func (c *CachedSource) HasAvailableOffering(ctx context.Context, shopID, category string) (bool, error) {
	key := shopID + "|" + category
	if available, ok := c.cache.get(key); ok {
		c.count("hit")
		return available, nil
	}
	c.count("miss")

	available, err := c.inner.HasAvailableOffering(ctx, shopID, category)
	if err != nil {
		return false, err
	}
	c.cache.put(key, available)
	return available, nil
}

// Reset drops all cached entries. Called after a catalog batch lands so
// offering changes become visible immediately.
func (c *CachedSource) Reset() {
	c.cache.reset()
}

func (c *CachedSource) count(result string) {
	if c.metrics != nil {
		c.metrics.OfferingCache.WithLabelValues(result).Inc()
	}
}

// lruCache is a simple thread-safe LRU cache for offering lookups.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value bool
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry)
	c.head = nil
	c.tail = nil
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
