package mapbox

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/couchcryptid/parking-finder/internal/domain"
	"github.com/couchcryptid/parking-finder/internal/observability"
)

// CachedPlaces wraps a Places with an in-memory LRU cache.
type CachedPlaces struct {
	inner   domain.Places
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedPlaces creates a cache decorator around a places collaborator.
func NewCachedPlaces(inner domain.Places, maxEntries int, metrics *observability.Metrics) *CachedPlaces {
	return &CachedPlaces{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

// Search results depend on the proximity bias, so the key carries it
// rounded to about a kilometre.
func (c *CachedPlaces) Search(ctx context.Context, query string, near domain.Coordinate) (domain.Place, error) {
	key := fmt.Sprintf("search:%s|%.2f,%.2f", strings.ToLower(strings.TrimSpace(query)), near.Lat, near.Lng)
	return c.cached(key, "search", func() (domain.Place, error) {
		return c.inner.Search(ctx, query, near)
	})
}

func (c *CachedPlaces) Lookup(ctx context.Context, placeID string) (domain.Place, error) {
	return c.cached("lookup:"+placeID, "lookup", func() (domain.Place, error) {
		return c.inner.Lookup(ctx, placeID)
	})
}

func (c *CachedPlaces) cached(key, method string, load func() (domain.Place, error)) (domain.Place, error) {
	if place, ok := c.cache.get(key); ok {
		c.metrics.PlacesCache.WithLabelValues(method, "hit").Inc()
		return place, nil
	}
	c.metrics.PlacesCache.WithLabelValues(method, "miss").Inc()

	place, err := load()
	if err != nil {
		return place, err
	}
	// Only cache resolved places so transient "not found" responses can be retried.
	if place.Resolved {
		c.cache.put(key, place)
	}
	return place, nil
}

// lruCache is a simple thread-safe LRU cache for resolved places.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value domain.Place
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) get(key string) (domain.Place, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.Place{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.Place) {
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

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.unlink(e)
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

func (c *lruCache) unlink(e *entry) {
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
	c.unlink(c.tail)
}
