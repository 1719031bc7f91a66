package mapbox

import (
	"context"
	"errors"
	"testing"

	"github.com/couchcryptid/parking-finder/internal/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock for cache tests ---

type countingPlaces struct {
	searchCalls int
	lookupCalls int
	result      domain.Place
	err         error
}

func (m *countingPlaces) Search(_ context.Context, _ string, _ domain.Coordinate) (domain.Place, error) {
	m.searchCalls++
	return m.result, m.err
}

func (m *countingPlaces) Lookup(_ context.Context, _ string) (domain.Place, error) {
	m.lookupCalls++
	return m.result, m.err
}

var daanPark = domain.Place{
	ID:         "poi.1",
	Name:       "大安森林公園",
	Coordinate: domain.Coordinate{Lat: 25.0329, Lng: 121.5354},
	Resolved:   true,
}

// --- CachedPlaces tests ---

func TestCachedPlaces_SearchCacheHit(t *testing.T) {
	inner := &countingPlaces{result: daanPark}
	m := testMetrics()
	cached := NewCachedPlaces(inner, 10, m)

	p1, err := cached.Search(context.Background(), "大安森林公園", near)
	require.NoError(t, err)
	assert.Equal(t, "大安森林公園", p1.Name)

	p2, err := cached.Search(context.Background(), " 大安森林公園 ", near)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)

	assert.Equal(t, 1, inner.searchCalls, "should only call inner once")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.PlacesCache.WithLabelValues("search", "hit")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.PlacesCache.WithLabelValues("search", "miss")))
}

func TestCachedPlaces_SearchKeyIncludesBias(t *testing.T) {
	inner := &countingPlaces{result: daanPark}
	cached := NewCachedPlaces(inner, 10, testMetrics())

	_, _ = cached.Search(context.Background(), "7-11", near)
	_, _ = cached.Search(context.Background(), "7-11", domain.Coordinate{Lat: 25.10, Lng: 121.52})

	assert.Equal(t, 2, inner.searchCalls)
}

func TestCachedPlaces_LookupCacheHit(t *testing.T) {
	inner := &countingPlaces{result: daanPark}
	cached := NewCachedPlaces(inner, 10, testMetrics())

	_, err := cached.Lookup(context.Background(), "poi.1")
	require.NoError(t, err)
	_, err = cached.Lookup(context.Background(), "poi.1")
	require.NoError(t, err)

	assert.Equal(t, 1, inner.lookupCalls, "should only call inner once")
}

func TestCachedPlaces_UnresolvedNotCached(t *testing.T) {
	inner := &countingPlaces{}
	cached := NewCachedPlaces(inner, 10, testMetrics())

	_, _ = cached.Search(context.Background(), "zzzz", near)
	_, _ = cached.Search(context.Background(), "zzzz", near)

	assert.Equal(t, 2, inner.searchCalls)
	assert.Zero(t, cached.cache.len())
}

func TestCachedPlaces_ErrorNotCached(t *testing.T) {
	inner := &countingPlaces{err: errors.New("mapbox API error: status 500")}
	cached := NewCachedPlaces(inner, 10, testMetrics())

	_, err := cached.Lookup(context.Background(), "poi.1")
	require.Error(t, err)
	_, err = cached.Lookup(context.Background(), "poi.1")
	require.Error(t, err)

	assert.Equal(t, 2, inner.lookupCalls)
}

// --- LRU cache unit tests ---

func named(n string) domain.Place { return domain.Place{Name: n, Resolved: true} }

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache(3)

	c.put("a", named("A"))
	c.put("b", named("B"))

	result, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "A", result.Name)

	_, ok = c.get("missing")
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", named("A"))
	c.put("b", named("B"))
	c.put("c", named("C")) // evicts "a"

	_, ok := c.get("a")
	assert.False(t, ok, "a should have been evicted")

	result, ok := c.get("b")
	assert.True(t, ok)
	assert.Equal(t, "B", result.Name)

	result, ok = c.get("c")
	assert.True(t, ok)
	assert.Equal(t, "C", result.Name)
	assert.Equal(t, 2, c.len())
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", named("A"))
	c.put("b", named("B"))

	c.get("a")

	// "b" is now least recently used.
	c.put("c", named("C"))

	_, ok := c.get("a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")

	_, ok = c.get("b")
	assert.False(t, ok, "b should have been evicted")
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", named("A1"))
	c.put("a", named("A2"))

	result, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "A2", result.Name)
	assert.Equal(t, 1, c.len())
}
