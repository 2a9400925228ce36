package modelserver

import (
	"context"
	"errors"
	"testing"

	"github.com/couchcryptid/weather-outlook/internal/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock for cache tests ---

type countingModel struct {
	calls int
	out   domain.ModelOutput
	err   error
}

func (m *countingModel) Predict(_ context.Context, _ [][]float64) (domain.ModelOutput, error) {
	m.calls++
	return m.out, m.err
}

// --- CachedModel tests ---

func TestCachedModel_CacheHit(t *testing.T) {
	inner := &countingModel{out: domain.ModelOutput{Temperature: []float64{30}}}
	metrics := testMetrics()
	cached := NewCachedModel(inner, 10, metrics)
	window := [][]float64{{0.1, 0.2}, {0.3, 0.4}}

	o1, err := cached.Predict(context.Background(), window)
	require.NoError(t, err)
	o2, err := cached.Predict(context.Background(), [][]float64{{0.1, 0.2}, {0.3, 0.4}})
	require.NoError(t, err)

	assert.Equal(t, o1, o2)
	assert.Equal(t, 1, inner.calls, "should only call inner once")
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.ModelCache.WithLabelValues("hit")), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.ModelCache.WithLabelValues("miss")), 0)
}

func TestCachedModel_DifferentWindowsMiss(t *testing.T) {
	inner := &countingModel{}
	cached := NewCachedModel(inner, 10, testMetrics())

	_, _ = cached.Predict(context.Background(), [][]float64{{0.1, 0.2}})
	_, _ = cached.Predict(context.Background(), [][]float64{{0.1, 0.2000001}})
	_, _ = cached.Predict(context.Background(), [][]float64{{0.1}, {0.2}})

	assert.Equal(t, 3, inner.calls)
}

func TestCachedModel_ErrorsAreNotCached(t *testing.T) {
	inner := &countingModel{err: errors.New("model server returned 503")}
	cached := NewCachedModel(inner, 10, testMetrics())
	window := [][]float64{{1}}

	_, err := cached.Predict(context.Background(), window)
	require.Error(t, err)

	inner.err = nil
	_, err = cached.Predict(context.Background(), window)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestWindowKey_ShapeMatters(t *testing.T) {
	assert.NotEqual(t, windowKey([][]float64{{1, 2}}), windowKey([][]float64{{1}, {2}}))
	assert.Equal(t, windowKey([][]float64{{1, 2}}), windowKey([][]float64{{1, 2}}))
}

// --- LRU cache unit tests ---

func out(temp float64) domain.ModelOutput {
	return domain.ModelOutput{Temperature: []float64{temp}}
}

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache(3)

	c.put("a", out(1))
	c.put("b", out(2))

	result, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, out(1), result)

	_, ok = c.get("missing")
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", out(1))
	c.put("b", out(2))
	c.put("c", out(3)) // evicts "a"

	_, ok := c.get("a")
	assert.False(t, ok, "a should have been evicted")

	result, ok := c.get("b")
	assert.True(t, ok)
	assert.Equal(t, out(2), result)

	result, ok = c.get("c")
	assert.True(t, ok)
	assert.Equal(t, out(3), result)
	assert.Equal(t, 2, c.len())
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", out(1))
	c.put("b", out(2))

	// Access "a" to promote it
	c.get("a")

	// Insert "c", which should evict "b" (LRU), not "a"
	c.put("c", out(3))

	_, ok := c.get("a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")

	_, ok = c.get("b")
	assert.False(t, ok, "b should have been evicted")
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", out(1))
	c.put("a", out(2))

	result, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, out(2), result)
	assert.Equal(t, 1, c.len())
}

func TestLRUCache_IndexMatchesOrderUnderChurn(t *testing.T) {
	c := newLRUCache(3)
	for i := 0; i < 50; i++ {
		key := string(rune('a' + i%7))
		if _, ok := c.get(key); !ok {
			c.put(key, out(float64(i)))
		}
		require.LessOrEqual(t, c.len(), 3)
		assert.Len(t, c.byKey, c.order.Len())
	}
}
