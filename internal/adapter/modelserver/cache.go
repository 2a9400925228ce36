package modelserver

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"sync"

	"github.com/couchcryptid/weather-outlook/internal/domain"
	"github.com/couchcryptid/weather-outlook/internal/observability"
)

// Predictor is the model call being cached.
type Predictor interface {
	Predict(ctx context.Context, window [][]float64) (domain.ModelOutput, error)
}

// CachedModel wraps a Predictor with an in-memory LRU cache keyed by the
// exact window contents. Repeated requests for the same city and end date
// produce the same window and skip the model server.
type CachedModel struct {
	inner   Predictor
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedModel creates a cache decorator around a model.
func NewCachedModel(inner Predictor, maxEntries int, metrics *observability.Metrics) *CachedModel {
	return &CachedModel{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedModel) Predict(ctx context.Context, window [][]float64) (domain.ModelOutput, error) {
	key := windowKey(window)
	if out, ok := c.cache.get(key); ok {
		c.metrics.ModelCache.WithLabelValues("hit").Inc()
		return out, nil
	}
	c.metrics.ModelCache.WithLabelValues("miss").Inc()

	out, err := c.inner.Predict(ctx, window)
	if err != nil {
		return out, err
	}
	c.cache.put(key, out)
	return out, nil
}

// windowKey hashes the window's shape and float bits.
func windowKey(window [][]float64) string {
	h := sha256.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(len(window)))
	h.Write(buf[:])
	for _, row := range window {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(row)))
		h.Write(buf[:])
		for _, v := range row {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			h.Write(buf[:])
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// lruCache bounds the number of cached outputs, evicting the least recently
// used window first. Front of order is most recent.
type lruCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	byKey    map[string]*list.Element
}

type cached struct {
	key string
	out domain.ModelOutput
}

func newLRUCache(capacity int) *lruCache {
	return &lruCache{
		capacity: capacity,
		order:    list.New(),
		byKey:    make(map[string]*list.Element, capacity),
	}
}

func (c *lruCache) get(key string) (domain.ModelOutput, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.byKey[key]
	if !ok {
		return domain.ModelOutput{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cached).out, true
}

func (c *lruCache) put(key string, out domain.ModelOutput) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.byKey[key]; ok {
		el.Value.(*cached).out = out
		c.order.MoveToFront(el)
		return
	}
	c.byKey[key] = c.order.PushFront(&cached{key: key, out: out})

	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.byKey, oldest.Value.(*cached).key)
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
