// Package vcache caches transformed document vectors in Redis, namespaced by
// the checksum of the model that produced them.
package vcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/vhash/pkg/metrics"
)

const (
	keyPrefix = "vhash:"

	// flightTimeout bounds a shared computation, which outlives the caller
	// that started it.
	flightTimeout = 30 * time.Second
)

// Store is the subset of pkg/redis.Client the cache uses.
type Store interface {
	MGet(ctx context.Context, keys ...string) ([][]byte, error)
	SetMany(ctx context.Context, entries map[string][]byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// ComputeFunc transforms documents that were not found in the cache.
type ComputeFunc func(ctx context.Context, docs []string) ([][]float32, error)

type Cache struct {
	store   Store
	ttl     time.Duration
	metrics *metrics.Metrics
	group   singleflight.Group
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

func New(store Store, ttl time.Duration, m *metrics.Metrics) *Cache {
	return &Cache{
		store:   store,
		ttl:     ttl,
		metrics: m,
		logger:  slog.Default().With("component", "vector-cache"),
	}
}

// Transform returns one vector per document, reading what it can from the
// cache and computing the rest in a single batch. Cache failures are logged
// and fall through to compute. Concurrent callers missing the same documents
// share one computation; a caller that gives up returns its own ctx error
// while the computation carries on for the others.
func (c *Cache) Transform(ctx context.Context, namespace string, docs []string, compute ComputeFunc) ([][]float32, error) {
	out := make([][]float32, len(docs))
	keys := make([]string, len(docs))
	for i, doc := range docs {
		keys[i] = Key(namespace, doc)
	}

	cached, err := c.store.MGet(ctx, keys...)
	if err != nil {
		c.logger.Error("cache read failed", "keys", len(keys), "error", err)
		cached = nil
	}

	// missing maps each distinct uncached key to the first doc carrying it.
	missing := make(map[string]string)
	var missOrder []string
	for i := range docs {
		if i < len(cached) && cached[i] != nil {
			if v, ok := decode(cached[i]); ok {
				out[i] = v
				continue
			}
			c.logger.Warn("discarding malformed cache entry", "key", keys[i], "bytes", len(cached[i]))
		}
		if _, seen := missing[keys[i]]; !seen {
			missing[keys[i]] = docs[i]
			missOrder = append(missOrder, keys[i])
		}
	}
	misses := countMisses(out)
	c.record(len(docs)-misses, misses)
	if len(missOrder) == 0 {
		return out, nil
	}

	flight := c.group.DoChan(strings.Join(missOrder, ","), func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flightTimeout)
		defer cancel()
		batch := make([]string, len(missOrder))
		for i, key := range missOrder {
			batch[i] = missing[key]
		}
		vectors, err := compute(fctx, batch)
		if err != nil {
			return nil, err
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("compute returned %d vectors for %d documents", len(vectors), len(batch))
		}
		computed := make(map[string][]float32, len(missOrder))
		entries := make(map[string][]byte, len(missOrder))
		for i, key := range missOrder {
			computed[key] = vectors[i]
			entries[key] = encode(vectors[i])
		}
		if err := c.store.SetMany(fctx, entries, c.ttl); err != nil {
			c.logger.Error("cache write failed", "keys", len(entries), "error", err)
		}
		return computed, nil
	})

	var res singleflight.Result
	select {
	case res = <-flight:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if res.Err != nil {
		return nil, res.Err
	}
	if res.Shared {
		c.logger.Debug("shared in-flight computation", "docs", len(missOrder))
	}

	computed := res.Val.(map[string][]float32)
	for i := range out {
		if out[i] == nil {
			out[i] = computed[keys[i]]
		}
	}
	return out, nil
}

// Invalidate removes every vector stored under namespace.
func (c *Cache) Invalidate(ctx context.Context, namespace string) error {
	deleted, err := c.store.FlushByPattern(ctx, keyPrefix+namespace+":*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidate", "namespace", namespace, "keys_deleted", deleted)
	return nil
}

func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *Cache) record(hits, misses int) {
	c.hits.Add(int64(hits))
	c.misses.Add(int64(misses))
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Add(float64(hits))
		c.metrics.CacheMissesTotal.Add(float64(misses))
	}
}

// Key is the Redis key of doc's vector under a model namespace.
func Key(namespace, doc string) string {
	hash := sha256.Sum256([]byte(doc))
	return fmt.Sprintf("%s%s:%x", keyPrefix, namespace, hash[:8])
}

// Namespace formats a model checksum for use in keys.
func Namespace(checksum uint32) string {
	return fmt.Sprintf("%08x", checksum)
}

func countMisses(out [][]float32) int {
	n := 0
	for _, v := range out {
		if v == nil {
			n++
		}
	}
	return n
}

func encode(v []float32) []byte {
	b := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(x))
	}
	return b
}

func decode(b []byte) ([]float32, bool) {
	if len(b)%4 != 0 {
		return nil, false
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, true
}
