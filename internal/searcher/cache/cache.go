package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/searchserver/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/searchserver/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/searchserver/pkg/redis"
)

const keyPrefix = "search:"

// Store is the subset of the Redis client the cache needs. A miss must be
// reported with an error for which pkgredis.IsNilError is true.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

type QueryCache struct {
	store   Store
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

func New(store Store, ttl time.Duration, m *metrics.Metrics) *QueryCache {
	return &QueryCache{
		store:   store,
		ttl:     ttl,
		metrics: m,
		logger:  slog.Default().With("component", "query-cache"),
	}
}

func (c *QueryCache) Get(ctx context.Context, key string) ([]ranker.ScoredDoc, bool) {
	docs, ok := c.lookup(ctx, key)
	if !ok {
		c.recordMiss()
		return nil, false
	}
	c.recordHit()
	c.logger.Debug("cache hit", "key", key)
	return docs, true
}

func (c *QueryCache) lookup(ctx context.Context, key string) ([]ranker.ScoredDoc, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	var docs []ranker.ScoredDoc
	if err := json.Unmarshal([]byte(data), &docs); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		return nil, false
	}
	return docs, true
}

func (c *QueryCache) Set(ctx context.Context, key string, docs []ranker.ScoredDoc) {
	data, err := json.Marshal(docs)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached value for key or computes, stores and
// returns it. Concurrent misses for the same key share one computation. The
// boolean reports a cache hit.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	key string,
	computeFn func() ([]ranker.ScoredDoc, error),
) ([]ranker.ScoredDoc, bool, error) {
	if docs, ok := c.Get(ctx, key); ok {
		return docs, true, nil
	}
	val, err, _ := c.group.Do(key, func() (any, error) {
		if docs, ok := c.lookup(ctx, key); ok {
			return docs, nil
		}
		docs, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, key, docs)
		return docs, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]ranker.ScoredDoc), false, nil
}

func (c *QueryCache) Invalidate(ctx context.Context) error {
	deleted, err := c.store.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidate", "keys_deleted", deleted)
	return nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) recordHit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *QueryCache) recordMiss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

// BuildKey derives the cache key of a query. Queries that differ only in
// word order or repeated words share a key. The key is scoped to one index
// instance and its generation, so a different process or any change to the
// document set yields a different key.
func BuildKey(raw string, status index.Status, instance string, generation uint64) (string, error) {
	q, err := parser.Parse(raw, nil)
	if err != nil {
		return "", err
	}
	normalized := fmt.Sprintf("%s|-%s|status=%s|instance=%s|gen=%d",
		strings.Join(q.PlusWords, ","),
		strings.Join(q.MinusWords, ","),
		status,
		instance,
		generation,
	)
	hash := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16]), nil
}
