// Package cache is a best-effort Redis cache in front of tenant-scoped reads.
//
// Nothing here ever returns an error to the caller: a miss, an unreachable
// server and an undecodable value all look the same (Get reports false), and
// writes that fail are logged and dropped. A circuit breaker acts as the
// readiness gate, so a dead Redis stops being called until a probe succeeds.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/infra"
	"github.com/RaphaelNicaise/Trabajo-Final-Integrador-sub000/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const scanBatch = 200

// Cache wraps a go-redis client. The zero value, a nil *Cache and a Cache
// built over a nil client are all valid and never ready.
type Cache struct {
	rdb        redis.UniversalClient
	breaker    *infra.CircuitBreaker
	defaultTTL time.Duration
}

// New builds a cache. rdb may be nil (cache disabled).
func New(rdb redis.UniversalClient, defaultTTL time.Duration) *Cache {
	cfg := infra.DefaultCBConfig("redis-cache")
	cfg.OnStateChange = func(name string, from, to infra.CBState) {
		metrics.CacheBreakerState.Set(float64(to))
		log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
			Msg("cache: backend state changed")
	}
	return &Cache{
		rdb:        rdb,
		breaker:    infra.NewCircuitBreaker(cfg),
		defaultTTL: defaultTTL,
	}
}

// Enabled reports whether a Redis client was configured at all.
func (c *Cache) Enabled() bool { return c != nil && c.rdb != nil }

// Ready reports whether operations will reach Redis.
func (c *Cache) Ready() bool {
	return c != nil && c.rdb != nil && c.breaker != nil && c.breaker.Allow()
}

// TTL is the expiry used when Set receives ttl <= 0.
func (c *Cache) TTL() time.Duration {
	if c == nil {
		return 0
	}
	return c.defaultTTL
}

// record feeds the breaker; redis.Nil is a successful round trip.
func (c *Cache) record(err error) {
	if errors.Is(err, redis.Nil) {
		err = nil
	}
	c.breaker.Record(err)
}

// Get decodes the value stored at key into dest and reports whether it did.
func (c *Cache) Get(ctx context.Context, key string, dest any) bool {
	if !c.Ready() {
		metrics.RecordCacheLookup("skipped")
		return false
	}
	raw, err := c.rdb.Get(ctx, key).Bytes()
	c.record(err)
	switch {
	case errors.Is(err, redis.Nil):
		metrics.RecordCacheLookup("miss")
		return false
	case err != nil:
		metrics.RecordCacheLookup("error")
		log.Warn().Err(err).Str("key", key).Msg("cache: get failed")
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		metrics.RecordCacheLookup("error")
		log.Warn().Err(err).Str("key", key).Msg("cache: undecodable value")
		return false
	}
	metrics.RecordCacheLookup("hit")
	return true
}

// Set stores value under key. ttl <= 0 uses the default TTL.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	if !c.Ready() {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache: unencodable value")
		return
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	err = c.rdb.Set(ctx, key, raw, ttl).Err()
	c.record(err)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache: set failed")
	}
}

// Delete removes keys.
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 || !c.Ready() {
		return
	}
	err := c.rdb.Del(ctx, keys...).Err()
	c.record(err)
	if err != nil {
		log.Warn().Err(err).Strs("keys", keys).Msg("cache: delete failed")
	}
}

// DeleteByPattern removes every key matching a glob pattern, scanning in batches.
func (c *Cache) DeleteByPattern(ctx context.Context, pattern string) {
	if !c.Ready() {
		return
	}
	var (
		cursor  uint64
		removed int64
	)
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, pattern, scanBatch).Result()
		c.record(err)
		if err != nil {
			log.Warn().Err(err).Str("pattern", pattern).Msg("cache: scan failed")
			return
		}
		if len(keys) > 0 {
			n, err := c.rdb.Del(ctx, keys...).Result()
			c.record(err)
			if err != nil {
				log.Warn().Err(err).Str("pattern", pattern).Msg("cache: delete by pattern failed")
				return
			}
			removed += n
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	log.Debug().Str("pattern", pattern).Int64("removed", removed).Msg("cache: invalidated")
}

// Ping checks Redis directly, bypassing the gate, and feeds the breaker.
func (c *Cache) Ping(ctx context.Context) error {
	if c == nil || c.rdb == nil {
		return errors.New("cache disabled")
	}
	err := c.rdb.Ping(ctx).Err()
	c.record(err)
	return err
}

// Watch pings Redis every interval until ctx is cancelled, so the breaker can
// close again after an outage without waiting for request traffic.
func (c *Cache) Watch(ctx context.Context, every time.Duration) {
	if c == nil || c.rdb == nil {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if c.breaker.State() == infra.CBOpen {
				continue
			}
			pctx, cancel := context.WithTimeout(ctx, time.Second)
			_ = c.Ping(pctx)
			cancel()
		}
	}
}

// ── Keys ──────────────────────────────────────────────────────────────────────

// Cached tenant resources.
const (
	ResourceShop       = "shop"
	ResourceProducts   = "products"
	ResourceCategories = "categories"
	ResourceConfig     = "config"
)

// Key builds "tenant:<slug>:<resource>[:<qualifier>...]".
func Key(slug, resource string, qualifiers ...string) string {
	parts := append([]string{"tenant", slug, resource}, qualifiers...)
	return strings.Join(parts, ":")
}

// TenantPattern matches every key of one tenant.
func TenantPattern(slug string) string { return "tenant:" + slug + ":*" }

// ResourcePattern matches a resource key and all its qualified variants.
func ResourcePattern(slug, resource string) string {
	return "tenant:" + slug + ":" + resource + "*"
}
