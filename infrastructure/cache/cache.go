// Package cache implements the gate-decision, dedupe-spillover, and
// idempotency-probe caches: a common Cache interface backed either by
// an in-process TTL map or Redis.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Cache is the minimal contract every cache backend satisfies.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// entry is one in-process cache slot.
type entry struct {
	value     []byte
	expiresAt time.Time
}

// TTLCache is an in-process map cache with lazy expiry on read plus an
// optional Sweep the caller runs, used as the idempotency-probe front
// and as the fallback when no Redis address is configured. The number
// of entries is not capped.
type TTLCache struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

func NewTTLCache() *TTLCache {
	return &TTLCache{entries: make(map[string]entry), now: time.Now}
}

func (c *TTLCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (c *TTLCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
	return nil
}

func (c *TTLCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// Sweep evicts every expired entry; callers may run it on a ticker to
// bound memory for a long-lived process instead of relying solely on
// lazy eviction.
func (c *TTLCache) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	evicted := 0
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			evicted++
		}
	}
	return evicted
}

// RedisCache is the primary shared-cache backend, used for gate
// decisions and news dedupe spillover across process restarts/replicas.
type RedisCache struct {
	client    *goredis.Client
	keyPrefix string
}

func NewRedisCache(addr, password string, db int, keyPrefix string) *RedisCache {
	client := goredis.NewClient(&goredis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		MaxRetries:   3,
	})
	return &RedisCache{client: client, keyPrefix: keyPrefix}
}

func (r *RedisCache) fullKey(key string) string {
	return r.keyPrefix + key
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	result, err := r.client.Get(ctx, r.fullKey(key)).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return result, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.fullKey(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.fullKey(key)).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

// GateCache wraps a Cache to store/retrieve a serialized live-gate
// verdict, shared across replicas so every instance agrees on the
// current gate decision within its TTL window rather than each
// computing an independent cached verdict in memory.
type GateCache struct {
	backend Cache
	ttl     time.Duration
}

func NewGateCache(backend Cache, ttl time.Duration) *GateCache {
	return &GateCache{backend: backend, ttl: ttl}
}

// GateVerdict is the serializable form of a routing.GateResult.
type GateVerdict struct {
	Allowed bool     `json:"allowed"`
	Reasons []string `json:"reasons"`
}

func (g *GateCache) Get(ctx context.Context) (GateVerdict, bool) {
	raw, ok, err := g.backend.Get(ctx, "live_gate:verdict")
	if err != nil || !ok {
		return GateVerdict{}, false
	}
	var v GateVerdict
	if err := json.Unmarshal(raw, &v); err != nil {
		return GateVerdict{}, false
	}
	return v, true
}

func (g *GateCache) Set(ctx context.Context, v GateVerdict) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return g.backend.Set(ctx, "live_gate:verdict", raw, g.ttl)
}

// DedupeSpillover backs the news quality gate's per-instance dedupe
// hash set with a shared cache once the in-process set would otherwise
// be reset by a restart, so a duplicate published just before a
// deployment doesn't resurface as "new" afterward.
type DedupeSpillover struct {
	backend Cache
	ttl     time.Duration
}

func NewDedupeSpillover(backend Cache, ttl time.Duration) *DedupeSpillover {
	return &DedupeSpillover{backend: backend, ttl: ttl}
}

// Seen marks hash as seen and reports whether it had already been
// recorded.
func (d *DedupeSpillover) Seen(ctx context.Context, hash string) bool {
	key := "news_dedupe:" + hash
	_, ok, err := d.backend.Get(ctx, key)
	if err == nil && ok {
		return true
	}
	_ = d.backend.Set(ctx, key, []byte{1}, d.ttl)
	return false
}
