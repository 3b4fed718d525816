package cache

import (
	"context"
	"fmt"
	"time"

	legacyredis "github.com/go-redis/redis/v8"
)

// LegacyRedisCache adapts the v8 client to the Cache interface. It
// exists for deployments that still point OMEN at an older Redis
// Sentinel/Cluster topology the v9 client's connection pooling doesn't
// support yet; new deployments should use RedisCache.
type LegacyRedisCache struct {
	client    *legacyredis.Client
	keyPrefix string
}

func NewLegacyRedisCache(addr, password string, db int, keyPrefix string) *LegacyRedisCache {
	client := legacyredis.NewClient(&legacyredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &LegacyRedisCache{client: client, keyPrefix: keyPrefix}
}

func (l *LegacyRedisCache) fullKey(key string) string {
	return l.keyPrefix + key
}

func (l *LegacyRedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	result, err := l.client.Get(ctx, l.fullKey(key)).Bytes()
	if err != nil {
		if err == legacyredis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("legacy redis get: %w", err)
	}
	return result, true, nil
}

func (l *LegacyRedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := l.client.Set(ctx, l.fullKey(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("legacy redis set: %w", err)
	}
	return nil
}

func (l *LegacyRedisCache) Delete(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.fullKey(key)).Err(); err != nil {
		return fmt.Errorf("legacy redis delete: %w", err)
	}
	return nil
}

func (l *LegacyRedisCache) Close() error {
	return l.client.Close()
}
