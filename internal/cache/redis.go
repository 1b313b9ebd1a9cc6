package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/julianstephens/routinely/internal/models"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisCache shares contexts between instances; expiry is delegated to
// redis key TTLs.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ Cache = (*RedisCache)(nil)

func NewRedisCache(cfg RedisConfig, ttl time.Duration) *RedisCache {
	return NewRedisCacheFromClient(redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}), ttl)
}

func NewRedisCacheFromClient(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

// Ping checks the server is reachable.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (models.RoutineContext, bool, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.RoutineContext{}, false, nil
		}
		return models.RoutineContext{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	var value models.RoutineContext
	if err := json.Unmarshal(raw, &value); err != nil {
		return models.RoutineContext{}, false, fmt.Errorf("decoding cached context: %w", err)
	}
	return value, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value models.RoutineContext) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding context: %w", err)
	}
	return c.rdb.Set(ctx, key, raw, c.ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// matchPrefix builds a SCAN pattern that treats prefix literally.
func matchPrefix(prefix string) string {
	return globEscaper.Replace(prefix) + "*"
}

func (c *RedisCache) scan(ctx context.Context, prefix string, fn func(keys []string) error) error {
	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, matchPrefix(prefix), 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := fn(keys); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (c *RedisCache) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	total := 0
	err := c.scan(ctx, prefix, func(keys []string) error {
		n, err := c.rdb.Del(ctx, keys...).Result()
		total += int(n)
		return err
	})
	return total, err
}

func (c *RedisCache) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{Backend: "redis", TTL: c.ttl, Entries: []Entry{}}
	err := c.scan(ctx, AllPrefix(), func(keys []string) error {
		for _, key := range keys {
			remaining, err := c.rdb.TTL(ctx, key).Result()
			if err != nil {
				return err
			}
			if remaining < 0 {
				continue
			}
			stats.Entries = append(stats.Entries, Entry{
				Key:       key,
				Age:       max(c.ttl-remaining, 0),
				ExpiresIn: remaining,
			})
		}
		return nil
	})
	if err != nil {
		return Stats{}, err
	}
	sort.Slice(stats.Entries, func(i, j int) bool { return stats.Entries[i].Key < stats.Entries[j].Key })
	return stats, nil
}

func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
