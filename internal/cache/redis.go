// Package cache stores reverse lookup replies in Redis, keyed by the geohash of the query point.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	geohash "github.com/TomiHiltunen/geohash-golang"
	"github.com/redis/go-redis/v9"

	"github.com/hyperjump/revgeo/internal/config"
	"github.com/hyperjump/revgeo/internal/models"
)

const keyPrefix = "revgeo:r:"

// RedisCache is a JSON value cache with a fixed TTL.
type RedisCache struct {
	client    *redis.Client
	ttl       time.Duration
	precision int
}

// NewRedisCache wraps client. A non-positive ttl means one hour.
func NewRedisCache(client *redis.Client, ttl time.Duration, precision int) *RedisCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisCache{client: client, ttl: ttl, precision: precision}
}

// Open creates a Redis client from cfg.
func Open(cfg *config.CacheConfig) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewRedisCache(client, cfg.TTL(), cfg.GeohashPrecision)
}

// Key returns the cache key for a reverse query: the geohash of the point cut to the
// configured precision plus the sorted class filters.
func (c *RedisCache) Key(q *models.ReverseQuery) string {
	return Key(q, c.precision)
}

// Key returns the cache key for q at the given geohash precision.
func Key(q *models.ReverseQuery, precision int) string {
	hash := geohash.Encode(q.Lat, q.Lon)
	if precision > 0 && precision < len(hash) {
		hash = hash[:precision]
	}
	classes := append([]string(nil), q.Classes...)
	sort.Strings(classes)
	return keyPrefix + hash + ":" + strings.Join(classes, ",")
}

// Get decodes the value at key into dest. It reports false on a miss.
func (c *RedisCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	s, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

// Set stores value at key as JSON.
func (c *RedisCache) Set(ctx context.Context, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, b, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Ping checks the connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
