package tmdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ResponseCache stores raw API response bodies keyed by request
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, body []byte)
	Flush(ctx context.Context) error
}

// MemoryCache is an in-process ResponseCache backed by go-cache
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache creates a memory cache whose entries expire after ttl
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{cache: gocache.New(ttl, 2*ttl)}
}

// Get returns a cached body
func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := m.cache.Get(key)
	if !ok {
		return nil, false
	}
	body, ok := v.([]byte)
	return body, ok
}

// Set stores a body with the default expiration
func (m *MemoryCache) Set(_ context.Context, key string, body []byte) {
	m.cache.SetDefault(key, body)
}

// Flush removes every cached body
func (m *MemoryCache) Flush(context.Context) error {
	m.cache.Flush()
	return nil
}

// Len returns the number of cached bodies
func (m *MemoryCache) Len() int {
	return m.cache.ItemCount()
}

const redisKeyPrefix = "tmdb:"

// RedisCache is a ResponseCache shared through Redis
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

// NewRedisCache connects to Redis and returns a cache using it
func NewRedisCache(ctx context.Context, addr, password string, db int, ttl time.Duration, logger *logrus.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.WithField("addr", addr).Info("Connected to Redis")
	return &RedisCache{client: client, ttl: ttl, logger: logger}, nil
}

// Get returns a cached body
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	body, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.WithError(err).WithField("key", key).Warn("Redis get failed")
		}
		return nil, false
	}
	return body, true
}

// Set stores a body with the cache TTL
func (r *RedisCache) Set(ctx context.Context, key string, body []byte) {
	if err := r.client.Set(ctx, redisKeyPrefix+key, body, r.ttl).Err(); err != nil {
		r.logger.WithError(err).WithField("key", key).Warn("Redis set failed")
	}
}

// Flush removes every key written by this cache
func (r *RedisCache) Flush(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete %s: %w", iter.Val(), err)
		}
	}
	return iter.Err()
}

// Close closes the Redis connection
func (r *RedisCache) Close() error {
	return r.client.Close()
}

// TieredCache reads from the first cache that has a body and writes to all of them
type TieredCache []ResponseCache

// Get returns the first hit, back-filling faster tiers
func (t TieredCache) Get(ctx context.Context, key string) ([]byte, bool) {
	for i, c := range t {
		if body, ok := c.Get(ctx, key); ok {
			for _, faster := range t[:i] {
				faster.Set(ctx, key, body)
			}
			return body, true
		}
	}
	return nil, false
}

// Set stores body in every tier
func (t TieredCache) Set(ctx context.Context, key string, body []byte) {
	for _, c := range t {
		c.Set(ctx, key, body)
	}
}

// Flush flushes every tier
func (t TieredCache) Flush(ctx context.Context) error {
	var errs []error
	for _, c := range t {
		if err := c.Flush(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
