package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var lookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vpick_cache_lookups_total",
	Help: "Metadata cache lookups by result",
}, []string{"result"})

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisCache is a Redis-backed implementation of Cache. Redis failures are
// logged and treated as misses.
type RedisCache struct {
	client *redis.Client
	stats  struct {
		hits   atomic.Int64
		misses atomic.Int64
		sets   atomic.Int64
	}
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, config RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", config.Addr, err)
	}

	slog.Info("connected to redis cache", "addr", config.Addr, "db", config.DB)

	return &RedisCache{client: client}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string, dst any) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("redis get failed", "key", key, "err", err)
		}
		c.miss()
		return false
	}

	if err := json.Unmarshal(val, dst); err != nil {
		slog.Warn("decoding cached value", "key", key, "err", err)
		c.miss()
		return false
	}

	c.stats.hits.Add(1)
	lookups.WithLabelValues("hit").Inc()
	return true
}

func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	data, err := json.Marshal(value)
	if err != nil {
		slog.Warn("encoding value for cache", "key", key, "err", err)
		return
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		slog.Warn("redis set failed", "key", key, "err", err)
		return
	}

	c.stats.sets.Add(1)
}

func (c *RedisCache) Stats() Stats {
	return Stats{
		Hits:   c.stats.hits.Load(),
		Misses: c.stats.misses.Load(),
		Sets:   c.stats.sets.Load(),
	}
}

// Close releases the underlying connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) miss() {
	c.stats.misses.Add(1)
	lookups.WithLabelValues("miss").Inc()
}
