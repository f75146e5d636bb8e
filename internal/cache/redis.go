package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/amishk599/careercrawl/internal/enrich"
)

const keyPrefix = "careercrawl:detail:"

// kv is the subset of redis.Cmdable the cache needs.
type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// Redis is an enrich.Cache shared between crawler processes. Values are
// JSON-encoded details; errors are logged and treated as misses.
type Redis struct {
	client kv
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// NewRedis wraps a connected client.
func NewRedis(client kv, ttl time.Duration, logger *slog.Logger) *Redis {
	return &Redis{client: client, ttl: ttl, logger: logger}
}

func (r *Redis) Get(ctx context.Context, key string) (enrich.Detail, bool) {
	raw, err := r.client.Get(ctx, redisKey(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("detail cache get failed", "key", key, "error", err)
		}
		return enrich.Detail{}, false
	}
	var d enrich.Detail
	if err := json.Unmarshal(raw, &d); err != nil {
		r.logger.Warn("detail cache entry unreadable", "key", key, "error", err)
		return enrich.Detail{}, false
	}
	return d, true
}

func (r *Redis) Set(ctx context.Context, key string, d enrich.Detail) {
	raw, err := json.Marshal(d)
	if err != nil {
		r.logger.Warn("detail cache encode failed", "key", key, "error", err)
		return
	}
	if err := r.client.Set(ctx, redisKey(key), raw, r.ttl).Err(); err != nil {
		r.logger.Warn("detail cache set failed", "key", key, "error", err)
	}
}

// redisKey hashes the normalized URL so keys stay short and safe.
func redisKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return keyPrefix + hex.EncodeToString(sum[:])
}
