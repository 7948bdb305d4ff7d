// Package cache wraps the remote key-value store behind a fail-soft client.
//
// Every operation converts transport, auth and serialization errors into a
// benign "miss" (reads) or no-op (writes). The engine must degrade to
// "always recompute" rather than fail a user-facing request when the cache
// is down, so nothing in this package ever returns an error to its caller.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/motivai/motivai-engine/internal/config"
	"github.com/motivai/motivai-engine/internal/metrics"
)

// Cache is the fail-soft key-value contract shared by all pipeline stages.
type Cache interface {
	// Get returns the raw value for key, or found=false on miss or any error.
	Get(ctx context.Context, key string) (value []byte, found bool)

	// Set stores value under key. ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)

	// Incr atomically increments the integer at key, returning the new value
	// or 0 when the store is unavailable.
	Incr(ctx context.Context, key string) int64

	// Del removes key.
	Del(ctx context.Context, key string)

	// Publish sends payload on a pub/sub channel.
	Publish(ctx context.Context, channel string, payload []byte)
}

// Client is the redis-backed Cache implementation. A Client constructed
// without credentials (or with an unparseable URL) runs in disabled mode:
// permanent miss, permanent no-op.
type Client struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// New builds a cache client from configuration. Construction never fails;
// missing or invalid credentials yield a disabled client.
func New(cfg *config.Config, logger *zap.Logger) *Client {
	c := &Client{logger: logger}

	if cfg.Cache.Disabled {
		logger.Warn("cache disabled, running in always-miss mode")
		return c
	}

	opts, err := redis.ParseURL(cfg.Cache.URL)
	if err != nil {
		logger.Warn("invalid cache url, running in always-miss mode", zap.Error(err))
		return c
	}
	if cfg.Cache.Token != "" {
		opts.Password = cfg.Cache.Token
	}
	c.rdb = redis.NewClient(opts)
	return c
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func (c *Client) Get(ctx context.Context, key string) ([]byte, bool) {
	if c.rdb == nil {
		metrics.CacheOpsTotal.WithLabelValues("get", "miss").Inc()
		return nil, false
	}
	val, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("cache get failed", zap.String("key", key), zap.Error(err))
			metrics.CacheOpsTotal.WithLabelValues("get", "error").Inc()
		} else {
			metrics.CacheOpsTotal.WithLabelValues("get", "miss").Inc()
		}
		return nil, false
	}
	metrics.CacheOpsTotal.WithLabelValues("get", "hit").Inc()
	return val, true
}

func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if c.rdb == nil {
		return
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		c.logger.Debug("cache set failed", zap.String("key", key), zap.Error(err))
		metrics.CacheOpsTotal.WithLabelValues("set", "error").Inc()
		return
	}
	metrics.CacheOpsTotal.WithLabelValues("set", "ok").Inc()
}

func (c *Client) Incr(ctx context.Context, key string) int64 {
	if c.rdb == nil {
		return 0
	}
	n, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		c.logger.Debug("cache incr failed", zap.String("key", key), zap.Error(err))
		metrics.CacheOpsTotal.WithLabelValues("incr", "error").Inc()
		return 0
	}
	metrics.CacheOpsTotal.WithLabelValues("incr", "ok").Inc()
	return n
}

func (c *Client) Del(ctx context.Context, key string) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		c.logger.Debug("cache del failed", zap.String("key", key), zap.Error(err))
		metrics.CacheOpsTotal.WithLabelValues("del", "error").Inc()
		return
	}
	metrics.CacheOpsTotal.WithLabelValues("del", "ok").Inc()
}

func (c *Client) Publish(ctx context.Context, channel string, payload []byte) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		c.logger.Debug("cache publish failed", zap.String("channel", channel), zap.Error(err))
		metrics.CacheOpsTotal.WithLabelValues("publish", "error").Inc()
		return
	}
	metrics.CacheOpsTotal.WithLabelValues("publish", "ok").Inc()
}

// envelope wraps every cached JSON value with a schema version so that a
// future change to a value's shape reads as a miss instead of silently
// deserializing into a mismatched structure.
type envelope struct {
	Schema int             `json:"schema"`
	Data   json.RawMessage `json:"data"`
}

// GetJSON reads key and decodes it into v. Returns false on miss, schema
// mismatch or any decode failure.
func GetJSON(ctx context.Context, c Cache, key string, schema int, v interface{}) bool {
	raw, found := c.Get(ctx, key)
	if !found {
		return false
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return false
	}
	if env.Schema != schema {
		return false
	}
	return json.Unmarshal(env.Data, v) == nil
}

// SetJSON encodes v with its schema version and stores it under key.
// Serialization failures are swallowed (fail-soft write).
func SetJSON(ctx context.Context, c Cache, key string, schema int, v interface{}, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	raw, err := json.Marshal(envelope{Schema: schema, Data: data})
	if err != nil {
		return
	}
	c.Set(ctx, key, raw, ttl)
}
