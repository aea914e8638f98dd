package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Nil is returned by Get when the key does not exist
var Nil = redis.Nil

type Client struct {
	rdb        *redis.Client
	KeyBuilder *KeyBuilder
	log        *zap.Logger
}

// Cache key constants
const (
	KeyChannelStats  = "channel:%s:stats"  // hash: published, delivered, failed, skipped, last_updated
	KeyChannelLatest = "channel:%s:latest" // JSON of the most recent content
	KeyChannelsKnown = "channels:known"    // set of channel names with stats
)

// Stats hash fields
const (
	FieldPublished   = "published"
	FieldDelivered   = "delivered"
	FieldFailed      = "failed"
	FieldSkipped     = "skipped"
	FieldLastUpdated = "last_updated"
)

// TTL constants
const (
	TTLChannelStats  = 30 * 24 * time.Hour // Counters survive restarts, idle channels age out
	TTLChannelLatest = 7 * 24 * time.Hour
)

// NewClient creates a new Redis client
func NewClient(redisURL string, environment string, log *zap.Logger) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = 20
	opts.MinIdleConns = 2
	opts.MaxRetries = 3
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if log == nil {
		log = zap.NewNop()
	}

	return &Client{rdb: rdb, KeyBuilder: NewKeyBuilder(environment), log: log}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

// record logs a finished command: failures at info, successes at debug
func (c *Client) record(op string, start time.Time, err error, fields ...zap.Field) {
	fields = append(fields, zap.Duration("duration", time.Since(start)))
	if err != nil && !errors.Is(err, redis.Nil) {
		c.log.Info(op, append(fields, zap.Error(err))...)
		return
	}
	c.log.Debug(op, fields...)
}

// Get retrieves a value from Redis
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	start := time.Now()
	val, err := c.rdb.Get(ctx, key).Result()
	c.record("redis_get", start, err, zap.String("key_prefix", prefixForLog(key)))
	return val, err
}

// Set stores a value in Redis with TTL
func (c *Client) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	start := time.Now()
	err := c.rdb.Set(ctx, key, value, ttl).Err()
	c.record("redis_set", start, err, zap.String("key_prefix", prefixForLog(key)))
	return err
}

// Delete removes keys from Redis
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	start := time.Now()
	err := c.rdb.Del(ctx, keys...).Err()
	c.record("redis_del", start, err, zap.Int("keys", len(keys)))
	return err
}

// Exists counts how many of keys exist
func (c *Client) Exists(ctx context.Context, keys ...string) (int64, error) {
	start := time.Now()
	n, err := c.rdb.Exists(ctx, keys...).Result()
	c.record("redis_exists", start, err, zap.Int("keys", len(keys)), zap.Int64("result", n))
	return n, err
}

// HIncrBy increments a hash field counter
func (c *Client) HIncrBy(ctx context.Context, key, field string, delta int64) (int64, error) {
	start := time.Now()
	v, err := c.rdb.HIncrBy(ctx, key, field, delta).Result()
	c.record("redis_hincrby", start, err,
		zap.String("key_prefix", prefixForLog(key)),
		zap.String("field", field),
		zap.Int64("value", v))
	return v, err
}

// HSet sets hash fields
func (c *Client) HSet(ctx context.Context, key string, values ...interface{}) error {
	start := time.Now()
	err := c.rdb.HSet(ctx, key, values...).Err()
	c.record("redis_hset", start, err,
		zap.String("key_prefix", prefixForLog(key)),
		zap.Int("fields", len(values)/2))
	return err
}

// HGetAll gets all fields from a hash
func (c *Client) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	start := time.Now()
	m, err := c.rdb.HGetAll(ctx, key).Result()
	c.record("redis_hgetall", start, err,
		zap.String("key_prefix", prefixForLog(key)),
		zap.Int("fields", len(m)))
	return m, err
}

// SAdd adds members to a set
func (c *Client) SAdd(ctx context.Context, key string, members ...interface{}) error {
	start := time.Now()
	err := c.rdb.SAdd(ctx, key, members...).Err()
	c.record("redis_sadd", start, err, zap.String("key_prefix", prefixForLog(key)))
	return err
}

// SMembers lists a set
func (c *Client) SMembers(ctx context.Context, key string) ([]string, error) {
	start := time.Now()
	members, err := c.rdb.SMembers(ctx, key).Result()
	c.record("redis_smembers", start, err,
		zap.String("key_prefix", prefixForLog(key)),
		zap.Int("members", len(members)))
	return members, err
}

// Expire sets a TTL on a key
func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) error {
	start := time.Now()
	err := c.rdb.Expire(ctx, key, ttl).Err()
	c.record("redis_expire", start, err, zap.String("key_prefix", prefixForLog(key)))
	return err
}

// Health checks the Redis connection
func (c *Client) Health(ctx context.Context) error {
	start := time.Now()
	err := c.rdb.Ping(ctx).Err()
	c.record("redis_ping", start, err)
	return err
}

// Pipeline creates a new transactional pipeline for batch operations
func (c *Client) Pipeline() redis.Pipeliner {
	return c.rdb.TxPipeline()
}

// Exec runs a pipeline and logs its outcome
func (c *Client) Exec(ctx context.Context, pipe redis.Pipeliner) error {
	n := pipe.Len()
	start := time.Now()
	_, err := pipe.Exec(ctx)
	c.record("redis_pipeline", start, err, zap.Int("commands", n))
	return err
}

// prefixForLog returns a bounded prefix of a key for log fields
func prefixForLog(key string) string {
	if len(key) <= 32 {
		return key
	}
	return key[:32] + "…"
}
