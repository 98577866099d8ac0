package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps redis.Client but fails safe by swallowing connectivity errors.
// A nil Client or one without a redis connection behaves like an always-empty cache.
type Client struct {
	client *redis.Client
	prefix string
}

// New wraps an existing connection. Keys are namespaced with prefix.
func New(client *redis.Client, prefix string) *Client {
	return &Client{client: client, prefix: prefix}
}

func (c *Client) key(k string) string {
	return c.prefix + k
}

// Get returns value or nil if missing or redis unavailable.
func (c *Client) Get(ctx context.Context, key string) []byte {
	if c == nil || c.client == nil {
		return nil
	}
	res, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		// redis.Nil and connectivity failures both read as a miss
		return nil
	}
	return res
}

// Set stores value with TTL, ignoring redis errors.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Set(ctx, c.key(key), value, ttl).Err()
}

// Delete removes a key, ignoring redis errors.
func (c *Client) Delete(ctx context.Context, key string) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, c.key(key)).Err()
}

// Exists reports whether key is present. Errors read as absent.
func (c *Client) Exists(ctx context.Context, key string) bool {
	if c == nil || c.client == nil {
		return false
	}
	n, err := c.client.Exists(ctx, c.key(key)).Result()
	if err != nil {
		return false
	}
	return n > 0
}

// GetJSON decodes a cached value into dst. It reports false on a miss or on
// a value that no longer decodes.
func (c *Client) GetJSON(ctx context.Context, key string, dst any) bool {
	raw := c.Get(ctx, key)
	if raw == nil {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.Delete(ctx, key)
		return false
	}
	return true
}

// SetJSON encodes value and stores it with TTL. Only encoding errors are returned.
func (c *Client) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("cache: ttl must be positive")
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.Set(ctx, key, payload, ttl)
	return nil
}
