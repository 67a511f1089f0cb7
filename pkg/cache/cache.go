package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache TTLs
const (
	TTLPost         = 2 * time.Minute  // single published post
	TTLPosts        = 30 * time.Second // post listings (refreshed often)
	TTLQueueSummary = 1 * time.Minute  // open moderation queue counts
	TTLDefault      = 5 * time.Minute
)

// Cache key prefixes
const (
	PrefixPost         = "post:"
	PrefixPosts        = "posts:"
	PrefixQueueSummary = "modqueue:summary:"
)

// Service Redis cache service interface
type Service interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)

	// Published post cache
	GetPost(ctx context.Context, postID string) ([]byte, error)
	SetPost(ctx context.Context, postID string, data interface{}) error
	InvalidatePost(ctx context.Context, postID string) error

	// Post listing cache
	GetPosts(ctx context.Context, category string, page, limit int) ([]byte, error)
	SetPosts(ctx context.Context, category string, page, limit int, data interface{}) error
	InvalidatePosts(ctx context.Context, category string) error

	// Moderation queue summary cache
	GetQueueSummary(ctx context.Context) ([]byte, error)
	SetQueueSummary(ctx context.Context, data interface{}) error
	InvalidateQueueSummary(ctx context.Context) error

	IsAvailable() bool
	Ping(ctx context.Context) error
}

type redisCache struct {
	client *redis.Client
}

// NewService creates a new cache service
func NewService(client *redis.Client) Service {
	return &redisCache{client: client}
}

// IsAvailable reports whether Redis is connected
func (c *redisCache) IsAvailable() bool {
	return c.client != nil
}

// Ping tests the Redis connection
func (c *redisCache) Ping(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	return c.client.Ping(ctx).Err()
}

// Get reads a value from the cache
func (c *redisCache) Get(ctx context.Context, key string, dest interface{}) error {
	if c.client == nil {
		return fmt.Errorf("redis not available")
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}

	return json.Unmarshal(data, dest)
}

// Set stores a value in the cache
func (c *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.client == nil {
		return nil // no Redis, silently skip
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, key, data, ttl).Err()
}

// Delete removes keys from the cache
func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// Exists checks whether a key exists
func (c *redisCache) Exists(ctx context.Context, key string) (bool, error) {
	if c.client == nil {
		return false, nil
	}
	n, err := c.client.Exists(ctx, key).Result()
	return n > 0, err
}

func (c *redisCache) postKey(postID string) string {
	return PrefixPost + postID
}

func (c *redisCache) GetPost(ctx context.Context, postID string) ([]byte, error) {
	if c.client == nil {
		return nil, fmt.Errorf("redis not available")
	}
	return c.client.Get(ctx, c.postKey(postID)).Bytes()
}

func (c *redisCache) SetPost(ctx context.Context, postID string, data interface{}) error {
	if c.client == nil {
		return nil
	}
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.postKey(postID), jsonData, TTLPost).Err()
}

func (c *redisCache) InvalidatePost(ctx context.Context, postID string) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, c.postKey(postID)).Err()
}

func (c *redisCache) postsKey(category string, page, limit int) string {
	if category == "" {
		category = "all"
	}
	return fmt.Sprintf("%s%s:%d:%d", PrefixPosts, category, page, limit)
}

func (c *redisCache) GetPosts(ctx context.Context, category string, page, limit int) ([]byte, error) {
	if c.client == nil {
		return nil, fmt.Errorf("redis not available")
	}
	return c.client.Get(ctx, c.postsKey(category, page, limit)).Bytes()
}

func (c *redisCache) SetPosts(ctx context.Context, category string, page, limit int, data interface{}) error {
	if c.client == nil {
		return nil
	}
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.postsKey(category, page, limit), jsonData, TTLPosts).Err()
}

func (c *redisCache) InvalidatePosts(ctx context.Context, category string) error {
	if c.client == nil {
		return nil
	}
	if category == "" {
		return c.deleteByPattern(ctx, PrefixPosts+"*")
	}
	return c.deleteByPattern(ctx, PrefixPosts+category+":*")
}

func (c *redisCache) queueSummaryKey() string {
	return PrefixQueueSummary + "open"
}

func (c *redisCache) GetQueueSummary(ctx context.Context) ([]byte, error) {
	if c.client == nil {
		return nil, fmt.Errorf("redis not available")
	}
	return c.client.Get(ctx, c.queueSummaryKey()).Bytes()
}

func (c *redisCache) SetQueueSummary(ctx context.Context, data interface{}) error {
	if c.client == nil {
		return nil
	}
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.queueSummaryKey(), jsonData, TTLQueueSummary).Err()
}

func (c *redisCache) InvalidateQueueSummary(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, c.queueSummaryKey()).Err()
}

// deleteByPattern removes all keys matching the pattern via SCAN
func (c *redisCache) deleteByPattern(ctx context.Context, pattern string) error {
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
