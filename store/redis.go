package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

// Redis stores each namespace as one hash at "<prefix>:<namespace>",
// with msgpack-encoded values.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis connects to the Redis instance described by url (a
// "redis://..." connection string).
func NewRedis(url, prefix string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("store: parse redis url: %w", err)
	}
	if prefix == "" {
		prefix = "ircbot"
	}
	return &Redis{client: redis.NewClient(opts), prefix: prefix}, nil
}

func (r *Redis) Namespace(name string) (Collection, error) {
	return &redisCollection{client: r.client, key: r.prefix + ":" + name}, nil
}

func (r *Redis) Close(ctx context.Context) error {
	return r.client.Close()
}

type redisCollection struct {
	client *redis.Client
	key    string
}

func (c *redisCollection) Get(ctx context.Context, key string, out any) error {
	raw, err := c.client.HGet(ctx, c.key, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	if err != nil {
		return fmt.Errorf("store: redis get %q: %w", key, err)
	}
	return msgpack.Unmarshal(raw, out)
}

func (c *redisCollection) Put(ctx context.Context, key string, value any) error {
	raw, err := msgpack.Marshal(value)
	if err != nil {
		return fmt.Errorf("store: encode %q: %w", key, err)
	}
	if err := c.client.HSet(ctx, c.key, key, raw).Err(); err != nil {
		return fmt.Errorf("store: redis put %q: %w", key, err)
	}
	return nil
}

func (c *redisCollection) Delete(ctx context.Context, key string) error {
	if err := c.client.HDel(ctx, c.key, key).Err(); err != nil {
		return fmt.Errorf("store: redis delete %q: %w", key, err)
	}
	return nil
}

func (c *redisCollection) Keys(ctx context.Context) ([]string, error) {
	keys, err := c.client.HKeys(ctx, c.key).Result()
	if err != nil {
		return nil, fmt.Errorf("store: redis keys: %w", err)
	}
	return keys, nil
}

var (
	_ Store      = (*Redis)(nil)
	_ Collection = (*redisCollection)(nil)
)
