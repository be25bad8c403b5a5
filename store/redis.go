package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures the Redis backend.
type RedisOptions struct {
	Addr      string
	Password  string
	KeyPrefix string
	DB        int
}

// RedisClient stores the timer state in Redis. It allows the daemon to run
// on a machine whose local disk is not persistent.
type RedisClient struct {
	client *redis.Client
	prefix string
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(opts RedisOptions) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = "vela:"
	}

	return &RedisClient{
		client: client,
		prefix: prefix,
	}, nil
}

func (r *RedisClient) key(k string) string {
	return r.prefix + k
}

// Get retrieves the values for the given keys.
func (r *RedisClient) Get(
	ctx context.Context,
	keys ...string,
) (map[string][]byte, error) {
	values := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return values, nil
	}

	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = r.key(k)
	}

	res, err := r.client.MGet(ctx, prefixed...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	for i, v := range res {
		s, ok := v.(string)
		if !ok {
			continue
		}

		values[keys[i]] = []byte(s)
	}

	return values, nil
}

// Set writes or removes all the given keys in a MULTI/EXEC transaction.
func (r *RedisClient) Set(ctx context.Context, values map[string][]byte) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range values {
			if v == nil {
				pipe.Del(ctx, r.key(k))
				continue
			}

			pipe.Set(ctx, r.key(k), v, 0)
		}

		return nil
	})

	return err
}

// Close closes the Redis connection.
func (r *RedisClient) Close() error {
	return r.client.Close()
}
