package repository

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisKVRepository stores values as plain Redis strings.
type RedisKVRepository struct {
	rdb *redis.Client
}

// NewRedisKVRepository creates a new RedisKVRepository.
func NewRedisKVRepository(rdb *redis.Client) *RedisKVRepository {
	return &RedisKVRepository{rdb: rdb}
}

// Get reads key with GET.
func (r *RedisKVRepository) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set writes key with SET and no expiry.
func (r *RedisKVRepository) Set(ctx context.Context, key, value string) error {
	return r.rdb.Set(ctx, key, value, 0).Err()
}
