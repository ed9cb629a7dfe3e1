package sessions

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultPrefix = "refresh_token:"

// RedisStore implements Store using Redis as the backing store.
// Tokens live under key "refresh_token:<userId>" with the refresh TTL.
type RedisStore struct {
	client redis.Cmdable
	prefix string
}

// NewRedisStore creates a Redis-based refresh token store. Prefix may be empty.
func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) key(userID uint) string {
	return r.prefix + strconv.FormatUint(uint64(userID), 10)
}

func (r *RedisStore) Save(ctx context.Context, userID uint, token string, ttl time.Duration) error {
	if ttl <= 0 {
		// Redis treats 0 as "no expiry"; never store a refresh token forever
		ttl = time.Second
	}
	return r.client.Set(ctx, r.key(userID), token, ttl).Err()
}

func (r *RedisStore) Get(ctx context.Context, userID uint) (string, error) {
	v, err := r.client.Get(ctx, r.key(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return v, nil
}

func (r *RedisStore) Delete(ctx context.Context, userID uint) error {
	return r.client.Del(ctx, r.key(userID)).Err()
}
