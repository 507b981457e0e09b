package admissioncache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend adapts a go-redis client to the Backend interface.
// Modeled on RedisStore's Get/Set pair in control_plane/store/redis.go.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend connects to addr/db and verifies reachability.
func NewRedisBackend(addr, password string, db int) (*RedisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &RedisBackend{client: client}, nil
}

func (b *RedisBackend) Get(ctx context.Context, key string) (string, error) {
	val, err := b.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

func (b *RedisBackend) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return b.client.Set(ctx, key, value, ttl).Err()
}
