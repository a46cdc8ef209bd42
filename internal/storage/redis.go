package storage

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/miniticker/internal/config"
)

// Redis stores client state in a Redis database, namespaced by a key prefix.
type Redis struct {
	Client *redis.Client
	prefix string
}

// NewRedis connects to Redis using the provided configuration.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Debug("connected to redis", zap.String("addr", cfg.Addr))
	}

	return &Redis{Client: client, prefix: cfg.KeyPrefix}
}

func (r *Redis) key(k string) string {
	return r.prefix + k
}

// Get reads a value; a missing key is not an error.
func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	if r == nil || r.Client == nil {
		return "", false, ErrClosed
	}
	val, err := r.Client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set writes a value without expiry.
func (r *Redis) Set(ctx context.Context, key, value string) error {
	if r == nil || r.Client == nil {
		return ErrClosed
	}
	return r.Client.Set(ctx, r.key(key), value, 0).Err()
}

// Delete removes keys; missing keys are ignored.
func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if r == nil || r.Client == nil {
		return ErrClosed
	}
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}
	return r.Client.Del(ctx, full...).Err()
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

// Close closes the client.
func (r *Redis) Close() error {
	if r != nil && r.Client != nil {
		return r.Client.Close()
	}
	return nil
}
