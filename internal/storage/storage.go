// Package storage persists the small amount of client state MiniTicker keeps
// between runs: the bearer token, the serialized user and UI preferences.
package storage

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/miniticker/internal/config"
)

// Well known keys.
const (
	KeyToken    = "token"
	KeyUser     = "user"
	KeyViewMode = "viewMode"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("storage closed")

// KV is a string key/value store.
type KV interface {
	// Get returns the value and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Open builds the backend selected in cfg.
func Open(cfg *config.Config, logger *zap.Logger) (KV, error) {
	switch cfg.Storage.Backend {
	case "redis":
		return NewRedis(cfg.Redis, logger), nil
	case "file", "":
		store, err := NewFileStore(cfg.Storage.Path, cfg.Storage.Secret)
		if err != nil {
			return nil, err
		}
		logger.Debug("file storage ready", zap.String("path", cfg.Storage.Path), zap.Bool("sealed", store.Sealed()))
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
