package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/miniticker/internal/config"
)

func exerciseKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := kv.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set(ctx, KeyToken, "abc.def.ghi"))
	require.NoError(t, kv.Set(ctx, KeyViewMode, "table"))

	val, ok, err := kv.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc.def.ghi", val)

	require.NoError(t, kv.Delete(ctx, KeyToken, KeyUser))
	_, ok, err = kv.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)

	val, ok, err = kv.Get(ctx, KeyViewMode)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "table", val)
}

func TestMemoryStore(t *testing.T) {
	exerciseKV(t, NewMemory())
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	fs, err := NewFileStore(path, "")
	require.NoError(t, err)
	exerciseKV(t, fs)

	reopened, err := NewFileStore(path, "")
	require.NoError(t, err)
	val, ok, err := reopened.Get(context.Background(), KeyViewMode)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "table", val)
}

func TestFileStoreSealed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	fs, err := NewFileStore(path, "correct horse")
	require.NoError(t, err)
	assert.True(t, fs.Sealed())
	require.NoError(t, fs.Set(context.Background(), KeyToken, "secret-token"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret-token")

	reopened, err := NewFileStore(path, "correct horse")
	require.NoError(t, err)
	val, _, err := reopened.Get(context.Background(), KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "secret-token", val)

	_, err = NewFileStore(path, "wrong")
	assert.ErrorIs(t, err, ErrSealed)

	_, err = NewFileStore(path, "")
	assert.ErrorIs(t, err, ErrSealed)
}

func TestFileStoreClosed(t *testing.T) {
	fs, err := NewFileStore(filepath.Join(t.TempDir(), "s.json"), "")
	require.NoError(t, err)
	require.NoError(t, fs.Close())
	assert.ErrorIs(t, fs.Set(context.Background(), KeyToken, "x"), ErrClosed)
}

func TestRedisStore(t *testing.T) {
	s := miniredis.RunT(t)
	s.RequireAuth("pw")

	r := NewRedis(config.RedisConfig{Addr: s.Addr(), Password: "pw", DB: 2, KeyPrefix: "mt:"}, zap.NewNop())
	t.Cleanup(func() { _ = r.Close() })

	require.NoError(t, r.Ping(context.Background()))
	exerciseKV(t, r)

	assert.True(t, s.DB(2).Exists("mt:"+KeyViewMode))
	assert.False(t, s.DB(2).Exists(KeyViewMode))
}

func TestOpenSelectsBackend(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Backend: "file", Path: filepath.Join(t.TempDir(), "s.json")}}
	kv, err := Open(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, kv)

	cfg.Storage.Backend = "etcd"
	_, err = Open(cfg, zap.NewNop())
	assert.Error(t, err)
}
