package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/miniticker/internal/storage"
)

func TestViewModeDefaultsToGrid(t *testing.T) {
	s := NewUIStore(storage.NewMemory(), nil)
	assert.Equal(t, ViewGrid, s.ViewMode(context.Background()))
}

func TestViewModePersists(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	s := NewUIStore(kv, nil)

	mode, err := s.ToggleViewMode(ctx)
	require.NoError(t, err)
	assert.Equal(t, ViewTable, mode)

	reopened := NewUIStore(kv, nil)
	assert.Equal(t, ViewTable, reopened.ViewMode(ctx))

	require.NoError(t, reopened.SetViewMode(ctx, "mosaico"))
	assert.Equal(t, ViewGrid, reopened.ViewMode(ctx))
}

func TestUnknownStoredViewModeReadsAsGrid(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	require.NoError(t, kv.Set(ctx, storage.KeyViewMode, "kanban"))

	assert.Equal(t, ViewGrid, NewUIStore(kv, nil).ViewMode(ctx))
}
