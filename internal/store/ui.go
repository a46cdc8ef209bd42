package store

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/miniticker/internal/storage"
)

// ViewMode is how ticket lists are laid out.
type ViewMode string

const (
	ViewGrid  ViewMode = "grid"
	ViewTable ViewMode = "table"
)

// UIStore holds presentation preferences. They live outside the session and
// survive logout.
type UIStore struct {
	kv     storage.KV
	logger *zap.Logger

	mu     sync.Mutex
	mode   ViewMode
	loaded bool
}

// NewUIStore builds the store over kv.
func NewUIStore(kv storage.KV, logger *zap.Logger) *UIStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UIStore{kv: kv, logger: logger, mode: ViewGrid}
}

// ViewMode returns the stored mode, grid when none or an unknown one is stored.
func (s *UIStore) ViewMode(ctx context.Context) ViewMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		s.loaded = true
		raw, ok, err := s.kv.Get(ctx, storage.KeyViewMode)
		if err != nil {
			s.logger.Warn("read view mode", zap.Error(err))
		}
		if ok && (ViewMode(raw) == ViewGrid || ViewMode(raw) == ViewTable) {
			s.mode = ViewMode(raw)
		}
	}
	return s.mode
}

// SetViewMode stores mode.
func (s *UIStore) SetViewMode(ctx context.Context, mode ViewMode) error {
	if mode != ViewTable {
		mode = ViewGrid
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode, s.loaded = mode, true
	return s.kv.Set(ctx, storage.KeyViewMode, string(mode))
}

// ToggleViewMode switches between grid and table and returns the new mode.
func (s *UIStore) ToggleViewMode(ctx context.Context) (ViewMode, error) {
	next := ViewTable
	if s.ViewMode(ctx) == ViewTable {
		next = ViewGrid
	}
	return next, s.SetViewMode(ctx, next)
}
