package auth

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/miniticker/internal/domain"
	"github.com/spec-kit/miniticker/internal/storage"
)

// SessionStore persists the bearer token and the signed-in user.
type SessionStore struct {
	kv     storage.KV
	logger *zap.Logger

	mu   sync.RWMutex
	user *domain.User
}

// NewSessionStore wraps a storage backend.
func NewSessionStore(kv storage.KV, logger *zap.Logger) *SessionStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionStore{kv: kv, logger: logger}
}

// Token returns the persisted bearer token, empty when signed out.
func (s *SessionStore) Token(ctx context.Context) string {
	token, _, err := s.kv.Get(ctx, storage.KeyToken)
	if err != nil {
		s.logger.Warn("read token", zap.Error(err))
		return ""
	}
	return token
}

// User returns the persisted user. A corrupt entry reads as signed out.
func (s *SessionStore) User(ctx context.Context) *domain.User {
	s.mu.RLock()
	cached := s.user
	s.mu.RUnlock()
	if cached != nil {
		return cached
	}

	raw, ok, err := s.kv.Get(ctx, storage.KeyUser)
	if err != nil || !ok {
		return nil
	}
	var user domain.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		s.logger.Warn("stored user unreadable", zap.Error(err))
		return nil
	}

	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
	return &user
}

// Session returns the token, user and token expiry together.
func (s *SessionStore) Session(ctx context.Context) domain.Session {
	session := domain.Session{Token: s.Token(ctx), User: s.User(ctx)}
	if session.Token != "" {
		if claims, err := InspectToken(session.Token); err == nil {
			session.ExpiresAt = claims.ExpiresAtTime()
		}
	}
	return session
}

// Save persists a fresh login.
func (s *SessionStore) Save(ctx context.Context, token string, user domain.User) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, storage.KeyToken, token); err != nil {
		return err
	}
	if err := s.kv.Set(ctx, storage.KeyUser, string(payload)); err != nil {
		return err
	}
	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
	return nil
}

// UpdateUser replaces the stored user, keeping the token.
func (s *SessionStore) UpdateUser(ctx context.Context, user domain.User) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, storage.KeyUser, string(payload)); err != nil {
		return err
	}
	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
	return nil
}

// Clear removes token and user. Other keys (preferences) survive.
func (s *SessionStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
	return s.kv.Delete(ctx, storage.KeyToken, storage.KeyUser)
}
