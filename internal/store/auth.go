package store

import (
	"context"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/miniticker/internal/apiclient"
	"github.com/spec-kit/miniticker/internal/domain"
	"github.com/spec-kit/miniticker/internal/events"
	"github.com/spec-kit/miniticker/internal/querycache"
	apperrors "github.com/spec-kit/miniticker/pkg/util/errorutil"
)

// DefaultLoginError is shown when the backend gives no reason.
const DefaultLoginError = "Credenciales incorrectas"

// AuthAPI is the auth service as used by the session flows.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*domain.LoginResponse, error)
	Logout(ctx context.Context) error
	CompleteSetup(ctx context.Context, newPassword string, foto *apiclient.File) (*domain.SetupResult, error)
	RequestPasswordReset(ctx context.Context, email, code string) error
}

// SessionWriter persists the signed-in user and token.
type SessionWriter interface {
	UserSource
	Save(ctx context.Context, token string, user domain.User) error
	UpdateUser(ctx context.Context, user domain.User) error
	Clear(ctx context.Context) error
}

// Resetter is a store that forgets its local state at logout.
type Resetter interface {
	Reset()
}

// AuthDependencies wire an AuthStore.
type AuthDependencies struct {
	Auth    AuthAPI
	Session SessionWriter
	Cache   *querycache.Cache
	Bus     events.Dispatcher
	Logger  *zap.Logger
	// Resetters are reset at logout, after the cache is cleared.
	Resetters []Resetter
}

// AuthStore runs login, logout and first-login setup.
type AuthStore struct {
	auth      AuthAPI
	session   SessionWriter
	cache     *querycache.Cache
	bus       events.Dispatcher
	resetters []Resetter
	logger    *zap.Logger

	mu      sync.Mutex
	loading bool
	lastErr string
}

// NewAuthStore builds the store.
func NewAuthStore(deps AuthDependencies) *AuthStore {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &AuthStore{
		auth:      deps.Auth,
		session:   deps.Session,
		cache:     deps.Cache,
		bus:       deps.Bus,
		resetters: deps.Resetters,
		logger:    deps.Logger,
	}
}

// CurrentUser returns the signed-in user, nil when signed out.
func (s *AuthStore) CurrentUser(ctx context.Context) *domain.User {
	return s.session.User(ctx)
}

// LastError is the message of the last failed login, empty after a success.
func (s *AuthStore) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Loading reports whether a login is in flight.
func (s *AuthStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Login exchanges credentials and persists the session. A rejection carries
// the backend's message, or "Credenciales incorrectas" when it sent none.
func (s *AuthStore) Login(ctx context.Context, email, password string) (*domain.LoginResponse, error) {
	s.mu.Lock()
	s.loading, s.lastErr = true, ""
	s.mu.Unlock()

	resp, err := s.auth.Login(ctx, email, password)
	if err == nil {
		err = s.session.Save(ctx, resp.Token, resp.User)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		msg := loginMessage(err)
		s.lastErr = msg
		s.logger.Info("login rejected", zap.String("email", email), zap.Error(err))
		return nil, &apperrors.DomainError{Code: "LOGIN_FAILED", Message: msg, HTTPStatus: http.StatusUnauthorized, Err: err}
	}
	s.logger.Info("logged in", zap.String("user_id", resp.User.ID), zap.String("role", string(resp.User.Rol)))
	return resp, nil
}

func loginMessage(err error) string {
	if apperrors.IsClientError(err) {
		if msg := apperrors.Message(err); msg != "" && msg != http.StatusText(apperrors.ToDomainError(err).HTTPStatus) {
			return msg
		}
	}
	return DefaultLoginError
}

// Logout ends the session. The backend call is best-effort; local state is
// cleared whatever it answers.
func (s *AuthStore) Logout(ctx context.Context) error {
	user := s.session.User(ctx)
	if err := s.auth.Logout(ctx); err != nil {
		s.logger.Warn("backend logout failed", zap.Error(err))
	}

	s.cache.Clear()
	for _, r := range s.resetters {
		r.Reset()
	}
	err := s.session.Clear(ctx)
	if err != nil {
		s.logger.Warn("clear session", zap.Error(err))
	}

	if s.bus != nil {
		payload := events.SessionLogoutPayload{}
		if user != nil {
			payload.UserID = user.ID
		}
		if perr := s.bus.Publish(ctx, events.NewEvent(events.TopicSessionLogout, payload)); perr != nil {
			s.logger.Warn("publish logout", zap.Error(perr))
		}
	}
	return err
}

// CompleteSetup sets the first password and photo, then clears the
// must-change-password flag on the stored user.
func (s *AuthStore) CompleteSetup(ctx context.Context, newPassword string, foto *apiclient.File) (*domain.SetupResult, error) {
	res, err := s.auth.CompleteSetup(ctx, newPassword, foto)
	if err != nil {
		return nil, err
	}
	if user := s.session.User(ctx); user != nil {
		updated := *user
		updated.DebeCambiarPassword = false
		if res.FotoURL != "" {
			updated.FotoPerfilURL = res.FotoURL
		}
		if err := s.session.UpdateUser(ctx, updated); err != nil {
			s.logger.Warn("update stored user", zap.Error(err))
		}
	}
	return res, nil
}

// RequestPasswordReset asks the backend to reset a forgotten password.
func (s *AuthStore) RequestPasswordReset(ctx context.Context, email, code string) error {
	return s.auth.RequestPasswordReset(ctx, email, code)
}
