package service

import (
	"context"
	"net/http"

	"github.com/spec-kit/miniticker/internal/apiclient"
	"github.com/spec-kit/miniticker/internal/domain"
)

// AuthService wraps the /api/auth endpoints.
type AuthService struct {
	backend Backend
}

// AuthDependencies encapsulates requirements for auth service.
type AuthDependencies struct {
	Backend Backend
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	return &AuthService{backend: deps.Backend}
}

// Login exchanges credentials for a token and the user profile.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.LoginResponse, error) {
	var resp domain.LoginResponse
	err := s.backend.Post(ctx, "/api/auth/login", domain.LoginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout tells the backend the session ends.
func (s *AuthService) Logout(ctx context.Context) error {
	return s.backend.Post(ctx, "/api/auth/logout", nil, nil)
}

// CompleteSetup sets the first password and, optionally, the profile photo.
func (s *AuthService) CompleteSetup(ctx context.Context, newPassword string, foto *apiclient.File) (*domain.SetupResult, error) {
	if foto != nil {
		foto.Field = "fotoPerfil"
	}
	form := apiclient.NewMultipart().
		Field("newPassword", newPassword).
		File(foto)

	var out domain.SetupResult
	if err := s.backend.SendForm(ctx, http.MethodPost, "/api/auth/complete-setup", form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RequestPasswordReset asks for a reset. The code is the first four digits
// of the user's identity document.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email, code string) error {
	return s.backend.Post(ctx, "/api/auth/request-reset", domain.PasswordResetRequest{
		Email:              email,
		Primeros4DigitosID: code,
	}, nil)
}

// GetUser loads a user profile.
func (s *AuthService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	if err := s.backend.Get(ctx, "/api/users/"+escape(id), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
