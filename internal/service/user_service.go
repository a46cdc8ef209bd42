package service

import (
	"context"
	"net/http"

	"github.com/spec-kit/miniticker/internal/apiclient"
	"github.com/spec-kit/miniticker/internal/domain"
)

// UserService wraps the /api/users endpoints.
type UserService struct {
	backend Backend
}

// UserDependencies encapsulates requirements for user service.
type UserDependencies struct {
	Backend Backend
}

// NewUserService builds the service.
func NewUserService(deps UserDependencies) *UserService {
	return &UserService{backend: deps.Backend}
}

// UserInput is the create/update form of a user.
type UserInput struct {
	Nombre     string
	Email      string
	Rol        domain.Role
	AreaID     string
	Password   string
	FotoPerfil *apiclient.File
}

func (in UserInput) form() *apiclient.Multipart {
	form := apiclient.NewMultipart().
		Field("Nombre", in.Nombre).
		Field("Email", in.Email).
		Field("Rol", string(in.Rol))
	if in.AreaID != "" {
		form.Field("AreaId", in.AreaID)
	}
	if in.Password != "" {
		form.Field("Password", in.Password)
	}
	if in.FotoPerfil != nil {
		in.FotoPerfil.Field = "FotoPerfil"
	}
	return form.File(in.FotoPerfil)
}

// List returns every user. The backend answers either an array or a paged
// envelope depending on version.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	var env listEnvelope[domain.User]
	if err := s.backend.Get(ctx, "/api/users", nil, &env); err != nil {
		return nil, err
	}
	return env.list(), nil
}

// Get loads one user.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	if err := s.backend.Get(ctx, "/api/users/"+escape(id), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Create registers a user.
func (s *UserService) Create(ctx context.Context, in UserInput) (*domain.User, error) {
	var user domain.User
	if err := s.backend.SendForm(ctx, http.MethodPost, "/api/users", in.form(), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Update edits a user.
func (s *UserService) Update(ctx context.Context, id string, in UserInput) (*domain.User, error) {
	var user domain.User
	if err := s.backend.SendForm(ctx, http.MethodPut, "/api/users/"+escape(id), in.form(), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SetActive activates or deactivates a user.
func (s *UserService) SetActive(ctx context.Context, id string, active bool) error {
	action := "deactivate"
	if active {
		action = "activate"
	}
	return s.backend.Put(ctx, "/api/users/"+escape(id)+"/"+action, nil, nil)
}

// ListManagers returns the managers offered when assigning areas and tickets.
func (s *UserService) ListManagers(ctx context.Context) ([]domain.Manager, error) {
	var env listEnvelope[domain.Manager]
	if err := s.backend.Get(ctx, "/api/catalog/managers-selection", nil, &env); err != nil {
		return nil, err
	}
	return env.list(), nil
}
