package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/miniticker/internal/domain"
	"github.com/spec-kit/miniticker/internal/service"
)

type fakeUsers struct {
	users   []domain.User
	lists   int
	created []service.UserInput
	toggled map[string]bool
}

func (f *fakeUsers) List(context.Context) ([]domain.User, error) {
	f.lists++
	return f.users, nil
}

func (f *fakeUsers) Create(_ context.Context, in service.UserInput) (*domain.User, error) {
	f.created = append(f.created, in)
	return &domain.User{ID: "new", Nombre: in.Nombre, Email: in.Email, Rol: in.Rol, Activo: true}, nil
}

func (f *fakeUsers) Update(_ context.Context, id string, in service.UserInput) (*domain.User, error) {
	return &domain.User{ID: id, Nombre: in.Nombre}, nil
}

func (f *fakeUsers) SetActive(_ context.Context, id string, active bool) error {
	if f.toggled == nil {
		f.toggled = map[string]bool{}
	}
	f.toggled[id] = active
	return nil
}

func sampleUsers() []domain.User {
	return []domain.User{
		{ID: "1", Nombre: "Ana Pérez", Email: "ana@miniticker.com", Rol: domain.RoleAdmin, Activo: true},
		{ID: "2", Nombre: "Luis Gómez", Email: "luis@miniticker.com", Rol: domain.RoleGestor, Activo: true},
		{ID: "3", Nombre: "Marta Ruiz", Email: "marta@miniticker.com", Rol: domain.RoleSolicitante, Activo: false},
		{ID: "4", Nombre: "Pedro Sosa", Email: "pedro@miniticker.com", Rol: domain.RoleSolicitante, Activo: true},
	}
}

func TestUserFiltersAndKPIs(t *testing.T) {
	cache, _, _ := newTestCache(t)
	api := &fakeUsers{users: sampleUsers()}
	s := NewUserStore(UserDependencies{Users: api, Cache: cache})
	ctx := context.Background()

	view := s.Load(ctx)
	require.NoError(t, view.Err)
	assert.Len(t, view.Items, 4)
	assert.Equal(t, 4, view.KPIs.Total)
	assert.Equal(t, 3, view.KPIs.Activos)
	assert.Equal(t, 1, view.KPIs.Inactivos)
	assert.Equal(t, 2, view.KPIs.PorRol[domain.RoleSolicitante])
	assert.Equal(t, 0, view.KPIs.PorRol[domain.RoleSuperAdmin])

	s.SetFilters(UserFilters{Role: "Solicitante", Status: StatusActivos})
	view = s.Load(ctx)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "4", view.Items[0].ID)
	assert.Equal(t, 4, view.KPIs.Total, "KPIs ignore filters")

	s.SetFilters(UserFilters{Search: "GÓMEZ", Role: "nadie", Status: "x"})
	view = s.Load(ctx)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "2", view.Items[0].ID)
	assert.Equal(t, AllRoles, s.Filters().Role)
	assert.Equal(t, 1, api.lists)
}

func TestUserMutationsInvalidateList(t *testing.T) {
	cache, _, _ := newTestCache(t)
	api := &fakeUsers{users: sampleUsers()}
	s := NewUserStore(UserDependencies{Users: api, Cache: cache})
	ctx := context.Background()

	s.Load(ctx)
	user, err := s.AddUser(ctx, service.UserInput{Nombre: "José Núñez", Rol: domain.RoleGestor})
	require.NoError(t, err)
	assert.Equal(t, "josenunez@miniticker.com", user.Email)

	s.Load(ctx)
	assert.Equal(t, 2, api.lists)

	require.NoError(t, s.ToggleStatus(ctx, "3", true))
	assert.True(t, api.toggled["3"])
	s.Load(ctx)
	assert.Equal(t, 3, api.lists)
}
