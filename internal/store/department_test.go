package store

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/miniticker/internal/domain"
	"github.com/spec-kit/miniticker/internal/querycache"
	apperrors "github.com/spec-kit/miniticker/pkg/util/errorutil"
)

type fakeCatalog struct {
	mu        sync.Mutex
	areas     map[bool][]domain.Area
	tipos     map[bool][]domain.TipoSolicitud
	deleteErr error
	calls     map[string]int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{calls: map[string]int{}}
}

func (f *fakeCatalog) count(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeCatalog) called(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeCatalog) ListAreas(_ context.Context, inactivos bool) ([]domain.Area, error) {
	f.count("ListAreas")
	return f.areas[inactivos], nil
}

func (f *fakeCatalog) CreateArea(_ context.Context, in domain.AreaInput) (*domain.Area, error) {
	f.count("CreateArea")
	return &domain.Area{ID: "new", Nombre: in.Nombre, Prefijo: in.Prefijo, Activo: true}, nil
}

func (f *fakeCatalog) UpdateArea(_ context.Context, id string, in domain.AreaInput) (*domain.Area, error) {
	f.count("UpdateArea")
	return &domain.Area{ID: id, Nombre: in.Nombre}, nil
}

func (f *fakeCatalog) DeleteArea(context.Context, string) error {
	f.count("DeleteArea")
	return f.deleteErr
}

func (f *fakeCatalog) RemoveResponsible(context.Context, string, string) error {
	f.count("RemoveResponsible")
	return nil
}

func (f *fakeCatalog) ListTipos(_ context.Context, _ string, inactivos bool) ([]domain.TipoSolicitud, error) {
	f.count("ListTipos")
	return f.tipos[inactivos], nil
}

func (f *fakeCatalog) CreateTipo(_ context.Context, in domain.TipoSolicitudInput) (*domain.TipoSolicitud, error) {
	f.count("CreateTipo")
	return &domain.TipoSolicitud{ID: "t-new", AreaID: in.AreaID, Nombre: in.Nombre, Activo: true}, nil
}

func (f *fakeCatalog) DeleteTipo(context.Context, string) error {
	f.count("DeleteTipo")
	return nil
}

func (f *fakeCatalog) ToggleTipo(context.Context, string, bool) error {
	f.count("ToggleTipo")
	return nil
}

type fakeManagers struct {
	managers []domain.Manager
}

func (f *fakeManagers) ListManagers(context.Context) ([]domain.Manager, error) {
	return f.managers, nil
}

func newDepartmentStore(t *testing.T, catalog *fakeCatalog, managers *fakeManagers) (*DepartmentStore, *querycache.Cache) {
	t.Helper()
	cache, _, _ := newTestCache(t)
	if managers == nil {
		managers = &fakeManagers{}
	}
	return NewDepartmentStore(DepartmentDependencies{Catalog: catalog, Managers: managers, Cache: cache}), cache
}

func sampleAreas() map[bool][]domain.Area {
	return map[bool][]domain.Area{
		false: {
			{ID: "A1", Nombre: "Tecnología", Activo: true, Stats: &domain.AreaStats{Total: 10}},
			{ID: "A2", Nombre: "Compras", Activo: true, Stats: &domain.AreaStats{Total: 4}},
		},
		true: {
			{ID: "A2", Nombre: "Compras", Activo: true, Stats: &domain.AreaStats{Total: 4}},
			{ID: "A3", Nombre: "Legal", Activo: false},
		},
	}
}

func TestAreasMergeActiveAndInactive(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.areas = sampleAreas()
	s, _ := newDepartmentStore(t, catalog, nil)
	ctx := context.Background()

	areas, err := s.Areas(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(areas))
	for _, a := range areas {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"A1", "A2", "A3"}, ids)
	assert.Equal(t, 2, catalog.called("ListAreas"))

	options, err := s.AreaOptions(ctx)
	require.NoError(t, err)
	assert.Len(t, options, 2)

	kpis, err := s.KPIs(ctx)
	require.NoError(t, err)
	assert.Equal(t, DepartmentKPIs{Total: 3, Activas: 2, Inactivas: 1, TotalSolicitudes: 14}, kpis)
	assert.Equal(t, 2, catalog.called("ListAreas"), "served from cache")
}

func TestTypesNeedSelectedArea(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.tipos = map[bool][]domain.TipoSolicitud{
		false: {{ID: "T1", Nombre: "Soporte", Activo: true}},
		true:  {{ID: "T1", Nombre: "Soporte", Activo: true}, {ID: "T2", Nombre: "Baja", Activo: false}},
	}
	s, _ := newDepartmentStore(t, catalog, nil)
	ctx := context.Background()

	tipos, err := s.Types(ctx)
	require.NoError(t, err)
	assert.Empty(t, tipos)
	assert.Zero(t, catalog.called("ListTipos"))

	s.SelectArea("A1")
	tipos, err = s.Types(ctx)
	require.NoError(t, err)
	assert.Len(t, tipos, 2)

	options, err := s.TypeOptions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Option{{Label: "Soporte", Value: "T1"}}, options)
}

func TestManagerOptionsAvatarFallback(t *testing.T) {
	managers := &fakeManagers{managers: []domain.Manager{
		{ID: "m1", Nombre: "Ana Pérez"},
		{ID: "m2", Nombre: "Luis", FotoPerfilURL: "https://cdn.example.com/luis.png"},
	}}
	s, _ := newDepartmentStore(t, newFakeCatalog(), managers)

	options, err := s.ManagerOptions(context.Background())
	require.NoError(t, err)
	require.Len(t, options, 2)
	assert.Equal(t, "https://ui-avatars.com/api/?name=Ana%20P%C3%A9rez", options[0].Foto)
	assert.Equal(t, "https://cdn.example.com/luis.png", options[1].Foto)
}

func TestCatalogMutationsInvalidateAreas(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.areas = sampleAreas()
	s, cache := newDepartmentStore(t, catalog, nil)
	ctx := context.Background()

	_, err := s.Areas(ctx)
	require.NoError(t, err)
	assert.False(t, cache.IsStale(areasKey()))

	area, err := s.CreateArea(ctx, domain.AreaInput{Nombre: "Finanzas", Prefijo: " fin "})
	require.NoError(t, err)
	assert.Equal(t, "FIN", area.Prefijo)
	assert.True(t, cache.IsStale(areasKey()))

	_, err = s.Areas(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, catalog.called("ListAreas"))

	require.NoError(t, s.ToggleTipo(ctx, "T1", false))
	assert.True(t, cache.IsStale(areasKey()))
}

func TestRemoveResponsibleSkipsMissingIDs(t *testing.T) {
	catalog := newFakeCatalog()
	s, _ := newDepartmentStore(t, catalog, nil)

	require.NoError(t, s.RemoveResponsible(context.Background(), "A1", ""))
	assert.Zero(t, catalog.called("RemoveResponsible"))
}

func TestDeleteAreaWithPendingTicketsIsBlocked(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.deleteErr = apperrors.NewDomainError("CONFLICT", "No se puede eliminar: existen tickets pendientes", http.StatusConflict, nil)
	s, _ := newDepartmentStore(t, catalog, nil)

	err := s.DeleteArea(context.Background(), "A1")
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, "ACTION_BLOCKED", de.Code)
	assert.Equal(t, "El área tiene tickets activos que deben cerrarse primero.", de.Message)
	assert.Equal(t, "Acción Bloqueada", de.Details["title"])

	catalog.deleteErr = errors.New("boom")
	err = s.DeleteArea(context.Background(), "A1")
	assert.Equal(t, "boom", apperrors.Message(err))
}
