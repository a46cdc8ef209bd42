package store

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/miniticker/internal/domain"
	"github.com/spec-kit/miniticker/internal/querycache"
	apperrors "github.com/spec-kit/miniticker/pkg/util/errorutil"
)

const avatarFallbackURL = "https://ui-avatars.com/api/?name="

// CatalogAPI is the catalog service as used by the department screens.
type CatalogAPI interface {
	ListAreas(ctx context.Context, mostrarInactivos bool) ([]domain.Area, error)
	CreateArea(ctx context.Context, in domain.AreaInput) (*domain.Area, error)
	UpdateArea(ctx context.Context, id string, in domain.AreaInput) (*domain.Area, error)
	DeleteArea(ctx context.Context, id string) error
	RemoveResponsible(ctx context.Context, areaID, usuarioID string) error
	ListTipos(ctx context.Context, areaID string, mostrarInactivos bool) ([]domain.TipoSolicitud, error)
	CreateTipo(ctx context.Context, in domain.TipoSolicitudInput) (*domain.TipoSolicitud, error)
	DeleteTipo(ctx context.Context, id string) error
	ToggleTipo(ctx context.Context, id string, active bool) error
}

// ManagerLister lists the managers offered as area responsibles.
type ManagerLister interface {
	ListManagers(ctx context.Context) ([]domain.Manager, error)
}

// ManagerOption is a manager entry of a select list.
type ManagerOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Foto  string `json:"foto"`
}

// DepartmentKPIs summarize the area catalog.
type DepartmentKPIs struct {
	Total            int `json:"total"`
	Activas          int `json:"activas"`
	Inactivas        int `json:"inactivas"`
	TotalSolicitudes int `json:"totalSolicitudes"`
}

// DepartmentDependencies wire a DepartmentStore.
type DepartmentDependencies struct {
	Catalog  CatalogAPI
	Managers ManagerLister
	Cache    *querycache.Cache
	Logger   *zap.Logger
}

// DepartmentStore is the area and request type administration.
type DepartmentStore struct {
	catalog  CatalogAPI
	managers ManagerLister
	cache    *querycache.Cache
	logger   *zap.Logger

	mu           sync.Mutex
	selectedArea string
	kpis         memo[derivationKey, DepartmentKPIs]
}

// NewDepartmentStore builds the store.
func NewDepartmentStore(deps DepartmentDependencies) *DepartmentStore {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &DepartmentStore{
		catalog:  deps.Catalog,
		managers: deps.Managers,
		cache:    deps.Cache,
		logger:   deps.Logger,
	}
}

func areasKey() querycache.Key {
	return querycache.NewKey(KeyAreas, nil)
}

// Areas returns active and inactive areas together. The backend serves them
// in two lists; an id present in both is kept once.
func (s *DepartmentStore) Areas(ctx context.Context) ([]domain.Area, error) {
	res := s.fetchAreas(ctx)
	if !res.HasData {
		return []domain.Area{}, res.Err
	}
	return res.Data, res.Err
}

func (s *DepartmentStore) fetchAreas(ctx context.Context) querycache.Result[[]domain.Area] {
	return querycache.Fetch(ctx, s.cache, areasKey(), querycache.Options{StaleTime: CatalogStaleTime}, func(ctx context.Context) ([]domain.Area, error) {
		var active, inactive []domain.Area
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			active, err = s.catalog.ListAreas(gctx, false)
			return err
		})
		g.Go(func() (err error) {
			inactive, err = s.catalog.ListAreas(gctx, true)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return mergeByID(active, inactive, func(a domain.Area) string { return a.ID }), nil
	})
}

// SelectArea chooses the area whose request types Types returns.
func (s *DepartmentStore) SelectArea(areaID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedArea = areaID
}

// SelectedArea returns the area chosen with SelectArea.
func (s *DepartmentStore) SelectedArea() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedArea
}

// Types returns active and inactive request types of the selected area.
// Without a selection it returns an empty list and makes no call.
func (s *DepartmentStore) Types(ctx context.Context) ([]domain.TipoSolicitud, error) {
	areaID := s.SelectedArea()
	if areaID == "" {
		return []domain.TipoSolicitud{}, nil
	}
	key := querycache.NewKey(KeyTypes, map[string]string{"areaId": areaID})
	res := querycache.Fetch(ctx, s.cache, key, querycache.Options{StaleTime: CatalogStaleTime}, func(ctx context.Context) ([]domain.TipoSolicitud, error) {
		var active, inactive []domain.TipoSolicitud
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			active, err = s.catalog.ListTipos(gctx, areaID, false)
			return err
		})
		g.Go(func() (err error) {
			inactive, err = s.catalog.ListTipos(gctx, areaID, true)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return mergeByID(active, inactive, func(t domain.TipoSolicitud) string { return t.ID }), nil
	})
	if !res.HasData {
		return []domain.TipoSolicitud{}, res.Err
	}
	return res.Data, res.Err
}

// AreaOptions lists the active areas.
func (s *DepartmentStore) AreaOptions(ctx context.Context) ([]Option, error) {
	areas, err := s.Areas(ctx)
	out := make([]Option, 0, len(areas))
	for _, a := range areas {
		if a.Activo {
			out = append(out, Option{Label: a.Nombre, Value: a.ID})
		}
	}
	return out, err
}

// TypeOptions lists the active request types of the selected area.
func (s *DepartmentStore) TypeOptions(ctx context.Context) ([]Option, error) {
	tipos, err := s.Types(ctx)
	out := make([]Option, 0, len(tipos))
	for _, t := range tipos {
		if t.Activo {
			out = append(out, Option{Label: t.Nombre, Value: t.ID})
		}
	}
	return out, err
}

// ManagerOptions lists managers with a photo, generating an avatar URL for
// those without one.
func (s *DepartmentStore) ManagerOptions(ctx context.Context) ([]ManagerOption, error) {
	res := querycache.Fetch(ctx, s.cache, querycache.NewKey(KeyManagers, nil), querycache.Options{StaleTime: CatalogStaleTime}, s.managers.ListManagers)
	out := make([]ManagerOption, 0, len(res.Data))
	for _, m := range res.Data {
		foto := m.FotoPerfilURL
		if foto == "" {
			foto = avatarFallbackURL + strings.ReplaceAll(url.QueryEscape(m.Nombre), "+", "%20")
		}
		out = append(out, ManagerOption{Value: m.ID, Label: m.Nombre, Foto: foto})
	}
	return out, res.Err
}

// KPIs counts areas by state and sums their tickets.
func (s *DepartmentStore) KPIs(ctx context.Context) (DepartmentKPIs, error) {
	res := s.fetchAreas(ctx)
	if !res.HasData {
		return DepartmentKPIs{}, res.Err
	}
	areas := res.Data
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kpis.get(derivationKey{query: KeyAreas, fetch: res.Version}, func() DepartmentKPIs {
		kpis := DepartmentKPIs{Total: len(areas)}
		for _, a := range areas {
			if a.Activo {
				kpis.Activas++
			} else {
				kpis.Inactivas++
			}
			kpis.TotalSolicitudes += a.StatsOrZero().Total
		}
		return kpis
	}), res.Err
}

func (s *DepartmentStore) mutate(ctx context.Context, reason string, fn func(context.Context) error) error {
	_, err := querycache.Mutate(ctx, s.cache, querycache.MutationOptions{Invalidates: CatalogMutationTags, Reason: reason}, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	if err != nil {
		s.logger.Warn("catalog mutation failed", zap.String("action", reason), zap.Error(err))
	}
	return err
}

// CreateArea creates an area.
func (s *DepartmentStore) CreateArea(ctx context.Context, in domain.AreaInput) (*domain.Area, error) {
	in.Prefijo = strings.ToUpper(strings.TrimSpace(in.Prefijo))
	return querycache.Mutate(ctx, s.cache, querycache.MutationOptions{Invalidates: CatalogMutationTags, Reason: "create-area"}, func(ctx context.Context) (*domain.Area, error) {
		return s.catalog.CreateArea(ctx, in)
	})
}

// UpdateArea edits an area.
func (s *DepartmentStore) UpdateArea(ctx context.Context, id string, in domain.AreaInput) (*domain.Area, error) {
	return querycache.Mutate(ctx, s.cache, querycache.MutationOptions{Invalidates: CatalogMutationTags, Reason: "update-area"}, func(ctx context.Context) (*domain.Area, error) {
		return s.catalog.UpdateArea(ctx, id, in)
	})
}

// DeleteArea removes an area. A refusal because of open tickets comes back
// as an ACTION_BLOCKED error with a friendly message.
func (s *DepartmentStore) DeleteArea(ctx context.Context, id string) error {
	err := s.mutate(ctx, "delete-area", func(ctx context.Context) error {
		return s.catalog.DeleteArea(ctx, id)
	})
	if err != nil && strings.Contains(apperrors.Message(err), "tickets pendientes") {
		return apperrors.NewActionBlocked("Acción Bloqueada", "El área tiene tickets activos que deben cerrarse primero.", err)
	}
	return err
}

// RemoveResponsible detaches the manager of an area. Missing ids are a no-op.
func (s *DepartmentStore) RemoveResponsible(ctx context.Context, areaID, usuarioID string) error {
	if areaID == "" || usuarioID == "" {
		return nil
	}
	return s.mutate(ctx, "remove-responsible", func(ctx context.Context) error {
		return s.catalog.RemoveResponsible(ctx, areaID, usuarioID)
	})
}

// CreateTipo creates a request type.
func (s *DepartmentStore) CreateTipo(ctx context.Context, in domain.TipoSolicitudInput) (*domain.TipoSolicitud, error) {
	return querycache.Mutate(ctx, s.cache, querycache.MutationOptions{Invalidates: CatalogMutationTags, Reason: "create-type"}, func(ctx context.Context) (*domain.TipoSolicitud, error) {
		return s.catalog.CreateTipo(ctx, in)
	})
}

// DeleteTipo removes a request type.
func (s *DepartmentStore) DeleteTipo(ctx context.Context, id string) error {
	return s.mutate(ctx, "delete-type", func(ctx context.Context) error {
		return s.catalog.DeleteTipo(ctx, id)
	})
}

// ToggleTipo activates or deactivates a request type.
func (s *DepartmentStore) ToggleTipo(ctx context.Context, id string, active bool) error {
	return s.mutate(ctx, "toggle-type", func(ctx context.Context) error {
		return s.catalog.ToggleTipo(ctx, id, active)
	})
}

// Reset clears the selection.
func (s *DepartmentStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedArea = ""
	s.kpis.reset()
}

func mergeByID[T any](first, second []T, id func(T) string) []T {
	seen := make(map[string]struct{}, len(first)+len(second))
	out := make([]T, 0, len(first)+len(second))
	for _, list := range [][]T{first, second} {
		for _, item := range list {
			k := id(item)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}
