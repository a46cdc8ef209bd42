package service

import (
	"context"
	"net/url"

	"github.com/spec-kit/miniticker/internal/domain"
)

// CatalogService wraps the /api/catalog area and request type endpoints.
type CatalogService struct {
	backend Backend
}

// CatalogDependencies encapsulates requirements for catalog service.
type CatalogDependencies struct {
	Backend Backend
}

// NewCatalogService builds the service.
func NewCatalogService(deps CatalogDependencies) *CatalogService {
	return &CatalogService{backend: deps.Backend}
}

// ListAreas returns areas. With mostrarInactivos the backend returns the
// inactive ones; there is no mode returning both.
func (s *CatalogService) ListAreas(ctx context.Context, mostrarInactivos bool) ([]domain.Area, error) {
	query := url.Values{"mostrarInactivos": {boolParam(mostrarInactivos)}}
	var env listEnvelope[domain.Area]
	if err := s.backend.Get(ctx, "/api/catalog/areas", query, &env); err != nil {
		return nil, err
	}
	areas := env.list()
	for i := range areas {
		if areas[i].Stats == nil {
			areas[i].Stats = &domain.AreaStats{}
		}
	}
	return areas, nil
}

// CreateArea creates an area.
func (s *CatalogService) CreateArea(ctx context.Context, in domain.AreaInput) (*domain.Area, error) {
	var area domain.Area
	if err := s.backend.Post(ctx, "/api/catalog/areas", in, &area); err != nil {
		return nil, err
	}
	return &area, nil
}

// UpdateArea edits an area.
func (s *CatalogService) UpdateArea(ctx context.Context, id string, in domain.AreaInput) (*domain.Area, error) {
	var area domain.Area
	if err := s.backend.Put(ctx, "/api/catalog/areas/"+escape(id), in, &area); err != nil {
		return nil, err
	}
	return &area, nil
}

// DeleteArea removes an area. The backend refuses while it has open tickets.
func (s *CatalogService) DeleteArea(ctx context.Context, id string) error {
	return s.backend.Delete(ctx, "/api/catalog/areas/"+escape(id))
}

// RemoveResponsible detaches the manager of an area.
func (s *CatalogService) RemoveResponsible(ctx context.Context, areaID, usuarioID string) error {
	return s.backend.Patch(ctx, "/api/catalog/areas/"+escape(areaID)+"/quitar-responsable/"+escape(usuarioID), nil, nil)
}

// ListTipos returns the request types of an area. An empty area id yields
// an empty list without calling the backend.
func (s *CatalogService) ListTipos(ctx context.Context, areaID string, mostrarInactivos bool) ([]domain.TipoSolicitud, error) {
	if areaID == "" {
		return []domain.TipoSolicitud{}, nil
	}
	query := url.Values{
		"areaId":           {areaID},
		"mostrarInactivos": {boolParam(mostrarInactivos)},
	}
	var env listEnvelope[domain.TipoSolicitud]
	if err := s.backend.Get(ctx, "/api/catalog/tipos-solicitud", query, &env); err != nil {
		return nil, err
	}
	return env.list(), nil
}

// CreateTipo creates a request type.
func (s *CatalogService) CreateTipo(ctx context.Context, in domain.TipoSolicitudInput) (*domain.TipoSolicitud, error) {
	var tipo domain.TipoSolicitud
	if err := s.backend.Post(ctx, "/api/catalog/tipos-solicitud", in, &tipo); err != nil {
		return nil, err
	}
	return &tipo, nil
}

// DeleteTipo removes a request type.
func (s *CatalogService) DeleteTipo(ctx context.Context, id string) error {
	return s.backend.Delete(ctx, "/api/catalog/tipos-solicitud/"+escape(id))
}

// ToggleTipo activates or deactivates a request type.
func (s *CatalogService) ToggleTipo(ctx context.Context, id string, active bool) error {
	action := "desactivate"
	if active {
		action = "activate"
	}
	return s.backend.Patch(ctx, "/api/catalog/tipos-solicitud/"+escape(id)+"/"+action, nil, nil)
}
