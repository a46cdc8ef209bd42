package store

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/miniticker/internal/dates"
	"github.com/spec-kit/miniticker/internal/domain"
	"github.com/spec-kit/miniticker/internal/querycache"
	"github.com/spec-kit/miniticker/internal/service"
)

// Tab is a status bucket of the ticket list.
type Tab string

const (
	TabTodas     Tab = "todas"
	TabNueva     Tab = "nueva"
	TabProceso   Tab = "proceso"
	TabResuelta  Tab = "resuelta"
	TabCerrada   Tab = "cerrada"
	TabRechazada Tab = "rechazada"
)

var tabEstados = map[Tab]domain.Estado{
	TabNueva:     domain.EstadoNueva,
	TabProceso:   domain.EstadoEnProceso,
	TabResuelta:  domain.EstadoResuelta,
	TabCerrada:   domain.EstadoCerrada,
	TabRechazada: domain.EstadoRechazada,
}

// Valid reports whether t is a known tab.
func (t Tab) Valid() bool {
	_, ok := tabEstados[t]
	return ok || t == TabTodas
}

// GestorFilter narrows the list by manager assignment.
type GestorFilter string

const (
	GestorTodos GestorFilter = "todos"
	GestorCon   GestorFilter = "con"
	GestorSin   GestorFilter = "sin"
)

// Filter defaults.
const (
	AllTypes        = "todos"
	AllPriorities   = "todas"
	DefaultPageSize = 12
)

// Filters is the local state of the ticket list.
type Filters struct {
	SearchTerm      string       `json:"searchTerm"`
	TypeFilter      string       `json:"typeFilter"`
	PriorityFilter  string       `json:"priorityFilter"`
	ActiveTab       Tab          `json:"activeTab"`
	HasGestorFilter GestorFilter `json:"hasGestorFilter"`
	CurrentPage     int          `json:"currentPage"`
}

func defaultFilters() Filters {
	return Filters{
		TypeFilter:      AllTypes,
		PriorityFilter:  AllPriorities,
		ActiveTab:       TabTodas,
		HasGestorFilter: GestorTodos,
		CurrentPage:     1,
	}
}

// Solicitud is a ticket card.
type Solicitud struct {
	UUID        string  `json:"uuid"`
	ID          string  `json:"id"`
	Titulo      string  `json:"titulo"`
	Descripcion string  `json:"descripcion"`
	Prioridad   string  `json:"prioridad"`
	Tipo        string  `json:"tipo"`
	Estado      string  `json:"estado"`
	Fecha       string  `json:"fecha"`
	Solicitante string  `json:"solicitante"`
	Responsable *string `json:"responsable"`
}

// ListView is one rendered page of the ticket list. When the last fetch
// failed, Items holds the previous page and Err is set.
type ListView struct {
	Items       []Solicitud `json:"items"`
	Total       int         `json:"total"`
	TotalPages  int         `json:"totalPages"`
	CurrentPage int         `json:"currentPage"`
	PageSize    int         `json:"pageSize"`
	Stale       bool        `json:"stale"`
	Err         error       `json:"-"`
}

// Counts are the tab badge counters.
type Counts struct {
	Todas     int `json:"todas"`
	Nueva     int `json:"nueva"`
	Proceso   int `json:"proceso"`
	Resuelta  int `json:"resuelta"`
	Cerrada   int `json:"cerrada"`
	Rechazada int `json:"rechazada"`
}

// TicketLister is the read side of the ticket service used by the list.
type TicketLister interface {
	List(ctx context.Context, filter service.TicketFilter) (*domain.PagedResult[domain.Ticket], error)
	Summary(ctx context.Context, filter service.TicketFilter) (domain.TicketSummary, error)
}

// AreaLister lists areas.
type AreaLister interface {
	ListAreas(ctx context.Context, mostrarInactivos bool) ([]domain.Area, error)
}

// SolicitudesDependencies wire a SolicitudesStore.
type SolicitudesDependencies struct {
	Tickets  TicketLister
	Catalog  AreaLister
	Cache    *querycache.Cache
	Session  UserSource
	Location *time.Location
	PageSize int
	Logger   *zap.Logger
}

// SolicitudesStore is the ticket list: filters, paging, tab counts and the
// area filter options.
type SolicitudesStore struct {
	tickets  TicketLister
	catalog  AreaLister
	cache    *querycache.Cache
	session  UserSource
	loc      *time.Location
	pageSize int
	logger   *zap.Logger

	mu      sync.Mutex
	filters Filters
	areaID  string
	version uint64
	items   memo[derivationKey, []Solicitud]
	options memo[derivationKey, []Option]
}

// NewSolicitudesStore builds the store with default filters.
func NewSolicitudesStore(deps SolicitudesDependencies) *SolicitudesStore {
	if deps.PageSize <= 0 {
		deps.PageSize = DefaultPageSize
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &SolicitudesStore{
		tickets:  deps.Tickets,
		catalog:  deps.Catalog,
		cache:    deps.Cache,
		session:  deps.Session,
		loc:      deps.Location,
		pageSize: deps.PageSize,
		logger:   deps.Logger,
		filters:  defaultFilters(),
	}
}

// Filters returns the current filter state.
func (s *SolicitudesStore) Filters() Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters
}

// PageSize is the fixed page size.
func (s *SolicitudesStore) PageSize() int {
	return s.pageSize
}

// update applies fn to the filters; any change other than the page itself
// sends the list back to page 1.
func (s *SolicitudesStore) update(fn func(f *Filters)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.filters
	fn(&s.filters)
	after := s.filters
	after.CurrentPage = before.CurrentPage
	if after != before {
		s.filters.CurrentPage = 1
		s.version++
	}
}

// SetSearchTerm sets the free text search.
func (s *SolicitudesStore) SetSearchTerm(term string) {
	s.update(func(f *Filters) { f.SearchTerm = term })
}

// SetTypeFilter sets the area filter; "todos" clears it.
func (s *SolicitudesStore) SetTypeFilter(areaID string) {
	if areaID == "" {
		areaID = AllTypes
	}
	s.update(func(f *Filters) { f.TypeFilter = areaID })
}

// SetPriorityFilter sets the priority filter ("todas", "Baja", "Media" or
// "Alta"). Unknown values clear it.
func (s *SolicitudesStore) SetPriorityFilter(prioridad string) {
	if _, ok := priorityParam(prioridad); !ok {
		prioridad = AllPriorities
	}
	s.update(func(f *Filters) { f.PriorityFilter = prioridad })
}

// SetActiveTab selects a status bucket. Unknown tabs select "todas".
func (s *SolicitudesStore) SetActiveTab(tab Tab) {
	if !tab.Valid() {
		tab = TabTodas
	}
	s.update(func(f *Filters) { f.ActiveTab = tab })
}

// SetGestorFilter sets the manager assignment filter.
func (s *SolicitudesStore) SetGestorFilter(g GestorFilter) {
	if g != GestorCon && g != GestorSin {
		g = GestorTodos
	}
	s.update(func(f *Filters) { f.HasGestorFilter = g })
}

// SetPage moves to page n (at least 1).
func (s *SolicitudesStore) SetPage(n int) {
	if n < 1 {
		n = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters.CurrentPage = n
}

// ResetFilters restores every filter default and page 1.
func (s *SolicitudesStore) ResetFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = defaultFilters()
	s.version++
}

// Reset is ResetFilters plus dropping memoized views; used at logout.
func (s *SolicitudesStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = defaultFilters()
	s.areaID = ""
	s.version++
	s.items.reset()
	s.options.reset()
}

// syncUser resets the area dependent filters when the signed-in user's area
// changed since the last read.
func (s *SolicitudesStore) syncUser(user *domain.User) {
	areaID := ""
	if user != nil {
		areaID = user.AreaID
	}
	if areaID == s.areaID {
		return
	}
	s.logger.Debug("user area changed", zap.String("from", s.areaID), zap.String("to", areaID))
	s.areaID = areaID
	s.filters.TypeFilter = AllTypes
	s.filters.CurrentPage = 1
	s.version++
	s.options.reset()
}

type listKeyParams struct {
	UserID   string       `json:"userId"`
	AreaID   string       `json:"areaId"`
	Search   string       `json:"search"`
	Area     string       `json:"area"`
	Priority string       `json:"priority"`
	Status   Tab          `json:"status"`
	Gestor   GestorFilter `json:"gestor"`
	Page     int          `json:"page"`
}

type summaryKeyParams struct {
	UserID   string       `json:"userId"`
	AreaID   string       `json:"areaId"`
	Search   string       `json:"search"`
	Area     string       `json:"area"`
	Priority string       `json:"priority"`
	Gestor   GestorFilter `json:"gestor"`
}

// snapshot reads the user and filters under the lock.
func (s *SolicitudesStore) snapshot(ctx context.Context) (*domain.User, Filters) {
	var user *domain.User
	if s.session != nil {
		user = s.session.User(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncUser(user)
	return user, s.filters
}

func userIDs(user *domain.User) (string, string) {
	if user == nil {
		return "", ""
	}
	return user.ID, user.AreaID
}

// ListKey is the cache key of the current page.
func (s *SolicitudesStore) ListKey(ctx context.Context) querycache.Key {
	user, f := s.snapshot(ctx)
	return listKey(user, f)
}

// SummaryKey is the cache key of the tab counts; it ignores tab and page.
func (s *SolicitudesStore) SummaryKey(ctx context.Context) querycache.Key {
	user, f := s.snapshot(ctx)
	return summaryKey(user, f)
}

func listKey(user *domain.User, f Filters) querycache.Key {
	userID, areaID := userIDs(user)
	return querycache.NewKey(KeyTicketsList, listKeyParams{
		UserID:   userID,
		AreaID:   areaID,
		Search:   f.SearchTerm,
		Area:     f.TypeFilter,
		Priority: f.PriorityFilter,
		Status:   f.ActiveTab,
		Gestor:   f.HasGestorFilter,
		Page:     f.CurrentPage,
	})
}

func summaryKey(user *domain.User, f Filters) querycache.Key {
	userID, areaID := userIDs(user)
	return querycache.NewKey(KeyTicketsSummary, summaryKeyParams{
		UserID:   userID,
		AreaID:   areaID,
		Search:   f.SearchTerm,
		Area:     f.TypeFilter,
		Priority: f.PriorityFilter,
		Gestor:   f.HasGestorFilter,
	})
}

func priorityParam(filter string) (*domain.Prioridad, bool) {
	if filter == AllPriorities || filter == "" {
		return nil, true
	}
	for _, p := range domain.Prioridades {
		if p.String() == filter {
			p := p
			return &p, true
		}
	}
	return nil, false
}

// ticketFilter builds the backend query. A Gestor is always scoped to their
// own area and a Solicitante to their own tickets.
func ticketFilter(user *domain.User, f Filters, pageSize int) service.TicketFilter {
	filter := service.TicketFilter{
		Page:          f.CurrentPage,
		PageSize:      pageSize,
		TextoBusqueda: f.SearchTerm,
	}
	filter.Prioridad, _ = priorityParam(f.PriorityFilter)
	if estado, ok := tabEstados[f.ActiveTab]; ok {
		filter.Estado = &estado
	}
	switch {
	case user.HasRole(domain.RoleGestor):
		filter.AreaID = user.AreaID
	case f.TypeFilter != AllTypes:
		filter.AreaID = f.TypeFilter
	}
	if user.HasRole(domain.RoleSolicitante) {
		filter.UsuarioID = user.ID
	}
	if f.HasGestorFilter != GestorTodos {
		con := f.HasGestorFilter == GestorCon
		filter.TieneGestor = &con
	}
	return filter
}

// Load returns the current page, fetching it when stale. The view is usable
// even when the returned error is non-nil.
func (s *SolicitudesStore) Load(ctx context.Context) (ListView, error) {
	user, f := s.snapshot(ctx)
	key := listKey(user, f)
	filter := ticketFilter(user, f, s.pageSize)

	res := querycache.Fetch(ctx, s.cache, key, querycache.Options{StaleTime: DefaultStaleTime}, func(ctx context.Context) (*domain.PagedResult[domain.Ticket], error) {
		return s.tickets.List(ctx, filter)
	})

	view := ListView{
		CurrentPage: f.CurrentPage,
		PageSize:    s.pageSize,
		Stale:       res.Stale,
		Err:         res.Err,
		Items:       []Solicitud{},
		TotalPages:  1,
	}
	if res.HasData && res.Data != nil {
		page := res.Data
		s.mu.Lock()
		view.Items = s.items.get(derivationKey{query: key.String(), fetch: res.Version}, func() []Solicitud {
			return mapSolicitudes(page.Items, s.loc)
		})
		s.mu.Unlock()
		view.Total = page.Total
		view.TotalPages = totalPages(page.Total, s.pageSize)
	}
	if res.Err != nil {
		s.logger.Warn("load tickets", zap.Error(res.Err))
	}
	return view, res.Err
}

// Counts returns the tab badge counters for the current filters.
func (s *SolicitudesStore) Counts(ctx context.Context) (Counts, error) {
	user, f := s.snapshot(ctx)
	key := summaryKey(user, f)
	filter := ticketFilter(user, f, s.pageSize)

	res := querycache.Fetch(ctx, s.cache, key, querycache.Options{StaleTime: SummaryStaleTime}, func(ctx context.Context) (domain.TicketSummary, error) {
		return s.tickets.Summary(ctx, filter)
	})
	if !res.HasData {
		return Counts{}, res.Err
	}
	return countsFrom(res.Data), res.Err
}

func countsFrom(summary domain.TicketSummary) Counts {
	return Counts{
		Todas:     summary.Total(),
		Nueva:     summary.Count(domain.EstadoNueva),
		Proceso:   summary.Count(domain.EstadoEnProceso),
		Resuelta:  summary.Count(domain.EstadoResuelta),
		Cerrada:   summary.Count(domain.EstadoCerrada),
		Rechazada: summary.Count(domain.EstadoRechazada),
	}
}

// AreaOptions lists the active areas for the area filter. A Gestor only
// gets their own area.
func (s *SolicitudesStore) AreaOptions(ctx context.Context) ([]Option, error) {
	user, _ := s.snapshot(ctx)
	key := querycache.NewKey(KeyAreas, map[string]bool{"mostrarInactivos": false})
	res := querycache.Fetch(ctx, s.cache, key, querycache.Options{StaleTime: CatalogStaleTime}, func(ctx context.Context) ([]domain.Area, error) {
		return s.catalog.ListAreas(ctx, false)
	})
	if !res.HasData {
		return []Option{}, res.Err
	}

	areas := res.Data
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.options.get(derivationKey{query: key.String(), fetch: res.Version, version: s.version}, func() []Option {
		out := make([]Option, 0, len(areas))
		for _, a := range areas {
			if !a.Activo {
				continue
			}
			if user.HasRole(domain.RoleGestor) && a.ID != user.AreaID {
				continue
			}
			out = append(out, Option{Label: a.Nombre, Value: a.ID})
		}
		return out
	}), res.Err
}

func totalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 1
	}
	return int(math.Ceil(float64(total) / float64(pageSize)))
}

func mapSolicitudes(tickets []domain.Ticket, loc *time.Location) []Solicitud {
	out := make([]Solicitud, 0, len(tickets))
	for i := range tickets {
		out = append(out, mapSolicitud(&tickets[i], loc))
	}
	return out
}

func mapSolicitud(t *domain.Ticket, loc *time.Location) Solicitud {
	sol := Solicitud{
		UUID:        t.ID,
		ID:          t.Numero,
		Titulo:      t.Asunto,
		Descripcion: t.Descripcion,
		Prioridad:   t.Prioridad.String(),
		Tipo:        t.AreaNombre(),
		Estado:      t.Estado.Label(),
		Fecha:       dates.ListDate(t.FechaCreacion, loc),
		Solicitante: t.SolicitanteNombre("Desconocido"),
	}
	if name := t.GestorNombre(); name != "" {
		sol.Responsable = &name
	}
	return sol
}
