package store

import (
	"context"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/miniticker/internal/domain"
	"github.com/spec-kit/miniticker/internal/querycache"
	"github.com/spec-kit/miniticker/internal/service"
)

// StatusStat is one status tile of the home overview.
type StatusStat struct {
	Titulo     string `json:"titulo"`
	Cantidad   int    `json:"cantidad"`
	IconName   string `json:"iconName"`
	ColorIcono string `json:"colorIcono"`
}

// Overview is the home screen summary of the first ticket page.
type Overview struct {
	Tickets        []domain.Ticket `json:"tickets"`
	Estadisticas   []StatusStat    `json:"estadisticas"`
	TotalTickets   int             `json:"totalTickets"`
	TasaCompletado int             `json:"tasaCompletado"`
	Stale          bool            `json:"stale"`
	Err            error           `json:"-"`
}

var overviewTiles = []struct {
	estado domain.Estado
	stat   StatusStat
}{
	{domain.EstadoNueva, StatusStat{Titulo: "Nueva", IconName: "clock", ColorIcono: "text-warning"}},
	{domain.EstadoEnProceso, StatusStat{Titulo: "En Proceso", IconName: "loader", ColorIcono: "text-info"}},
	{domain.EstadoResuelta, StatusStat{Titulo: "Resuelta", IconName: "check", ColorIcono: "text-warning"}},
	{domain.EstadoCerrada, StatusStat{Titulo: "Cerrada", IconName: "checkCircle", ColorIcono: "text-success"}},
	{domain.EstadoRechazada, StatusStat{Titulo: "Rechazada", IconName: "xCircle", ColorIcono: "text-error"}},
}

// OverviewDependencies wire an OverviewStore.
type OverviewDependencies struct {
	Tickets TicketLister
	Cache   *querycache.Cache
	Logger  *zap.Logger
}

// OverviewStore counts the default ticket page by status.
type OverviewStore struct {
	tickets TicketLister
	cache   *querycache.Cache
	logger  *zap.Logger

	mu   sync.Mutex
	view memo[derivationKey, Overview]
}

// NewOverviewStore builds the store.
func NewOverviewStore(deps OverviewDependencies) *OverviewStore {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &OverviewStore{tickets: deps.Tickets, cache: deps.Cache, logger: deps.Logger}
}

// Load returns the overview.
func (s *OverviewStore) Load(ctx context.Context) Overview {
	key := querycache.NewKey(KeyTickets, nil)
	res := querycache.Fetch(ctx, s.cache, key, querycache.Options{StaleTime: OverviewStaleTime}, func(ctx context.Context) ([]domain.Ticket, error) {
		page, err := s.tickets.List(ctx, service.TicketFilter{})
		if err != nil {
			return nil, err
		}
		return page.Items, nil
	})
	if res.Err != nil {
		s.logger.Warn("load overview", zap.Error(res.Err))
	}
	tickets := res.Data

	s.mu.Lock()
	view := s.view.get(derivationKey{query: key.String(), fetch: res.Version}, func() Overview {
		return deriveOverview(tickets)
	})
	s.mu.Unlock()

	view.Stale, view.Err = res.Stale, res.Err
	return view
}

func deriveOverview(tickets []domain.Ticket) Overview {
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	counts := make(map[domain.Estado]int, len(domain.Estados))
	for _, t := range tickets {
		counts[t.Estado]++
	}

	view := Overview{
		Tickets:      tickets,
		Estadisticas: make([]StatusStat, 0, len(overviewTiles)),
		TotalTickets: len(tickets),
	}
	for _, tile := range overviewTiles {
		stat := tile.stat
		stat.Cantidad = counts[tile.estado]
		view.Estadisticas = append(view.Estadisticas, stat)
	}
	if view.TotalTickets > 0 {
		done := counts[domain.EstadoCerrada] + counts[domain.EstadoResuelta]
		view.TasaCompletado = int(math.Round(float64(done) / float64(view.TotalTickets) * 100))
	}
	return view
}

// Reset drops the memoized overview.
func (s *OverviewStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.reset()
}
