package store

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/miniticker/internal/domain"
	"github.com/spec-kit/miniticker/internal/querycache"
	"github.com/spec-kit/miniticker/internal/scheduler"
)

// DefaultPeriod is the period selected on a fresh dashboard.
const DefaultPeriod = "este-mes"

var priorityColors = map[string]string{
	"Urgente": "progress-error",
	"Alta":    "progress-warning",
	"Media":   "progress-info",
	"Baja":    "progress-secondary",
}

var statusColors = map[string]string{
	"Nueva":      "#fbbd23",
	"En Proceso": "#3abff8",
	"Resuelta":   "#36d399",
	"Cerrada":    "#2a323c",
	"Rechazada":  "#f87272",
}

var requesterColors = []string{
	"bg-primary text-primary-content",
	"bg-secondary text-secondary-content",
	"bg-accent text-accent-content",
	"bg-info text-info-content",
	"bg-neutral text-neutral-content",
}

// PriorityShare is one row of the priority breakdown.
type PriorityShare struct {
	Label   string `json:"label"`
	Count   int    `json:"count"`
	Percent int    `json:"percent"`
	Color   string `json:"color"`
}

// RankedRequester is a top requester with its avatar color.
type RankedRequester struct {
	domain.TopRequester
	Color string `json:"color"`
}

// Series is a chart dataset.
type Series struct {
	Label  string   `json:"label"`
	Data   []int    `json:"data"`
	Colors []string `json:"colors,omitempty"`
}

// Chart is a labelled set of series.
type Chart struct {
	Labels []string `json:"labels"`
	Series []Series `json:"series"`
}

// DashboardView is everything the report screen renders.
type DashboardView struct {
	Period          string                `json:"period"`
	Area            string                `json:"area"`
	Stats           domain.DashboardStats `json:"stats"`
	KPIs            domain.DashboardKPIs  `json:"kpis"`
	Prioridades     []PriorityShare       `json:"prioridades"`
	TopSolicitantes []RankedRequester     `json:"topSolicitantes"`
	Tendencia       Chart                 `json:"tendencia"`
	Estatus         Chart                 `json:"estatus"`
	Areas           Chart                 `json:"areas"`
	Stale           bool                  `json:"stale"`
	Err             error                 `json:"-"`
}

// StatsReader reads the aggregated report.
type StatsReader interface {
	Stats(ctx context.Context, periodo, areaID string) (*domain.DashboardStats, error)
}

// DashboardDependencies wire a DashboardStore.
type DashboardDependencies struct {
	Stats     StatsReader
	Catalog   AreaLister
	Cache     *querycache.Cache
	Scheduler scheduler.Scheduler
	Logger    *zap.Logger
	// Interval enables auto-refresh when positive.
	Interval time.Duration
}

// DashboardStore is the report screen: period and area selection, the
// server aggregated stats and their chart-ready derivations.
type DashboardStore struct {
	stats     StatsReader
	catalog   AreaLister
	cache     *querycache.Cache
	scheduler scheduler.Scheduler
	interval  time.Duration
	logger    *zap.Logger

	mu     sync.Mutex
	period string
	area   string
	view   memo[derivationKey, DashboardView]
	cancel scheduler.CancelFunc
}

// NewDashboardStore builds the store on the default period.
func NewDashboardStore(deps DashboardDependencies) *DashboardStore {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &DashboardStore{
		stats:     deps.Stats,
		catalog:   deps.Catalog,
		cache:     deps.Cache,
		scheduler: deps.Scheduler,
		interval:  deps.Interval,
		logger:    deps.Logger,
		period:    DefaultPeriod,
	}
}

// ChangePeriod selects the reporting period.
func (s *DashboardStore) ChangePeriod(period string) {
	if period == "" {
		period = DefaultPeriod
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.period = period
}

// SelectArea narrows the report to one area; empty selects all.
func (s *DashboardStore) SelectArea(areaID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.area = areaID
}

// Selection returns the selected period and area.
func (s *DashboardStore) Selection() (period, area string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.period, s.area
}

func statsKey(period, area string) querycache.Key {
	var areaParam *string
	if area != "" {
		areaParam = &area
	}
	return querycache.NewKey(KeyDashboardStats, []any{period, areaParam})
}

// Areas lists the active areas for the area selector.
func (s *DashboardStore) Areas(ctx context.Context) ([]Option, error) {
	res := querycache.Fetch(ctx, s.cache, querycache.NewKey(KeyAreasList, nil), querycache.Options{StaleTime: AreasListStaleTime, Tags: []string{KeyAreas}}, func(ctx context.Context) ([]domain.Area, error) {
		return s.catalog.ListAreas(ctx, false)
	})
	out := make([]Option, 0, len(res.Data))
	for _, a := range res.Data {
		out = append(out, Option{Label: a.Nombre, Value: a.ID})
	}
	return out, res.Err
}

// Load returns the report for the current selection. A failed first load
// yields an all-zero view with Err set.
func (s *DashboardStore) Load(ctx context.Context) DashboardView {
	return s.load(ctx, false)
}

// Refresh reloads the report regardless of stale time.
func (s *DashboardStore) Refresh(ctx context.Context) DashboardView {
	return s.load(ctx, true)
}

func (s *DashboardStore) load(ctx context.Context, force bool) DashboardView {
	period, area := s.Selection()
	key := statsKey(period, area)
	opts := querycache.Options{StaleTime: DashboardStaleTime}
	fetch := func(ctx context.Context) (*domain.DashboardStats, error) {
		return s.stats.Stats(ctx, period, area)
	}
	var res querycache.Result[*domain.DashboardStats]
	if force {
		res = querycache.Refetch(ctx, s.cache, key, opts, fetch)
	} else {
		res = querycache.Fetch(ctx, s.cache, key, opts, fetch)
	}
	if res.Err != nil {
		s.logger.Warn("load dashboard", zap.String("period", period), zap.Error(res.Err))
	}

	s.mu.Lock()
	view := s.view.get(derivationKey{query: key.String(), fetch: res.Version}, func() DashboardView {
		return deriveDashboard(safeStats(res.Data))
	})
	s.mu.Unlock()

	view.Period, view.Area = period, area
	view.Stale, view.Err = res.Stale, res.Err
	return view
}

// safeStats substitutes an empty report for a missing one and empty lists
// for missing series.
func safeStats(stats *domain.DashboardStats) domain.DashboardStats {
	var out domain.DashboardStats
	if stats != nil {
		out = *stats
	}
	if out.Tendencia == nil {
		out.Tendencia = []domain.TrendPoint{}
	}
	if out.Estatus == nil {
		out.Estatus = []domain.StatusCount{}
	}
	if out.Prioridades == nil {
		out.Prioridades = []domain.PriorityCount{}
	}
	if out.TopSolicitantes == nil {
		out.TopSolicitantes = []domain.TopRequester{}
	}
	if out.TopGestores == nil {
		out.TopGestores = []domain.TopManager{}
	}
	if out.DesempenoAreas == nil {
		out.DesempenoAreas = []domain.AreaPerformance{}
	}
	return out
}

func deriveDashboard(stats domain.DashboardStats) DashboardView {
	return DashboardView{
		Stats:           stats,
		KPIs:            stats.KPIs,
		Prioridades:     priorityShares(stats.Prioridades),
		TopSolicitantes: rankRequesters(stats.TopSolicitantes),
		Tendencia:       trendChart(stats.Tendencia),
		Estatus:         statusChart(stats.Estatus),
		Areas:           areaChart(stats.DesempenoAreas),
	}
}

func priorityShares(counts []domain.PriorityCount) []PriorityShare {
	total := 0
	for _, p := range counts {
		total += p.Cantidad
	}
	out := make([]PriorityShare, 0, len(counts))
	for _, p := range counts {
		share := PriorityShare{Label: p.Prioridad, Count: p.Cantidad, Color: "progress-primary"}
		if total > 0 {
			share.Percent = int(math.Round(float64(p.Cantidad) / float64(total) * 100))
		}
		if c, ok := priorityColors[p.Prioridad]; ok {
			share.Color = c
		}
		out = append(out, share)
	}
	return out
}

func rankRequesters(top []domain.TopRequester) []RankedRequester {
	out := make([]RankedRequester, 0, len(top))
	for i, r := range top {
		out = append(out, RankedRequester{TopRequester: r, Color: requesterColors[i%len(requesterColors)]})
	}
	return out
}

func trendChart(points []domain.TrendPoint) Chart {
	chart := Chart{Labels: make([]string, 0, len(points))}
	total := Series{Label: "Total", Data: make([]int, 0, len(points))}
	done := Series{Label: "Completadas", Data: make([]int, 0, len(points))}
	for _, p := range points {
		chart.Labels = append(chart.Labels, p.Mes)
		total.Data = append(total.Data, p.Total)
		done.Data = append(done.Data, p.Completadas)
	}
	chart.Series = []Series{total, done}
	return chart
}

func statusChart(counts []domain.StatusCount) Chart {
	chart := Chart{Labels: make([]string, 0, len(counts))}
	series := Series{Data: make([]int, 0, len(counts)), Colors: make([]string, 0, len(counts))}
	for _, c := range counts {
		chart.Labels = append(chart.Labels, c.Estado)
		series.Data = append(series.Data, c.Cantidad)
		color, ok := statusColors[c.Estado]
		if !ok {
			color = "#cccccc"
		}
		series.Colors = append(series.Colors, color)
	}
	chart.Series = []Series{series}
	return chart
}

func areaChart(areas []domain.AreaPerformance) Chart {
	chart := Chart{Labels: make([]string, 0, len(areas))}
	total := Series{Label: "Total", Data: make([]int, 0, len(areas))}
	done := Series{Label: "Completadas", Data: make([]int, 0, len(areas))}
	for _, a := range areas {
		chart.Labels = append(chart.Labels, a.Area)
		total.Data = append(total.Data, a.Total)
		done.Data = append(done.Data, a.Completadas)
	}
	chart.Series = []Series{total, done}
	return chart
}

// Start refreshes the report every interval when auto-refresh is enabled.
func (s *DashboardStore) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scheduler == nil || s.interval <= 0 || s.cancel != nil {
		return
	}
	s.cancel = s.scheduler.Schedule(s.interval, func(ctx context.Context) {
		s.Refresh(ctx)
	})
}

// Stop cancels auto-refresh.
func (s *DashboardStore) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Reset stops auto-refresh and restores the default selection.
func (s *DashboardStore) Reset() {
	s.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.period, s.area = DefaultPeriod, ""
	s.view.reset()
}
