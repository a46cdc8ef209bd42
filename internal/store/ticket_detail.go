package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/miniticker/internal/clock"
	"github.com/spec-kit/miniticker/internal/dates"
	"github.com/spec-kit/miniticker/internal/domain"
	"github.com/spec-kit/miniticker/internal/format"
	"github.com/spec-kit/miniticker/internal/history"
	"github.com/spec-kit/miniticker/internal/querycache"
	"github.com/spec-kit/miniticker/internal/service"
)

// Detail error messages shown to the user.
const (
	DetailLoadError   = "No se pudo cargar la información completa."
	DetailUpdateError = "Error al actualizar el ticket."
)

// ErrNoTicket is returned by actions when no ticket is open.
var ErrNoTicket = errors.New("store: no ticket open")

// TicketAPI is the ticket service as used by the detail view.
type TicketAPI interface {
	Get(ctx context.Context, id string) (*domain.Ticket, error)
	History(ctx context.Context, id string) ([]domain.HistorialItem, error)
	Update(ctx context.Context, id string, in service.TicketUpdate) error
	Assign(ctx context.Context, id, gestorID string) error
	ChangeStatus(ctx context.Context, id string, estado domain.Estado, motivo string) error
	AddComment(ctx context.Context, id, texto string) error
}

// HistoryEntry is a timeline row.
type HistoryEntry struct {
	domain.HistorialItem
	FechaDisplay string `json:"fechaDisplay"`
	Autor        string `json:"autor"`
}

// TicketDetail is the ticket modal view model.
type TicketDetail struct {
	Ticket         domain.Ticket  `json:"ticket"`
	Historial      []HistoryEntry `json:"historial"`
	FechaDisplay   string         `json:"fechaDisplay"`
	EstadoBadge    format.Badge   `json:"estadoBadge"`
	PrioridadBadge format.Badge   `json:"prioridadBadge"`
	// Placeholder is set while the view only holds what an activity entry
	// carried.
	Placeholder bool `json:"placeholder"`
}

// DetailState is a snapshot of the detail view.
type DetailState struct {
	Detail        *TicketDetail `json:"detail"`
	Loading       bool          `json:"loading"`
	ActionLoading bool          `json:"actionLoading"`
	Error         string        `json:"error,omitempty"`
}

// TicketDetailDependencies wire a TicketDetailStore.
type TicketDetailDependencies struct {
	Tickets  TicketAPI
	Cache    *querycache.Cache
	Clock    clock.Clock
	Location *time.Location
	Logger   *zap.Logger
}

// TicketDetailStore holds the ticket shown in the detail view. Watchers are
// told about every state change, including the placeholder published before
// the authoritative load.
type TicketDetailStore struct {
	tickets TicketAPI
	cache   *querycache.Cache
	clock   clock.Clock
	loc     *time.Location
	logger  *zap.Logger

	mu       sync.Mutex
	state    DetailState
	seq      uint64
	watchers map[uint64]func(DetailState)
	nextID   uint64

	// fromActivity is set while the open ticket came from the activity feed.
	fromActivity bool
}

// NewTicketDetailStore builds an empty detail store.
func NewTicketDetailStore(deps TicketDetailDependencies) *TicketDetailStore {
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &TicketDetailStore{
		tickets:  deps.Tickets,
		cache:    deps.Cache,
		clock:    deps.Clock,
		loc:      deps.Location,
		logger:   deps.Logger,
		watchers: make(map[uint64]func(DetailState)),
	}
}

// State returns the current snapshot.
func (s *TicketDetailStore) State() DetailState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Watch registers fn for state changes and returns its cancel func.
func (s *TicketDetailStore) Watch(fn func(DetailState)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.watchers, id)
	}
}

// set applies fn to the state and notifies watchers outside the lock.
// Updates from a superseded open (seq mismatch) are ignored.
func (s *TicketDetailStore) set(seq uint64, fn func(st *DetailState)) bool {
	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		return false
	}
	fn(&s.state)
	snapshot := s.state
	watchers := make([]func(DetailState), 0, len(s.watchers))
	for _, w := range s.watchers {
		watchers = append(watchers, w)
	}
	s.mu.Unlock()

	for _, w := range watchers {
		w(snapshot)
	}
	return true
}

func (s *TicketDetailStore) begin(fromActivity bool) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.fromActivity = fromActivity
	return s.seq
}

func detailKey(id string) querycache.Key {
	return querycache.NewKey(KeyTicketDetail, map[string]string{"id": id})
}

func historyKey(id string) querycache.Key {
	return querycache.NewKey(KeyTicketHistory, map[string]string{"id": id})
}

// Open loads a ticket and its history in parallel and publishes the full
// view. A failing history read counts as an empty history.
func (s *TicketDetailStore) Open(ctx context.Context, id string) (DetailState, error) {
	seq := s.begin(false)
	s.set(seq, func(st *DetailState) {
		*st = DetailState{Loading: true}
	})
	return s.load(ctx, seq, id)
}

// OpenFromActivity publishes a placeholder built from the activity entry,
// then loads the ticket. If the load fails the placeholder stays, flagged
// with the error. The loaded timeline omits the automatic "Comentario
// agregado" entries, the comment itself is already listed.
func (s *TicketDetailStore) OpenFromActivity(ctx context.Context, item domain.ActivityItem) (DetailState, error) {
	if !item.HasTicket() {
		return s.State(), ErrNoTicket
	}
	seq := s.begin(true)
	placeholder := s.placeholder(item)
	s.set(seq, func(st *DetailState) {
		*st = DetailState{Detail: placeholder, Loading: true}
	})
	return s.load(ctx, seq, *item.TicketID)
}

// placeholder maps the fields an activity entry carries. The creation time
// falls back to now: the view needs a real instant to render.
func (s *TicketDetailStore) placeholder(item domain.ActivityItem) *TicketDetail {
	created := dates.Parse(item.FechaCreacion, s.loc).OrNow(s.clock.Now())
	ticket := domain.Ticket{
		ID:            *item.TicketID,
		Asunto:        item.Titulo,
		Descripcion:   item.Mensaje,
		Estado:        domain.EstadoNueva,
		Prioridad:     domain.PrioridadMedia,
		FechaCreacion: created.Format(time.RFC3339),
	}
	if item.Usuario != "" {
		ticket.Solicitante = &domain.UserRef{Nombre: item.Usuario}
	}
	detail := s.mapDetail(ticket, nil, false)
	detail.Placeholder = true
	return detail
}

func (s *TicketDetailStore) load(ctx context.Context, seq uint64, id string) (DetailState, error) {
	ticket, items, err := s.fetch(ctx, id)
	if err != nil {
		s.logger.Warn("load ticket detail", zap.String("ticket_id", id), zap.Error(err))
		s.set(seq, func(st *DetailState) {
			st.Loading = false
			st.Error = DetailLoadError
		})
		return s.State(), err
	}

	s.mu.Lock()
	dropSystem := s.fromActivity
	s.mu.Unlock()

	detail := s.mapDetail(*ticket, items, dropSystem)
	s.set(seq, func(st *DetailState) {
		*st = DetailState{Detail: detail}
	})
	return s.State(), nil
}

func (s *TicketDetailStore) fetch(ctx context.Context, id string) (*domain.Ticket, []domain.HistorialItem, error) {
	opts := querycache.Options{StaleTime: DefaultStaleTime}
	var (
		ticket *domain.Ticket
		items  []domain.HistorialItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res := querycache.Fetch(gctx, s.cache, detailKey(id), opts, func(ctx context.Context) (*domain.Ticket, error) {
			return s.tickets.Get(ctx, id)
		})
		if res.Err != nil {
			return res.Err
		}
		ticket = res.Data
		return nil
	})
	g.Go(func() error {
		res := querycache.Fetch(gctx, s.cache, historyKey(id), opts, func(ctx context.Context) ([]domain.HistorialItem, error) {
			return s.tickets.History(ctx, id)
		})
		if res.Err != nil {
			s.logger.Debug("history unavailable", zap.String("ticket_id", id), zap.Error(res.Err))
			return nil
		}
		items = res.Data
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if ticket == nil {
		return nil, nil, ErrNoTicket
	}
	return ticket, items, nil
}

func (s *TicketDetailStore) mapDetail(ticket domain.Ticket, fromEndpoint []domain.HistorialItem, dropSystem bool) *TicketDetail {
	timeline := history.Select(fromEndpoint, ticket.Historial)
	if dropSystem {
		timeline = history.WithoutSystemComments(timeline)
	}
	timeline = history.Dedup(timeline)
	ticket.Historial = timeline

	entries := make([]HistoryEntry, 0, len(timeline))
	for _, item := range timeline {
		entries = append(entries, HistoryEntry{
			HistorialItem: item,
			FechaDisplay:  dates.DetailDate(item.Fecha, s.loc),
			Autor:         history.Author(item, ""),
		})
	}
	return &TicketDetail{
		Ticket:         ticket,
		Historial:      entries,
		FechaDisplay:   dates.DetailDate(ticket.FechaCreacion, s.loc),
		EstadoBadge:    format.EstadoBadge(ticket.Estado),
		PrioridadBadge: format.PrioridadBadge(ticket.Prioridad),
	}
}

func (s *TicketDetailStore) currentID() (string, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Detail == nil {
		return "", s.seq
	}
	return s.state.Detail.Ticket.ID, s.seq
}

// act runs a ticket write on the open ticket, invalidates every ticket read
// and reloads the detail.
func (s *TicketDetailStore) act(ctx context.Context, reason string, fn func(ctx context.Context, id string) error) error {
	id, seq := s.currentID()
	if id == "" {
		return ErrNoTicket
	}
	_, err := querycache.Mutate(ctx, s.cache, querycache.MutationOptions{Invalidates: TicketMutationTags, Reason: reason}, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx, id)
	})
	if err != nil {
		s.logger.Warn("ticket action failed", zap.String("action", reason), zap.String("ticket_id", id), zap.Error(err))
		return err
	}
	_, err = s.load(ctx, seq, id)
	return err
}

// AddComment posts a comment on the open ticket.
func (s *TicketDetailStore) AddComment(ctx context.Context, texto string) error {
	return s.act(ctx, "add-comment", func(ctx context.Context, id string) error {
		return s.tickets.AddComment(ctx, id, texto)
	})
}

// AssignManager assigns the open ticket.
func (s *TicketDetailStore) AssignManager(ctx context.Context, gestorID string) error {
	return s.act(ctx, "assign", func(ctx context.Context, id string) error {
		return s.tickets.Assign(ctx, id, gestorID)
	})
}

// ChangeStatus moves the open ticket to estado.
func (s *TicketDetailStore) ChangeStatus(ctx context.Context, estado domain.Estado, motivo string) error {
	return s.act(ctx, "change-status", func(ctx context.Context, id string) error {
		return s.tickets.ChangeStatus(ctx, id, estado, motivo)
	})
}

// Update edits the open ticket. On failure the state carries the update
// error message.
func (s *TicketDetailStore) Update(ctx context.Context, in service.TicketUpdate) error {
	_, seq := s.currentID()
	s.set(seq, func(st *DetailState) { st.ActionLoading = true })
	err := s.act(ctx, "update-ticket", func(ctx context.Context, id string) error {
		return s.tickets.Update(ctx, id, in)
	})
	s.set(seq, func(st *DetailState) {
		st.ActionLoading = false
		if err != nil {
			st.Error = DetailUpdateError
		}
	})
	return err
}

// Close forgets the open ticket.
func (s *TicketDetailStore) Close() {
	seq := s.begin(false)
	s.set(seq, func(st *DetailState) { *st = DetailState{} })
}

// Reset closes the ticket and drops every watcher.
func (s *TicketDetailStore) Reset() {
	s.Close()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers = make(map[uint64]func(DetailState))
}
