package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/miniticker/internal/clock"
	"github.com/spec-kit/miniticker/internal/domain"
	"github.com/spec-kit/miniticker/internal/events"
	"github.com/spec-kit/miniticker/internal/querycache"
	"github.com/spec-kit/miniticker/internal/service"
)

func newTestCache(t *testing.T) (*querycache.Cache, events.Dispatcher, *clock.FakeClock) {
	t.Helper()
	bus := events.NewInMemoryDispatcher(nil)
	clk := clock.Fake(time.Date(2026, 1, 4, 17, 37, 0, 0, time.UTC))
	c := querycache.New(querycache.Dependencies{Bus: bus, Clock: clk})
	t.Cleanup(c.Close)
	return c, bus, clk
}

type staticUser struct {
	user *domain.User
}

func (s *staticUser) User(context.Context) *domain.User { return s.user }

type fakeTickets struct {
	mu        sync.Mutex
	page      *domain.PagedResult[domain.Ticket]
	summary   domain.TicketSummary
	err       error
	lists     []service.TicketFilter
	summaries []service.TicketFilter
}

func (f *fakeTickets) List(_ context.Context, filter service.TicketFilter) (*domain.PagedResult[domain.Ticket], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists = append(f.lists, filter)
	if f.err != nil {
		return nil, f.err
	}
	if f.page == nil {
		return &domain.PagedResult[domain.Ticket]{Items: []domain.Ticket{}}, nil
	}
	return f.page, nil
}

func (f *fakeTickets) Summary(_ context.Context, filter service.TicketFilter) (domain.TicketSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaries = append(f.summaries, filter)
	if f.err != nil {
		return nil, f.err
	}
	return f.summary, nil
}

func (f *fakeTickets) lastList() service.TicketFilter {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists[len(f.lists)-1]
}

func (f *fakeTickets) listCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.lists)
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func record(bus events.Dispatcher, topic events.Topic) *recorder {
	r := &recorder{}
	bus.Subscribe(topic, func(_ context.Context, e events.Event) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, e)
		return nil
	})
	return r
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func (r *recorder) last() events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

func strPtr(s string) *string { return &s }
