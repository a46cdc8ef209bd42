package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/miniticker/internal/domain"
	"github.com/spec-kit/miniticker/internal/events"
	"github.com/spec-kit/miniticker/internal/scheduler"
)

type fakeActivity struct {
	mu     sync.Mutex
	mine   []domain.ActivityItem
	global []domain.ActivityItem
	areaID string
}

func (f *fakeActivity) Mine(context.Context) ([]domain.ActivityItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mine, nil
}

func (f *fakeActivity) Global(_ context.Context, areaID, _ string) ([]domain.ActivityItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.areaID = areaID
	return f.global, nil
}

func (f *fakeActivity) setMine(items ...domain.ActivityItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mine = items
}

func item(id, tipo string) domain.ActivityItem {
	return domain.ActivityItem{ID: id, Tipo: tipo, Titulo: "Ticket " + id, Mensaje: "mensaje " + id}
}

func newActivityStore(t *testing.T, api *fakeActivity) (*ActivityStore, *scheduler.Manual, *recorder) {
	t.Helper()
	cache, bus, _ := newTestCache(t)
	sched := scheduler.NewManual()
	s := NewActivityStore(ActivityDependencies{Activity: api, Cache: cache, Scheduler: sched, Bus: bus})
	return s, sched, record(bus, events.TopicActivityArrived)
}

func TestFirstLoadDoesNotNotify(t *testing.T) {
	api := &fakeActivity{mine: []domain.ActivityItem{item("a2", domain.ActivityCreado), item("a1", domain.ActivityLogin)}}
	s, sched, arrived := newActivityStore(t, api)
	ctx := context.Background()

	view := s.Mine(ctx)
	require.NoError(t, view.Err)
	require.Len(t, view.Items, 2)
	assert.Equal(t, "Ticket Creado", view.Items[0].Config.Label)
	assert.Equal(t, 0, arrived.len())

	s.Start()
	sched.Tick(ctx)
	assert.Equal(t, 0, arrived.len(), "same leading item")

	api.setMine(item("a3", domain.ActivityComentario), item("a2", domain.ActivityCreado))
	sched.Tick(ctx)
	require.Equal(t, 1, arrived.len())
	payload := arrived.last().Payload.(events.ActivityArrivedPayload)
	assert.Equal(t, FeedMine, payload.Feed)
	assert.Equal(t, "a3", payload.Item.ID)

	sched.Tick(ctx)
	assert.Equal(t, 1, arrived.len())
}

func TestEmptyFeedThenFirstItemNotifies(t *testing.T) {
	api := &fakeActivity{}
	s, sched, arrived := newActivityStore(t, api)
	ctx := context.Background()

	assert.Empty(t, s.Mine(ctx).Items)
	s.Start()
	api.setMine(item("a1", domain.ActivityAsignado))
	sched.Tick(ctx)
	assert.Equal(t, 1, arrived.len())
}

func TestStopCancelsPolling(t *testing.T) {
	s, sched, _ := newActivityStore(t, &fakeActivity{})
	s.Start()
	s.Start()
	assert.Equal(t, 2, sched.Len())

	s.Stop()
	assert.Equal(t, 0, sched.Len())
}

func TestGlobalFiltersStartNewBaseline(t *testing.T) {
	api := &fakeActivity{global: []domain.ActivityItem{item("g1", domain.ActivityCreado)}}
	s, _, arrived := newActivityStore(t, api)
	ctx := context.Background()

	s.Global(ctx)
	api.mu.Lock()
	api.global = []domain.ActivityItem{item("g9", domain.ActivityCreado)}
	api.mu.Unlock()

	s.SetGlobalFilters("A1", "")
	view := s.Global(ctx)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "A1", api.areaID)
	assert.Equal(t, 0, arrived.len())

	areaID, userID := s.GlobalFilters()
	assert.Equal(t, "A1", areaID)
	assert.Empty(t, userID)

	s.ClearFilters()
	areaID, _ = s.GlobalFilters()
	assert.Empty(t, areaID)
}

func TestUnknownActivityKindGetsDefaultConfig(t *testing.T) {
	api := &fakeActivity{mine: []domain.ActivityItem{item("x", "Desconocido")}}
	s, _, _ := newActivityStore(t, api)

	view := s.Mine(context.Background())
	require.Len(t, view.Items, 1)
	assert.Equal(t, "Actividad", view.Items[0].Config.Label)
}

// gatedActivity holds Global calls for one area until release is closed.
type gatedActivity struct {
	fakeActivity
	gatedArea string
	started   chan struct{}
	release   chan struct{}
	byArea    map[string][]domain.ActivityItem
}

func (g *gatedActivity) Global(ctx context.Context, areaID, userID string) ([]domain.ActivityItem, error) {
	if areaID == g.gatedArea {
		close(g.started)
		<-g.release
	}
	return g.byArea[areaID], nil
}

func TestFilterChangeDuringFetchKeepsNewBaseline(t *testing.T) {
	api := &gatedActivity{
		gatedArea: "A1",
		started:   make(chan struct{}),
		release:   make(chan struct{}),
		byArea: map[string][]domain.ActivityItem{
			"A1": {item("a1-latest", domain.ActivityCreado)},
			"A2": {item("a2-latest", domain.ActivityCreado)},
		},
	}
	cache, bus, _ := newTestCache(t)
	sched := scheduler.NewManual()
	s := NewActivityStore(ActivityDependencies{Activity: api, Cache: cache, Scheduler: sched, Bus: bus})
	arrived := record(bus, events.TopicActivityArrived)
	ctx := context.Background()

	s.SetGlobalFilters("A1", "")
	done := make(chan FeedView)
	go func() { done <- s.Global(ctx) }()
	<-api.started

	s.SetGlobalFilters("A2", "")
	close(api.release)
	late := <-done
	require.Len(t, late.Items, 1)
	assert.Equal(t, "a1-latest", late.Items[0].ID)

	view := s.Global(ctx)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "a2-latest", view.Items[0].ID)
	assert.Equal(t, 0, arrived.len(), "first load under the new filter is a baseline")

	s.Refresh(ctx)
	assert.Equal(t, 0, arrived.len())
}

func TestResetDuringFetchDoesNotNotifyLater(t *testing.T) {
	api := &gatedActivity{
		gatedArea: "A1",
		started:   make(chan struct{}),
		release:   make(chan struct{}),
		byArea: map[string][]domain.ActivityItem{
			"A1": {item("old", domain.ActivityCreado)},
			"":   {item("fresh", domain.ActivityCreado)},
		},
	}
	cache, bus, _ := newTestCache(t)
	s := NewActivityStore(ActivityDependencies{Activity: api, Cache: cache, Bus: bus})
	arrived := record(bus, events.TopicActivityArrived)
	ctx := context.Background()

	s.SetGlobalFilters("A1", "")
	done := make(chan struct{})
	go func() {
		s.Global(ctx)
		close(done)
	}()
	<-api.started

	s.Reset()
	close(api.release)
	<-done

	view := s.Global(ctx)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "fresh", view.Items[0].ID)
	assert.Equal(t, 0, arrived.len(), "a reset feed starts a new baseline")
}
