package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/miniticker/internal/domain"
	"github.com/spec-kit/miniticker/internal/events"
	"github.com/spec-kit/miniticker/internal/format"
	"github.com/spec-kit/miniticker/internal/querycache"
	"github.com/spec-kit/miniticker/internal/scheduler"
)

// Feed names.
const (
	FeedMine   = "mine"
	FeedGlobal = "global"
)

// DefaultActivityInterval is the polling period of both feeds.
const DefaultActivityInterval = 30 * time.Second

// ActivityEntry is a feed item with its presentation.
type ActivityEntry struct {
	domain.ActivityItem
	Config format.ActivityConfig `json:"config"`
}

// FeedView is a rendered feed. On a failed refresh Items keeps the previous
// entries and Err is set.
type FeedView struct {
	Items []ActivityEntry `json:"items"`
	Stale bool            `json:"stale"`
	Err   error           `json:"-"`
}

// ActivityReader reads the feeds.
type ActivityReader interface {
	Mine(ctx context.Context) ([]domain.ActivityItem, error)
	Global(ctx context.Context, areaID, userID string) ([]domain.ActivityItem, error)
}

// ActivityDependencies wire an ActivityStore.
type ActivityDependencies struct {
	Activity  ActivityReader
	Cache     *querycache.Cache
	Scheduler scheduler.Scheduler
	Bus       events.Dispatcher
	Interval  time.Duration
	Logger    *zap.Logger
}

type feedState struct {
	loaded  bool
	leading string
	entries memo[derivationKey, []ActivityEntry]
}

// ActivityStore holds the personal and the global activity feeds, polls
// both and announces new leading items on the bus.
type ActivityStore struct {
	activity  ActivityReader
	cache     *querycache.Cache
	scheduler scheduler.Scheduler
	bus       events.Dispatcher
	interval  time.Duration
	logger    *zap.Logger

	mu      sync.Mutex
	areaID  string
	userID  string
	feeds   map[string]*feedState
	cancels []scheduler.CancelFunc
}

// NewActivityStore builds the store. Polling starts with Start.
func NewActivityStore(deps ActivityDependencies) *ActivityStore {
	if deps.Interval <= 0 {
		deps.Interval = DefaultActivityInterval
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &ActivityStore{
		activity:  deps.Activity,
		cache:     deps.Cache,
		scheduler: deps.Scheduler,
		bus:       deps.Bus,
		interval:  deps.Interval,
		logger:    deps.Logger,
		feeds: map[string]*feedState{
			FeedMine:   {},
			FeedGlobal: {},
		},
	}
}

// SetGlobalFilters narrows the global feed. The new feed is a new baseline:
// its first load does not notify.
func (s *ActivityStore) SetGlobalFilters(areaID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.areaID == areaID && s.userID == userID {
		return
	}
	s.areaID, s.userID = areaID, userID
	s.feeds[FeedGlobal] = &feedState{}
}

// GlobalFilters returns the global feed filters.
func (s *ActivityStore) GlobalFilters() (areaID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.areaID, s.userID
}

// ClearFilters removes the global feed filters.
func (s *ActivityStore) ClearFilters() {
	s.SetGlobalFilters("", "")
}

func mineKey() querycache.Key {
	return querycache.NewKey(KeyActivityMine, nil)
}

func (s *ActivityStore) globalKey() (querycache.Key, string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := querycache.NewKey(KeyActivityGlobal, map[string]string{"areaId": s.areaID, "userId": s.userID})
	return key, s.areaID, s.userID
}

// Mine returns the personal feed.
func (s *ActivityStore) Mine(ctx context.Context) FeedView {
	return s.read(ctx, FeedMine, mineKey(), s.activity.Mine, false)
}

// Global returns the global feed under the current filters.
func (s *ActivityStore) Global(ctx context.Context) FeedView {
	key, areaID, userID := s.globalKey()
	return s.read(ctx, FeedGlobal, key, func(ctx context.Context) ([]domain.ActivityItem, error) {
		return s.activity.Global(ctx, areaID, userID)
	}, false)
}

// Find looks an entry up by id in the personal feed and, when global is set,
// in the global feed too. Fresh feeds are served from cache.
func (s *ActivityStore) Find(ctx context.Context, id string, global bool) (domain.ActivityItem, bool) {
	feeds := []func(context.Context) FeedView{s.Mine}
	if global {
		feeds = append(feeds, s.Global)
	}
	for _, load := range feeds {
		for _, e := range load(ctx).Items {
			if e.ID == id {
				return e.ActivityItem, true
			}
		}
	}
	return domain.ActivityItem{}, false
}

// Refresh refetches both feeds regardless of stale time.
func (s *ActivityStore) Refresh(ctx context.Context) {
	s.read(ctx, FeedMine, mineKey(), s.activity.Mine, true)
	key, areaID, userID := s.globalKey()
	s.read(ctx, FeedGlobal, key, func(ctx context.Context) ([]domain.ActivityItem, error) {
		return s.activity.Global(ctx, areaID, userID)
	}, true)
}

func (s *ActivityStore) read(ctx context.Context, feed string, key querycache.Key, fetch func(context.Context) ([]domain.ActivityItem, error), force bool) FeedView {
	s.mu.Lock()
	state := s.feeds[feed]
	s.mu.Unlock()

	opts := querycache.Options{StaleTime: ActivityStaleTime}
	var res querycache.Result[[]domain.ActivityItem]
	if force {
		res = querycache.Refetch(ctx, s.cache, key, opts, fetch)
	} else {
		res = querycache.Fetch(ctx, s.cache, key, opts, fetch)
	}

	view := FeedView{Items: []ActivityEntry{}, Stale: res.Stale, Err: res.Err}
	if res.Err != nil {
		s.logger.Warn("load activity", zap.String("feed", feed), zap.Error(res.Err))
	}
	if !res.HasData {
		return view
	}

	s.mu.Lock()
	if s.feeds[feed] != state {
		// filters changed or the store was reset while fetching; this result
		// must not become the baseline of the replacement feed
		s.mu.Unlock()
		view.Items = decorate(res.Data)
		return view
	}
	arrived := s.observeLocked(state, res.Data)
	view.Items = state.entries.get(derivationKey{query: key.String(), fetch: res.Version}, func() []ActivityEntry {
		return decorate(res.Data)
	})
	s.mu.Unlock()

	if arrived != nil {
		s.announce(ctx, feed, *arrived)
	}
	return view
}

// observeLocked tracks the leading item of a feed and returns it when it is
// new. The first successful load only records the baseline.
func (s *ActivityStore) observeLocked(state *feedState, items []domain.ActivityItem) *domain.ActivityItem {
	leading := ""
	if len(items) > 0 {
		leading = items[0].ID
	}
	if !state.loaded {
		state.loaded = true
		state.leading = leading
		return nil
	}
	if leading == "" || leading == state.leading {
		return nil
	}
	state.leading = leading
	item := items[0]
	return &item
}

func (s *ActivityStore) announce(ctx context.Context, feed string, item domain.ActivityItem) {
	if s.bus == nil {
		return
	}
	event := events.NewEvent(events.TopicActivityArrived, events.ActivityArrivedPayload{Feed: feed, Item: item})
	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Warn("publish activity", zap.Error(err))
	}
}

func decorate(items []domain.ActivityItem) []ActivityEntry {
	out := make([]ActivityEntry, 0, len(items))
	for _, item := range items {
		out = append(out, ActivityEntry{ActivityItem: item, Config: format.Activity(item.Tipo)})
	}
	return out
}

// Start polls both feeds every interval until Stop.
func (s *ActivityStore) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scheduler == nil || len(s.cancels) > 0 {
		return
	}
	s.cancels = append(s.cancels,
		s.scheduler.Schedule(s.interval, func(ctx context.Context) {
			s.read(ctx, FeedMine, mineKey(), s.activity.Mine, true)
		}),
		s.scheduler.Schedule(s.interval, func(ctx context.Context) {
			key, areaID, userID := s.globalKey()
			s.read(ctx, FeedGlobal, key, func(ctx context.Context) ([]domain.ActivityItem, error) {
				return s.activity.Global(ctx, areaID, userID)
			}, true)
		}),
	)
}

// Stop cancels polling.
func (s *ActivityStore) Stop() {
	s.mu.Lock()
	cancels := s.cancels
	s.cancels = nil
	s.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
}

// Reset stops polling and forgets filters and baselines.
func (s *ActivityStore) Reset() {
	s.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.areaID, s.userID = "", ""
	s.feeds = map[string]*feedState{FeedMine: {}, FeedGlobal: {}}
}
