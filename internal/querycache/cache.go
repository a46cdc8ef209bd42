// Package querycache is a keyed read cache with stale times, tag based
// invalidation and coalescing of concurrent fetches of one key.
package querycache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/spec-kit/miniticker/internal/clock"
	"github.com/spec-kit/miniticker/internal/events"
	"github.com/spec-kit/miniticker/internal/observability"
)

// ErrCleared is returned by a read whose fetch was overtaken by Clear; its
// result was discarded and no data is available.
var ErrCleared = errors.New("query discarded: cache cleared")

// Key identifies a read. Name is the key family and its default tag.
type Key struct {
	Name   string
	Params any
}

// NewKey builds a key.
func NewKey(name string, params any) Key {
	return Key{Name: name, Params: params}
}

// String is the canonical form: the name followed by the JSON params.
// Maps encode with sorted keys, so equal params give equal strings.
func (k Key) String() string {
	if k.Params == nil {
		return k.Name
	}
	b, err := json.Marshal(k.Params)
	if err != nil {
		return k.Name + "?"
	}
	return k.Name + string(b)
}

// Options control one read.
type Options struct {
	// StaleTime is how long data is served without refetching. Zero means
	// every read refetches.
	StaleTime time.Duration
	// Tags are extra invalidation tags besides the key name.
	Tags []string
}

// Result is what a read returns. On a failed fetch Data holds the previous
// value (when HasData) and Err is set. Version grows with every successful
// fetch of the key, so it identifies the data even when the clock stands still.
type Result[T any] struct {
	Data      T
	HasData   bool
	Err       error
	Stale     bool
	FetchedAt time.Time
	Version   uint64
}

type entry struct {
	family    string
	data      any
	hasData   bool
	err       error
	fetchedAt time.Time
	version   uint64
	staleTime time.Duration
	tags      map[string]struct{}
	// seq increases on every invalidation; a fetch that started under an
	// older seq leaves the entry invalidated.
	seq         uint64
	invalidated bool
}

// Dependencies wire a Cache.
type Dependencies struct {
	Bus     events.Dispatcher
	Clock   clock.Clock
	Logger  *zap.Logger
	Metrics *observability.Metrics
}

// Cache holds entries for one session.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*entry
	generation uint64
	subscribed map[string]func()

	group   singleflight.Group
	bus     events.Dispatcher
	clock   clock.Clock
	logger  *zap.Logger
	metrics *observability.Metrics
}

// New builds an empty cache.
func New(deps Dependencies) *Cache {
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Cache{
		entries:    make(map[string]*entry),
		subscribed: make(map[string]func()),
		bus:        deps.Bus,
		clock:      deps.Clock,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
	}
}

// Fetch serves key from cache when fresh, otherwise calls fetcher. Concurrent
// calls for one key share a single fetcher call. A result from a fetch that
// was overtaken by Clear is discarded and the read fails with ErrCleared.
func Fetch[T any](ctx context.Context, c *Cache, key Key, opts Options, fetcher func(context.Context) (T, error)) Result[T] {
	keyStr := key.String()

	c.mu.Lock()
	e := c.entries[keyStr]
	if e != nil && c.freshLocked(e) {
		res := resultFrom[T](e, nil)
		c.mu.Unlock()
		c.metrics.RecordCache(key.Name, observability.CacheHit)
		return res
	}
	if e == nil {
		e = &entry{family: key.Name, tags: map[string]struct{}{key.Name: {}}}
		c.entries[keyStr] = e
	}
	e.staleTime = opts.StaleTime
	for _, tag := range opts.Tags {
		e.tags[tag] = struct{}{}
	}
	c.subscribeLocked(key.Name)
	for _, tag := range opts.Tags {
		c.subscribeLocked(tag)
	}
	gen, seq := c.generation, e.seq
	c.mu.Unlock()

	c.metrics.RecordCache(key.Name, observability.CacheMiss)
	leader := false
	_, err, _ := c.group.Do(keyStr, func() (any, error) {
		leader = true
		data, err := fetcher(ctx)
		c.store(keyStr, gen, seq, data, err)
		return data, err
	})
	if !leader {
		c.metrics.RecordCache(key.Name, observability.CacheCoalesced)
	}
	if err != nil {
		c.metrics.RecordCache(key.Name, observability.CacheFetchError)
		c.logger.Debug("query failed", zap.String("key", keyStr), zap.Error(err))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	current := c.entries[keyStr]
	if current == nil || c.generation != gen {
		if err == nil {
			err = ErrCleared
		}
		return Result[T]{Err: err}
	}
	return resultFrom[T](current, err)
}

// Refetch forces a fetch of key regardless of stale time.
func Refetch[T any](ctx context.Context, c *Cache, key Key, opts Options, fetcher func(context.Context) (T, error)) Result[T] {
	c.InvalidateKey(key)
	return Fetch(ctx, c, key, opts, fetcher)
}

func resultFrom[T any](e *entry, err error) Result[T] {
	res := Result[T]{HasData: e.hasData, Err: err, FetchedAt: e.fetchedAt, Version: e.version}
	if e.hasData {
		if data, ok := e.data.(T); ok {
			res.Data = data
		}
	}
	res.Stale = err != nil && e.hasData
	return res
}

func (c *Cache) freshLocked(e *entry) bool {
	if !e.hasData || e.invalidated || e.err != nil {
		return false
	}
	return c.clock.Now().Sub(e.fetchedAt) < e.staleTime
}

func (c *Cache) store(keyStr string, gen, seq uint64, data any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return
	}
	e := c.entries[keyStr]
	if e == nil {
		return
	}
	if err != nil {
		e.err = err
		return
	}
	e.data = data
	e.hasData = true
	e.err = nil
	e.fetchedAt = c.clock.Now()
	e.version++
	e.invalidated = e.seq != seq
}

func (c *Cache) subscribeLocked(tag string) {
	if c.bus == nil {
		return
	}
	if _, ok := c.subscribed[tag]; ok {
		return
	}
	c.subscribed[tag] = c.bus.Subscribe(events.TagTopic(tag), func(_ context.Context, _ events.Event) error {
		c.Invalidate(tag)
		return nil
	})
}

// Invalidate marks every entry carrying one of tags; the next read refetches.
func (c *Cache) Invalidate(tags ...string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	marked := 0
	for _, e := range c.entries {
		for _, tag := range tags {
			if _, ok := e.tags[tag]; ok {
				e.invalidated = true
				e.seq++
				marked++
				c.metrics.RecordCache(e.family, observability.CacheInvalidate)
				break
			}
		}
	}
	return marked
}

// InvalidateKey marks one entry.
func (c *Cache) InvalidateKey(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e := c.entries[key.String()]; e != nil {
		e.invalidated = true
		e.seq++
	}
}

// IsStale reports whether the next read of key would refetch.
func (c *Cache) IsStale(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entries[key.String()]
	return e == nil || !c.freshLocked(e)
}

// Len reports the number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every entry. Fetches in flight when Clear runs do not
// repopulate the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	c.generation++
}

// Close clears the cache and detaches it from the bus.
func (c *Cache) Close() {
	c.mu.Lock()
	subs := c.subscribed
	c.subscribed = make(map[string]func())
	c.mu.Unlock()
	for _, unsubscribe := range subs {
		unsubscribe()
	}
	c.Clear()
}
