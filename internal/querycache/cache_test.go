package querycache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/miniticker/internal/clock"
	"github.com/spec-kit/miniticker/internal/events"
	"github.com/spec-kit/miniticker/internal/observability"
)

func newCache(t *testing.T) (*Cache, *clock.FakeClock, *observability.Metrics) {
	t.Helper()
	clk := clock.Fake(time.Date(2026, 1, 3, 9, 0, 0, 0, time.UTC))
	metrics := observability.NewMetrics()
	c := New(Dependencies{Bus: events.NewInMemoryDispatcher(nil), Clock: clk, Metrics: metrics})
	t.Cleanup(c.Close)
	return c, clk, metrics
}

func counter(calls *int32, value string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) {
		atomic.AddInt32(calls, 1)
		return value, nil
	}
}

func TestKeyStringIsCanonical(t *testing.T) {
	a := NewKey("tickets-list", map[string]any{"page": 1, "search": "vpn"})
	b := NewKey("tickets-list", map[string]any{"search": "vpn", "page": 1})
	assert.Equal(t, a.String(), b.String())
	assert.Equal(t, `tickets-list{"page":1,"search":"vpn"}`, a.String())
	assert.Equal(t, "areas", NewKey("areas", nil).String())
}

func TestFreshEntriesAreServedWithoutFetching(t *testing.T) {
	c, clk, metrics := newCache(t)
	ctx := context.Background()
	key := NewKey("tickets-summary", map[string]any{"userId": "u1"})
	opts := Options{StaleTime: 2 * time.Minute}
	var calls int32

	first := Fetch(ctx, c, key, opts, counter(&calls, "v1"))
	require.NoError(t, first.Err)
	assert.Equal(t, "v1", first.Data)

	clk.Advance(time.Minute)
	second := Fetch(ctx, c, key, opts, counter(&calls, "v2"))
	assert.Equal(t, "v1", second.Data)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, int64(1), metrics.CacheCount("tickets-summary", observability.CacheHit))

	clk.Advance(2 * time.Minute)
	third := Fetch(ctx, c, key, opts, counter(&calls, "v3"))
	assert.Equal(t, "v3", third.Data)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestDifferentParamsAreDifferentEntries(t *testing.T) {
	c, _, _ := newCache(t)
	ctx := context.Background()
	opts := Options{StaleTime: time.Hour}
	var calls int32

	Fetch(ctx, c, NewKey("tickets-list", map[string]any{"page": 1}), opts, counter(&calls, "p1"))
	res := Fetch(ctx, c, NewKey("tickets-list", map[string]any{"page": 2}), opts, counter(&calls, "p2"))
	assert.Equal(t, "p2", res.Data)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, 2, c.Len())
}

func TestConcurrentReadsAreCoalesced(t *testing.T) {
	c, _, metrics := newCache(t)
	key := NewKey("tickets-list", map[string]any{"page": 1})
	var calls int32
	release := make(chan struct{})
	started := make(chan struct{})

	fetcher := func(context.Context) (string, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
		}
		<-release
		return "page-1", nil
	}

	var wg sync.WaitGroup
	results := make([]Result[string], 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0] = Fetch(context.Background(), c, key, Options{StaleTime: time.Minute}, fetcher)
	}()
	<-started
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1] = Fetch(context.Background(), c, key, Options{StaleTime: time.Minute}, fetcher)
	}()

	require.Eventually(t, func() bool {
		return metrics.CacheCount("tickets-list", observability.CacheMiss) == 2
	}, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, "page-1", results[0].Data)
	assert.Equal(t, "page-1", results[1].Data)
	assert.Equal(t, int64(1), metrics.CacheCount("tickets-list", observability.CacheCoalesced))
}

func TestFailedFetchKeepsPreviousData(t *testing.T) {
	c, clk, _ := newCache(t)
	ctx := context.Background()
	key := NewKey("activity-mine", nil)
	opts := Options{StaleTime: 30 * time.Second}
	var calls int32

	Fetch(ctx, c, key, opts, counter(&calls, "feed-v1"))
	clk.Advance(time.Minute)

	boom := errors.New("502")
	res := Fetch(ctx, c, key, opts, func(context.Context) (string, error) { return "", boom })
	assert.ErrorIs(t, res.Err, boom)
	assert.True(t, res.HasData)
	assert.True(t, res.Stale)
	assert.Equal(t, "feed-v1", res.Data)

	assert.True(t, c.IsStale(key), "a failed refetch never counts as fresh")

	recovered := Fetch(ctx, c, key, opts, counter(&calls, "feed-v2"))
	assert.NoError(t, recovered.Err)
	assert.False(t, recovered.Stale)
	assert.Equal(t, "feed-v2", recovered.Data)
}

func TestFirstFetchFailureHasNoData(t *testing.T) {
	c, _, _ := newCache(t)
	res := Fetch(context.Background(), c, NewKey("areas", nil), Options{}, func(context.Context) ([]string, error) {
		return nil, errors.New("down")
	})
	assert.Error(t, res.Err)
	assert.False(t, res.HasData)
	assert.False(t, res.Stale)
	assert.Nil(t, res.Data)
}

func TestMutationInvalidatesDeclaredTags(t *testing.T) {
	c, _, _ := newCache(t)
	ctx := context.Background()
	opts := Options{StaleTime: time.Hour}
	list := NewKey("tickets-list", map[string]any{"page": 1})
	summary := NewKey("tickets-summary", map[string]any{"userId": "u1"})
	areas := NewKey("areas", nil)
	var calls int32

	Fetch(ctx, c, list, opts, counter(&calls, "l"))
	Fetch(ctx, c, summary, opts, counter(&calls, "s"))
	Fetch(ctx, c, areas, opts, counter(&calls, "a"))
	assert.False(t, c.IsStale(list))

	out, err := Mutate(ctx, c, MutationOptions{Invalidates: []string{"tickets-list", "tickets-summary"}}, func(context.Context) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	assert.True(t, c.IsStale(list))
	assert.True(t, c.IsStale(summary))
	assert.False(t, c.IsStale(areas))

	before := atomic.LoadInt32(&calls)
	Fetch(ctx, c, list, opts, counter(&calls, "l2"))
	assert.Equal(t, before+1, atomic.LoadInt32(&calls))
}

func TestFailedMutationInvalidatesNothing(t *testing.T) {
	c, _, _ := newCache(t)
	ctx := context.Background()
	key := NewKey("areas", nil)
	var calls int32
	Fetch(ctx, c, key, Options{StaleTime: time.Hour}, counter(&calls, "a"))

	rejected := errors.New("tickets pendientes")
	_, err := Mutate(ctx, c, MutationOptions{Invalidates: []string{"areas"}}, func(context.Context) (struct{}, error) {
		return struct{}{}, rejected
	})
	assert.ErrorIs(t, err, rejected)
	assert.False(t, c.IsStale(key))
}

func TestExtraTagsAndNoBus(t *testing.T) {
	c := New(Dependencies{})
	ctx := context.Background()
	key := NewKey("ticket-detail", map[string]string{"id": "t1"})
	var calls int32
	Fetch(ctx, c, key, Options{StaleTime: time.Hour, Tags: []string{"tickets"}}, counter(&calls, "d"))

	_, err := Mutate(ctx, c, MutationOptions{Invalidates: []string{"tickets"}}, func(context.Context) (int, error) { return 1, nil })
	require.NoError(t, err)
	assert.True(t, c.IsStale(key))
}

func TestInvalidationDuringFetchLeavesEntryStale(t *testing.T) {
	c, _, _ := newCache(t)
	key := NewKey("tickets-list", nil)
	res := Fetch(context.Background(), c, key, Options{StaleTime: time.Hour}, func(context.Context) (string, error) {
		c.Invalidate("tickets-list")
		return "old", nil
	})
	assert.Equal(t, "old", res.Data)
	assert.True(t, c.IsStale(key))
}

func TestClearDropsInFlightResults(t *testing.T) {
	c, _, _ := newCache(t)
	key := NewKey("activity-mine", nil)
	res := Fetch(context.Background(), c, key, Options{StaleTime: time.Hour}, func(context.Context) (string, error) {
		c.Clear()
		return "previous-user", nil
	})
	assert.False(t, res.HasData)
	assert.ErrorIs(t, res.Err, ErrCleared)
	assert.Zero(t, c.Len())
	assert.True(t, c.IsStale(key))
}

func TestRefetchIgnoresStaleTime(t *testing.T) {
	c, _, _ := newCache(t)
	ctx := context.Background()
	key := NewKey("activity-global", map[string]string{"areaId": ""})
	var calls int32
	Fetch(ctx, c, key, Options{StaleTime: time.Hour}, counter(&calls, "a"))
	res := Refetch(ctx, c, key, Options{StaleTime: time.Hour}, counter(&calls, "b"))
	assert.Equal(t, "b", res.Data)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestVersionGrowsOnEachFetchWithStoppedClock(t *testing.T) {
	c, _, _ := newCache(t)
	ctx := context.Background()
	key := NewKey("tickets-list", map[string]any{"page": 1})
	var calls int32

	first := Fetch(ctx, c, key, Options{StaleTime: time.Hour}, counter(&calls, "a"))
	cached := Fetch(ctx, c, key, Options{StaleTime: time.Hour}, counter(&calls, "b"))
	assert.Equal(t, first.Version, cached.Version)

	c.Invalidate("tickets-list")
	second := Fetch(ctx, c, key, Options{StaleTime: time.Hour}, counter(&calls, "b"))
	assert.Equal(t, "b", second.Data)
	assert.Equal(t, first.FetchedAt, second.FetchedAt)
	assert.Greater(t, second.Version, first.Version)
}

func TestClearDuringFailedFetchKeepsFetchError(t *testing.T) {
	c, _, _ := newCache(t)
	down := errors.New("down")
	res := Fetch(context.Background(), c, NewKey("tickets-list", nil), Options{StaleTime: time.Hour}, func(context.Context) (string, error) {
		c.Clear()
		return "", down
	})
	assert.ErrorIs(t, res.Err, down)
	assert.False(t, res.HasData)
}

func TestClearThenNewSessionFetchSucceeds(t *testing.T) {
	c, _, _ := newCache(t)
	ctx := context.Background()
	key := NewKey("activity-mine", nil)
	Fetch(ctx, c, key, Options{StaleTime: time.Hour}, func(context.Context) (string, error) {
		c.Clear()
		return "previous-user", nil
	})

	res := Fetch(ctx, c, key, Options{StaleTime: time.Hour}, func(context.Context) (string, error) {
		return "next-user", nil
	})
	require.NoError(t, res.Err)
	assert.Equal(t, "next-user", res.Data)
}
