package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Manual is a Scheduler whose jobs only run on Tick. Tests use it to drive
// polling deterministically.
type Manual struct {
	mu      sync.Mutex
	nextID  int
	jobs    map[int]manualJob
	stopped bool
}

type manualJob struct {
	interval time.Duration
	job      Job
}

// NewManual returns an empty manual scheduler.
func NewManual() *Manual {
	return &Manual{jobs: make(map[int]manualJob)}
}

func (m *Manual) Schedule(interval time.Duration, job Job) CancelFunc {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return func() {}
	}
	m.nextID++
	id := m.nextID
	m.jobs[id] = manualJob{interval: interval, job: job}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.jobs, id)
	}
}

// Tick runs every live job once, in scheduling order.
func (m *Manual) Tick(ctx context.Context) {
	m.mu.Lock()
	ids := make([]int, 0, len(m.jobs))
	for id := range m.jobs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	jobs := make([]Job, 0, len(ids))
	for _, id := range ids {
		jobs = append(jobs, m.jobs[id].job)
	}
	m.mu.Unlock()

	for _, job := range jobs {
		job(ctx)
	}
}

// Len reports how many jobs are live.
func (m *Manual) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

// Intervals returns the intervals of the live jobs in scheduling order.
func (m *Manual) Intervals() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int, 0, len(m.jobs))
	for id := range m.jobs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]time.Duration, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.jobs[id].interval)
	}
	return out
}

func (m *Manual) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	m.jobs = make(map[int]manualJob)
}
