// Package store derives display-ready view models from cached backend reads
// and local filter state. Every store is an explicit object with injected
// dependencies; derived views are memoized and recomputed only when their
// inputs or the underlying data change.
package store

import (
	"context"
	"time"

	"github.com/spec-kit/miniticker/internal/domain"
)

// Cache key families. Each family is also the invalidation tag of its keys.
const (
	KeyTicketsList    = "tickets-list"
	KeyTicketsSummary = "tickets-summary"
	KeyTickets        = "tickets"
	KeyTicketDetail   = "ticket-detail"
	KeyTicketHistory  = "ticket-history"
	KeyAreas          = "areas"
	KeyAreasList      = "areas-list"
	KeyTypes          = "types"
	KeyUsers          = "users"
	KeyManagers       = "active-managers-selection"
	KeyActivityMine   = "activity-mine"
	KeyActivityGlobal = "activity-global"
	KeyDashboardStats = "dashboard-stats"
)

// Stale times per read.
const (
	DefaultStaleTime   = 5 * time.Second
	SummaryStaleTime   = 2 * time.Minute
	OverviewStaleTime  = time.Minute
	ActivityStaleTime  = 30 * time.Second
	DashboardStaleTime = 5 * time.Minute
	AreasListStaleTime = time.Hour
	CatalogStaleTime   = time.Minute
)

// TicketMutationTags are invalidated by every successful ticket write.
var TicketMutationTags = []string{KeyTicketsList, KeyTicketsSummary, KeyTickets, KeyTicketDetail, KeyTicketHistory}

// CatalogMutationTags are invalidated by every successful area or type write.
var CatalogMutationTags = []string{KeyAreas, KeyUsers, KeyManagers, KeyTypes}

// UserSource returns the signed-in user, nil when signed out.
type UserSource interface {
	User(ctx context.Context) *domain.User
}

// Option is an entry of a select list.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// memo caches one derived value for one input key.
type memo[K comparable, V any] struct {
	key   K
	value V
	ok    bool
}

func (m *memo[K, V]) get(key K, compute func() V) V {
	if m.ok && m.key == key {
		return m.value
	}
	m.key, m.value, m.ok = key, compute(), true
	return m.value
}

func (m *memo[K, V]) reset() {
	var zero memo[K, V]
	*m = zero
}

// derivationKey identifies the data a view was derived from.
type derivationKey struct {
	query   string
	fetch   uint64
	version uint64
}
