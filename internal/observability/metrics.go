package observability

import (
	"strconv"
	"strings"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu           sync.Mutex
	requestCount map[string]int64
	errorCount   map[string]int64
	apiCount     map[string]int64
	apiLatency   map[string]time.Duration
	cacheCount   map[string]int64
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Requests   map[string]int64 `json:"requests"`
	Errors     map[string]int64 `json:"errors"`
	APICalls   map[string]int64 `json:"apiCalls"`
	APILatency map[string]int64 `json:"apiLatencyMs"`
	Cache      map[string]int64 `json:"cache"`
}

// Cache event names.
const (
	CacheHit        = "hit"
	CacheMiss       = "miss"
	CacheCoalesced  = "coalesced"
	CacheFetchError = "fetch_error"
	CacheInvalidate = "invalidate"
)

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
		apiCount:     make(map[string]int64),
		apiLatency:   make(map[string]time.Duration),
		cacheCount:   make(map[string]int64),
	}
}

// RecordRequest increments counters for console API requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordAPICall counts an outbound backend call. Status 0 means a transport failure.
func (m *Metrics) RecordAPICall(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apiCount[key]++
	m.apiLatency[method+"|"+path] += duration
}

// RecordCache counts a cache event for a key family.
func (m *Metrics) RecordCache(family, event string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheCount[family+"|"+event]++
}

// CacheCount returns the counter for a key family and event.
func (m *Metrics) CacheCount(family, event string) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cacheCount[family+"|"+event]
}

// APICallCount sums outbound calls for a method and path across statuses.
func (m *Metrics) APICallCount(path, method string) int64 {
	if m == nil {
		return 0
	}
	prefix := path + "|" + method + "|"
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	for key, n := range m.apiCount {
		if strings.HasPrefix(key, prefix) {
			total += n
		}
	}
	return total
}

// Snapshot copies all counters.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	latency := make(map[string]int64, len(m.apiLatency))
	for key, d := range m.apiLatency {
		latency[key] = d.Milliseconds()
	}
	return Snapshot{
		Requests:   copyCounts(m.requestCount),
		Errors:     copyCounts(m.errorCount),
		APICalls:   copyCounts(m.apiCount),
		APILatency: latency,
		Cache:      copyCounts(m.cacheCount),
	}
}

func copyCounts(src map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
