package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters for inbound updates, gateway
// sends and HTTP requests.
type Metrics struct {
	mu           sync.Mutex
	updateCount  map[string]int64
	sendCount    map[string]int64
	requestCount map[string]int64
	errorCount   map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		updateCount:  make(map[string]int64),
		sendCount:    make(map[string]int64),
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
	}
}

// RecordUpdate counts one processed inbound update per conversation kind
// ("requester" or "staff").
func (m *Metrics) RecordUpdate(kind string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCount[kind]++
}

// RecordSend counts one outbound gateway call by operation name.
func (m *Metrics) RecordSend(op string, failed bool) {
	if m == nil {
		return
	}
	key := op
	if failed {
		key += "|failed"
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendCount[key]++
}

// RecordRequest increments counters for HTTP requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + strconv.Itoa(status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters by domain error code.
func (m *Metrics) RecordError(where, code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[where+"|"+code]++
}

// UpdateCount returns the number of processed updates for a kind.
func (m *Metrics) UpdateCount(kind string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateCount[kind]
}
