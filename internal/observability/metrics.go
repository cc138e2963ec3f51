package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu                      sync.Mutex
	requestCount            map[string]int64
	errorCount              map[string]int64
	ticketsProcessed        int64
	ticketsDuplicate        int64
	degradedClassifications int64
	degradedDrafts          int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
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

// RecordTicketProcessed tracks one assembled ticket and whether either
// adapter degraded to its fallback.
func (m *Metrics) RecordTicketProcessed(classificationDegraded, draftDegraded bool) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticketsProcessed++
	if classificationDegraded {
		m.degradedClassifications++
	}
	if draftDegraded {
		m.degradedDrafts++
	}
}

// RecordDuplicateIngest tracks an idempotence hit during ingest.
func (m *Metrics) RecordDuplicateIngest() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticketsDuplicate++
}

// Snapshot returns current triage counter values.
func (m *Metrics) Snapshot() (processed, duplicates, degradedClassifications, degradedDrafts int64) {
	if m == nil {
		return 0, 0, 0, 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ticketsProcessed, m.ticketsDuplicate, m.degradedClassifications, m.degradedDrafts
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
