package observability

import (
	"sync"
	"time"
)

// MockMetricsRegistry is a counting implementation of MetricsRegistry for
// tests that want to assert a metric fired without standing up Prometheus.
type MockMetricsRegistry struct {
	mu               sync.Mutex
	AdsShown         map[string]int
	AdsDropped       map[string]int
	NotificationKind map[string]int
	Sustained        int
	CatalogRefresh   map[string]int
	TimerEvents      map[string]int
	ReportEvents     map[string]int
}

// NewMockMetricsRegistry returns a ready-to-use MockMetricsRegistry.
func NewMockMetricsRegistry() *MockMetricsRegistry {
	return &MockMetricsRegistry{
		AdsShown:         make(map[string]int),
		AdsDropped:       make(map[string]int),
		NotificationKind: make(map[string]int),
		CatalogRefresh:   make(map[string]int),
		TimerEvents:      make(map[string]int),
		ReportEvents:     make(map[string]int),
	}
}

func (m *MockMetricsRegistry) IncrementAdsShown(category string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AdsShown[category]++
}

func (m *MockMetricsRegistry) IncrementAdsDropped(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AdsDropped[reason]++
}

func (m *MockMetricsRegistry) IncrementNotificationResult(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NotificationKind[kind]++
}

func (m *MockMetricsRegistry) IncrementSustained() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sustained++
}

func (m *MockMetricsRegistry) IncrementCatalogRefresh(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CatalogRefresh[outcome]++
}

func (m *MockMetricsRegistry) SetCatalogBackoffSeconds(seconds float64) {}

func (m *MockMetricsRegistry) IncrementTimerEvent(slot, action string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TimerEvents[slot+":"+action]++
}

func (m *MockMetricsRegistry) RecordClassifyLatency(d time.Duration) {}

func (m *MockMetricsRegistry) IncrementReportEvent(eventType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReportEvents[eventType]++
}
