package observability

import "time"

// MetricsRegistry provides an interface for recording engine metrics. This
// replaces direct access to global Prometheus metrics with dependency
// injection, exactly as the teacher codebase's MetricsRegistry does for its
// HTTP server metrics.
type MetricsRegistry interface {
	IncrementAdsShown(category string)
	IncrementAdsDropped(reason string)
	IncrementNotificationResult(kind string)
	IncrementSustained()
	IncrementCatalogRefresh(outcome string)
	SetCatalogBackoffSeconds(seconds float64)
	IncrementTimerEvent(slot, action string)
	RecordClassifyLatency(d time.Duration)
	IncrementReportEvent(eventType string)
}

// PrometheusRegistry implements MetricsRegistry using the package-level
// Prometheus collectors in metrics.go.
type PrometheusRegistry struct{}

// NewPrometheusRegistry creates a new PrometheusRegistry.
func NewPrometheusRegistry() *PrometheusRegistry {
	return &PrometheusRegistry{}
}

func (r *PrometheusRegistry) IncrementAdsShown(category string) {
	AdsShownCount.WithLabelValues(category).Inc()
}

func (r *PrometheusRegistry) IncrementAdsDropped(reason string) {
	AdsDroppedCount.WithLabelValues(reason).Inc()
}

func (r *PrometheusRegistry) IncrementNotificationResult(kind string) {
	NotificationResultCount.WithLabelValues(kind).Inc()
}

func (r *PrometheusRegistry) IncrementSustained() {
	SustainedCount.Inc()
}

func (r *PrometheusRegistry) IncrementCatalogRefresh(outcome string) {
	CatalogRefreshCount.WithLabelValues(outcome).Inc()
}

func (r *PrometheusRegistry) SetCatalogBackoffSeconds(seconds float64) {
	CatalogBackoffSeconds.Set(seconds)
}

func (r *PrometheusRegistry) IncrementTimerEvent(slot, action string) {
	TimerEventCount.WithLabelValues(slot, action).Inc()
}

func (r *PrometheusRegistry) RecordClassifyLatency(d time.Duration) {
	ClassifyLatency.Observe(d.Seconds())
}

func (r *PrometheusRegistry) IncrementReportEvent(eventType string) {
	ReportEventCount.WithLabelValues(eventType).Inc()
}

// NoOpRegistry implements MetricsRegistry with no-op methods, for embedders
// that don't want metrics or for unit tests.
type NoOpRegistry struct{}

// NewNoOpRegistry creates a new NoOpRegistry.
func NewNoOpRegistry() *NoOpRegistry {
	return &NoOpRegistry{}
}

func (r *NoOpRegistry) IncrementAdsShown(category string)       {}
func (r *NoOpRegistry) IncrementAdsDropped(reason string)        {}
func (r *NoOpRegistry) IncrementNotificationResult(kind string)  {}
func (r *NoOpRegistry) IncrementSustained()                      {}
func (r *NoOpRegistry) IncrementCatalogRefresh(outcome string)   {}
func (r *NoOpRegistry) SetCatalogBackoffSeconds(seconds float64) {}
func (r *NoOpRegistry) IncrementTimerEvent(slot, action string)  {}
func (r *NoOpRegistry) RecordClassifyLatency(d time.Duration)    {}
func (r *NoOpRegistry) IncrementReportEvent(eventType string)    {}
