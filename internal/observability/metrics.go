package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// number of ads shown, labelled by category
	AdsShownCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adsengine_ads_shown_total",
			Help: "Total notification ads shown, labelled by category",
		},
		[]string{"category"},
	)

	// number of ad serve attempts dropped, labelled by reason
	AdsDroppedCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adsengine_ads_dropped_total",
			Help: "Total ad serve attempts dropped before delivery, labelled by reason",
		},
		[]string{"reason"},
	)

	// notification outcomes, labelled by kind (clicked/dismissed/timeout)
	NotificationResultCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adsengine_notification_result_total",
			Help: "Total notification outcomes, labelled by kind",
		},
		[]string{"kind"},
	)

	// sustained ad interactions confirmed
	SustainedCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "adsengine_sustained_total",
			Help: "Total sustain events where the user remained on the ad landing page",
		},
	)

	// catalog refresh outcomes, labelled by result (success/transient_failure)
	CatalogRefreshCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adsengine_catalog_refresh_total",
			Help: "Total catalog refresh attempts, labelled by outcome",
		},
		[]string{"outcome"},
	)

	// current catalog backoff interval in seconds, 0 when not backing off
	CatalogBackoffSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "adsengine_catalog_backoff_seconds",
			Help: "Current catalog refresh retry backoff in seconds",
		},
	)

	// timer lifecycle events, labelled by timer slot and action (started/stopped/failed)
	TimerEventCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adsengine_timer_events_total",
			Help: "Total timer lifecycle events, labelled by slot and action",
		},
		[]string{"slot", "action"},
	)

	// page classification latency
	ClassifyLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "adsengine_classify_duration_seconds",
			Help:    "Duration of page classification calls",
			Buckets: prometheus.DefBuckets,
		},
	)

	// number of reporting events emitted, labelled by type
	ReportEventCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adsengine_report_events_total",
			Help: "Total structured reporting events emitted, labelled by type",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(
		AdsShownCount,
		AdsDroppedCount,
		NotificationResultCount,
		SustainedCount,
		CatalogRefreshCount,
		CatalogBackoffSeconds,
		TimerEventCount,
		ClassifyLatency,
		ReportEventCount,
	)
}
