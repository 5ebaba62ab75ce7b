// Package config loads engine configuration from the environment, following
// the same getenv/envDuration/envBool/envInt pattern used throughout this
// codebase, plus an optional YAML overlay for the reference host harness.
package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Default tunables. These mirror the constants named in spec.md §4 and the
// Design Notes' recommendation to surface _is_testing/_is_debug/_is_verbose
// as configuration rather than globals.
const (
	DefaultIdleThresholdSeconds  = 5 * 60
	DefaultDeliverAfterSeconds   = 120
	DefaultSustainAfterSeconds   = 10
	DefaultNextEasterEggSeconds  = 30
	DefaultPageScoreHistoryLimit = 5
	DefaultCatalogPingFloorMS    = 60_000
	DefaultBackoffSeedSeconds    = 60
	DefaultBackoffCeilSeconds    = 3600
)

// DefaultCollectActivityProd/Debug are the catalog-refresh heartbeat cadence:
// one hour in production, a much shorter cycle in debug builds so engineers
// can observe a full refresh without waiting.
var (
	DefaultCollectActivityProd  = 1 * time.Hour
	DefaultCollectActivityDebug = 25 * time.Second
)

// EngineConfig is the immutable configuration injected at Engine
// construction. It replaces the _is_testing/_is_debug/_is_verbose globals
// named in the Design Notes with explicit, testable fields.
type EngineConfig struct {
	Testing bool
	Debug   bool
	Verbose bool

	// IdleThresholdSeconds is passed to host.SetIdleThreshold on Ready entry.
	IdleThresholdSeconds int
	// DeliverAfterSeconds schedules the mobile-only delivery timer.
	DeliverAfterSeconds int
	// SustainAfterSeconds schedules the post-click sustain timer.
	SustainAfterSeconds int
	// NextEasterEggSeconds is the cooldown between forced debug-build serves.
	NextEasterEggSeconds int
	// PageScoreHistoryLimit bounds ClientState.page_score_history (spec.md §9
	// open question: recommended 5, exposed here as configuration).
	PageScoreHistoryLimit int

	// CatalogPingFloorMS is the minimum refresh interval honored regardless
	// of what the catalog's "ping" field requests.
	CatalogPingFloorMS int64
	// BackoffSeedSeconds/BackoffCeilSeconds are loaded from the environment
	// but nothing reads them: AdsServe's retry backoff always uses its own
	// adsserve.BackoffSeed (one minute) and adsserve.BackoffCeiling (one
	// hour) constants.
	BackoffSeedSeconds int
	BackoffCeilSeconds int

	// CollectActivityInterval is the catalog-refresh heartbeat cadence.
	CollectActivityInterval time.Duration

	// AdsPerHour/AdsPerDay are the frequency policy limits a real host would
	// supply via get_ads_per_hour/get_ads_per_day; defaults here are used by
	// the reference host harness and by tests.
	AdsPerHour uint64
	AdsPerDay  uint64

	// EasterEggHost is the load-event host that arms the debug easter egg.
	EasterEggHost string

	// CatalogBaseURL and CatalogPath are joined by AdsServe to build the
	// catalog download URL.
	CatalogBaseURL string
	CatalogPath    string
}

// Load builds an EngineConfig from environment variables, applying the
// defaults above.
func Load() EngineConfig {
	cfg := EngineConfig{
		Testing:                 envBool("ADS_TESTING", false),
		Debug:                   envBool("ADS_DEBUG", false),
		Verbose:                 envBool("ADS_VERBOSE", false),
		IdleThresholdSeconds:    envInt("ADS_IDLE_THRESHOLD_SECONDS", DefaultIdleThresholdSeconds),
		DeliverAfterSeconds:     envInt("ADS_DELIVER_AFTER_SECONDS", DefaultDeliverAfterSeconds),
		SustainAfterSeconds:     envInt("ADS_SUSTAIN_AFTER_SECONDS", DefaultSustainAfterSeconds),
		NextEasterEggSeconds:    envInt("ADS_NEXT_EASTER_EGG_SECONDS", DefaultNextEasterEggSeconds),
		PageScoreHistoryLimit:   envInt("ADS_PAGE_SCORE_HISTORY_LIMIT", DefaultPageScoreHistoryLimit),
		CatalogPingFloorMS:      int64(envInt("ADS_CATALOG_PING_FLOOR_MS", DefaultCatalogPingFloorMS)),
		BackoffSeedSeconds:      envInt("ADS_BACKOFF_SEED_SECONDS", DefaultBackoffSeedSeconds),
		BackoffCeilSeconds:      envInt("ADS_BACKOFF_CEIL_SECONDS", DefaultBackoffCeilSeconds),
		CollectActivityInterval: envDuration("ADS_COLLECT_ACTIVITY_INTERVAL", DefaultCollectActivityProd),
		AdsPerHour:              uint64(envInt("ADS_PER_HOUR", 2)),
		AdsPerDay:               uint64(envInt("ADS_PER_DAY", 20)),
		EasterEggHost:           getenv("ADS_EASTER_EGG_HOST", "brave.com"),
		CatalogBaseURL:          getenv("ADS_CATALOG_BASE_URL", "https://ads-catalog.example.com"),
		CatalogPath:             getenv("ADS_CATALOG_PATH", "/v1/catalog"),
	}
	if cfg.Debug {
		cfg.CollectActivityInterval = envDuration("ADS_COLLECT_ACTIVITY_INTERVAL", DefaultCollectActivityDebug)
	}
	return cfg
}

// LoadYAMLOverlay reads a YAML file and overlays a subset of its fields onto
// cfg: CatalogBaseURL, CatalogPath, EasterEggHost, AdsPerHour, AdsPerDay and
// CollectActivityInterval replace cfg's values when set (non-empty or
// positive), and Testing/Debug/Verbose can only be switched on. Every other
// field in the file is ignored.
func LoadYAMLOverlay(cfg EngineConfig, path string) (EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	var overlay EngineConfig
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return cfg, err
	}
	merged := cfg
	if overlay.CatalogBaseURL != "" {
		merged.CatalogBaseURL = overlay.CatalogBaseURL
	}
	if overlay.CatalogPath != "" {
		merged.CatalogPath = overlay.CatalogPath
	}
	if overlay.EasterEggHost != "" {
		merged.EasterEggHost = overlay.EasterEggHost
	}
	if overlay.AdsPerHour > 0 {
		merged.AdsPerHour = overlay.AdsPerHour
	}
	if overlay.AdsPerDay > 0 {
		merged.AdsPerDay = overlay.AdsPerDay
	}
	if overlay.CollectActivityInterval > 0 {
		merged.CollectActivityInterval = overlay.CollectActivityInterval
	}
	merged.Testing = merged.Testing || overlay.Testing
	merged.Debug = merged.Debug || overlay.Debug
	merged.Verbose = merged.Verbose || overlay.Verbose
	return merged, nil
}

// getenv returns the value of the environment variable if set, otherwise def.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envDuration parses an environment variable into a time.Duration. The value
// can be a duration string (e.g. "5s") or a number of seconds. If the
// variable is unset or invalid, def is returned.
func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

// envBool parses a boolean environment variable. Accepted values are those
// supported by strconv.ParseBool. When unset or invalid, def is returned.
func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return def
}

// envInt parses an integer environment variable. When unset or invalid, def is returned.
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if i, err := strconv.Atoi(v); err == nil {
		return i
	}
	return def
}
