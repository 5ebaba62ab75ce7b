// Package adsserve implements the catalog refresher: it assembles the
// catalog URL, downloads and parses the catalog through the host, rebuilds
// and persists the Bundle, and schedules the next refresh with exponential
// backoff on failure (spec.md §4.4 AdsServe).
package adsserve

import (
	"fmt"
	"sync"
	"time"

	"github.com/patrickwarner/adsengine/internal/bundle"
	"github.com/patrickwarner/adsengine/internal/catalog"
	"github.com/patrickwarner/adsengine/internal/host"
	"go.uber.org/zap"
)

const (
	// BackoffSeed is the initial retry delay after a transient failure.
	BackoffSeed = time.Minute
	// BackoffCeiling caps the doubling backoff.
	BackoffCeiling = time.Hour
	// DefaultPingFloor is the minimum refresh interval honored even when
	// the catalog's ping hint requests a shorter one.
	DefaultPingFloor = time.Minute
)

// Scheduler is the subset of host.Host AdsServe needs to drive timers and
// network requests. Narrowed from host.Host so tests can stub exactly what
// is exercised.
type Scheduler interface {
	SetTimer(d time.Duration) int
	KillTimer(handle int)
	URLRequest(rawURL string, headers []string, body, contentType string, method host.Method, cb func(host.URLResponse))
	SaveBundleState(state []byte, cb func(ok bool))
	Reset(name string, cb func(ok bool))
}

// AdsServe owns the catalog refresh cycle for one Engine instance.
type AdsServe struct {
	mu sync.Mutex

	host      Scheduler
	bundle    *bundle.Bundle
	logger    *zap.Logger
	onRefresh func(outcome string) // metrics hook, outcome "success"|"transient_failure"

	baseURL  string
	path     string
	region   string
	pingFloor time.Duration

	backoff     time.Duration
	timerHandle int
	inFlight    bool

	now func() time.Time
}

// Option configures an AdsServe at construction.
type Option func(*AdsServe)

// WithPingFloor overrides DefaultPingFloor.
func WithPingFloor(d time.Duration) Option {
	return func(a *AdsServe) { a.pingFloor = d }
}

// WithMetricsHook registers a callback invoked with "success" or
// "transient_failure" after each catalog download attempt resolves.
func WithMetricsHook(f func(outcome string)) Option {
	return func(a *AdsServe) { a.onRefresh = f }
}

// WithClock overrides the time source (for tests).
func WithClock(f func() time.Time) Option {
	return func(a *AdsServe) { a.now = f }
}

// New constructs an AdsServe targeting baseURL+path, filtering the rebuilt
// bundle to region.
func New(h Scheduler, b *bundle.Bundle, logger *zap.Logger, baseURL, path, region string, opts ...Option) *AdsServe {
	a := &AdsServe{
		host:      h,
		bundle:    b,
		logger:    logger,
		baseURL:   baseURL,
		path:      path,
		region:    region,
		pingFloor: DefaultPingFloor,
		backoff:   BackoffSeed,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *AdsServe) url() string {
	return a.baseURL + a.path
}

// DownloadCatalog issues the catalog GET request. If a request is already
// outstanding, the call is dropped (spec.md §4.4 concurrency: at most one
// catalog request in flight).
func (a *AdsServe) DownloadCatalog() {
	a.mu.Lock()
	if a.inFlight {
		a.mu.Unlock()
		return
	}
	a.inFlight = true
	a.mu.Unlock()

	a.host.URLRequest(a.url(), nil, "", "", host.MethodGET, a.onCatalogDownloaded)
}

func (a *AdsServe) onCatalogDownloaded(resp host.URLResponse) {
	a.mu.Lock()
	a.inFlight = false
	a.mu.Unlock()

	if resp.Status != 200 {
		a.retryAfterFailure(fmt.Sprintf("non-200 response: %d", resp.Status))
		return
	}

	cat, err := catalog.Parse([]byte(resp.Body))
	if err != nil {
		a.retryAfterFailure(err.Error())
		return
	}

	state := a.bundle.BuildFrom(cat, a.region, a.now().Unix())

	data, err := a.bundle.SaveJSON()
	if err != nil {
		a.logger.Error("bundle serialize failed", zap.Error(err))
	} else {
		a.host.SaveBundleState(data, func(ok bool) {
			if !ok {
				a.logger.Error("bundle save failed")
			}
		})
	}

	a.mu.Lock()
	a.backoff = BackoffSeed
	a.mu.Unlock()

	pingInterval := time.Duration(state.CatalogPing) * time.Millisecond
	if pingInterval < a.pingFloor {
		pingInterval = a.pingFloor
	}
	a.scheduleNext(pingInterval)

	if a.onRefresh != nil {
		a.onRefresh("success")
	}
}

func (a *AdsServe) retryAfterFailure(reason string) {
	a.logger.Warn("catalog refresh failed, will retry", zap.String("reason", reason))

	a.mu.Lock()
	delay := a.backoff
	next := a.backoff * 2
	if next > BackoffCeiling {
		next = BackoffCeiling
	}
	a.backoff = next
	a.mu.Unlock()

	a.scheduleNext(delay)

	if a.onRefresh != nil {
		a.onRefresh("transient_failure")
	}
}

func (a *AdsServe) scheduleNext(d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timerHandle != 0 {
		a.host.KillTimer(a.timerHandle)
	}
	handle := a.host.SetTimer(d)
	if handle == 0 {
		a.logger.Error("set_timer failed scheduling catalog refresh")
		a.timerHandle = 0
		return
	}
	a.timerHandle = handle
}

// Reset cancels any pending refresh timer and clears the persisted
// catalog via the host.
func (a *AdsServe) Reset() {
	a.mu.Lock()
	handle := a.timerHandle
	a.timerHandle = 0
	a.backoff = BackoffSeed
	a.mu.Unlock()

	if handle != 0 {
		a.host.KillTimer(handle)
	}
	a.host.Reset("catalog", func(ok bool) {
		if !ok {
			a.logger.Warn("catalog reset failed")
		}
	})
}

// TimerHandle reports the active refresh timer handle, or 0 if none.
func (a *AdsServe) TimerHandle() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.timerHandle
}

// OnTimer dispatches a fired host timer to the refresh cycle if timerID
// matches the currently armed refresh timer, reporting whether it did. The
// host has a single timer-fire path shared by every SetTimer caller, so
// whoever dispatches fired IDs to Engine.OnTimer must also try this one.
func (a *AdsServe) OnTimer(timerID int) bool {
	a.mu.Lock()
	if timerID == 0 || timerID != a.timerHandle {
		a.mu.Unlock()
		return false
	}
	a.timerHandle = 0
	a.mu.Unlock()

	a.DownloadCatalog()
	return true
}

// Region reports the region this AdsServe filters bundle rebuilds to, used
// by callers that also need to key ad lookups by the same region.
func (a *AdsServe) Region() string {
	return a.region
}
