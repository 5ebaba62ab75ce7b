// Package engine is the core orchestrator: it consumes host events, drives
// page classification, owns the three interleaved timers, selects and
// emits notification ads, and produces reporting events (spec.md §4.6
// Engine State Machine).
//
// Scheduling model: single-threaded cooperative, mirroring spec.md §5. All
// exported methods are expected to run on the same logical loop the
// embedding host drives its callbacks on; Engine does not take internal
// locks, the same way the original engine needed none, because the host
// guarantees callbacks never overlap a running handler.
package engine

import (
	"strings"
	"time"

	"github.com/patrickwarner/adsengine/internal/adsserve"
	"github.com/patrickwarner/adsengine/internal/bundle"
	"github.com/patrickwarner/adsengine/internal/classifier"
	"github.com/patrickwarner/adsengine/internal/clientstate"
	"github.com/patrickwarner/adsengine/internal/config"
	"github.com/patrickwarner/adsengine/internal/host"
	"github.com/patrickwarner/adsengine/internal/macros"
	"github.com/patrickwarner/adsengine/internal/observability"
	"github.com/patrickwarner/adsengine/internal/reporting"
	"go.uber.org/zap"
)

// State is one of the Engine's lifecycle states.
type State int

const (
	StateUninitialized State = iota
	StateLoadingState
	StateLoadingModel
	StateReady
	StateDisabled
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoadingState:
		return "loading_state"
	case StateLoadingModel:
		return "loading_model"
	case StateReady:
		return "ready"
	case StateDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

const unknownSSID = "unknown"

// Engine consumes host.Host events and drives the ad-decision lifecycle.
type Engine struct {
	host   host.Host
	cfg    config.EngineConfig
	logger *zap.Logger
	metrics observability.MetricsRegistry

	clientState *clientstate.ClientState
	bundle      *bundle.Bundle
	classifier  *classifier.Classifier
	adsServe    *adsserve.AdsServe
	reporting   *reporting.Writer

	state State

	isForeground bool
	mediaPlaying map[int]bool

	lastShownTabURL        string
	lastPageClassification string
	pageScoreCache         map[string][]float64

	lastShown    host.NotificationInfo
	hasLastShown bool

	collectActivityTimer    int
	deliverNotificationsTimer int
	sustainedAdInteractionTimer int

	nextEasterEgg int64

	now func() time.Time

	macroExpander *macros.Expander
}

// Option configures optional Engine behavior at construction time.
type Option func(*Engine)

// WithMacroExpander arms the Engine to expand `{MACRO}` placeholders in a
// candidate's notification URL against the shown ad before it reaches the
// host, rather than serving the catalog's raw templated URL verbatim.
func WithMacroExpander(exp *macros.Expander) Option {
	return func(e *Engine) { e.macroExpander = exp }
}

// New constructs an Engine in StateUninitialized.
func New(
	h host.Host,
	cfg config.EngineConfig,
	logger *zap.Logger,
	metrics observability.MetricsRegistry,
	b *bundle.Bundle,
	clf *classifier.Classifier,
	serve *adsserve.AdsServe,
	rw *reporting.Writer,
	opts ...Option,
) *Engine {
	e := &Engine{
		host:         h,
		cfg:          cfg,
		logger:       logger,
		metrics:      metrics,
		clientState:  clientstate.NewClientState(nil, clientstate.WithPageScoreHistoryLimit(cfg.PageScoreHistoryLimit), clientstate.WithUUIDGenerator(h.GenerateUUID)),
		bundle:       b,
		classifier:   clf,
		adsServe:     serve,
		reporting:    rw,
		state:        StateUninitialized,
		mediaPlaying: map[int]bool{},
		pageScoreCache: map[string][]float64{},
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State reports the current lifecycle state.
func (e *Engine) State() State {
	return e.state
}

// IsReady reports whether the Engine may process Ready-only events: state
// must be Ready, the host must still report ads enabled, and the
// classifier must be initialized (spec.md §4.6 "is_ready()").
func (e *Engine) IsReady() bool {
	return e.state == StateReady && e.host.IsAdsEnabled() && e.classifier.Initialized()
}

func (e *Engine) isMobile() bool {
	return e.host.GetClientInfo().IsMobile()
}

// Initialize begins the Uninitialized -> LoadingState -> LoadingModel ->
// Ready transition chain, starting from Uninitialized or Disabled. If the
// host reports ads disabled, the Engine deinitializes and ends in Disabled
// instead.
func (e *Engine) Initialize() {
	if !e.host.IsAdsEnabled() {
		e.logger.Info("deinitializing as ads are disabled")
		e.Deinitialize()
		e.state = StateDisabled
		return
	}

	if e.state != StateUninitialized && e.state != StateDisabled {
		e.logger.Warn("already initialized", zap.String("state", e.state.String()))
		return
	}

	e.state = StateLoadingState
	e.host.Load("client_state", e.onClientStateLoaded)
}

func (e *Engine) onClientStateLoaded(ok bool, value []byte) {
	if ok {
		if err := e.clientState.LoadJSON(value); err != nil {
			e.logger.Error("client state load failed, continuing with fresh state", zap.Error(err))
		}
	} else {
		e.logger.Error("client state load failed, continuing with fresh state")
	}

	e.clientState.SetLocale(e.clientState.Snapshot().Locale, e.host.GetLocales())

	e.state = StateLoadingModel
	e.loadUserModel()
}

func (e *Engine) loadUserModel() {
	locale := e.clientState.Snapshot().Locale
	if locale == "" {
		locale = e.host.GetAdsLocale()
	}
	e.host.LoadUserModelForLocale(locale, e.onUserModelLoaded)
}

func (e *Engine) onUserModelLoaded(ok bool, modelJSON string) {
	if !ok {
		e.logger.Error("failed to load user model")
		return
	}

	model, err := classifier.ParseModel([]byte(modelJSON))
	if err != nil {
		e.logger.Error("failed to parse user model", zap.Error(err))
		return
	}
	e.classifier.LoadModel(model)

	if e.state == StateLoadingModel {
		e.enterReady()
	}
}

func (e *Engine) enterReady() {
	e.state = StateReady
	e.logger.Info("successfully initialized")

	e.isForeground = e.host.IsForeground()
	e.host.SetIdleThreshold(e.cfg.IdleThresholdSeconds)

	e.notificationAllowedCheck(false)

	ssid := e.host.GetSSID()
	if ssid == "" {
		ssid = unknownSSID
	}
	e.clientState.SetSSID(ssid)

	if e.isMobile() {
		e.startDeliveringNotifications(time.Duration(e.cfg.DeliverAfterSeconds) * time.Second)
	}

	e.confirmAdUUIDIfAdsEnabled()

	e.adsServe.DownloadCatalog()
}

// Deinitialize cancels all timers, clears the classifier, bundle and
// last-shown state, and resets flags, returning to Uninitialized.
func (e *Engine) Deinitialize() {
	if e.state == StateUninitialized {
		return
	}

	e.logger.Info("deinitializing")

	e.adsServe.Reset()
	e.stopDeliveringNotifications()
	e.stopSustainingAdInteraction()

	// removeAllHistory re-confirms the ad uuid, which re-arms the
	// collect-activity timer, so that timer is stopped after it.
	e.removeAllHistory()
	e.stopCollectingActivity()

	e.bundle.Reset()
	e.classifier.LoadModel(classifier.Model{})

	e.hasLastShown = false
	e.lastShown = host.NotificationInfo{}
	e.lastPageClassification = ""
	e.pageScoreCache = map[string][]float64{}

	e.isForeground = false
	e.state = StateUninitialized
}

func (e *Engine) removeAllHistory() {
	// Replaces the whole client-state document with a fresh one, so
	// page-score history, ads-shown history, seen bits, flags and locale
	// are all cleared, then mints a new ad uuid (SPEC_FULL.md Supplemented
	// Features).
	e.clientState = clientstate.NewClientState(nil,
		clientstate.WithPageScoreHistoryLimit(e.cfg.PageScoreHistoryLimit),
		clientstate.WithUUIDGenerator(e.host.GenerateUUID))
	e.confirmAdUUIDIfAdsEnabled()
}

func (e *Engine) confirmAdUUIDIfAdsEnabled() {
	if !e.host.IsAdsEnabled() {
		e.stopCollectingActivity()
		return
	}
	e.clientState.UpdateAdUUID()

	interval := e.cfg.CollectActivityInterval
	if interval == 0 {
		interval = config.DefaultCollectActivityProd
	}
	e.startCollectingActivity(interval)
}

// ChangeLocale updates the active locale. If the exact locale isn't in the
// host's locale list, it falls back to the bare language code only if that
// literal code is itself present in the list (e.g. "fr-FR" falls back to
// "fr" only when the host reports "fr", not merely some other "fr-*"
// locale), else to "en" (spec.md §4.6 change_locale).
func (e *Engine) ChangeLocale(locale string) {
	if !e.IsReady() {
		return
	}

	locales := e.host.GetLocales()
	chosen := locale
	if !contains(locales, locale) {
		lang := languageCode(locale)
		if contains(locales, lang) {
			chosen = lang
		} else {
			chosen = "en"
		}
		e.logger.Info("locale not found, using closest match", zap.String("locale", chosen))
	}

	e.clientState.SetLocale(chosen, locales)
	e.loadUserModel()
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func languageCode(locale string) string {
	if i := strings.IndexByte(locale, '-'); i >= 0 {
		return locale[:i]
	}
	return locale
}

func countryCode(locale string) string {
	if i := strings.LastIndexByte(locale, '-'); i >= 0 {
		return strings.ToUpper(locale[i+1:])
	}
	return strings.ToUpper(locale)
}
