// Package macros expands `{MACRO}` placeholders in a creative's
// notification URL against the ad candidate that is about to be shown,
// adapted from the teacher codebase's click-URL macro expander (same
// strings.Replacer batching and Prometheus instrumentation) but retargeted
// from OpenRTB auction macros to notification-ad macros.
package macros

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Expander expands macros in a notification URL with observability.
type Expander struct {
	logger       *zap.Logger
	expansions   map[string]ExpansionFunc
	expansionsMu sync.RWMutex
	strictMode   bool

	expansionCounter  *prometheus.CounterVec
	expansionDuration prometheus.Histogram
	failureCounter    *prometheus.CounterVec
}

// ExpansionFunc produces the replacement value for one macro.
type ExpansionFunc func(ctx *ExpansionContext) (string, error)

// ExpansionContext carries the data available when a notification is about
// to be shown (spec.md §4.6 show_ad).
type ExpansionContext struct {
	CreativeSetID string
	AdUUID        string
	Category      string
	Advertiser    string
	Timestamp     time.Time
}

// New creates an Expander in lenient mode (expansion failures leave the
// macro unexpanded rather than failing the whole URL).
func New(logger *zap.Logger) *Expander {
	return NewWithMode(logger, false)
}

// NewWithMode creates an Expander with an explicit strict/lenient mode.
func NewWithMode(logger *zap.Logger, strictMode bool) *Expander {
	e := &Expander{
		logger:     logger,
		expansions: make(map[string]ExpansionFunc),
		strictMode: strictMode,

		expansionCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "macro_expansions_total",
				Help: "Total number of macro expansions performed",
			},
			[]string{"macro", "success"},
		),
		expansionDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "macro_expansion_duration_seconds",
				Help:    "Time taken to expand all macros in a notification URL",
				Buckets: prometheus.DefBuckets,
			},
		),
		failureCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "macro_expansion_failures_total",
				Help: "Total number of macro expansion failures",
			},
			[]string{"macro", "error_type"},
		),
	}
	e.registerDefaultMacros()
	return e
}

// NewForTesting creates an Expander registered against an isolated
// Prometheus registry, avoiding collector collisions across test packages.
func NewForTesting(logger *zap.Logger, strictMode bool) *Expander {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	e := &Expander{
		logger:     logger,
		expansions: make(map[string]ExpansionFunc),
		strictMode: strictMode,

		expansionCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "macro_expansions_total",
				Help: "Total number of macro expansions performed",
			},
			[]string{"macro", "success"},
		),
		expansionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "macro_expansion_duration_seconds",
				Help:    "Time taken to expand all macros in a notification URL",
				Buckets: prometheus.DefBuckets,
			},
		),
		failureCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "macro_expansion_failures_total",
				Help: "Total number of macro expansion failures",
			},
			[]string{"macro", "error_type"},
		),
	}
	e.registerDefaultMacros()
	return e
}

// ExpandURL expands every known macro placeholder in rawURL.
func (e *Expander) ExpandURL(rawURL string, ctx *ExpansionContext) (string, error) {
	start := time.Now()
	defer func() { e.expansionDuration.Observe(time.Since(start).Seconds()) }()

	if rawURL == "" {
		return "", nil
	}
	if _, err := url.Parse(rawURL); err != nil {
		e.logger.Error("failed to parse notification url for macro expansion",
			zap.String("url", rawURL), zap.Error(err))
		return rawURL, err
	}

	expanded, macrosFound, err := e.expandStandardMacros(rawURL, ctx)
	if err != nil {
		if e.strictMode {
			return "", err
		}
		e.logger.Warn("macro expansion completed with errors, continuing with partial expansion",
			zap.String("original_url", rawURL), zap.String("partial_url", expanded), zap.Error(err))
	}

	if macrosFound > 0 {
		e.logger.Debug("expanded macros in notification url",
			zap.String("original_url", rawURL), zap.String("expanded_url", expanded), zap.Int("macros_found", macrosFound))
	}
	return expanded, nil
}

func (e *Expander) expandStandardMacros(rawURL string, ctx *ExpansionContext) (string, int, error) {
	e.expansionsMu.RLock()
	defer e.expansionsMu.RUnlock()

	var foundMacros []string
	for macro := range e.expansions {
		if strings.Contains(rawURL, "{"+macro+"}") {
			foundMacros = append(foundMacros, macro)
		}
	}
	if len(foundMacros) == 0 {
		return rawURL, 0, nil
	}

	var replacements []string
	for _, macro := range foundMacros {
		placeholder := "{" + macro + "}"
		value, err := e.expansions[macro](ctx)
		if err != nil {
			e.expansionCounter.WithLabelValues(macro, "false").Inc()
			e.failureCounter.WithLabelValues(macro, "expansion_error").Inc()
			e.logger.Error("failed to expand macro", zap.String("macro", macro), zap.String("url", rawURL), zap.Error(err))
			if e.strictMode {
				return "", 0, fmt.Errorf("macro expansion failed in strict mode for macro %q: %w", macro, err)
			}
			continue
		}
		replacements = append(replacements, placeholder, url.QueryEscape(value))
		e.expansionCounter.WithLabelValues(macro, "true").Inc()
	}

	if len(replacements) == 0 {
		return rawURL, 0, nil
	}
	return strings.NewReplacer(replacements...).Replace(rawURL), len(foundMacros), nil
}

// RegisterMacro adds a custom macro expansion function.
func (e *Expander) RegisterMacro(name string, fn ExpansionFunc) error {
	if name == "" {
		return fmt.Errorf("macro name cannot be empty")
	}
	if fn == nil {
		return fmt.Errorf("expansion function cannot be nil")
	}
	e.expansionsMu.Lock()
	defer e.expansionsMu.Unlock()
	e.expansions[name] = fn
	e.logger.Info("registered custom macro", zap.String("macro", name))
	return nil
}

// GetRegisteredMacros lists all known macro names.
func (e *Expander) GetRegisteredMacros() []string {
	e.expansionsMu.RLock()
	defer e.expansionsMu.RUnlock()
	names := make([]string, 0, len(e.expansions))
	for name := range e.expansions {
		names = append(names, name)
	}
	return names
}

func (e *Expander) registerDefaultMacros() {
	e.expansions["CREATIVE_SET_ID"] = func(ctx *ExpansionContext) (string, error) { return ctx.CreativeSetID, nil }
	e.expansions["AD_UUID"] = func(ctx *ExpansionContext) (string, error) { return ctx.AdUUID, nil }
	e.expansions["CATEGORY"] = func(ctx *ExpansionContext) (string, error) { return ctx.Category, nil }
	e.expansions["ADVERTISER"] = func(ctx *ExpansionContext) (string, error) { return ctx.Advertiser, nil }
	e.expansions["TIMESTAMP"] = func(ctx *ExpansionContext) (string, error) { return fmt.Sprintf("%d", ctx.Timestamp.Unix()), nil }
	e.expansions["ISO_TIMESTAMP"] = func(ctx *ExpansionContext) (string, error) { return ctx.Timestamp.Format(time.RFC3339), nil }
	e.expansions["RANDOM"] = func(ctx *ExpansionContext) (string, error) { return fmt.Sprintf("%d", time.Now().UnixNano()), nil }
	e.expansions["UUID"] = func(ctx *ExpansionContext) (string, error) { return uuid.New().String(), nil }
}

// ValidateURL returns the macro names in rawURL that this Expander does
// not know how to expand.
func (e *Expander) ValidateURL(rawURL string) []string {
	var unsupported []string
	cursor := 0
	for {
		start := strings.Index(rawURL[cursor:], "{")
		if start == -1 {
			break
		}
		start += cursor
		end := strings.Index(rawURL[start:], "}")
		if end == -1 {
			break
		}
		end += start
		macro := rawURL[start+1 : end]

		e.expansionsMu.RLock()
		_, supported := e.expansions[macro]
		e.expansionsMu.RUnlock()
		if !supported {
			unsupported = append(unsupported, macro)
		}
		cursor = end + 1
	}
	return unsupported
}
