// Package reporting emits the structured JSON event envelopes the engine
// produces as it observes host events and serves ads (spec.md §4.7
// ReportingWriter, §6 Event JSON schemas).
package reporting

import (
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// EventType enumerates the event kinds the engine can emit.
type EventType string

const (
	EventRestart     EventType = "restart"
	EventNotify      EventType = "notify"
	EventSustain     EventType = "sustain"
	EventLoad        EventType = "load"
	EventFocus       EventType = "focus"
	EventBlur        EventType = "blur"
	EventDestroy     EventType = "destroy"
	EventForeground  EventType = "foreground"
	EventBackground  EventType = "background"
	EventSettings    EventType = "settings"
)

// NotificationKind enumerates the outcome recorded in a notify event.
type NotificationKind string

const (
	NotificationGenerated NotificationKind = "generated"
	NotificationClicked   NotificationKind = "clicked"
	NotificationDismissed NotificationKind = "dismissed"
	NotificationTimeout   NotificationKind = "timeout"
)

// TabType enumerates how a load event's tab was reached.
type TabType string

const (
	TabSearch TabType = "search"
	TabClick  TabType = "click"
)

// Envelope is the common wrapper every event is serialized inside.
type Envelope struct {
	Data map[string]any `json:"data"`
}

// Sink receives one serialized event JSON document per emitted event. An
// adapter over host.EventLog satisfies this.
type Sink func(jsonPayload []byte)

// Clock supplies the current time; tests can override it.
type Clock func() time.Time

// Writer emits reporting events through a Sink, gating the very first
// event after process start behind a restart event (spec.md §4.7: "The
// first report after process start is preceded by a restart event").
type Writer struct {
	mu          sync.Mutex
	sink        Sink
	clock       Clock
	isFirstRun  bool
}

// New constructs a Writer that has not yet emitted its restart event.
func New(sink Sink, clock Clock) *Writer {
	if clock == nil {
		clock = time.Now
	}
	return &Writer{sink: sink, clock: clock, isFirstRun: true}
}

func (w *Writer) emit(data map[string]any) {
	data["stamp"] = w.clock().UTC().Format(time.RFC3339)
	payload, err := json.Marshal(Envelope{Data: data})
	if err != nil {
		return
	}
	w.sink(payload)
}

// maybeRestart emits the one-time restart event gating the first report,
// per the is_first_run flag described in spec.md §4.7.
func (w *Writer) maybeRestart(place string) {
	w.mu.Lock()
	first := w.isFirstRun
	w.isFirstRun = false
	w.mu.Unlock()

	if first {
		w.emit(map[string]any{"type": string(EventRestart), "place": place})
	}
}

// Classify splits a category string into its hierarchical `-`-joined path
// components (spec.md §6: "Classification strings are split by `-` into
// ordered path components").
func Classify(category string) []string {
	if category == "" {
		return []string{}
	}
	return strings.Split(category, "-")
}

// Notify emits a notify event. catalogID defaults to "sample-catalog" when
// empty (spec.md §4.6 on_notification_result).
func (w *Writer) Notify(place, category, catalogID, url string, kind NotificationKind) {
	w.maybeRestart(place)
	if catalogID == "" {
		catalogID = "sample-catalog"
	}
	w.emit(map[string]any{
		"type":                      string(EventNotify),
		"notificationType":          string(kind),
		"notificationClassification": Classify(category),
		"notificationCatalog":       catalogID,
		"notificationUrl":           url,
	})
}

// Sustain emits a sustain event for a notification that survived a
// post-click landing-page check.
func (w *Writer) Sustain(place, notificationID string) {
	w.maybeRestart(place)
	w.emit(map[string]any{
		"type":             string(EventSustain),
		"notificationId":   notificationID,
		"notificationType": "viewed",
	})
}

// Load emits a load event for a tab navigation. pageScore is optional and
// omitted from the payload when nil.
func (w *Writer) Load(place string, tabID int, tabType TabType, tabURL, tabCategory string, pageScore []float64) {
	w.maybeRestart(place)
	data := map[string]any{
		"type":               string(EventLoad),
		"tabId":              tabID,
		"tabType":            string(tabType),
		"tabUrl":             tabURL,
		"tabClassification":  Classify(tabCategory),
	}
	if pageScore != nil {
		data["pageScore"] = pageScore
	}
	w.emit(data)
}

// Focus emits a focus event for the tab that became active.
func (w *Writer) Focus(place string, tabID int) {
	w.maybeRestart(place)
	w.emit(map[string]any{"type": string(EventFocus), "tabId": tabID})
}

// Blur emits a blur event for the tab that lost activation.
func (w *Writer) Blur(place string, tabID int) {
	w.maybeRestart(place)
	w.emit(map[string]any{"type": string(EventBlur), "tabId": tabID})
}

// Destroy emits a destroy event for a closed tab.
func (w *Writer) Destroy(place string, tabID int) {
	w.maybeRestart(place)
	w.emit(map[string]any{"type": string(EventDestroy), "tabId": tabID})
}

// Foreground emits a foreground event.
func (w *Writer) Foreground(place string) {
	w.maybeRestart(place)
	w.emit(map[string]any{"type": string(EventForeground), "place": place})
}

// Background emits a background event.
func (w *Writer) Background(place string) {
	w.maybeRestart(place)
	w.emit(map[string]any{"type": string(EventBackground), "place": place})
}

// Settings describes the current engine configuration snapshot emitted by
// the settings event.
type Settings struct {
	NotificationsAvailable bool
	Place                  string
	Locale                 string
	AdsPerDay              uint64
	AdsPerHour             uint64
}

// SettingsChanged emits a settings event. The engine calls it from its
// notifications-allowed check: when the host's notifications-available flag
// changes, and on every check that is not serving an ad.
func (w *Writer) SettingsChanged(place string, s Settings) {
	w.maybeRestart(place)
	w.emit(map[string]any{
		"type": string(EventSettings),
		"settings": map[string]any{
			"notifications": map[string]any{"available": s.NotificationsAvailable},
			"place":         s.Place,
			"locale":        s.Locale,
			"adsPerDay":     s.AdsPerDay,
			"adsPerHour":    s.AdsPerHour,
		},
	})
}
