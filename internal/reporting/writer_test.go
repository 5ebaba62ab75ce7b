package reporting

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func collectSink(t *testing.T) (Sink, *[]map[string]any) {
	events := []map[string]any{}
	sink := Sink(func(payload []byte) {
		var env Envelope
		require.NoError(t, json.Unmarshal(payload, &env))
		events = append(events, env.Data)
	})
	return sink, &events
}

func TestClassify_SplitsOnDash(t *testing.T) {
	assert.Equal(t, []string{"technology", "computing", "ai"}, Classify("technology-computing-ai"))
	assert.Equal(t, []string{}, Classify(""))
}

func TestFirstEvent_IsPrecededByRestart(t *testing.T) {
	sink, events := collectSink(t)
	w := New(sink, fixedClock(time.Unix(1000, 0)))

	w.Foreground("home")

	require.Len(t, *events, 2)
	assert.Equal(t, "restart", (*events)[0]["type"])
	assert.Equal(t, "home", (*events)[0]["place"])
	assert.Equal(t, "foreground", (*events)[1]["type"])
}

func TestSecondEvent_DoesNotRepeatRestart(t *testing.T) {
	sink, events := collectSink(t)
	w := New(sink, fixedClock(time.Unix(1000, 0)))

	w.Foreground("home")
	w.Background("home")

	require.Len(t, *events, 3)
	assert.Equal(t, "background", (*events)[2]["type"])
}

func TestNotify_DefaultsCatalogWhenEmpty(t *testing.T) {
	sink, events := collectSink(t)
	w := New(sink, fixedClock(time.Unix(1000, 0)))

	w.Notify("home", "tech-ai", "", "https://example.com", NotificationGenerated)

	notifyEvent := (*events)[1]
	assert.Equal(t, "sample-catalog", notifyEvent["notificationCatalog"])
	assert.Equal(t, []any{"tech", "ai"}, notifyEvent["notificationClassification"])
	assert.Equal(t, "generated", notifyEvent["notificationType"])
}

func TestLoad_OmitsPageScoreWhenNil(t *testing.T) {
	sink, events := collectSink(t)
	w := New(sink, fixedClock(time.Unix(1000, 0)))

	w.Load("home", 1, TabClick, "https://example.com", "tech", nil)

	loadEvent := (*events)[1]
	_, hasScore := loadEvent["pageScore"]
	assert.False(t, hasScore)
}

func TestLoad_IncludesPageScoreWhenProvided(t *testing.T) {
	sink, events := collectSink(t)
	w := New(sink, fixedClock(time.Unix(1000, 0)))

	w.Load("home", 1, TabSearch, "https://example.com", "tech", []float64{0.5, 0.2})

	loadEvent := (*events)[1]
	assert.Equal(t, []any{0.5, 0.2}, loadEvent["pageScore"])
}

func TestSettingsChanged_NestsNotificationsAvailable(t *testing.T) {
	sink, events := collectSink(t)
	w := New(sink, fixedClock(time.Unix(1000, 0)))

	w.SettingsChanged("home", Settings{
		NotificationsAvailable: true,
		Place:                  "home",
		Locale:                 "en-US",
		AdsPerDay:               20,
		AdsPerHour:              2,
	})

	settingsEvent := (*events)[1]["settings"].(map[string]any)
	notifications := settingsEvent["notifications"].(map[string]any)
	assert.Equal(t, true, notifications["available"])
	assert.Equal(t, "en-US", settingsEvent["locale"])
}

func TestEmit_StampIsRFC3339(t *testing.T) {
	sink, events := collectSink(t)
	w := New(sink, fixedClock(time.Unix(1000, 0)))

	w.Foreground("home")

	stamp := (*events)[0]["stamp"].(string)
	_, err := time.Parse(time.RFC3339, stamp)
	assert.NoError(t, err)
}
