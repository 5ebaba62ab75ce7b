package adsserve

import (
	"testing"
	"time"

	"github.com/patrickwarner/adsengine/internal/bundle"
	"github.com/patrickwarner/adsengine/internal/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeScheduler struct {
	requests        []string
	nextTimer       int
	timersSet       []time.Duration
	timersKilled    []int
	savedBundle     []byte
	resetCalled     bool
	pendingCallback func(host.URLResponse)
}

func (f *fakeScheduler) SetTimer(d time.Duration) int {
	f.timersSet = append(f.timersSet, d)
	f.nextTimer++
	return f.nextTimer
}

func (f *fakeScheduler) KillTimer(handle int) {
	f.timersKilled = append(f.timersKilled, handle)
}

func (f *fakeScheduler) URLRequest(rawURL string, headers []string, body, contentType string, method host.Method, cb func(host.URLResponse)) {
	f.requests = append(f.requests, rawURL)
	f.pendingCallback = cb
}

func (f *fakeScheduler) SaveBundleState(state []byte, cb func(ok bool)) {
	f.savedBundle = state
	cb(true)
}

func (f *fakeScheduler) Reset(name string, cb func(ok bool)) {
	f.resetCalled = true
	cb(true)
}

const validCatalogJSON = `{
	"catalogId": "cat-1",
	"version": 1,
	"ping": 5000,
	"campaigns": [
		{
			"campaignId": "camp-1",
			"creativeSets": [
				{
					"creativeSetId": "cs-1",
					"segments": [{"code": "technology"}],
					"creatives": [{"creativeId": "cr-1", "payload": {"targetUrl": "example.com"}}]
				}
			]
		}
	]
}`

func TestDownloadCatalog_SuccessReschedulesAtPing(t *testing.T) {
	f := &fakeScheduler{}
	b := bundle.New()
	a := New(f, b, zap.NewNop(), "https://catalog.example.com", "/v1/catalog", "US",
		WithPingFloor(time.Second))

	a.DownloadCatalog()
	require.Len(t, f.requests, 1)

	f.pendingCallback(host.URLResponse{Status: 200, Body: validCatalogJSON})

	require.Len(t, f.timersSet, 1)
	assert.Equal(t, 5*time.Second, f.timersSet[0])
	assert.NotEmpty(t, b.Snapshot().Categories)
	assert.NotEmpty(t, f.savedBundle)
}

func TestDownloadCatalog_DropsWhileInFlight(t *testing.T) {
	f := &fakeScheduler{}
	b := bundle.New()
	a := New(f, b, zap.NewNop(), "https://catalog.example.com", "/v1/catalog", "US")

	a.DownloadCatalog()
	a.DownloadCatalog()

	assert.Len(t, f.requests, 1)
}

func TestDownloadCatalog_NonOKRetriesWithBackoffSeed(t *testing.T) {
	f := &fakeScheduler{}
	b := bundle.New()
	a := New(f, b, zap.NewNop(), "https://catalog.example.com", "/v1/catalog", "US")

	a.DownloadCatalog()
	f.pendingCallback(host.URLResponse{Status: 500})

	require.Len(t, f.timersSet, 1)
	assert.Equal(t, BackoffSeed, f.timersSet[0])
}

func TestDownloadCatalog_BackoffDoublesOnRepeatedFailure(t *testing.T) {
	f := &fakeScheduler{}
	b := bundle.New()
	a := New(f, b, zap.NewNop(), "https://catalog.example.com", "/v1/catalog", "US")

	a.DownloadCatalog()
	f.pendingCallback(host.URLResponse{Status: 500})
	a.DownloadCatalog()
	f.pendingCallback(host.URLResponse{Status: 500})

	require.Len(t, f.timersSet, 2)
	assert.Equal(t, BackoffSeed, f.timersSet[0])
	assert.Equal(t, BackoffSeed*2, f.timersSet[1])
}

func TestDownloadCatalog_ParseErrorRetries(t *testing.T) {
	f := &fakeScheduler{}
	b := bundle.New()
	a := New(f, b, zap.NewNop(), "https://catalog.example.com", "/v1/catalog", "US")

	a.DownloadCatalog()
	f.pendingCallback(host.URLResponse{Status: 200, Body: "not json"})

	require.Len(t, f.timersSet, 1)
	assert.Equal(t, BackoffSeed, f.timersSet[0])
	assert.Empty(t, b.Snapshot().Categories)
}

func TestOnTimer_FiredHandleTriggersRefetch(t *testing.T) {
	f := &fakeScheduler{}
	b := bundle.New()
	a := New(f, b, zap.NewNop(), "https://catalog.example.com", "/v1/catalog", "US",
		WithPingFloor(time.Second))

	a.DownloadCatalog()
	f.pendingCallback(host.URLResponse{Status: 200, Body: validCatalogJSON})
	require.Len(t, f.requests, 1)

	handled := a.OnTimer(a.TimerHandle())
	assert.True(t, handled)
	assert.Len(t, f.requests, 2, "firing the scheduled refresh timer must re-download the catalog")
}

func TestOnTimer_UnknownHandleIgnored(t *testing.T) {
	f := &fakeScheduler{}
	b := bundle.New()
	a := New(f, b, zap.NewNop(), "https://catalog.example.com", "/v1/catalog", "US")

	a.DownloadCatalog()
	f.pendingCallback(host.URLResponse{Status: 200, Body: validCatalogJSON})

	handled := a.OnTimer(9999)
	assert.False(t, handled)
	assert.Len(t, f.requests, 1)
}

func TestOnTimer_RetryBackoffActuallyRefetches(t *testing.T) {
	f := &fakeScheduler{}
	b := bundle.New()
	a := New(f, b, zap.NewNop(), "https://catalog.example.com", "/v1/catalog", "US")

	a.DownloadCatalog()
	f.pendingCallback(host.URLResponse{Status: 500})
	require.Len(t, f.requests, 1)

	handled := a.OnTimer(a.TimerHandle())
	assert.True(t, handled)
	assert.Len(t, f.requests, 2, "the backoff timer firing must actually retry the download")
}

func TestReset_CancelsTimerAndClearsCatalog(t *testing.T) {
	f := &fakeScheduler{}
	b := bundle.New()
	a := New(f, b, zap.NewNop(), "https://catalog.example.com", "/v1/catalog", "US")

	a.DownloadCatalog()
	f.pendingCallback(host.URLResponse{Status: 200, Body: validCatalogJSON})
	require.NotZero(t, a.TimerHandle())

	a.Reset()
	assert.True(t, f.resetCalled)
	assert.Zero(t, a.TimerHandle())
	assert.NotEmpty(t, f.timersKilled)
}
