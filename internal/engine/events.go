package engine

import (
	"strings"

	"github.com/patrickwarner/adsengine/internal/reporting"
	"github.com/patrickwarner/adsengine/internal/searchproviders"
	"go.uber.org/zap"
)

// OnForeground records that the host's window became foregrounded and
// emits a foreground report.
func (e *Engine) OnForeground() {
	e.isForeground = true
	e.reporting.Foreground(e.place())
}

// OnBackground records that the host's window was backgrounded and emits
// a background report.
func (e *Engine) OnBackground() {
	e.isForeground = false
	e.reporting.Background(e.place())
}

func (e *Engine) isInForeground() bool {
	return e.isForeground
}

// OnMediaPlaying marks tabID as currently playing media.
func (e *Engine) OnMediaPlaying(tabID int) {
	if e.mediaPlaying[tabID] {
		return
	}
	e.mediaPlaying[tabID] = true
}

// OnMediaStopped clears tabID's playing-media flag.
func (e *Engine) OnMediaStopped(tabID int) {
	if !e.mediaPlaying[tabID] {
		return
	}
	delete(e.mediaPlaying, tabID)
}

// IsMediaPlaying reports whether any tab is currently playing media.
func (e *Engine) IsMediaPlaying() bool {
	return len(e.mediaPlaying) > 0
}

// OnIdle logs the browser going idle. No state change: the engine only
// reacts on unidle.
func (e *Engine) OnIdle() {
	e.logger.Info("browser state changed to idle")
}

// OnUnIdle updates last-idle-stop-time and, on desktop, runs the
// notification-allowed check with serve=true (spec.md §4.6 on_unidle).
func (e *Engine) OnUnIdle() {
	e.logger.Info("browser state changed to unidle")
	e.clientState.SetLastUserIdleStopTime(e.now().Unix())

	if e.isMobile() {
		return
	}
	e.notificationAllowedCheck(true)
}

func isValidScheme(scheme string) bool {
	return scheme == "http" || scheme == "https"
}

func (e *Engine) isValidSchemeURL(rawURL string) bool {
	return isValidScheme(e.host.GetURLComponents(rawURL).Scheme)
}

// TabUpdated handles a tab navigation: drops incognito tabs, updates
// last-user-activity, emits a load event for http/https schemes, and, for
// the active tab, runs the shopping/search tests and emits a focus event
// (or a blur event for a non-active tab) (spec.md §4.6 tab_updated).
func (e *Engine) TabUpdated(tabID int, url string, isActive, isIncognito bool) {
	if isIncognito {
		return
	}

	e.clientState.SetLastUserActivity(e.now().Unix())

	if e.isValidSchemeURL(url) {
		tabType := reporting.TabType(reporting.TabClick)
		if e.clientState.Snapshot().SearchState {
			tabType = reporting.TabSearch
		}
		score := e.pageScoreCache[url]
		e.reporting.Load(e.place(), tabID, tabType, url, e.lastPageClassification, score)
	}

	if isActive {
		e.lastShownTabURL = url
		e.testShoppingData(url)
		e.testSearchState(url)
		e.reporting.Focus(e.place(), tabID)
	} else {
		e.reporting.Blur(e.place(), tabID)
	}

	if e.isValidSchemeURL(url) {
		e.checkEasterEgg(url)
	}
}

// TabClosed treats the closed tab as a media-stopped event and emits a
// destroy report.
func (e *Engine) TabClosed(tabID int) {
	e.OnMediaStopped(tabID)
	e.reporting.Destroy(e.place(), tabID)
}

func (e *Engine) testShoppingData(rawURL string) {
	components := e.host.GetURLComponents(rawURL)
	if strings.EqualFold(components.Host, "www.amazon.com") {
		e.clientState.FlagShop(rawURL)
	} else {
		e.clientState.UnflagShop()
	}
}

func (e *Engine) testSearchState(rawURL string) {
	components := e.host.GetURLComponents(rawURL)
	if searchproviders.IsSearchEngine(components) {
		e.clientState.FlagSearch(rawURL)
	} else {
		e.clientState.UnflagSearch(rawURL)
	}
}

// ClassifyPage scores html against the loaded model, records the winning
// category, caches the score vector for the page's load event, and
// appends the score to the retained history (spec.md §4.6 classify_page).
func (e *Engine) ClassifyPage(url, html string) {
	if !e.IsReady() {
		return
	}
	if !e.isValidSchemeURL(url) {
		return
	}

	e.testShoppingData(url)
	e.testSearchState(url)

	scores, winner, ok := e.classifier.Classify(html)
	if !ok {
		return
	}
	e.lastPageClassification = winner
	e.pageScoreCache[url] = scores

	e.clientState.AppendPageScore(scores)

	winnerOverTime := e.winnerOverTimeCategory()
	e.logger.Info("site visited",
		zap.String("url", url),
		zap.String("immediate_winner", winner),
		zap.String("winner_over_time", winnerOverTime))
}

func (e *Engine) winnerOverTimeCategory() string {
	idx, ok := e.clientState.WinnerOverTime()
	if !ok {
		return ""
	}
	categories := e.classifier.Categories()
	if idx >= len(categories) {
		return ""
	}
	return categories[idx]
}

// notificationAllowedCheck mirrors the original's NotificationAllowedCheck:
// it refreshes the host's notifications-available flag (emitting a
// settings event on any change, or unconditionally when serve is false),
// then — only when serve is true — gates on network availability and
// catalog freshness before attempting check_ready_ad_serve(false).
func (e *Engine) notificationAllowedCheck(serve bool) {
	available := e.host.IsNotificationsAvailable()
	previous := e.clientState.Snapshot().Available

	if available != previous {
		e.clientState.SetAvailable(available)
	}

	if !serve || available != previous {
		e.emitSettings()
	}

	if !serve {
		return
	}

	if !available {
		e.logger.Info("ad not served: notifications not presently allowed")
		e.dropped("notifications_unavailable")
		return
	}

	if !e.host.IsNetworkConnectionAvailable() {
		e.logger.Info("ad not served: network connection not available")
		e.dropped("no_network")
		return
	}

	if e.isCatalogOlderThanOneDay() {
		e.logger.Info("ad not served: catalog older than one day")
		e.dropped("catalog_stale")
		return
	}

	e.CheckReadyAdServe(false)
}

func (e *Engine) isCatalogOlderThanOneDay() bool {
	const oneDaySeconds = 86400
	lastUpdated := e.bundle.Snapshot().CatalogLastUpdatedTimestamp
	if lastUpdated == 0 {
		return false
	}
	return e.now().Unix() > lastUpdated+oneDaySeconds
}

func (e *Engine) emitSettings() {
	snapshot := e.clientState.Snapshot()
	e.reporting.SettingsChanged(e.place(), reporting.Settings{
		NotificationsAvailable: snapshot.Available,
		Place:                  e.place(),
		Locale:                 snapshot.Locale,
		AdsPerDay:              e.host.GetAdsPerDay(),
		AdsPerHour:             e.host.GetAdsPerHour(),
	})
}

func (e *Engine) dropped(reason string) {
	if e.metrics != nil {
		e.metrics.IncrementAdsDropped(reason)
	}
}
