package engine

import (
	"time"

	"go.uber.org/zap"
)

// Three named timer slots (spec.md §4.6 "Timers"). Starting a slot cancels
// whatever was previously running under it; a failed set_timer call (host
// returns handle 0) is logged and leaves the slot cleared, disabling
// whatever feature that timer drove until the next re-entry.

func (e *Engine) startTimer(slot *int, d time.Duration, label string) {
	if *slot != 0 {
		e.host.KillTimer(*slot)
	}
	handle := e.host.SetTimer(d)
	if handle == 0 {
		e.logger.Error("set_timer failed", zap.String("slot", label))
		*slot = 0
		if e.metrics != nil {
			e.metrics.IncrementTimerEvent(label, "failed")
		}
		return
	}
	*slot = handle
	if e.metrics != nil {
		e.metrics.IncrementTimerEvent(label, "started")
	}
}

func (e *Engine) stopTimer(slot *int, label string) {
	if *slot == 0 {
		return
	}
	e.host.KillTimer(*slot)
	*slot = 0
	if e.metrics != nil {
		e.metrics.IncrementTimerEvent(label, "stopped")
	}
}

func (e *Engine) startCollectingActivity(d time.Duration) {
	e.startTimer(&e.collectActivityTimer, d, "collect_activity")
}

func (e *Engine) stopCollectingActivity() {
	e.stopTimer(&e.collectActivityTimer, "collect_activity")
}

func (e *Engine) isCollectingActivity() bool {
	return e.collectActivityTimer != 0
}

func (e *Engine) collectActivity() {
	if !e.IsReady() {
		return
	}
	e.adsServe.DownloadCatalog()
}

func (e *Engine) startDeliveringNotifications(d time.Duration) {
	e.startTimer(&e.deliverNotificationsTimer, d, "deliver_notifications")
}

func (e *Engine) stopDeliveringNotifications() {
	e.stopTimer(&e.deliverNotificationsTimer, "deliver_notifications")
}

func (e *Engine) isDeliveringNotifications() bool {
	return e.deliverNotificationsTimer != 0
}

func (e *Engine) deliverNotification() {
	e.notificationAllowedCheck(true)
	if e.isMobile() {
		e.startDeliveringNotifications(time.Duration(e.cfg.DeliverAfterSeconds) * time.Second)
	}
}

func (e *Engine) startSustainingAdInteraction(d time.Duration) {
	e.startTimer(&e.sustainedAdInteractionTimer, d, "sustained_ad_interaction")
}

func (e *Engine) stopSustainingAdInteraction() {
	e.stopTimer(&e.sustainedAdInteractionTimer, "sustained_ad_interaction")
}

func (e *Engine) isSustainingAdInteraction() bool {
	return e.sustainedAdInteractionTimer != 0
}

func (e *Engine) isStillViewingAd() bool {
	return e.hasLastShown && e.lastShown.URL == e.lastShownTabURL
}

func (e *Engine) sustainAdInteraction() {
	if !e.isStillViewingAd() {
		return
	}
	e.reporting.Sustain(e.place(), e.lastShown.UUID)
	if e.metrics != nil {
		e.metrics.IncrementSustained()
	}
}

// OnTimer dispatches a fired timer handle to the matching slot's handler.
// A handle matching none of the three named slots is offered to AdsServe,
// which owns its own catalog-refresh/backoff timer over the same host
// SetTimer/KillTimer ID space; only if that also doesn't match is the fire
// dropped silently (spec.md §4.6 on_timer).
func (e *Engine) OnTimer(timerID int) {
	switch timerID {
	case e.collectActivityTimer:
		e.collectActivity()
	case e.deliverNotificationsTimer:
		e.deliverNotification()
	case e.sustainedAdInteractionTimer:
		e.sustainAdInteraction()
	default:
		e.adsServe.OnTimer(timerID)
	}
}

func (e *Engine) place() string {
	ssid := e.clientState.Snapshot().CurrentSSID
	if label, ok := e.clientState.Place(ssid); ok {
		return label
	}
	return ssid
}
