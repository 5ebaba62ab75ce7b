package engine

import (
	"math/rand"
	"strings"
	"time"

	"github.com/patrickwarner/adsengine/internal/frequency"
	"github.com/patrickwarner/adsengine/internal/host"
	"github.com/patrickwarner/adsengine/internal/macros"
	"github.com/patrickwarner/adsengine/internal/reporting"
)

// CheckReadyAdServe runs the full ad-serve gate (spec.md §4.6
// check_ready_ad_serve): readiness and bundle-readiness are always
// required; unless forced, the call additionally requires the client be
// mobile or foregrounded, no media currently playing, and the frequency
// policy to allow another ad. The winning category is then handed to
// ServeAdFromCategory.
func (e *Engine) CheckReadyAdServe(forced bool) {
	if !e.IsReady() {
		return
	}
	if e.bundle.Snapshot().CatalogID == "" {
		e.dropped("bundle_not_ready")
		return
	}

	if !forced {
		if !e.isMobile() && !e.isInForeground() {
			e.dropped("not_foreground")
			return
		}
		if e.IsMediaPlaying() {
			e.dropped("media_playing")
			return
		}
		if !e.frequencyAllowed() {
			e.dropped("frequency_capped")
			return
		}
	}

	category := e.winnerOverTimeCategory()
	e.ServeAdFromCategory(category)
}

func (e *Engine) frequencyAllowed() bool {
	return frequency.Allowed(e.clientState.AdsShownRecent, e.cfg.AdsPerHour, e.cfg.AdsPerDay, e.now().Unix())
}

// ServeAdFromCategory looks up ads for category through the host, falling
// back to progressively shorter prefixes of the `-`-joined category path
// when a level has no inventory, and emits one valid unseen ad chosen
// uniformly at random (spec.md §4.6 serve_ad_from_category).
func (e *Engine) ServeAdFromCategory(category string) {
	if e.bundle.Snapshot().CatalogID == "" {
		e.dropped("bundle_not_ready")
		return
	}
	if category == "" {
		e.dropped("no_category")
		return
	}

	e.host.GetAds(e.adsServe.Region(), category, func(ads []host.AdCandidate) {
		e.onGetAdsResult(category, ads)
	})
}

func (e *Engine) onGetAdsResult(category string, ads []host.AdCandidate) {
	if len(ads) == 0 {
		if parent, ok := fallbackCategory(category); ok {
			e.ServeAdFromCategory(parent)
			return
		}
		e.dropped("no_ads_in_category")
		return
	}

	candidates := e.getUnseenAds(ads)
	if len(candidates) == 0 {
		e.dropped("no_valid_ads")
		return
	}

	chosen := candidates[rand.Intn(len(candidates))]
	e.ShowAd(chosen, category)
}

// fallbackCategory truncates category to everything before its last `-`
// separator. ok is false once category has no further segment to drop.
func fallbackCategory(category string) (string, bool) {
	idx := strings.LastIndexByte(category, '-')
	if idx < 0 {
		return "", false
	}
	return category[:idx], true
}

// getUnseenAds filters ads down to valid, not-yet-seen candidates. If every
// valid ad has already been seen, the seen bits for this set are cleared
// and the full valid set is returned instead (round-robin wrap on
// exhaustion, spec.md §4.6 get_unseen_ads).
func (e *Engine) getUnseenAds(ads []host.AdCandidate) []host.AdCandidate {
	valid := make([]host.AdCandidate, 0, len(ads))
	for _, ad := range ads {
		if isAdValid(ad) {
			valid = append(valid, ad)
		}
	}
	if len(valid) == 0 {
		return nil
	}

	unseen := make([]host.AdCandidate, 0, len(valid))
	uuids := make([]string, 0, len(valid))
	for _, ad := range valid {
		uuids = append(uuids, ad.UUID)
		if !e.clientState.IsSeen(ad.UUID) {
			unseen = append(unseen, ad)
		}
	}
	if len(unseen) > 0 {
		return unseen
	}

	e.clientState.ResetSeen(uuids)
	return valid
}

// isAdValid rejects a candidate missing any field show_ad requires
// (spec.md §4.6 is_ad_valid): advertiser, notification text and URL must
// all be non-empty.
func isAdValid(ad host.AdCandidate) bool {
	return ad.Advertiser != "" && ad.NotificationText != "" && ad.NotificationURL != ""
}

// ShowAd presents entry through the host, records it as the last-shown ad
// (for sustain tracking) and appends an ads-shown timestamp. The notify
// report itself is deferred to OnNotificationResult, which classifies
// against the same (possibly fallback-truncated) category passed here.
func (e *Engine) ShowAd(ad host.AdCandidate, category string) {
	notificationURL := ad.NotificationURL
	if e.macroExpander != nil {
		if expanded, err := e.macroExpander.ExpandURL(notificationURL, &macros.ExpansionContext{
			CreativeSetID: ad.CreativeSetID,
			AdUUID:        ad.UUID,
			Category:      category,
			Advertiser:    ad.Advertiser,
			Timestamp:     e.now(),
		}); err == nil {
			notificationURL = expanded
		}
	}

	info := host.NotificationInfo{
		Advertiser:    ad.Advertiser,
		Category:      category,
		Text:          ad.NotificationText,
		URL:           notificationURL,
		CreativeSetID: ad.CreativeSetID,
		UUID:          ad.UUID,
	}

	e.host.ShowNotification(info)

	e.lastShown = info
	e.hasLastShown = true
	e.lastShownTabURL = ""

	e.clientState.AppendAdShown(e.now().Unix())

	if e.metrics != nil {
		e.metrics.IncrementAdsShown(category)
	}
}

// OnNotificationResult records the outcome of a previously shown
// notification: it emits the notify report classified against the category
// ShowAd actually served, marks the creative seen on a terminal
// click/dismiss outcome, and arms the sustain timer on a click (spec.md
// §4.6 on_notification_result).
func (e *Engine) OnNotificationResult(kind reporting.NotificationKind) {
	if !e.hasLastShown {
		return
	}
	info := e.lastShown

	e.reporting.Notify(e.place(), info.Category, e.bundle.Snapshot().CatalogID, info.URL, kind)

	if e.metrics != nil {
		e.metrics.IncrementNotificationResult(string(kind))
	}

	switch kind {
	case reporting.NotificationClicked, reporting.NotificationDismissed:
		e.clientState.MarkSeen(info.UUID, true)
	}

	if kind == reporting.NotificationClicked {
		e.lastShownTabURL = info.URL
		e.startSustainingAdInteraction(time.Duration(e.cfg.SustainAfterSeconds) * time.Second)
	}
}
