// Package bundle projects a validated catalog into a region-filtered,
// category-indexed lookup optimized for ad selection (spec.md §4.2 Bundle
// Builder). Rebuilds are atomic: readers always see a complete bundle, old
// or new, never a partially-built one.
package bundle

import (
	"encoding/json"
	"strings"
	"sync/atomic"

	"github.com/patrickwarner/adsengine/internal/catalog"
)

// AdEntry is one notification ad unit indexed under a segment code.
type AdEntry struct {
	CreativeSetID    string   `json:"creativeSetId"`
	Regions          []string `json:"regions"`
	StartTimestamp   int64    `json:"startTimestamp"`
	EndTimestamp     int64    `json:"endTimestamp"`
	Advertiser       string   `json:"advertiser"`
	NotificationText string   `json:"notificationText"`
	NotificationURL  string   `json:"notificationURL"`
	UUID             string   `json:"uuid"`
}

// State is the serializable, derived form of a catalog: a category-indexed
// lookup of ad entries plus the catalog metadata needed to decide when a
// refresh is due.
type State struct {
	CatalogID                  string               `json:"catalogId"`
	CatalogVersion              uint64               `json:"catalogVersion"`
	CatalogPing                 uint64               `json:"catalogPing"`
	CatalogLastUpdatedTimestamp int64                `json:"catalogLastUpdatedTimestamp"`
	Categories                  map[string][]AdEntry `json:"categories"`
}

// Bundle holds the current State behind an atomic pointer so that a rebuild
// in progress never exposes a torn view to concurrent readers.
type Bundle struct {
	state atomic.Pointer[State]
}

// New returns an empty Bundle.
func New() *Bundle {
	b := &Bundle{}
	b.state.Store(&State{Categories: map[string][]AdEntry{}})
	return b
}

// Snapshot returns the currently active State. Safe for concurrent use.
func (b *Bundle) Snapshot() *State {
	return b.state.Load()
}

// BuildFrom projects cat into a new State restricted to region, and installs
// it atomically as the Bundle's current state. now is the build time in
// unix seconds, recorded as CatalogLastUpdatedTimestamp.
//
// For each campaign's creative set, every segment the creative set targets
// gets one AdEntry per creative, in catalog order. A creative with a bare
// notification URL (missing scheme) is rewritten with an "http://" prefix,
// matching the original engine's normalization on bundle generation.
func (b *Bundle) BuildFrom(cat catalog.Catalog, region string, now int64) *State {
	next := &State{
		CatalogID:                   cat.CatalogID,
		CatalogVersion:              cat.Version,
		CatalogPing:                 cat.Ping,
		CatalogLastUpdatedTimestamp: now,
		Categories:                  map[string][]AdEntry{},
	}

	for _, campaign := range cat.Campaigns {
		regions := geoCodes(campaign.GeoTargets)
		if region != "" && !regionMatches(regions, region) {
			continue
		}

		for _, cs := range campaign.CreativeSets {
			for _, segment := range cs.Segments {
				for _, creative := range cs.Creatives {
					entry := AdEntry{
						CreativeSetID:    cs.CreativeSetID,
						Regions:          regions,
						Advertiser:       campaign.AdvertiserID,
						NotificationText: creative.Payload.Title,
						NotificationURL:  normalizeURL(creative.Payload.TargetURL),
						UUID:             creative.CreativeID,
					}
					next.Categories[segment.Code] = append(next.Categories[segment.Code], entry)
				}
			}
		}
	}

	b.state.Store(next)
	return next
}

// Reset replaces the bundle with an empty one.
func (b *Bundle) Reset() {
	b.state.Store(&State{Categories: map[string][]AdEntry{}})
}

// LoadJSON deserializes a persisted bundle document and installs it as the
// current state. An empty or malformed document results in an error and
// leaves the existing state untouched.
func (b *Bundle) LoadJSON(data []byte) error {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s.Categories == nil {
		s.Categories = map[string][]AdEntry{}
	}
	b.state.Store(&s)
	return nil
}

// SaveJSON serializes the current state for host persistence.
func (b *Bundle) SaveJSON() ([]byte, error) {
	return json.Marshal(b.state.Load())
}

func geoCodes(targets []catalog.GeoTarget) []string {
	codes := make([]string, 0, len(targets))
	for _, t := range targets {
		codes = append(codes, t.Code)
	}
	return codes
}

func regionMatches(regions []string, region string) bool {
	if len(regions) == 0 {
		return true // untargeted campaigns serve everywhere
	}
	for _, r := range regions {
		if strings.EqualFold(r, region) {
			return true
		}
	}
	return false
}

func normalizeURL(url string) string {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	return "http://" + url
}
