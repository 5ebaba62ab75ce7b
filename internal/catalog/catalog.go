// Package catalog parses and validates the upstream catalog document into
// campaigns, creative sets, creatives, segments and geo-targets (spec.md §2
// Catalog, §4.1 Catalog Parser). The result is immutable after Parse.
package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/patrickwarner/adsengine/internal/enginerrors"
)

// GeoTarget identifies a region a campaign targets.
type GeoTarget struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Segment identifies a content category a creative set targets.
type Segment struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// CreativeType describes the rendering contract of a creative. Only
// Name == "notification" is recognized; the parser rejects any other
// non-empty name and accepts an empty one.
type CreativeType struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Platform string `json:"platform"`
	Version  uint64 `json:"version"`
}

// CreativePayload holds the notification copy and destination.
type CreativePayload struct {
	Body      string `json:"body"`
	Title     string `json:"title"`
	TargetURL string `json:"targetUrl"`
}

// Creative is a single notification ad unit.
type Creative struct {
	CreativeID string          `json:"creativeId"`
	Type       CreativeType    `json:"type"`
	Payload    CreativePayload `json:"payload"`
}

// CreativeSet groups creatives sharing an execution model and day/total
// caps, targeted at one or more Segments.
type CreativeSet struct {
	CreativeSetID string     `json:"creativeSetId"`
	Execution     string     `json:"execution"`
	PerDay        uint64     `json:"perDay"`
	TotalMax      uint64     `json:"totalMax"`
	Segments      []Segment  `json:"segments"`
	Creatives     []Creative `json:"creatives"`
}

// Campaign is the top-level inventory unit: a flight window, a budget, and
// the creative sets it funds.
type Campaign struct {
	CampaignID   string        `json:"campaignId"`
	Name         string        `json:"name"`
	StartAt      string        `json:"startAt"`
	EndAt        string        `json:"endAt"`
	DailyCap     uint64        `json:"dailyCap"`
	Budget       uint64        `json:"budget"`
	AdvertiserID string        `json:"advertiserId"`
	GeoTargets   []GeoTarget   `json:"geoTargets"`
	CreativeSets []CreativeSet `json:"creativeSets"`
}

// Catalog is the full, validated advertising inventory document. It is
// immutable once returned by Parse.
type Catalog struct {
	CatalogID string     `json:"catalogId"`
	Version   uint64     `json:"version"`
	Ping      uint64     `json:"ping"`
	Campaigns []Campaign `json:"campaigns"`
}

// wireCatalog mirrors the JSON wire shape; unmarshalling into this first
// lets Parse apply reject/skip rules field by field rather than trusting
// encoding/json's zero-value defaulting for required fields.
type wireCatalog struct {
	CatalogID string          `json:"catalogId"`
	Version   *uint64         `json:"version"`
	Ping      uint64          `json:"ping"`
	Campaigns []wireCampaign  `json:"campaigns"`
}

type wireCampaign struct {
	CampaignID   string            `json:"campaignId"`
	Name         string            `json:"name"`
	StartAt      string            `json:"startAt"`
	EndAt        string            `json:"endAt"`
	DailyCap     uint64            `json:"dailyCap"`
	Budget       uint64            `json:"budget"`
	AdvertiserID string            `json:"advertiserId"`
	GeoTargets   []GeoTarget       `json:"geoTargets"`
	CreativeSets []wireCreativeSet `json:"creativeSets"`
}

type wireCreativeSet struct {
	CreativeSetID string          `json:"creativeSetId"`
	Execution     string          `json:"execution"`
	PerDay        uint64          `json:"perDay"`
	TotalMax      uint64          `json:"totalMax"`
	Segments      []Segment       `json:"segments"`
	Creatives     []wireCreative  `json:"creatives"`
}

type wireCreative struct {
	CreativeID string          `json:"creativeId"`
	Type       wireCreativeType `json:"type"`
	Payload    CreativePayload `json:"payload"`
}

type wireCreativeType struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Platform string `json:"platform"`
	Version  uint64 `json:"version"`
}

// Parse decodes and validates a catalog JSON document, applying the reject
// and skip rules of spec.md §4.1:
//
//   - parse error, version != 1, an unknown execution mode, an unknown
//     creative type name, or a creative set with zero segments invalidates
//     the whole document (reject).
//   - a campaign without campaignId, a creative set without
//     creativeSetId, or a creative without creativeId is dropped silently
//     (skip), without invalidating the rest of the document.
func Parse(data []byte) (Catalog, error) {
	var wire wireCatalog
	if err := json.Unmarshal(data, &wire); err != nil {
		return Catalog{}, fmt.Errorf("%w: %v", enginerrors.ErrCatalogParse, err)
	}

	if wire.Version == nil || *wire.Version != 1 {
		return Catalog{}, enginerrors.ErrCatalogVersion
	}

	out := Catalog{
		CatalogID: wire.CatalogID,
		Version:   *wire.Version,
		Ping:      wire.Ping,
	}

	for _, wc := range wire.Campaigns {
		if wc.CampaignID == "" {
			continue // skip: campaign without campaign_id
		}

		campaign := Campaign{
			CampaignID:   wc.CampaignID,
			Name:         wc.Name,
			StartAt:      wc.StartAt,
			EndAt:        wc.EndAt,
			DailyCap:     wc.DailyCap,
			Budget:       wc.Budget,
			AdvertiserID: wc.AdvertiserID,
			GeoTargets:   wc.GeoTargets,
		}

		for _, wcs := range wc.CreativeSets {
			if wcs.CreativeSetID == "" {
				continue // skip: creative set without creative_set_id
			}

			if wcs.Execution != "" && wcs.Execution != "per_click" {
				return Catalog{}, enginerrors.ErrCatalogExecution
			}

			if len(wcs.Segments) == 0 {
				return Catalog{}, enginerrors.ErrCatalogNoSegments
			}

			cs := CreativeSet{
				CreativeSetID: wcs.CreativeSetID,
				Execution:     wcs.Execution,
				PerDay:        wcs.PerDay,
				TotalMax:      wcs.TotalMax,
				Segments:      wcs.Segments,
			}

			for _, wcr := range wcs.Creatives {
				if wcr.CreativeID == "" {
					continue // skip: creative without creative_id
				}

				if wcr.Type.Name != "" && wcr.Type.Name != "notification" {
					return Catalog{}, enginerrors.ErrCatalogCreativeType
				}

				cs.Creatives = append(cs.Creatives, Creative{
					CreativeID: wcr.CreativeID,
					Type: CreativeType{
						Code:     wcr.Type.Code,
						Name:     wcr.Type.Name,
						Platform: wcr.Type.Platform,
						Version:  wcr.Type.Version,
					},
					Payload: wcr.Payload,
				})
			}

			campaign.CreativeSets = append(campaign.CreativeSets, cs)
		}

		out.Campaigns = append(out.Campaigns, campaign)
	}

	return out, nil
}
