package bundle

import (
	"testing"

	"github.com/patrickwarner/adsengine/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCatalog() catalog.Catalog {
	return catalog.Catalog{
		CatalogID: "cat-1",
		Version:   1,
		Ping:      60000,
		Campaigns: []catalog.Campaign{
			{
				CampaignID:   "camp-1",
				AdvertiserID: "advertiser-1",
				GeoTargets:   []catalog.GeoTarget{{Code: "US"}},
				CreativeSets: []catalog.CreativeSet{
					{
						CreativeSetID: "cs-1",
						Segments:      []catalog.Segment{{Code: "technology-computing"}},
						Creatives: []catalog.Creative{
							{
								CreativeID: "cr-1",
								Payload:    catalog.CreativePayload{Title: "Headline", TargetURL: "example.com/landing"},
							},
						},
					},
				},
			},
		},
	}
}

func TestBuildFrom_IndexesBySegment(t *testing.T) {
	b := New()
	state := b.BuildFrom(sampleCatalog(), "US", 1000)

	assert.Equal(t, "cat-1", state.CatalogID)
	assert.EqualValues(t, 1, state.CatalogVersion)
	assert.EqualValues(t, 1000, state.CatalogLastUpdatedTimestamp)

	entries, ok := state.Categories["technology-computing"]
	require.True(t, ok)
	require.Len(t, entries, 1)
	assert.Equal(t, "cs-1", entries[0].CreativeSetID)
	assert.Equal(t, []string{"US"}, entries[0].Regions)
}

func TestBuildFrom_NormalizesBareURL(t *testing.T) {
	b := New()
	state := b.BuildFrom(sampleCatalog(), "US", 1000)
	entries := state.Categories["technology-computing"]
	require.Len(t, entries, 1)
	assert.Equal(t, "http://example.com/landing", entries[0].NotificationURL)
}

func TestBuildFrom_PreservesAlreadyPrefixedURL(t *testing.T) {
	cat := sampleCatalog()
	cat.Campaigns[0].CreativeSets[0].Creatives[0].Payload.TargetURL = "https://example.com/landing"
	b := New()
	state := b.BuildFrom(cat, "US", 1000)
	entries := state.Categories["technology-computing"]
	assert.Equal(t, "https://example.com/landing", entries[0].NotificationURL)
}

func TestBuildFrom_FiltersByRegion(t *testing.T) {
	b := New()
	state := b.BuildFrom(sampleCatalog(), "DE", 1000)
	assert.Empty(t, state.Categories)
}

func TestBuildFrom_UntargetedCampaignServesEverywhere(t *testing.T) {
	cat := sampleCatalog()
	cat.Campaigns[0].GeoTargets = nil
	b := New()
	state := b.BuildFrom(cat, "DE", 1000)
	assert.NotEmpty(t, state.Categories)
}

func TestBuildFrom_RebuildIsAtomic(t *testing.T) {
	b := New()
	first := b.BuildFrom(sampleCatalog(), "US", 1000)
	snapshot := b.Snapshot()
	assert.Same(t, first, snapshot)

	second := b.BuildFrom(sampleCatalog(), "DE", 2000)
	assert.Same(t, second, b.Snapshot())
	assert.NotSame(t, first, second)
}

func TestSaveJSON_RoundTrip(t *testing.T) {
	b := New()
	b.BuildFrom(sampleCatalog(), "US", 1000)

	data, err := b.SaveJSON()
	require.NoError(t, err)

	restored := New()
	require.NoError(t, restored.LoadJSON(data))
	assert.Equal(t, b.Snapshot(), restored.Snapshot())
}

func TestReset_ClearsCategories(t *testing.T) {
	b := New()
	b.BuildFrom(sampleCatalog(), "US", 1000)
	b.Reset()
	assert.Empty(t, b.Snapshot().Categories)
	assert.Empty(t, b.Snapshot().CatalogID)
}
