package catalog

import (
	"testing"

	"github.com/patrickwarner/adsengine/internal/enginerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDoc() string {
	return `{
		"catalogId": "cat-1",
		"version": 1,
		"ping": 60000,
		"campaigns": [
			{
				"campaignId": "camp-1",
				"name": "Test Campaign",
				"dailyCap": 10,
				"budget": 100,
				"geoTargets": [{"code": "US", "name": "United States"}],
				"creativeSets": [
					{
						"creativeSetId": "cs-1",
						"execution": "per_click",
						"perDay": 5,
						"totalMax": 20,
						"segments": [{"code": "technology", "name": "Technology"}],
						"creatives": [
							{
								"creativeId": "cr-1",
								"type": {"code": "notification", "name": "notification", "platform": "all", "version": 1},
								"payload": {"body": "Body", "title": "Title", "targetUrl": "https://example.com"}
							}
						]
					}
				]
			}
		]
	}`
}

func TestParse_ValidDocument(t *testing.T) {
	cat, err := Parse([]byte(validDoc()))
	require.NoError(t, err)
	require.Len(t, cat.Campaigns, 1)
	assert.Equal(t, "camp-1", cat.Campaigns[0].CampaignID)
	require.Len(t, cat.Campaigns[0].CreativeSets, 1)
	cs := cat.Campaigns[0].CreativeSets[0]
	assert.Equal(t, "cs-1", cs.CreativeSetID)
	require.Len(t, cs.Creatives, 1)
	assert.Equal(t, "cr-1", cs.Creatives[0].CreativeID)
}

func TestParse_BadJSON(t *testing.T) {
	_, err := Parse([]byte(`not json`))
	assert.ErrorIs(t, err, enginerrors.ErrCatalogParse)
}

func TestParse_WrongVersionRejectsWholeDocument(t *testing.T) {
	_, err := Parse([]byte(`{"catalogId":"c","version":2,"campaigns":[]}`))
	assert.ErrorIs(t, err, enginerrors.ErrCatalogVersion)
}

func TestParse_MissingVersionRejects(t *testing.T) {
	_, err := Parse([]byte(`{"catalogId":"c","campaigns":[]}`))
	assert.ErrorIs(t, err, enginerrors.ErrCatalogVersion)
}

func TestParse_CampaignMissingIDIsSkipped(t *testing.T) {
	doc := `{
		"catalogId": "c", "version": 1,
		"campaigns": [
			{"name": "no id here"},
			{"campaignId": "camp-2", "creativeSets": []}
		]
	}`
	cat, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, cat.Campaigns, 1)
	assert.Equal(t, "camp-2", cat.Campaigns[0].CampaignID)
}

func TestParse_CreativeSetMissingIDIsSkipped(t *testing.T) {
	doc := `{
		"catalogId": "c", "version": 1,
		"campaigns": [
			{
				"campaignId": "camp-1",
				"creativeSets": [
					{"execution": "per_click", "segments": [{"code": "x"}]},
					{"creativeSetId": "cs-2", "segments": [{"code": "x"}]}
				]
			}
		]
	}`
	cat, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, cat.Campaigns[0].CreativeSets, 1)
	assert.Equal(t, "cs-2", cat.Campaigns[0].CreativeSets[0].CreativeSetID)
}

func TestParse_UnknownExecutionRejectsWholeDocument(t *testing.T) {
	doc := `{
		"catalogId": "c", "version": 1,
		"campaigns": [
			{
				"campaignId": "camp-1",
				"creativeSets": [
					{"creativeSetId": "cs-1", "execution": "per_view", "segments": [{"code": "x"}]}
				]
			}
		]
	}`
	_, err := Parse([]byte(doc))
	assert.ErrorIs(t, err, enginerrors.ErrCatalogExecution)
}

func TestParse_ZeroSegmentsRejectsWholeDocument(t *testing.T) {
	doc := `{
		"catalogId": "c", "version": 1,
		"campaigns": [
			{
				"campaignId": "camp-1",
				"creativeSets": [
					{"creativeSetId": "cs-1", "execution": "per_click", "segments": []}
				]
			}
		]
	}`
	_, err := Parse([]byte(doc))
	assert.ErrorIs(t, err, enginerrors.ErrCatalogNoSegments)
}

func TestParse_CreativeMissingIDIsSkipped(t *testing.T) {
	doc := `{
		"catalogId": "c", "version": 1,
		"campaigns": [
			{
				"campaignId": "camp-1",
				"creativeSets": [
					{
						"creativeSetId": "cs-1",
						"segments": [{"code": "x"}],
						"creatives": [
							{"type": {"name": "notification"}},
							{"creativeId": "cr-2", "type": {"name": "notification"}}
						]
					}
				]
			}
		]
	}`
	cat, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, cat.Campaigns[0].CreativeSets[0].Creatives, 1)
	assert.Equal(t, "cr-2", cat.Campaigns[0].CreativeSets[0].Creatives[0].CreativeID)
}

func TestParse_UnknownCreativeTypeRejectsWholeDocument(t *testing.T) {
	doc := `{
		"catalogId": "c", "version": 1,
		"campaigns": [
			{
				"campaignId": "camp-1",
				"creativeSets": [
					{
						"creativeSetId": "cs-1",
						"segments": [{"code": "x"}],
						"creatives": [
							{"creativeId": "cr-1", "type": {"name": "banner"}}
						]
					}
				]
			}
		]
	}`
	_, err := Parse([]byte(doc))
	assert.ErrorIs(t, err, enginerrors.ErrCatalogCreativeType)
}

func TestParse_MissingCampaignsDefaultsToEmpty(t *testing.T) {
	cat, err := Parse([]byte(`{"catalogId": "c", "version": 1}`))
	require.NoError(t, err)
	assert.Empty(t, cat.Campaigns)
}
