package macros

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testExpander(t *testing.T) *Expander {
	t.Helper()
	return NewForTesting(zap.NewNop(), false)
}

func TestExpandURL_AllStandardMacros(t *testing.T) {
	e := testExpander(t)
	ts := time.Unix(1700000000, 0).UTC()
	ctx := &ExpansionContext{
		CreativeSetID: "cs-1",
		AdUUID:        "ad-uuid-123",
		Category:      "technology-computing",
		Advertiser:    "Acme Corp",
		Timestamp:     ts,
	}

	raw := "https://track.example.com/show?cs={CREATIVE_SET_ID}&ad={AD_UUID}&cat={CATEGORY}&adv={ADVERTISER}&ts={TIMESTAMP}&iso={ISO_TIMESTAMP}"
	expanded, err := e.ExpandURL(raw, ctx)
	require.NoError(t, err)

	assert.Contains(t, expanded, "cs=cs-1")
	assert.Contains(t, expanded, "ad=ad-uuid-123")
	assert.Contains(t, expanded, "cat=technology-computing")
	assert.Contains(t, expanded, "adv=Acme+Corp")
	assert.Contains(t, expanded, "ts=1700000000")
	assert.NotContains(t, expanded, "{")
}

func TestExpandURL_UUIDVaries(t *testing.T) {
	e := testExpander(t)
	ctx := &ExpansionContext{Timestamp: time.Now()}

	first, err := e.ExpandURL("https://x.example.com/?id={UUID}", ctx)
	require.NoError(t, err)
	second, err := e.ExpandURL("https://x.example.com/?id={UUID}", ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestExpandURL_EmptyURL(t *testing.T) {
	e := testExpander(t)
	expanded, err := e.ExpandURL("", &ExpansionContext{})
	require.NoError(t, err)
	assert.Equal(t, "", expanded)
}

func TestExpandURL_NoMacrosPresent(t *testing.T) {
	e := testExpander(t)
	raw := "https://advertiser.example.com/landing"
	expanded, err := e.ExpandURL(raw, &ExpansionContext{})
	require.NoError(t, err)
	assert.Equal(t, raw, expanded)
}

func TestExpandURL_InvalidURLStrictMode(t *testing.T) {
	e := NewForTesting(zap.NewNop(), true)
	_, err := e.ExpandURL("://not-a-valid-url", &ExpansionContext{})
	assert.Error(t, err)
}

func TestRegisterMacro_CustomMacro(t *testing.T) {
	e := testExpander(t)
	err := e.RegisterMacro("PLACEMENT_SLOT", func(ctx *ExpansionContext) (string, error) {
		return "slot-7", nil
	})
	require.NoError(t, err)

	expanded, err := e.ExpandURL("https://x.example.com/?slot={PLACEMENT_SLOT}", &ExpansionContext{})
	require.NoError(t, err)
	assert.Contains(t, expanded, "slot=slot-7")
}

func TestRegisterMacro_RejectsEmptyName(t *testing.T) {
	e := testExpander(t)
	err := e.RegisterMacro("", func(ctx *ExpansionContext) (string, error) { return "", nil })
	assert.Error(t, err)
}

func TestGetRegisteredMacros_IncludesDefaults(t *testing.T) {
	e := testExpander(t)
	names := e.GetRegisteredMacros()
	assert.Contains(t, names, "UUID")
	assert.Contains(t, names, "CATEGORY")
	assert.Contains(t, names, "AD_UUID")
}

func TestValidateURL_FlagsUnsupportedMacro(t *testing.T) {
	e := testExpander(t)
	unsupported := e.ValidateURL("https://x.example.com/?a={CATEGORY}&b={NOT_A_MACRO}")
	assert.Equal(t, []string{"NOT_A_MACRO"}, unsupported)
}

func TestValidateURL_NoUnsupportedMacros(t *testing.T) {
	e := testExpander(t)
	unsupported := e.ValidateURL("https://x.example.com/?a={CATEGORY}&b={AD_UUID}")
	assert.Empty(t, unsupported)
}

func TestExpandURL_CategoryWithDashesPreserved(t *testing.T) {
	e := testExpander(t)
	expanded, err := e.ExpandURL("https://x.example.com/?cat={CATEGORY}", &ExpansionContext{Category: "personal finance-personal finance"})
	require.NoError(t, err)
	assert.True(t, strings.Contains(expanded, "cat=personal+finance-personal+finance"))
}
