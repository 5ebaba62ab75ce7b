package clientstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendPageScore_RetainsOnlyLimit(t *testing.T) {
	c := NewClientState(nil, WithPageScoreHistoryLimit(2))
	c.AppendPageScore([]float64{1, 0})
	c.AppendPageScore([]float64{0, 1})
	c.AppendPageScore([]float64{1, 1})

	snap := c.Snapshot()
	require.Len(t, snap.PageScoreHistory, 2)
	assert.Equal(t, []float64{1, 1}, snap.PageScoreHistory[0])
	assert.Equal(t, []float64{0, 1}, snap.PageScoreHistory[1])
}

func TestWinnerOverTime_SumsCoordinates(t *testing.T) {
	c := NewClientState(nil)
	c.AppendPageScore([]float64{1, 5, 0})
	c.AppendPageScore([]float64{2, 1, 0})

	winner, ok := c.WinnerOverTime()
	require.True(t, ok)
	assert.Equal(t, 1, winner)
}

func TestWinnerOverTime_TiesBreakByFirstIndex(t *testing.T) {
	c := NewClientState(nil)
	c.AppendPageScore([]float64{3, 3})

	winner, ok := c.WinnerOverTime()
	require.True(t, ok)
	assert.Equal(t, 0, winner)
}

func TestWinnerOverTime_EmptyHistoryIsNotOK(t *testing.T) {
	c := NewClientState(nil)
	_, ok := c.WinnerOverTime()
	assert.False(t, ok)
}

func TestWinnerOverTime_MismatchedDimensionIsNotOK(t *testing.T) {
	c := NewClientState(nil)
	c.AppendPageScore([]float64{1, 2})
	c.AppendPageScore([]float64{1, 2, 3})

	_, ok := c.WinnerOverTime()
	assert.False(t, ok)
}

func TestAdsShownRecent_CountsWithinWindow(t *testing.T) {
	c := NewClientState(nil)
	c.AppendAdShown(100)
	c.AppendAdShown(3000)
	c.AppendAdShown(3500)

	assert.Equal(t, 2, c.AdsShownRecent(3600, 4000))
	assert.Equal(t, 0, c.AdsShownRecent(10, 4000))
}

func TestMarkSeenAndResetSeen(t *testing.T) {
	c := NewClientState(nil)
	c.MarkSeen("uuid-1", true)
	c.MarkSeen("uuid-2", true)
	assert.True(t, c.IsSeen("uuid-1"))

	c.ResetSeen([]string{"uuid-1", "uuid-2"})
	assert.False(t, c.IsSeen("uuid-1"))
	assert.False(t, c.IsSeen("uuid-2"))
}

func TestFlagShopAndSearch(t *testing.T) {
	c := NewClientState(nil)
	c.FlagShop("https://shop.example.com")
	snap := c.Snapshot()
	assert.True(t, snap.ShopState)
	assert.Equal(t, "https://shop.example.com", snap.ShopURL)

	c.UnflagShop()
	snap = c.Snapshot()
	assert.False(t, snap.ShopState)

	c.FlagSearch("https://search.example.com")
	snap = c.Snapshot()
	assert.True(t, snap.SearchState)

	c.UnflagSearch("https://search.example.com")
	snap = c.Snapshot()
	assert.False(t, snap.SearchState)
}

func TestUpdateAdUUID_GeneratesOnlyWhenEmpty(t *testing.T) {
	calls := 0
	c := NewClientState(nil, WithUUIDGenerator(func() string {
		calls++
		return "generated-uuid"
	}))

	first := c.UpdateAdUUID()
	second := c.UpdateAdUUID()

	assert.Equal(t, "generated-uuid", first)
	assert.Equal(t, "generated-uuid", second)
	assert.Equal(t, 1, calls)
}

func TestLoadJSON_RoundTrip(t *testing.T) {
	c := NewClientState(nil)
	c.AppendAdShown(42)
	c.MarkSeen("uuid-1", true)
	c.SetLocale("en-US", []string{"en-US", "en-GB"})

	data, err := c.MarshalJSON()
	require.NoError(t, err)

	restored := NewClientState(nil)
	require.NoError(t, restored.LoadJSON(data))

	snap := restored.Snapshot()
	assert.Equal(t, []int64{42}, snap.AdsShownHistory)
	assert.True(t, snap.AdsUUIDSeen["uuid-1"])
	assert.Equal(t, "en-US", snap.Locale)
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	c := NewClientState(nil)
	c.AppendAdShown(1)
	snap := c.Snapshot()

	c.AppendAdShown(2)
	assert.Len(t, snap.AdsShownHistory, 1, "snapshot must not observe later mutations")
}
