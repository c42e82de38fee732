package handlers

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/breakout/backend/internal/contracts"
	"github.com/wonny/breakout/backend/internal/market"
	"github.com/wonny/breakout/backend/internal/watchlist"
)

func watchlistFixture(t *testing.T, doc *contracts.Watchlist) *WatchlistHandler {
	t.Helper()
	store := watchlist.NewStoreAt(filepath.Join(t.TempDir(), "watchlist.json"), testLogger())
	if doc != nil {
		require.NoError(t, store.Save(doc))
	}
	return NewWatchlistHandler(store, testLogger())
}

func TestGetWatchlist(t *testing.T) {
	// AAPL은 고정 목록과 겹치므로 dynamic에서 제외돼야 함
	h := watchlistFixture(t, &contracts.Watchlist{
		Tickers:       []string{"PLTR", "AAPL", "COIN"},
		UpdatedAt:     time.Date(2025, 6, 17, 23, 40, 0, 0, market.KST),
		ScreeningMode: contracts.ScreeningModeDynamic,
	})

	body := getJSON(t, h.GetWatchlist, "/api/watchlist")

	fixed := body["fixed"].(map[string]interface{})
	assert.Equal(t, float64(50), fixed["total"])
	assert.Equal(t, "oneil", fixed["source"])
	assert.Equal(t, "고정", fixed["label"])

	bySector := fixed["by_sector"].(map[string]interface{})
	require.Len(t, bySector, 7)
	tech := bySector["Tech"].([]interface{})
	assert.Len(t, tech, 10)
	assert.Contains(t, tech, "AAPL")

	all := fixed["all"].([]interface{})
	require.Len(t, all, 50)
	assert.True(t, sortedStrings(all), "fixed.all must be sorted")

	dynamic := body["dynamic"].(map[string]interface{})
	assert.Equal(t, float64(2), dynamic["total"])
	assert.Equal(t, []interface{}{"PLTR", "COIN"}, dynamic["all"])
	assert.Equal(t, "동적", dynamic["label"])
	assert.NotNil(t, dynamic["updated_at"])

	// 합계는 중복 제거: 50 고정 + 2 동적
	assert.Equal(t, float64(52), body["total"])
}

func TestGetWatchlistMissingDynamic(t *testing.T) {
	h := watchlistFixture(t, nil)

	body := getJSON(t, h.GetWatchlist, "/api/watchlist")

	dynamic := body["dynamic"].(map[string]interface{})
	assert.Equal(t, float64(0), dynamic["total"])
	assert.Empty(t, dynamic["all"])
	assert.Nil(t, dynamic["updated_at"])
	assert.Equal(t, float64(50), body["total"])
}

func TestGetFixed(t *testing.T) {
	h := watchlistFixture(t, nil)

	body := getJSON(t, h.GetFixed, "/api/watchlist/fixed")

	assert.Equal(t, float64(50), body["total"])
	all := body["all"].([]interface{})
	require.Len(t, all, 50)
	assert.True(t, sortedStrings(all))
	bySector := body["by_sector"].(map[string]interface{})
	assert.Len(t, bySector, 7)
}

func TestGetDynamic(t *testing.T) {
	h := watchlistFixture(t, &contracts.Watchlist{
		Tickers:       []string{"PLTR", "COIN"},
		UpdatedAt:     time.Date(2025, 6, 17, 23, 40, 0, 0, market.KST),
		ScreeningMode: contracts.ScreeningModeDynamic,
	})

	body := getJSON(t, h.GetDynamic, "/api/watchlist/dynamic")

	assert.Equal(t, float64(2), body["total"])
	assert.Equal(t, []interface{}{"PLTR", "COIN"}, body["all"])
	assert.Equal(t, "dynamic", body["screening_mode"])
	assert.NotContains(t, body, "error")
}

func TestGetDynamicMissing(t *testing.T) {
	h := watchlistFixture(t, nil)

	body := getJSON(t, h.GetDynamic, "/api/watchlist/dynamic")

	assert.Equal(t, float64(0), body["total"])
	assert.Empty(t, body["all"])
	assert.Equal(t, "Dynamic watchlist not found", body["error"])
}

func TestGetSectors(t *testing.T) {
	h := watchlistFixture(t, nil)

	body := getJSON(t, h.GetSectors, "/api/watchlist/sectors")

	require.Len(t, body, 7)
	energy := body["Energy"].([]interface{})
	assert.Equal(t, []interface{}{"XOM", "CVX"}, energy)
}

func sortedStrings(values []interface{}) bool {
	for i := 1; i < len(values); i++ {
		if values[i-1].(string) > values[i].(string) {
			return false
		}
	}
	return true
}
