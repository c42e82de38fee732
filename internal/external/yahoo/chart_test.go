package yahoo

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleChartJSON = `{
  "chart": {
    "result": [
      {
        "meta": {"symbol": "AAPL", "currency": "USD"},
        "timestamp": [1709519400, 1709605800, 1709692200, 1709778600],
        "indicators": {
          "quote": [
            {
              "open":   [170.0, 171.5, null, 173.0],
              "high":   [172.0, 173.0, null, 175.5],
              "low":    [169.5, 170.8, null, 172.2],
              "close":  [171.2, 172.4, null, 175.1],
              "volume": [52000000, 48000000, null, 61000000]
            }
          ]
        }
      }
    ],
    "error": null
  }
}`

func TestParseChart(t *testing.T) {
	var parsed chartResponse
	require.NoError(t, json.Unmarshal([]byte(sampleChartJSON), &parsed))

	bars, err := parseChart(&parsed, "AAPL")
	require.NoError(t, err)

	// The null session is dropped
	require.Len(t, bars, 3)

	assert.Equal(t, 171.2, bars[0].Close)
	assert.Equal(t, int64(52000000), bars[0].Volume)
	assert.Equal(t, 169.5, bars[0].Low)

	last, ok := bars.Last()
	require.True(t, ok)
	assert.Equal(t, 175.1, last.Close)
	assert.Equal(t, 172.2, last.Low)

	// Dates are chronological
	assert.True(t, bars[0].Date.Before(bars[1].Date))
}

func TestParseChart_APIError(t *testing.T) {
	payload := `{"chart": {"result": null, "error": {"code": "Not Found", "description": "No data found, symbol may be delisted"}}}`

	var parsed chartResponse
	require.NoError(t, json.Unmarshal([]byte(payload), &parsed))

	_, err := parseChart(&parsed, "NOPE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Not Found")
}

func TestParseChart_EmptyResult(t *testing.T) {
	payload := `{"chart": {"result": [], "error": null}}`

	var parsed chartResponse
	require.NoError(t, json.Unmarshal([]byte(payload), &parsed))

	_, err := parseChart(&parsed, "AAPL")
	assert.Error(t, err)
}
