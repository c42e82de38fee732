package yahoo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAbbreviatedNumber(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		wantErr bool
	}{
		{"3.43T", 3.43e12, false},
		{"687.5B", 687.5e9, false},
		{"52.1M", 52.1e6, false},
		{"900K", 900e3, false},
		{"123456", 123456, false},
		{"1,234,567", 1234567, false},
		{" 2.5B ", 2.5e9, false},
		{"N/A", 0, true},
		{"--", 0, true},
		{"", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseAbbreviatedNumber(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, tt.want*1e-9)
		})
	}
}

const sampleQuoteHTML = `<html><body>
<section>
  <fin-streamer data-field="regularMarketPrice" data-symbol="AAPL" data-value="185.43">185.43</fin-streamer>
  <fin-streamer data-field="regularMarketChange" data-value="1.25">+1.25</fin-streamer>
  <fin-streamer data-field="marketCap" data-value="2891000000000">2.891T</fin-streamer>
</section>
</body></html>`

const sampleQuoteHTMLTextOnly = `<html><body>
<fin-streamer data-field="regularMarketPrice">42.17</fin-streamer>
<fin-streamer data-field="marketCap">650.2B</fin-streamer>
</body></html>`

func TestParseProfileHTML(t *testing.T) {
	profile, err := parseProfileHTML(sampleQuoteHTML, "AAPL")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", profile.Ticker)
	assert.Equal(t, 185.43, profile.Price)
	assert.Equal(t, 2.891e12, profile.MarketCap)
}

func TestParseProfileHTML_TextFallback(t *testing.T) {
	profile, err := parseProfileHTML(sampleQuoteHTMLTextOnly, "PLTR")
	require.NoError(t, err)

	assert.Equal(t, 42.17, profile.Price)
	assert.InDelta(t, 650.2e9, profile.MarketCap, 1)
}

func TestParseProfileHTML_MissingPrice(t *testing.T) {
	_, err := parseProfileHTML("<html><body>nothing here</body></html>", "AAPL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "price not found")
}

func TestParseProfileHTML_MissingMarketCap(t *testing.T) {
	html := `<fin-streamer data-field="regularMarketPrice" data-value="10.5">10.50</fin-streamer>`
	profile, err := parseProfileHTML(html, "ETF")
	require.NoError(t, err)

	assert.Equal(t, 10.5, profile.Price)
	assert.Equal(t, 0.0, profile.MarketCap)
}
