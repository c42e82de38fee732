package watchlist

import "github.com/wonny/breakout/backend/internal/contracts"

// fixedGroups is the hand-picked fixed watchlist: 50 large S&P 500
// names grouped by sector. Slice order is presentation order.
// ⭐ SSOT: 고정 워치리스트는 여기서만
var fixedGroups = []contracts.SectorGroup{
	{Sector: "Tech", Tickers: []string{
		"AAPL", "MSFT", "NVDA", "AVGO", "ORCL", "CRM", "CSCO", "ACN", "ADBE", "AMD",
	}},
	{Sector: "Communication", Tickers: []string{
		"GOOGL", "META", "NFLX", "DIS", "CMCSA", "VZ",
	}},
	{Sector: "Consumer", Tickers: []string{
		"AMZN", "TSLA", "HD", "MCD", "COST", "WMT", "PG", "KO", "PEP", "NKE",
	}},
	{Sector: "Financial", Tickers: []string{
		"BRK-B", "JPM", "V", "MA", "BAC", "WFC", "GS", "MS", "BLK",
	}},
	{Sector: "Healthcare", Tickers: []string{
		"UNH", "JNJ", "LLY", "MRK", "ABBV", "TMO", "ABT", "PFE",
	}},
	{Sector: "Energy", Tickers: []string{
		"XOM", "CVX",
	}},
	{Sector: "Industrial", Tickers: []string{
		"GE", "CAT", "UNP", "RTX", "HON",
	}},
}

// FixedGroups returns the fixed watchlist grouped by sector
func FixedGroups() []contracts.SectorGroup {
	return fixedGroups
}

// Fixed returns every fixed ticker in group order
func Fixed() []string {
	var all []string
	for _, g := range fixedGroups {
		all = append(all, g.Tickers...)
	}
	return all
}
