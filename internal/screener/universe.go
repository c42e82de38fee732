package screener

// Candidate pools for dynamic screening. Large S&P 500 and NASDAQ 100
// names, maintained by hand; the screener filters these down rather
// than crawling index membership.
// ⭐ SSOT: 스크리닝 후보군은 여기서만

var sp500Tickers = []string{
	// Tech
	"AAPL", "MSFT", "NVDA", "GOOGL", "GOOG", "AMZN", "META", "TSLA", "AVGO", "ORCL",
	"CRM", "AMD", "ADBE", "CSCO", "ACN", "IBM", "INTC", "TXN", "QCOM", "AMAT",
	"INTU", "MU", "ADI", "LRCX", "KLAC", "SNPS", "CDNS", "MCHP", "FTNT", "PANW",
	// Finance
	"JPM", "BAC", "WFC", "GS", "MS", "BLK", "C", "SCHW", "AXP", "SPGI",
	"BX", "CB", "PGR", "MMC", "ICE", "CME", "AON", "MCO", "TFC", "USB",
	// Healthcare
	"LLY", "UNH", "JNJ", "ABBV", "MRK", "TMO", "ABT", "DHR", "PFE", "BMY",
	"AMGN", "CVS", "ELV", "MDT", "GILD", "CI", "REGN", "ISRG", "VRTX", "ZTS",
	// Consumer
	"WMT", "HD", "MCD", "COST", "NKE", "SBUX", "TJX", "LOW", "TGT", "DG",
	"BKNG", "ABNB", "MAR", "CMG", "YUM", "ORLY", "AZO", "ROST", "EBAY", "ETSY",
	// Industrial
	"GE", "CAT", "HON", "UNP", "RTX", "BA", "LMT", "DE", "UPS", "MMM",
	"GD", "NOC", "FDX", "NSC", "CSX", "EMR", "ETN", "PH", "ITW", "CARR",
	// Energy
	"XOM", "CVX", "COP", "SLB", "EOG", "MPC", "PSX", "VLO", "OXY", "HAL",
	// Communication/Media
	"TMUS", "T", "VZ", "NFLX", "DIS", "CMCSA", "CHTR", "PARA", "WBD", "FOXA",
	// Other
	"BRK-B", "V", "MA", "PM", "PG", "KO", "PEP", "MO", "CL", "MDLZ",
}

var nasdaq100Tickers = []string{
	"AAPL", "MSFT", "NVDA", "GOOGL", "GOOG", "AMZN", "META", "TSLA", "AVGO", "COST",
	"NFLX", "AMD", "PEP", "ADBE", "CSCO", "TMUS", "CMCSA", "INTC", "INTU", "TXN",
	"QCOM", "AMGN", "HON", "SBUX", "AMAT", "BKNG", "ISRG", "GILD", "ADI", "VRTX",
	"ADP", "REGN", "MDLZ", "PANW", "MU", "LRCX", "PYPL", "SNPS", "KLAC", "CDNS",
	"MELI", "CRWD", "ABNB", "MAR", "FTNT", "ORLY", "CSX", "MRVL", "DASH", "ADSK",
	"NXPI", "WDAY", "AZN", "CPRT", "MNST", "PCAR", "ROP", "PAYX", "ROST", "FAST",
	"ODFL", "AEP", "BKR", "EA", "CTSH", "XEL", "DXCM", "VRSK", "GEHC", "EXC",
	"CTAS", "CHTR", "IDXX", "KDP", "MCHP", "KHC", "CCEP", "TTWO", "FANG", "ZS",
	"DDOG", "ANSS", "TTD", "ON", "CDW", "BIIB", "GFS", "ILMN", "WBD", "MDB",
	"MRNA", "WBA", "TEAM", "ALGN", "ZM", "LCID", "RIVN",
}

// Universe returns the combined candidate pool with duplicates removed.
// S&P 500 order first, then NASDAQ-only names, so screening order is
// deterministic run to run.
func Universe() []string {
	seen := make(map[string]bool, len(sp500Tickers)+len(nasdaq100Tickers))
	universe := make([]string, 0, len(sp500Tickers)+len(nasdaq100Tickers))
	for _, pool := range [][]string{sp500Tickers, nasdaq100Tickers} {
		for _, t := range pool {
			if !seen[t] {
				seen[t] = true
				universe = append(universe, t)
			}
		}
	}
	return universe
}
