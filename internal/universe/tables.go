// Package universe holds the static symbol tables and the exchange
// directory used for default screener universes, peer lookups, the market
// heatmap, and symbol search.
package universe

// SectorPeers maps a normalized sector key to liquid US peer symbols.
var SectorPeers = map[string][]string{
	"technology":            {"MSFT", "NVDA", "GOOGL", "META", "ORCL", "CRM", "ADBE", "INTC"},
	"communicationservices": {"GOOGL", "META", "NFLX", "DIS", "TMUS", "VZ", "T", "CHTR"},
	"consumercyclical":      {"AMZN", "TSLA", "HD", "MCD", "NKE", "BKNG", "SBUX", "LOW"},
	"consumerdefensive":     {"WMT", "COST", "PG", "KO", "PEP", "PM", "CL", "MDLZ"},
	"healthcare":            {"UNH", "JNJ", "LLY", "PFE", "MRK", "ABT", "TMO", "DHR"},
	"financialservices":     {"JPM", "BAC", "WFC", "MS", "GS", "V", "MA", "AXP"},
	"industrials":           {"GE", "CAT", "HON", "UPS", "BA", "DE", "LMT", "RTX"},
	"energy":                {"XOM", "CVX", "COP", "SLB", "EOG", "MPC", "PSX", "OXY"},
	"realestate":            {"AMT", "PLD", "CCI", "EQIX", "SPG", "O", "WELL", "DLR"},
	"utilities":             {"NEE", "SO", "DUK", "AEP", "D", "XEL", "SRE", "EXC"},
	"basicmaterials":        {"LIN", "APD", "NEM", "FCX", "ECL", "SHW", "NUE", "DOW"},
}

// IndiaSectorPeers covers NSE-listed symbols for .NS-suffixed lookups.
var IndiaSectorPeers = map[string][]string{
	"technology":            {"TCS.NS", "INFY.NS", "HCLTECH.NS", "WIPRO.NS", "TECHM.NS", "LTIM.NS"},
	"financialservices":     {"HDFCBANK.NS", "ICICIBANK.NS", "KOTAKBANK.NS", "AXISBANK.NS", "SBIN.NS", "BAJFINANCE.NS"},
	"energy":                {"RELIANCE.NS", "ONGC.NS", "IOC.NS", "BPCL.NS", "HINDPETRO.NS", "GAIL.NS"},
	"consumercyclical":      {"MARUTI.NS", "TATAMOTORS.NS", "M&M.NS", "EICHERMOT.NS", "TRENT.NS"},
	"consumerdefensive":     {"ITC.NS", "HINDUNILVR.NS", "NESTLEIND.NS", "DABUR.NS", "BRITANNIA.NS"},
	"healthcare":            {"SUNPHARMA.NS", "DRREDDY.NS", "CIPLA.NS", "DIVISLAB.NS", "APOLLOHOSP.NS"},
	"industrials":           {"LT.NS", "SIEMENS.NS", "ABB.NS", "HAL.NS", "BEL.NS"},
	"utilities":             {"NTPC.NS", "POWERGRID.NS", "TATAPOWER.NS", "ADANIPOWER.NS"},
	"basicmaterials":        {"ULTRACEMCO.NS", "JSWSTEEL.NS", "TATASTEEL.NS", "HINDALCO.NS", "GRASIM.NS"},
	"communicationservices": {"BHARTIARTL.NS", "TATACOMM.NS", "INDUSTOWER.NS"},
}

// FallbackPeers are used when a sector has no table entry.
var FallbackPeers = []string{"AAPL", "MSFT", "NVDA", "GOOGL", "AMZN", "META", "JPM", "V", "WMT", "XOM"}

// FallbackPeersIndia is the NSE equivalent of FallbackPeers.
var FallbackPeersIndia = []string{
	"RELIANCE.NS", "TCS.NS", "HDFCBANK.NS", "ICICIBANK.NS", "INFY.NS",
	"ITC.NS", "LT.NS", "SBIN.NS", "BHARTIARTL.NS", "HINDUNILVR.NS",
}

// HeatmapSymbols are the large-cap names behind the market heatmap and the
// default screener universe, roughly ordered by market cap.
var HeatmapSymbols = []string{
	"AAPL", "MSFT", "NVDA", "AMZN", "GOOGL", "META", "TSLA", "BRK-B",
	"JPM", "V", "WMT", "XOM", "LLY", "AVGO", "MA", "UNH",
	"JNJ", "PG", "COST", "HD", "MRK", "ABBV", "PEP", "KO",
	"CVX", "BAC", "WFC", "ADBE", "CRM", "NFLX", "ORCL", "AMD",
	"QCOM", "INTC", "CSCO", "IBM", "TXN", "AMAT", "GE", "CAT",
	"RTX", "LMT", "NKE", "MCD", "SBUX", "LOW", "PM", "COP",
	"PFE", "DHR", "ABT", "SPGI", "BLK", "GS", "MS", "C",
	"T", "VZ", "DIS", "UBER", "SHOP", "NOW", "PLTR", "PANW",
	"MU", "SNPS", "AMGN", "ISRG", "GILD", "BKNG", "ADI", "MDLZ",
	"DE", "ETN", "NEE", "SO", "DUK", "AEP",
}

// PeersForSector resolves the peer list for a sector, routing .NS symbols
// to the India tables. The key match is case and separator insensitive.
func PeersForSector(sector string, india bool) []string {
	key := normalizeKey(sector)
	if india {
		if peers, ok := IndiaSectorPeers[key]; ok {
			return peers
		}
		return FallbackPeersIndia
	}
	if peers, ok := SectorPeers[key]; ok {
		return peers
	}
	return FallbackPeers
}

func normalizeKey(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		}
	}
	return string(out)
}
