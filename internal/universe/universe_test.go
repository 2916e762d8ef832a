package universe

import (
	"testing"

	"github.com/equitylens/backend/internal/contracts"
)

func TestPeersForSector(t *testing.T) {
	if got := PeersForSector("Financial Services", false); got[0] != "JPM" {
		t.Errorf("financial services peers = %v", got)
	}
	if got := PeersForSector("financialservices", true); got[0] != "HDFCBANK.NS" {
		t.Errorf("india financial peers = %v", got)
	}
	if got := PeersForSector("no-such-sector", false); got[0] != "AAPL" {
		t.Errorf("fallback peers = %v", got)
	}
	if got := PeersForSector("", true); got[0] != "RELIANCE.NS" {
		t.Errorf("india fallback peers = %v", got)
	}
}

func TestParsePipeTable(t *testing.T) {
	text := "Symbol|Security Name|Test Issue\n" +
		"AAPL|Apple Inc.|N\n" +
		"ZTST|Test Listing|Y\n" +
		"File Creation Time: 0101202522:00\n"

	rows := parsePipeTable(text)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2 (creation-time line skipped)", len(rows))
	}
	if rows[0]["Symbol"] != "AAPL" || rows[0]["Security Name"] != "Apple Inc." {
		t.Errorf("row = %v", rows[0])
	}

	listings := parseNasdaq(rows)
	if len(listings) != 1 {
		t.Fatalf("listings = %d, want 1 (test issue skipped)", len(listings))
	}
	if listings[0].Exchange != "NASDAQ" {
		t.Errorf("exchange = %q", listings[0].Exchange)
	}
}

func TestParseOther_ExchangeMapping(t *testing.T) {
	rows := []map[string]string{
		{"ACT Symbol": "BRK-B", "Security Name": "Berkshire Hathaway", "Exchange": "N", "Test Issue": "N"},
		{"CQS Symbol": "XYZ", "Security Name": "", "Exchange": "X", "Test Issue": "N"},
	}

	listings := parseOther(rows)
	if len(listings) != 2 {
		t.Fatalf("listings = %d, want 2", len(listings))
	}
	if listings[0].Exchange != "NYSE" {
		t.Errorf("exchange = %q, want NYSE", listings[0].Exchange)
	}
	// Unknown code passes through; empty name falls back to the symbol.
	if listings[1].Exchange != "X" || listings[1].Name != "XYZ" {
		t.Errorf("listing = %+v", listings[1])
	}
}

func TestMergeSearchResults(t *testing.T) {
	providerResults := []contracts.SearchResult{
		{Symbol: "AAPL", Name: "Apple Inc.", Source: "yahoo"},
		{Symbol: "APLE", Name: "Apple Hospitality REIT", Source: "yahoo"},
	}
	directoryResults := []contracts.SearchResult{
		{Symbol: "AAPL", Name: "Apple Inc.", Source: "directory"},
		{Symbol: "APPF", Name: "AppFolio", Source: "directory"},
	}

	got := MergeSearchResults("AAPL", providerResults, directoryResults)

	if len(got) != 3 {
		t.Fatalf("results = %d, want 3 after dedup", len(got))
	}
	if got[0].Symbol != "AAPL" || got[0].Score != scoreExactSymbol {
		t.Errorf("top result = %+v, want exact AAPL match", got[0])
	}
	// The first-seen source wins at equal score.
	if got[0].Source != "yahoo" {
		t.Errorf("source = %q, want yahoo", got[0].Source)
	}
}

func TestMergeSearchResults_PrefixBeatsName(t *testing.T) {
	got := MergeSearchResults("MS",
		[]contracts.SearchResult{
			{Symbol: "MSFT", Name: "Microsoft"},
			{Symbol: "GS", Name: "MS Goldman?"},
		},
	)

	if got[0].Symbol != "MSFT" {
		t.Errorf("top = %q, want MSFT (prefix match outranks name match)", got[0].Symbol)
	}
}

func TestHeatmapSymbolsDistinct(t *testing.T) {
	seen := map[string]bool{}
	for _, s := range HeatmapSymbols {
		if seen[s] {
			t.Errorf("duplicate heatmap symbol %q", s)
		}
		seen[s] = true
	}
	if len(HeatmapSymbols) < 40 {
		t.Errorf("heatmap universe unexpectedly small: %d", len(HeatmapSymbols))
	}
}
