package stocks

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equitylens/backend/internal/contracts"
	"github.com/equitylens/backend/internal/quant"
	"github.com/equitylens/backend/internal/valuation"
	"github.com/equitylens/backend/pkg/config"
	"github.com/equitylens/backend/pkg/logger"
)

type fakeSource struct {
	quotes   map[string]*contracts.Quote
	profiles map[string]*contracts.Profile
	searches []contracts.SearchResult
	quoteErr error
}

func (f *fakeSource) QuoteWithMeta(ctx context.Context, symbol string) (*contracts.Quote, contracts.SourceMeta, error) {
	if f.quoteErr != nil {
		return nil, contracts.SourceMeta{}, f.quoteErr
	}
	q, ok := f.quotes[symbol]
	if !ok {
		return nil, contracts.SourceMeta{}, fmt.Errorf("no quote for %s", symbol)
	}
	return q, contracts.SourceMeta{Source: "fake"}, nil
}

func (f *fakeSource) ProfileWithMeta(ctx context.Context, symbol string) (*contracts.Profile, contracts.SourceMeta, error) {
	p, ok := f.profiles[symbol]
	if !ok {
		return nil, contracts.SourceMeta{}, fmt.Errorf("no profile for %s", symbol)
	}
	return p, contracts.SourceMeta{Source: "fake"}, nil
}

func (f *fakeSource) HistoryWithMeta(ctx context.Context, symbol, rng, interval string) ([]contracts.PriceBar, contracts.SourceMeta, error) {
	return nil, contracts.SourceMeta{}, fmt.Errorf("no history for %s", symbol)
}

func (f *fakeSource) FinancialsWithMeta(ctx context.Context, symbol string) (*contracts.StatementBundle, contracts.SourceMeta, error) {
	return nil, contracts.SourceMeta{}, fmt.Errorf("no financials for %s", symbol)
}

func (f *fakeSource) SearchWithMeta(ctx context.Context, query string) ([]contracts.SearchResult, contracts.SourceMeta, error) {
	return f.searches, contracts.SourceMeta{Source: "fake"}, nil
}

func testService(data DataSource) *Service {
	log := logger.New(&config.Config{LogLevel: "error", LogFormat: "json", Env: "development"})
	return NewService(data, nil, nil, log, valuation.DefaultAssumptions())
}

func TestScorePeer_IndustryAndSectorMatch(t *testing.T) {
	company := identity{
		sectorKey:   "technology",
		industryKey: "semiconductors",
		marketCap:   quant.Ptr(1e12),
	}
	row := PeerRow{
		Symbol:        "AVGO",
		Sector:        "Technology",
		Industry:      "Semiconductors",
		MarketCap:     quant.Ptr(1e12),
		PE:            quant.Ptr(30.0),
		ROE:           quant.Ptr(0.28),
		RevenueGrowth: quant.Ptr(0.12),
	}
	scorePeer(&row, company)

	// 45 industry + 30 sector + 25 cap proximity + 4 fields at 3 each.
	assert.InDelta(t, 112.0, row.SimilarityScore, 0.01)
	require.NotNil(t, row.IndustryMatch)
	assert.True(t, *row.IndustryMatch)
	require.NotNil(t, row.SectorMatch)
	assert.True(t, *row.SectorMatch)
	require.NotNil(t, row.MarketCapDistancePercent)
	assert.InDelta(t, 0.0, *row.MarketCapDistancePercent, 0.01)
}

func TestScorePeer_CapDistanceDecaysAndClamps(t *testing.T) {
	company := identity{marketCap: quant.Ptr(1e11)}

	near := PeerRow{Symbol: "NEAR", MarketCap: quant.Ptr(1.5e11)}
	scorePeer(&near, company)
	require.NotNil(t, near.MarketCapDistancePercent)
	assert.InDelta(t, 50.0, *near.MarketCapDistancePercent, 0.01)
	// 25 - 50/10 cap points + 3 for the market cap field.
	assert.InDelta(t, 23.0, near.SimilarityScore, 0.01)

	far := PeerRow{Symbol: "FAR", MarketCap: quant.Ptr(5e12)}
	scorePeer(&far, company)
	// Distance clamps at 250 so the cap contribution floors at zero.
	assert.InDelta(t, 3.0, far.SimilarityScore, 0.01)
}

func TestScorePeer_MissingDataLeavesMatchesNil(t *testing.T) {
	row := PeerRow{Symbol: "XYZ"}
	scorePeer(&row, identity{})

	assert.Nil(t, row.SectorMatch)
	assert.Nil(t, row.IndustryMatch)
	assert.Nil(t, row.MarketCapDistancePercent)
	assert.Zero(t, row.SimilarityScore)
}

func TestRankPeers_OrderAndBenchmarkRanks(t *testing.T) {
	rows := []PeerRow{
		{Symbol: "CCC", SimilarityScore: 50},
		{Symbol: "AAA", SimilarityScore: 80, MarketCapDistancePercent: quant.Ptr(40.0)},
		{Symbol: "BBB", SimilarityScore: 80, MarketCapDistancePercent: quant.Ptr(10.0)},
		{Symbol: "DDD", SimilarityScore: 80},
	}
	rankPeers(rows)

	// Ties break on cap proximity, unknown distance sorts last, then symbol.
	assert.Equal(t, "BBB", rows[0].Symbol)
	assert.Equal(t, "AAA", rows[1].Symbol)
	assert.Equal(t, "DDD", rows[2].Symbol)
	assert.Equal(t, "CCC", rows[3].Symbol)
	assert.Equal(t, 1, rows[0].BenchmarkRank)
	assert.Equal(t, 4, rows[3].BenchmarkRank)
}

func TestIndiaSuffixRouting(t *testing.T) {
	assert.Equal(t, ".NS", indiaSuffix("RELIANCE.NS"))
	assert.Equal(t, ".BO", indiaSuffix("tatasteel.bo"))
	assert.Equal(t, "", indiaSuffix("AAPL"))
	assert.True(t, isIndiaSymbol("INFY.NS"))
	assert.False(t, isIndiaSymbol("MSFT"))
}

func TestPeerSnapshot_ScoresAndMedians(t *testing.T) {
	source := &fakeSource{
		quotes: map[string]*contracts.Quote{
			"MSFT":  {Symbol: "MSFT", Name: "Microsoft", Price: quant.Ptr(420.0), MarketCap: quant.Ptr(3.1e12), PERatio: quant.Ptr(35.0)},
			"NVDA":  {Symbol: "NVDA", Name: "NVIDIA", Price: quant.Ptr(130.0), MarketCap: quant.Ptr(3.2e12), PERatio: quant.Ptr(65.0)},
			"GOOGL": {Symbol: "GOOGL", Name: "Alphabet", Price: quant.Ptr(180.0), MarketCap: quant.Ptr(2.2e12), PERatio: quant.Ptr(25.0)},
		},
		profiles: map[string]*contracts.Profile{
			"MSFT":  {Symbol: "MSFT", Sector: "Technology", Industry: "Software", ROE: quant.Ptr(0.35)},
			"NVDA":  {Symbol: "NVDA", Sector: "Technology", Industry: "Semiconductors", ROE: quant.Ptr(0.90)},
			"GOOGL": {Symbol: "GOOGL", Sector: "Communication Services", Industry: "Internet Content", ROE: quant.Ptr(0.30)},
		},
	}
	svc := testService(source)

	quote := &contracts.Quote{Symbol: "AAPL", MarketCap: quant.Ptr(3.0e12)}
	profile := &contracts.Profile{Symbol: "AAPL", Sector: "Technology", Industry: "Semiconductors", ROE: quant.Ptr(0.40), TrailingPE: quant.Ptr(32.0)}

	snapshot := svc.peerSnapshot(context.Background(), "AAPL", quote, profile)
	require.NotNil(t, snapshot)
	require.NotEmpty(t, snapshot.Items)

	// NVDA shares both industry and sector so it outranks MSFT.
	assert.Equal(t, "NVDA", snapshot.Items[0].Symbol)
	assert.Equal(t, 1, snapshot.Items[0].BenchmarkRank)
	assert.Greater(t, snapshot.Items[0].SimilarityScore, snapshot.Items[1].SimilarityScore)

	assert.Equal(t, 3, snapshot.Benchmark.PeerCount)
	require.NotNil(t, snapshot.Benchmark.SectorMedianPE)
	assert.InDelta(t, 35.0, *snapshot.Benchmark.SectorMedianPE, 0.01)
	require.NotNil(t, snapshot.Benchmark.CompanyPE)
	assert.InDelta(t, 32.0, *snapshot.Benchmark.CompanyPE, 0.01)
	require.NotNil(t, snapshot.Benchmark.CompanyROE)
	assert.InDelta(t, 0.40, *snapshot.Benchmark.CompanyROE, 0.001)
}

func TestHeatmap_SortsByCapAndCountsBreadth(t *testing.T) {
	quotes := make(map[string]*contracts.Quote)
	quotes["AAPL"] = &contracts.Quote{Symbol: "AAPL", Name: "Apple", Price: quant.Ptr(230.0), ChangePercent: quant.Ptr(1.2), MarketCap: quant.Ptr(3.5e12)}
	quotes["MSFT"] = &contracts.Quote{Symbol: "MSFT", Name: "Microsoft", Price: quant.Ptr(420.0), ChangePercent: quant.Ptr(-0.4), MarketCap: quant.Ptr(3.1e12)}
	quotes["NVDA"] = &contracts.Quote{Symbol: "NVDA", Name: "NVIDIA", Price: quant.Ptr(130.0), ChangePercent: quant.Ptr(2.5), MarketCap: quant.Ptr(3.2e12)}
	quotes["AMZN"] = &contracts.Quote{Symbol: "AMZN", Name: "Amazon", Price: quant.Ptr(190.0), MarketCap: quant.Ptr(2.0e12)}
	svc := testService(&fakeSource{quotes: quotes})

	heatmap, err := svc.Heatmap(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, heatmap.Items, 4)

	assert.Equal(t, "AAPL", heatmap.Items[0].Symbol)
	assert.Equal(t, "NVDA", heatmap.Items[1].Symbol)
	assert.Equal(t, "MSFT", heatmap.Items[2].Symbol)
	assert.Equal(t, "AMZN", heatmap.Items[3].Symbol)

	assert.Equal(t, 2, heatmap.Stats.Advancers)
	assert.Equal(t, 1, heatmap.Stats.Decliners)
	assert.Equal(t, 1, heatmap.Stats.Unchanged)
}

func TestHeatmap_StaticFallbackWhenQuotesFail(t *testing.T) {
	svc := testService(&fakeSource{quoteErr: fmt.Errorf("providers down")})

	heatmap, err := svc.Heatmap(context.Background(), 25)
	require.NoError(t, err)
	require.Len(t, heatmap.Items, 25)

	assert.Nil(t, heatmap.Items[0].Price)
	assert.Equal(t, 25, heatmap.Stats.Unchanged)
	assert.Zero(t, heatmap.Stats.Advancers)
}

func TestHeatmap_LimitClamps(t *testing.T) {
	svc := testService(&fakeSource{quoteErr: fmt.Errorf("providers down")})

	small, err := svc.Heatmap(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, small.Items, heatmapMinLimit)
}

func TestValidHeatmapSymbol(t *testing.T) {
	assert.True(t, validHeatmapSymbol("AAPL"))
	assert.True(t, validHeatmapSymbol("BRK-B"))
	assert.True(t, validHeatmapSymbol("INFY.NS"))
	assert.False(t, validHeatmapSymbol(""))
	assert.False(t, validHeatmapSymbol("1COV"))
	assert.False(t, validHeatmapSymbol("TOO$LONG##"))
	assert.False(t, validHeatmapSymbol("WAYTOOLONGSYM"))
}

func TestSearch_MergesProviderResults(t *testing.T) {
	svc := testService(&fakeSource{
		searches: []contracts.SearchResult{
			{Symbol: "AAPL", Name: "Apple Inc.", Exchange: "NASDAQ", Source: "yahoo"},
			{Symbol: "APLE", Name: "Apple Hospitality", Exchange: "NYSE", Source: "yahoo"},
		},
	})

	results := svc.Search(context.Background(), "AAPL")
	require.NotEmpty(t, results)
	assert.Equal(t, "AAPL", results[0].Symbol)
}
