package screener

import (
	"context"
	"testing"
	"time"

	"github.com/equitylens/backend/internal/contracts"
	"github.com/equitylens/backend/internal/quant"
	"github.com/equitylens/backend/pkg/config"
	"github.com/equitylens/backend/pkg/logger"
)

func testConfig() config.ScreenerConfig {
	return config.ScreenerConfig{
		MaxConcurrency:    4,
		SymbolTimeout:     2 * time.Second,
		InsiderTimeout:    500 * time.Millisecond,
		StatementsTimeout: 500 * time.Millisecond,
		BatchTimeoutMin:   2 * time.Second,
		BatchTimeoutMax:   4 * time.Second,
	}
}

func testLogger() *logger.Logger {
	return logger.New(&config.Config{LogLevel: "error", LogFormat: "json", Env: "development"})
}

// fakeProvider serves deterministic synthetic data. delay simulates slow
// upstreams for timeout tests.
type fakeProvider struct {
	delay   time.Duration
	roe     float64
	insider *contracts.InsiderActivity
}

func (f *fakeProvider) Name() string { return "fake" }
func (f *fakeProvider) Ready() bool  { return true }

func (f *fakeProvider) wait(ctx context.Context) error {
	if f.delay == 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(f.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeProvider) Quote(ctx context.Context, symbol string) (*contracts.Quote, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return &contracts.Quote{
		Symbol:    symbol,
		Name:      symbol + " Corp",
		Price:     quant.Ptr(100),
		MarketCap: quant.Ptr(5e10),
		PERatio:   quant.Ptr(18),
	}, nil
}

func (f *fakeProvider) Profile(ctx context.Context, symbol string) (*contracts.Profile, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	return &contracts.Profile{
		Symbol:        symbol,
		Sector:        "Technology",
		ROE:           quant.Ptr(f.roe),
		DebtToEquity:  quant.Ptr(0.5),
		RevenueGrowth: quant.Ptr(0.08),
	}, nil
}

func (f *fakeProvider) History(ctx context.Context, symbol, rng, interval string) ([]contracts.PriceBar, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]contracts.PriceBar, 260)
	price := 80.0
	for i := range bars {
		price *= 1.001
		bars[i] = contracts.PriceBar{Date: start.AddDate(0, 0, i), Close: price, Volume: 1_000_000}
	}
	return bars, nil
}

func (f *fakeProvider) Financials(ctx context.Context, symbol string) (*contracts.StatementBundle, error) {
	return nil, nil
}

func (f *fakeProvider) Search(ctx context.Context, query string) ([]contracts.SearchResult, error) {
	return nil, nil
}

func (f *fakeProvider) InsiderActivity(ctx context.Context, symbol string) (*contracts.InsiderActivity, error) {
	return f.insider, nil
}

func TestRun_MinROEEliminationAccounting(t *testing.T) {
	provider := &fakeProvider{roe: 0.10}
	s := New(provider, testLogger(), testConfig(), 0.21)

	result, err := s.Run(context.Background(), contracts.ScreenerRequest{
		Symbols: []string{"AAA", "BBB", "CCC"},
		Filters: contracts.ScreenerFilters{MinROE: quant.Ptr(0.5)},
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Items) != 0 {
		t.Errorf("items = %d, want 0", len(result.Items))
	}
	if got := result.Meta.EliminationCounts["min_roe"]; got != 3 {
		t.Errorf("min_roe eliminations = %d, want 3", got)
	}
	if result.Meta.EvaluatedSymbols != 3 {
		t.Errorf("evaluated = %d, want 3", result.Meta.EvaluatedSymbols)
	}
	if len(result.Meta.RelaxationSuggestions) == 0 {
		t.Error("expected a relaxation suggestion for the dominant eliminator")
	}
}

func TestRun_PassingSymbolsAreRanked(t *testing.T) {
	provider := &fakeProvider{roe: 0.25}
	s := New(provider, testLogger(), testConfig(), 0.21)

	result, err := s.Run(context.Background(), contracts.ScreenerRequest{
		Symbols: []string{"AAA", "BBB"},
		Filters: contracts.ScreenerFilters{MinROE: quant.Ptr(0.10)},
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(result.Items))
	}
	for i, row := range result.Items {
		if row.CompositeRank != i+1 {
			t.Errorf("rank[%d] = %d", i, row.CompositeRank)
		}
		if row.Score <= scoreBase {
			t.Errorf("score = %v, want above base for a passing quality name", row.Score)
		}
		if row.RSI14 == nil || row.Volatility == nil {
			t.Error("technicals missing from a passing row")
		}
	}
	if result.Meta.TimedOut || result.Meta.Partial {
		t.Errorf("meta = %+v, want complete run", result.Meta)
	}
}

func TestRun_TimeoutProducesPartialResult(t *testing.T) {
	provider := &fakeProvider{roe: 0.25, delay: 400 * time.Millisecond}
	cfg := testConfig()
	cfg.MaxConcurrency = 1
	cfg.BatchTimeoutMin = 600 * time.Millisecond
	cfg.BatchTimeoutMax = 700 * time.Millisecond
	s := New(provider, testLogger(), cfg, 0.21)

	symbols := []string{"AAA", "BBB", "CCC", "DDD", "EEE", "FFF", "GGG", "HHH"}
	result, err := s.Run(context.Background(), contracts.ScreenerRequest{Symbols: symbols})
	if err != nil {
		t.Fatal(err)
	}

	if !result.Meta.TimedOut {
		t.Error("expected timed_out")
	}
	if result.Meta.EvaluatedSymbols >= result.Meta.RequestedSymbols {
		t.Errorf("evaluated %d of %d, expected a partial batch", result.Meta.EvaluatedSymbols, result.Meta.RequestedSymbols)
	}
	if !result.Meta.Partial {
		t.Error("expected partial flag")
	}
	// Whatever rows returned must be fully formed.
	for _, row := range result.Items {
		if row.Price == nil || row.CompositeRank == 0 {
			t.Errorf("partially computed row leaked: %+v", row)
		}
	}
}

func TestFillTechnicals_VolumeSpike(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]contracts.PriceBar, 260)
	price := 80.0
	for i := range bars {
		price *= 1.001
		bars[i] = contracts.PriceBar{Date: start.AddDate(0, 0, i), Close: price, Volume: 1_000_000}
	}

	quiet := &contracts.ScreenerRow{Symbol: "X"}
	fillTechnicals(quiet, bars, nil)
	if quiet.VolumeSpike {
		t.Error("flat volume should not register a spike")
	}

	bars[len(bars)-1].Volume = 3_000_000
	spiked := &contracts.ScreenerRow{Symbol: "X"}
	fillTechnicals(spiked, bars, nil)
	if !spiked.VolumeSpike {
		t.Error("3x the trailing average volume should register a spike")
	}
}

func TestEnrichInsider_SetsBuyingFlag(t *testing.T) {
	buying := &evaluator{
		provider: &fakeProvider{insider: &contracts.InsiderActivity{Symbol: "AAA", BuyCount: 4, SellCount: 1}},
		logger:   testLogger(),
		cfg:      testConfig(),
	}
	row := &contracts.ScreenerRow{Symbol: "AAA"}
	buying.enrichInsider(context.Background(), "AAA", row)
	if !row.InsiderBuying {
		t.Error("net insider buying should set the flag")
	}

	selling := &evaluator{
		provider: &fakeProvider{insider: &contracts.InsiderActivity{Symbol: "BBB", BuyCount: 1, SellCount: 5}},
		logger:   testLogger(),
		cfg:      testConfig(),
	}
	row = &contracts.ScreenerRow{Symbol: "BBB"}
	selling.enrichInsider(context.Background(), "BBB", row)
	if row.InsiderBuying {
		t.Error("net insider selling should leave the flag unset")
	}
}

func TestApplyFilters_MissingDataRejects(t *testing.T) {
	row := &contracts.ScreenerRow{Symbol: "X"}
	filters := &contracts.ScreenerFilters{MaxPE: quant.Ptr(20.0)}

	if got := applyFilters(filters, row); got != "max_pe" {
		t.Errorf("reason = %q, want max_pe when PE is unknown", got)
	}
}

func TestApplyFilters_RateNormalization(t *testing.T) {
	// ROE arrives as a percentage, the filter as a fraction.
	row := &contracts.ScreenerRow{Symbol: "X", ROE: quant.Ptr(18)}
	filters := &contracts.ScreenerFilters{MinROE: quant.Ptr(0.15)}

	if got := applyFilters(filters, row); got != "" {
		t.Errorf("reason = %q, want pass (18%% >= 15%%)", got)
	}

	filters.MinROE = quant.Ptr(0.25)
	if got := applyFilters(filters, row); got != "min_roe" {
		t.Errorf("reason = %q, want min_roe", got)
	}
}

func TestScoreRow_ClampedContributions(t *testing.T) {
	row := &contracts.ScreenerRow{
		ROE: quant.Ptr(0.5), // 50% ROE, 0.5*120 clamps at 14
	}
	scoreRow(row)

	if row.Breakdown.Quality != 14 {
		t.Errorf("quality = %v, want clamped 14", row.Breakdown.Quality)
	}
	if row.Breakdown.Base != scoreBase {
		t.Errorf("base = %v", row.Breakdown.Base)
	}
	if row.Score != scoreBase+14 {
		t.Errorf("score = %v", row.Score)
	}
}

func TestRankRows_PercentileAndVolatilityFilter(t *testing.T) {
	rows := []contracts.ScreenerRow{
		{Symbol: "A", Score: 50, Volatility: quant.Ptr(0.20)},
		{Symbol: "B", Score: 40, Volatility: quant.Ptr(0.60)},
		{Symbol: "C", Score: 30, Volatility: quant.Ptr(0.40)},
	}
	eliminations := map[string]int{}
	filters := &contracts.ScreenerFilters{MaxVolatilityPercentile: quant.Ptr(50.0)}

	ranked := rankRows(rows, filters, eliminations)

	if len(ranked) != 2 {
		t.Fatalf("rows = %d, want 2 after the percentile filter", len(ranked))
	}
	if eliminations["max_volatility_percentile"] != 1 {
		t.Errorf("eliminations = %v", eliminations)
	}
	if ranked[0].Symbol != "A" || ranked[0].CompositeRank != 1 {
		t.Errorf("top row = %+v", ranked[0])
	}
	if ranked[0].PercentileRank != 100 {
		t.Errorf("top percentile = %v, want 100", ranked[0].PercentileRank)
	}
}

func TestNormalizeSymbols(t *testing.T) {
	got := normalizeSymbols([]string{" aapl", "AAPL", "msft ", ""})
	if len(got) != 2 || got[0] != "AAPL" || got[1] != "MSFT" {
		t.Errorf("normalized = %v", got)
	}
}

func TestBatchTimeout_Scaling(t *testing.T) {
	s := New(&fakeProvider{}, testLogger(), testConfig(), 0.21)

	small := s.batchTimeout(5, false)
	large := s.batchTimeout(100, false)
	if small >= large {
		t.Errorf("timeout should grow with batch size: %v vs %v", small, large)
	}
	if large != testConfig().BatchTimeoutMax {
		t.Errorf("large batch timeout = %v, want max %v", large, testConfig().BatchTimeoutMax)
	}
}

func TestPresets(t *testing.T) {
	presets := Presets()
	for _, name := range []string{"safe-compounders", "value-hunters", "high-growth"} {
		req, ok := presets[name]
		if !ok {
			t.Fatalf("preset %q missing", name)
		}
		if req.Limit == 0 {
			t.Errorf("preset %q has no limit", name)
		}
	}
	compounders := presets["safe-compounders"]
	if !compounders.Filters.NeedsStatements() {
		t.Error("safe-compounders should require statement enrichment")
	}
}
