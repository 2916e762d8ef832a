package contracts

// ScreenerFilters are the hard-reject criteria for a screener run.
// Nil pointer means the filter is inactive. Rate-valued filters accept either
// fractions or percentages; the evaluator normalizes before comparing.
type ScreenerFilters struct {
	MinMarketCap     *float64 `json:"min_market_cap,omitempty"`
	MaxMarketCap     *float64 `json:"max_market_cap,omitempty"`
	MinPrice         *float64 `json:"min_price,omitempty"`
	MaxPrice         *float64 `json:"max_price,omitempty"`
	MaxPE            *float64 `json:"max_pe,omitempty"`
	MinDividendYield *float64 `json:"min_dividend_yield,omitempty"`
	MinROE           *float64 `json:"min_roe,omitempty"`
	MaxDebtToEquity  *float64 `json:"max_debt_to_equity,omitempty"`
	MinRevenueGrowth *float64 `json:"min_revenue_growth,omitempty"`

	// Technical
	MinRSI             *float64 `json:"min_rsi,omitempty"`
	MaxRSI             *float64 `json:"max_rsi,omitempty"`
	MinMomentum6M      *float64 `json:"min_momentum_6m,omitempty"`
	MaxVolatility      *float64 `json:"max_volatility,omitempty"`
	RequireBreakout    bool     `json:"require_breakout,omitempty"`
	RequireVolumeSpike bool     `json:"require_volume_spike,omitempty"`

	// Statement-derived (lazy enrichment)
	MinRevenueCAGR3Y       *float64 `json:"min_revenue_cagr_3y,omitempty"`
	MinEPSCAGR5Y           *float64 `json:"min_eps_cagr_5y,omitempty"`
	MinFCFYield            *float64 `json:"min_fcf_yield,omitempty"`
	MinROIC                *float64 `json:"min_roic,omitempty"`
	MinPiotroski           *int     `json:"min_piotroski,omitempty"`
	RequirePositiveFCF5Y   bool     `json:"require_positive_fcf_5y,omitempty"`
	RequireDebtDecreasing  bool     `json:"require_debt_decreasing,omitempty"`
	MinEarningsConsistency *float64 `json:"min_earnings_consistency,omitempty"`

	// Advanced flags
	MagicFormula       bool `json:"magic_formula,omitempty"`
	LowVolatility      bool `json:"low_volatility,omitempty"`
	HighMomentum       bool `json:"high_momentum,omitempty"`
	DividendAristocrat bool `json:"dividend_aristocrat,omitempty"`
	InsiderBuying      bool `json:"insider_buying,omitempty"`

	// Post-pass
	MaxVolatilityPercentile *float64 `json:"max_volatility_percentile,omitempty"`
}

// NeedsStatements reports whether any active filter requires the
// statement-derived enrichment pass.
func (f *ScreenerFilters) NeedsStatements() bool {
	return f.MinRevenueCAGR3Y != nil ||
		f.MinEPSCAGR5Y != nil ||
		f.MinFCFYield != nil ||
		f.MinROIC != nil ||
		f.MinPiotroski != nil ||
		f.RequirePositiveFCF5Y ||
		f.RequireDebtDecreasing ||
		f.MinEarningsConsistency != nil ||
		f.MagicFormula
}

// NeedsInsider reports whether the insider-activity enrichment is required.
func (f *ScreenerFilters) NeedsInsider() bool {
	return f.InsiderBuying
}

// ScreenerRequest is one screener invocation.
type ScreenerRequest struct {
	Symbols   []string        `json:"symbols,omitempty"`
	Filters   ScreenerFilters `json:"filters"`
	SortBy    string          `json:"sort_by,omitempty"`
	SortOrder string          `json:"sort_order,omitempty"`
	Limit     int             `json:"limit,omitempty"`
}

// ScoreBreakdown is the additive decomposition of a composite score.
type ScoreBreakdown struct {
	Base     float64 `json:"base"`
	Quality  float64 `json:"quality"`
	Growth   float64 `json:"growth"`
	Risk     float64 `json:"risk"`
	Momentum float64 `json:"momentum"`
}

// ScreenerRow is one symbol's evaluation result.
type ScreenerRow struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name,omitempty"`
	Sector   string `json:"sector,omitempty"`
	Industry string `json:"industry,omitempty"`

	// Fundamentals
	Price         *float64 `json:"price"`
	MarketCap     *float64 `json:"market_cap"`
	PERatio       *float64 `json:"pe_ratio"`
	ROE           *float64 `json:"roe"`
	DebtToEquity  *float64 `json:"debt_to_equity"`
	DividendYield *float64 `json:"dividend_yield"`
	RevenueGrowth *float64 `json:"revenue_growth"`

	// Technicals
	RSI14         *float64 `json:"rsi_14"`
	Momentum1M    *float64 `json:"momentum_1m"`
	Momentum6M    *float64 `json:"momentum_6m"`
	Momentum1Y    *float64 `json:"momentum_1y"`
	Volatility    *float64 `json:"volatility"`
	Sharpe        *float64 `json:"sharpe"`
	MaxDrawdown5Y *float64 `json:"max_drawdown_5y,omitempty"`
	Beta63D       *float64 `json:"beta_63d"`
	Breakout      bool     `json:"breakout"`
	VolumeSpike   bool     `json:"volume_spike"`

	// Statement-derived (present only when enrichment ran)
	RevenueCAGR3Y       *float64 `json:"revenue_cagr_3y,omitempty"`
	EPSCAGR5Y           *float64 `json:"eps_cagr_5y,omitempty"`
	FCFYield            *float64 `json:"fcf_yield,omitempty"`
	ROIC                *float64 `json:"roic,omitempty"`
	PiotroskiScore      *int     `json:"piotroski_score,omitempty"`
	FCFPositive5Y       *bool    `json:"fcf_positive_5y,omitempty"`
	DebtDecreasing      *bool    `json:"debt_decreasing,omitempty"`
	EarningsConsistency *float64 `json:"earnings_consistency,omitempty"`
	OperatingLeverage   *bool    `json:"operating_leverage_improving,omitempty"`

	// Advanced flags
	MagicFormula       bool `json:"magic_formula"`
	LowVolatility      bool `json:"low_volatility"`
	HighMomentum       bool `json:"high_momentum"`
	DividendAristocrat bool `json:"dividend_aristocrat"`
	InsiderBuying      bool `json:"insider_buying"`

	// Scoring and ranking (ranks assigned in the post-pass)
	Score                float64        `json:"score"`
	Breakdown            ScoreBreakdown `json:"breakdown"`
	CompositeRank        int            `json:"composite_rank"`
	PercentileRank       float64        `json:"percentile_rank"`
	SectorRank           int            `json:"sector_rank"`
	VolatilityPercentile *float64       `json:"volatility_percentile,omitempty"`
}

// ScreenerMeta describes how a batch run went. A partial result is a valid
// result; callers must consult these flags rather than expect completeness.
type ScreenerMeta struct {
	RequestedSymbols      int            `json:"requested_symbols"`
	EvaluatedSymbols      int            `json:"evaluated_symbols"`
	PassedSymbols         int            `json:"passed_symbols"`
	TimedOut              bool           `json:"timed_out"`
	Partial               bool           `json:"partial"`
	DurationMS            int64          `json:"duration_ms"`
	EliminationCounts     map[string]int `json:"elimination_counts"`
	RelaxationSuggestions []string       `json:"relaxation_suggestions,omitempty"`
}

// ScreenerResult is the full payload of one screener run.
type ScreenerResult struct {
	Items []ScreenerRow `json:"items"`
	Meta  ScreenerMeta  `json:"meta"`
}
