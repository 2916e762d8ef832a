// Package screener implements the concurrent multi-filter stock screener:
// bounded fan-out evaluation, hard-reject filtering with elimination
// accounting, composite scoring, and deterministic post-pass ranking.
package screener

import (
	"fmt"
	"sort"

	"github.com/equitylens/backend/internal/contracts"
	"github.com/equitylens/backend/internal/quant"
)

// Filter names, matching the request's JSON keys so elimination counts read
// back to the caller's own input.
const (
	filterMinMarketCap     = "min_market_cap"
	filterMaxMarketCap     = "max_market_cap"
	filterMinPrice         = "min_price"
	filterMaxPrice         = "max_price"
	filterMaxPE            = "max_pe"
	filterMinDividendYield = "min_dividend_yield"
	filterMinROE           = "min_roe"
	filterMaxDebtToEquity  = "max_debt_to_equity"
	filterMinRevenueGrowth = "min_revenue_growth"

	filterMinRSI             = "min_rsi"
	filterMaxRSI             = "max_rsi"
	filterMinMomentum6M      = "min_momentum_6m"
	filterMaxVolatility      = "max_volatility"
	filterRequireBreakout    = "require_breakout"
	filterRequireVolumeSpike = "require_volume_spike"

	filterMinRevenueCAGR3Y       = "min_revenue_cagr_3y"
	filterMinEPSCAGR5Y           = "min_eps_cagr_5y"
	filterMinFCFYield            = "min_fcf_yield"
	filterMinROIC                = "min_roic"
	filterMinPiotroski           = "min_piotroski"
	filterPositiveFCF5Y          = "require_positive_fcf_5y"
	filterDebtDecreasing         = "require_debt_decreasing"
	filterMinEarningsConsistency = "min_earnings_consistency"

	filterMagicFormula       = "magic_formula"
	filterLowVolatility      = "low_volatility"
	filterHighMomentum       = "high_momentum"
	filterDividendAristocrat = "dividend_aristocrat"
	filterInsiderBuying      = "insider_buying"

	filterMaxVolatilityPercentile = "max_volatility_percentile"
)

// applyFilters evaluates every active filter as a hard reject and returns
// the name of the first one that fails, or "" when the row passes. A filter
// whose input metric is missing rejects: an active criterion cannot be
// satisfied by unknown data.
func applyFilters(f *contracts.ScreenerFilters, row *contracts.ScreenerRow) string {
	if reason := fundamentalFilters(f, row); reason != "" {
		return reason
	}
	if reason := technicalFilters(f, row); reason != "" {
		return reason
	}
	if reason := statementFilters(f, row); reason != "" {
		return reason
	}
	return flagFilters(f, row)
}

func fundamentalFilters(f *contracts.ScreenerFilters, row *contracts.ScreenerRow) string {
	if f.MinMarketCap != nil && belowMin(row.MarketCap, *f.MinMarketCap) {
		return filterMinMarketCap
	}
	if f.MaxMarketCap != nil && aboveMax(row.MarketCap, *f.MaxMarketCap) {
		return filterMaxMarketCap
	}
	if f.MinPrice != nil && belowMin(row.Price, *f.MinPrice) {
		return filterMinPrice
	}
	if f.MaxPrice != nil && aboveMax(row.Price, *f.MaxPrice) {
		return filterMaxPrice
	}
	if f.MaxPE != nil && aboveMax(row.PERatio, *f.MaxPE) {
		return filterMaxPE
	}
	if f.MinDividendYield != nil && belowMinRate(row.DividendYield, *f.MinDividendYield) {
		return filterMinDividendYield
	}
	if f.MinROE != nil && belowMinRate(row.ROE, *f.MinROE) {
		return filterMinROE
	}
	if f.MaxDebtToEquity != nil {
		de := quant.NormalizeDebtEquity(row.DebtToEquity)
		limit := quant.NormalizeDebtEquity(f.MaxDebtToEquity)
		if de == nil || limit == nil || *de > *limit {
			return filterMaxDebtToEquity
		}
	}
	if f.MinRevenueGrowth != nil && belowMinRate(row.RevenueGrowth, *f.MinRevenueGrowth) {
		return filterMinRevenueGrowth
	}
	return ""
}

func technicalFilters(f *contracts.ScreenerFilters, row *contracts.ScreenerRow) string {
	if f.MinRSI != nil && belowMin(row.RSI14, *f.MinRSI) {
		return filterMinRSI
	}
	if f.MaxRSI != nil && aboveMax(row.RSI14, *f.MaxRSI) {
		return filterMaxRSI
	}
	if f.MinMomentum6M != nil && belowMinRate(row.Momentum6M, *f.MinMomentum6M) {
		return filterMinMomentum6M
	}
	if f.MaxVolatility != nil {
		limit := quant.NormalizeRate(f.MaxVolatility)
		if row.Volatility == nil || limit == nil || *row.Volatility > *limit {
			return filterMaxVolatility
		}
	}
	if f.RequireBreakout && !row.Breakout {
		return filterRequireBreakout
	}
	if f.RequireVolumeSpike && !row.VolumeSpike {
		return filterRequireVolumeSpike
	}
	return ""
}

func statementFilters(f *contracts.ScreenerFilters, row *contracts.ScreenerRow) string {
	if f.MinRevenueCAGR3Y != nil && belowMinRate(row.RevenueCAGR3Y, *f.MinRevenueCAGR3Y) {
		return filterMinRevenueCAGR3Y
	}
	if f.MinEPSCAGR5Y != nil && belowMinRate(row.EPSCAGR5Y, *f.MinEPSCAGR5Y) {
		return filterMinEPSCAGR5Y
	}
	if f.MinFCFYield != nil && belowMinRate(row.FCFYield, *f.MinFCFYield) {
		return filterMinFCFYield
	}
	if f.MinROIC != nil && belowMinRate(row.ROIC, *f.MinROIC) {
		return filterMinROIC
	}
	if f.MinPiotroski != nil && (row.PiotroskiScore == nil || *row.PiotroskiScore < *f.MinPiotroski) {
		return filterMinPiotroski
	}
	if f.RequirePositiveFCF5Y && (row.FCFPositive5Y == nil || !*row.FCFPositive5Y) {
		return filterPositiveFCF5Y
	}
	if f.RequireDebtDecreasing && (row.DebtDecreasing == nil || !*row.DebtDecreasing) {
		return filterDebtDecreasing
	}
	if f.MinEarningsConsistency != nil && belowMin(row.EarningsConsistency, *f.MinEarningsConsistency) {
		return filterMinEarningsConsistency
	}
	return ""
}

func flagFilters(f *contracts.ScreenerFilters, row *contracts.ScreenerRow) string {
	if f.MagicFormula && !row.MagicFormula {
		return filterMagicFormula
	}
	if f.LowVolatility && !row.LowVolatility {
		return filterLowVolatility
	}
	if f.HighMomentum && !row.HighMomentum {
		return filterHighMomentum
	}
	if f.DividendAristocrat && !row.DividendAristocrat {
		return filterDividendAristocrat
	}
	if f.InsiderBuying && !row.InsiderBuying {
		return filterInsiderBuying
	}
	return ""
}

func belowMin(value *float64, minimum float64) bool {
	return value == nil || *value < minimum
}

func aboveMax(value *float64, maximum float64) bool {
	return value == nil || *value > maximum
}

// belowMinRate compares a rate-valued metric against a rate-valued bound,
// normalizing both through the fraction-vs-percentage heuristic.
func belowMinRate(value *float64, minimum float64) bool {
	v := quant.NormalizeRate(value)
	m := quant.NormalizeRate(&minimum)
	return v == nil || m == nil || *v < *m
}

// Share of evaluated symbols a filter must eliminate before the result
// suggests relaxing it.
const relaxationShare = 0.25

// relaxationSuggestions names the heaviest eliminators, worst first.
func relaxationSuggestions(counts map[string]int, evaluated int) []string {
	if evaluated == 0 {
		return nil
	}

	type eliminator struct {
		name  string
		count int
	}
	var heavy []eliminator
	for name, count := range counts {
		if float64(count) >= relaxationShare*float64(evaluated) {
			heavy = append(heavy, eliminator{name, count})
		}
	}
	sort.Slice(heavy, func(i, j int) bool {
		if heavy[i].count != heavy[j].count {
			return heavy[i].count > heavy[j].count
		}
		return heavy[i].name < heavy[j].name
	})

	out := make([]string, 0, len(heavy))
	for _, e := range heavy {
		out = append(out, fmt.Sprintf("%s eliminated %d of %d evaluated symbols; consider relaxing it", e.name, e.count, evaluated))
	}
	return out
}
