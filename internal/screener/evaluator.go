package screener

import (
	"context"
	"fmt"
	"sync"

	"github.com/equitylens/backend/internal/contracts"
	"github.com/equitylens/backend/internal/fundamentals"
	"github.com/equitylens/backend/internal/quant"
	"github.com/equitylens/backend/pkg/config"
	"github.com/equitylens/backend/pkg/logger"
)

// Technical indicator windows, in trading days.
const (
	momentum1MOffset  = 21
	momentum6MOffset  = 126
	momentum1YOffset  = 252
	betaWindow        = 63
	breakoutWindow    = 80
	volumeSpikeWindow = 20
	volumeSpikeRatio  = 1.8
)

// Advanced flag thresholds.
const (
	magicFormulaMinROIC  = 0.12
	magicFormulaMaxPE    = 15.0
	lowVolatilityMaxVol  = 0.25
	lowVolatilityMaxBeta = 1.0
	highMomentumMin6M    = 0.15
	highMomentumMinRSI   = 55.0
	aristocratMinYield   = 0.025
	aristocratMinHitRate = 0.6
)

type evaluator struct {
	provider contracts.MarketDataProvider
	logger   *logger.Logger
	cfg      config.ScreenerConfig
	taxRate  float64
}

// evaluate builds one symbol's row through staged filtering: cheap
// quote/history signals first, statement and insider enrichment only when
// an active filter needs them. It returns the reject reason for a filtered
// symbol and an error only when the market data never resolved.
func (e *evaluator) evaluate(ctx context.Context, symbol string, f *contracts.ScreenerFilters, benchCloses []float64) (*contracts.ScreenerRow, string, error) {
	quote, profile, bars, err := e.fetchBase(ctx, symbol)
	if err != nil {
		return nil, "", err
	}

	row := &contracts.ScreenerRow{Symbol: symbol}
	fillFundamentals(row, quote, profile)
	fillTechnicals(row, bars, benchCloses)

	if f.LowVolatility {
		if fiveYear, err := e.provider.History(ctx, symbol, "5y", "1d"); err == nil {
			row.MaxDrawdown5Y = quant.MaxDrawdown(contracts.Closes(fiveYear))
		}
	}

	if reason := fundamentalFilters(f, row); reason != "" {
		return nil, reason, nil
	}
	if reason := technicalFilters(f, row); reason != "" {
		return nil, reason, nil
	}

	if f.NeedsStatements() {
		e.enrichStatements(ctx, symbol, quote, profile, row)
		if reason := statementFilters(f, row); reason != "" {
			return nil, reason, nil
		}
	}
	if f.NeedsInsider() {
		e.enrichInsider(ctx, symbol, row)
	}

	fillFlags(row)
	if reason := applyFilters(f, row); reason != "" {
		return nil, reason, nil
	}

	scoreRow(row)
	return row, "", nil
}

// fetchBase gathers quote, profile, and one year of history concurrently.
// The quote is mandatory; profile and history degrade to nil.
func (e *evaluator) fetchBase(ctx context.Context, symbol string) (*contracts.Quote, *contracts.Profile, []contracts.PriceBar, error) {
	var (
		wg      sync.WaitGroup
		quote   *contracts.Quote
		profile *contracts.Profile
		bars    []contracts.PriceBar

		quoteErr error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		quote, quoteErr = e.provider.Quote(ctx, symbol)
	}()
	go func() {
		defer wg.Done()
		p, err := e.provider.Profile(ctx, symbol)
		if err == nil {
			profile = p
		}
	}()
	go func() {
		defer wg.Done()
		b, err := e.provider.History(ctx, symbol, "1y", "1d")
		if err == nil {
			bars = b
		}
	}()
	wg.Wait()

	if quoteErr != nil {
		return nil, nil, nil, fmt.Errorf("quote %s: %w", symbol, quoteErr)
	}
	if quote == nil || quote.Price == nil {
		return nil, nil, nil, fmt.Errorf("quote %s: no price", symbol)
	}
	return quote, profile, bars, nil
}

func fillFundamentals(row *contracts.ScreenerRow, quote *contracts.Quote, profile *contracts.Profile) {
	row.Name = quote.Name
	row.Price = quote.Price
	row.MarketCap = quote.MarketCap
	row.PERatio = quote.PERatio
	row.DividendYield = quant.NormalizeRate(quote.DividendYield)

	if profile != nil {
		if row.Name == "" {
			row.Name = profile.Name
		}
		row.Sector = profile.Sector
		row.Industry = profile.Industry
		row.ROE = quant.NormalizeRate(profile.ROE)
		row.DebtToEquity = quant.NormalizeDebtEquity(profile.DebtToEquity)
		row.RevenueGrowth = quant.NormalizeRate(profile.RevenueGrowth)
		if row.MarketCap == nil {
			row.MarketCap = profile.MarketCap
		}
	}
}

func fillTechnicals(row *contracts.ScreenerRow, bars []contracts.PriceBar, benchCloses []float64) {
	if len(bars) == 0 {
		return
	}
	closes := contracts.Closes(bars)
	returns := quant.DailyReturns(closes)

	row.RSI14 = quant.RSI(closes, 14)
	row.Momentum1M = quant.ChangeOverOffset(closes, momentum1MOffset)
	row.Momentum6M = quant.ChangeOverOffset(closes, momentum6MOffset)
	row.Momentum1Y = quant.ChangeOverOffset(closes, momentum1YOffset)
	row.Volatility = quant.AnnualizedVolatility(returns)
	row.Sharpe = quant.Sharpe(returns, quant.DefaultRiskFreeRate)
	row.Breakout = quant.Breakout(closes, breakoutWindow)

	volumes := make([]int64, len(bars))
	for i, b := range bars {
		volumes[i] = b.Volume
	}
	row.VolumeSpike = quant.VolumeSpike(volumes, volumeSpikeWindow, volumeSpikeRatio)

	if len(benchCloses) > 0 {
		benchReturns := quant.DailyReturns(benchCloses)
		row.Beta63D = quant.RollingBeta(returns, benchReturns, betaWindow)
	}
}

func (e *evaluator) enrichStatements(ctx context.Context, symbol string, quote *contracts.Quote, profile *contracts.Profile, row *contracts.ScreenerRow) {
	stmtCtx, cancel := context.WithTimeout(ctx, e.cfg.StatementsTimeout)
	defer cancel()

	bundle, err := e.provider.Financials(stmtCtx, symbol)
	if err != nil || bundle == nil {
		e.logger.WithField("symbol", symbol).Debug("statement enrichment unavailable")
		return
	}

	var profileRatios fundamentals.ProfileRatios
	if profile != nil {
		profileRatios.ROE = profile.ROE
		profileRatios.DebtToEquity = profile.DebtToEquity
	}
	enrichment := fundamentals.BuildEnrichment(quote, profileRatios, bundle, e.taxRate)

	row.RevenueCAGR3Y = enrichment.RevenueCAGR3Y
	row.EPSCAGR5Y = enrichment.EPSCAGR5Y
	row.FCFYield = enrichment.FCFYield
	row.ROIC = enrichment.ROIC
	row.PiotroskiScore = enrichment.PiotroskiScore
	row.FCFPositive5Y = enrichment.FCFPositive5Y
	row.DebtDecreasing = enrichment.DebtDecreasing
	row.EarningsConsistency = enrichment.EarningsConsistency
	row.OperatingLeverage = enrichment.OperatingLeverage
}

func (e *evaluator) enrichInsider(ctx context.Context, symbol string, row *contracts.ScreenerRow) {
	insiderCtx, cancel := context.WithTimeout(ctx, e.cfg.InsiderTimeout)
	defer cancel()

	activity, err := e.provider.InsiderActivity(insiderCtx, symbol)
	if err != nil || activity == nil {
		e.logger.WithField("symbol", symbol).Debug("insider enrichment unavailable")
		return
	}
	row.InsiderBuying = activity.NetBuying()
}

// fillFlags derives the advanced strategy flags from whatever signals
// resolved. Flags stay false when their inputs are missing.
func fillFlags(row *contracts.ScreenerRow) {
	if roic := quant.NormalizeRate(row.ROIC); roic != nil && row.PERatio != nil {
		row.MagicFormula = *roic >= magicFormulaMinROIC && *row.PERatio > 0 && *row.PERatio <= magicFormulaMaxPE
	}

	if row.Volatility != nil {
		betaOK := row.Beta63D == nil || *row.Beta63D <= lowVolatilityMaxBeta
		row.LowVolatility = *row.Volatility <= lowVolatilityMaxVol && betaOK
	}

	if row.Momentum6M != nil && row.RSI14 != nil {
		row.HighMomentum = *row.Momentum6M >= highMomentumMin6M &&
			*row.RSI14 >= highMomentumMinRSI &&
			(row.Momentum1M == nil || *row.Momentum1M > 0)
	}

	if row.DividendYield != nil {
		hitRateOK := row.EarningsConsistency == nil || *row.EarningsConsistency >= aristocratMinHitRate
		row.DividendAristocrat = *row.DividendYield >= aristocratMinYield && hitRateOK
	}
}
