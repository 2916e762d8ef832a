package screener

import (
	"github.com/equitylens/backend/internal/contracts"
	"github.com/equitylens/backend/internal/quant"
)

// Every passing symbol starts from the same base so that sub-scores swing
// the ranking around a common center.
const scoreBase = 28.0

// scoreRow fills in the composite score and its breakdown. Each signal
// contributes a clamped linear term; missing signals contribute nothing
// rather than penalizing.
func scoreRow(row *contracts.ScreenerRow) {
	breakdown := contracts.ScoreBreakdown{
		Base:     scoreBase,
		Quality:  qualityScore(row),
		Growth:   growthScore(row),
		Risk:     riskScore(row),
		Momentum: momentumScore(row),
	}
	row.Breakdown = breakdown
	row.Score = breakdown.Base + breakdown.Quality + breakdown.Growth + breakdown.Risk + breakdown.Momentum
}

func qualityScore(row *contracts.ScreenerRow) float64 {
	score := 0.0
	if roe := quant.NormalizeRate(row.ROE); roe != nil {
		score += quant.Clamp(*roe*120, -8, 14)
	}
	if roic := quant.NormalizeRate(row.ROIC); roic != nil {
		score += quant.Clamp(*roic*100, -6, 12)
	}
	if fcf := quant.NormalizeRate(row.FCFYield); fcf != nil {
		score += quant.Clamp(*fcf*150, -6, 10)
	}
	if de := quant.NormalizeDebtEquity(row.DebtToEquity); de != nil {
		score += quant.Clamp((0.8-*de)*10, -8, 8)
	}
	if p := row.PiotroskiScore; p != nil {
		score += quant.Clamp((float64(*p)-4.5)*2, -6, 9)
	}
	return score
}

func growthScore(row *contracts.ScreenerRow) float64 {
	score := 0.0
	if g := quant.NormalizeRate(row.RevenueGrowth); g != nil {
		score += quant.Clamp(*g*80, -8, 12)
	}
	if cagr := quant.NormalizeRate(row.RevenueCAGR3Y); cagr != nil {
		score += quant.Clamp(*cagr*100, -6, 10)
	}
	if eps := quant.NormalizeRate(row.EPSCAGR5Y); eps != nil {
		score += quant.Clamp(*eps*80, -6, 10)
	}
	if row.EarningsConsistency != nil {
		score += quant.Clamp((*row.EarningsConsistency-0.5)*12, -6, 6)
	}
	return score
}

func riskScore(row *contracts.ScreenerRow) float64 {
	score := 0.0
	if vol := row.Volatility; vol != nil {
		score += quant.Clamp((0.35-*vol)*40, -10, 8)
	}
	if beta := row.Beta63D; beta != nil {
		score += quant.Clamp((1.1-*beta)*10, -5, 5)
	}
	if mdd := row.MaxDrawdown5Y; mdd != nil {
		// mdd is a negative fraction; shallow drawdowns earn points.
		score += quant.Clamp((0.35+*mdd)*20, -6, 4)
	}
	return score
}

func momentumScore(row *contracts.ScreenerRow) float64 {
	score := 0.0
	if m := row.Momentum6M; m != nil {
		score += quant.Clamp(*m*40, -8, 10)
	}
	if m := row.Momentum1M; m != nil {
		score += quant.Clamp(*m*30, -4, 6)
	}
	if rsi := row.RSI14; rsi != nil {
		score += quant.Clamp((*rsi-50)*0.2, -5, 5)
	}
	if row.Breakout {
		score += 3
	}
	if row.VolumeSpike {
		score += 2
	}
	return score
}
