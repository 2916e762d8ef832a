package portfolio

import (
	"fmt"
	"sort"
	"time"

	"github.com/equitylens/backend/internal/contracts"
	"github.com/equitylens/backend/internal/quant"
)

// Diversification component weights: position spread vs sector spread.
const (
	diversificationHHIWeight    = 0.70
	diversificationSectorWeight = 0.30
)

// PnLSummary is the headline profit-and-loss block.
type PnLSummary struct {
	TotalValue           float64  `json:"total_value"`
	TotalCost            float64  `json:"total_cost"`
	UnrealizedPnL        float64  `json:"unrealized_pnl"`
	UnrealizedPnLPercent *float64 `json:"unrealized_pnl_percent"`
}

// RiskMetrics are the risk-adjusted performance figures from the aligned
// daily-return streams. Benchmark-relative fields are nil without a usable
// benchmark series.
type RiskMetrics struct {
	AnnualizedVolatility *float64 `json:"annualized_volatility"`
	MaxDrawdown          *float64 `json:"max_drawdown"`
	AnnualizedReturn     *float64 `json:"annualized_return"`
	Sharpe               *float64 `json:"sharpe_ratio"`
	Sortino              *float64 `json:"sortino_ratio"`
	Calmar               *float64 `json:"calmar_ratio"`
	Beta                 *float64 `json:"beta"`
	Alpha                *float64 `json:"alpha"`
	TrackingError        *float64 `json:"tracking_error"`
	InformationRatio     *float64 `json:"information_ratio"`
	UpsideCapture        *float64 `json:"upside_capture"`
	DownsideCapture      *float64 `json:"downside_capture"`
}

// AllocationSlice is one entry of an allocation breakdown.
type AllocationSlice struct {
	Name          string  `json:"name"`
	Value         float64 `json:"value"`
	WeightPercent float64 `json:"weight_percent"`
}

// PortfolioInsights is the full attribution payload, recomputed per request
// and never persisted.
type PortfolioInsights struct {
	PnL                  PnLSummary        `json:"pnl"`
	DiversificationScore float64           `json:"diversification_score"`
	RiskLevel            string            `json:"risk_level"`
	Suggestions          []string          `json:"suggestions"`
	XIRR                 *float64          `json:"xirr"`
	Risk                 RiskMetrics       `json:"risk_metrics"`
	AllocationBySymbol   []AllocationSlice `json:"allocation_by_symbol"`
	AllocationBySector   []AllocationSlice `json:"allocation_by_sector"`
	Tax                  TaxSummary        `json:"tax_summary"`
}

// ComputeInsights runs the attribution engine over live holdings, the
// transaction ledger, and an optional benchmark history. Every sub-analysis
// tolerates missing inputs; an empty portfolio yields a zero payload.
func ComputeInsights(holdings []Holding, transactions []Transaction, benchmark []contracts.PriceBar, rates TaxRates, asOf time.Time) PortfolioInsights {
	var insights PortfolioInsights

	totalValue := 0.0
	totalCost := 0.0
	for _, h := range holdings {
		totalValue += h.MarketValue()
		totalCost += h.CostBasis()
	}
	insights.PnL = PnLSummary{
		TotalValue:    totalValue,
		TotalCost:     totalCost,
		UnrealizedPnL: totalValue - totalCost,
	}
	if totalCost > 0 {
		pct := (totalValue - totalCost) / totalCost * 100
		insights.PnL.UnrealizedPnLPercent = &pct
	}

	symbolAlloc, sectorAlloc := allocations(holdings, totalValue)
	insights.AllocationBySymbol = symbolAlloc
	insights.AllocationBySector = sectorAlloc

	topSectorWeight := 0.0
	if len(sectorAlloc) > 0 {
		topSectorWeight = sectorAlloc[0].WeightPercent / 100
	}
	insights.DiversificationScore = diversificationScore(symbolAlloc, topSectorWeight)

	series := BuildIndexSeries(holdings, benchmark)
	insights.Risk = riskMetrics(series)

	currentPrices := make(map[string]float64, len(holdings))
	for _, h := range holdings {
		if h.Price != nil && *h.Price > 0 {
			currentPrices[h.Symbol] = *h.Price
		}
	}
	insights.Tax = ComputeTaxSummary(transactions, currentPrices, asOf, rates)

	insights.XIRR = XIRR(CashflowsFromLedger(transactions, totalValue, asOf))

	insights.RiskLevel = riskLevel(insights.Risk.AnnualizedVolatility)
	insights.Suggestions = suggestions(insights, holdings, sectorAlloc)

	return insights
}

func allocations(holdings []Holding, totalValue float64) (bySymbol, bySector []AllocationSlice) {
	if totalValue <= 0 {
		return nil, nil
	}

	sectorValues := make(map[string]float64)
	for _, h := range holdings {
		value := h.MarketValue()
		if value <= 0 {
			continue
		}
		bySymbol = append(bySymbol, AllocationSlice{
			Name:          h.Symbol,
			Value:         value,
			WeightPercent: value / totalValue * 100,
		})

		sector := h.Sector
		if sector == "" {
			sector = "Unknown"
		}
		sectorValues[sector] += value
	}

	for sector, value := range sectorValues {
		bySector = append(bySector, AllocationSlice{
			Name:          sector,
			Value:         value,
			WeightPercent: value / totalValue * 100,
		})
	}

	sort.Slice(bySymbol, func(i, j int) bool { return bySymbol[i].Value > bySymbol[j].Value })
	sort.Slice(bySector, func(i, j int) bool { return bySector[i].Value > bySector[j].Value })
	return bySymbol, bySector
}

// diversificationScore blends the normalized inverse HHI of position
// weights with the sector spread. A single holding scores zero on both
// components.
func diversificationScore(bySymbol []AllocationSlice, topSectorWeight float64) float64 {
	n := len(bySymbol)
	if n == 0 {
		return 0
	}

	hhi := 0.0
	for _, slice := range bySymbol {
		w := slice.WeightPercent / 100
		hhi += w * w
	}

	diversified := 0.0
	if n > 1 {
		diversified = (1 - hhi) / (1 - 1/float64(n))
	}

	score := (diversificationHHIWeight*diversified + diversificationSectorWeight*(1-topSectorWeight)) * 100
	return quant.Clamp(score, 0, 100)
}

func riskMetrics(series IndexSeries) RiskMetrics {
	var m RiskMetrics
	if len(series.Portfolio) < 2 {
		return m
	}

	returns := quant.DailyReturns(series.Portfolio)
	m.AnnualizedVolatility = quant.AnnualizedVolatility(returns)
	m.MaxDrawdown = quant.MaxDrawdown(series.Portfolio)
	m.AnnualizedReturn = quant.AnnualizedReturn(series.Portfolio)
	m.Sharpe = quant.Sharpe(returns, quant.DefaultRiskFreeRate)
	m.Sortino = quant.Sortino(returns, quant.DefaultRiskFreeRate)
	m.Calmar = quant.Calmar(m.AnnualizedReturn, m.MaxDrawdown)

	if len(series.Benchmark) == len(series.Portfolio) {
		benchReturns := quant.DailyReturns(series.Benchmark)
		m.Beta, m.Alpha = quant.BetaAlpha(returns, benchReturns)
		m.TrackingError = quant.TrackingError(returns, benchReturns)
		m.InformationRatio = quant.InformationRatio(returns, benchReturns)
		m.UpsideCapture, m.DownsideCapture = quant.CaptureRatios(returns, benchReturns)
	}
	return m
}

// Annualized-volatility cut points for the headline risk level.
const (
	riskVolatilityHigh   = 0.35
	riskVolatilityMedium = 0.20
)

func riskLevel(volatility *float64) string {
	if volatility == nil {
		return "Unknown"
	}
	switch {
	case *volatility >= riskVolatilityHigh:
		return "High"
	case *volatility >= riskVolatilityMedium:
		return "Medium"
	default:
		return "Low"
	}
}

func suggestions(insights PortfolioInsights, holdings []Holding, sectorAlloc []AllocationSlice) []string {
	var out []string

	if len(holdings) == 1 {
		out = append(out, "Portfolio holds a single position; adding holdings would reduce idiosyncratic risk.")
	} else if insights.DiversificationScore < 40 {
		out = append(out, fmt.Sprintf("Diversification score is low (%.0f/100); consider spreading weight across more positions.", insights.DiversificationScore))
	}

	if len(sectorAlloc) > 0 && sectorAlloc[0].WeightPercent > 50 {
		out = append(out, fmt.Sprintf("%s makes up %.0f%% of the portfolio; sector concentration amplifies drawdowns.", sectorAlloc[0].Name, sectorAlloc[0].WeightPercent))
	}

	if v := insights.Risk.AnnualizedVolatility; v != nil && *v >= riskVolatilityHigh {
		out = append(out, fmt.Sprintf("Annualized volatility is %.0f%%; pairing with lower-beta holdings would smooth returns.", *v*100))
	}

	if insights.Tax.RealizedShortTerm > 0 {
		out = append(out, "Short-term realized gains are taxed at the higher bracket; holding winners past a year lowers the estimated tax.")
	}

	if len(out) == 0 {
		out = append(out, "No rebalancing flags; allocation and risk look balanced.")
	}
	return out
}
