package fundamentals

import (
	"math"

	"github.com/equitylens/backend/internal/contracts"
	"github.com/equitylens/backend/internal/quant"
)

// LiquidityRatios measure short-term obligation coverage.
type LiquidityRatios struct {
	CurrentRatio           *float64 `json:"current_ratio"`
	QuickRatio             *float64 `json:"quick_ratio"`
	CashRatio              *float64 `json:"cash_ratio"`
	OperatingCashFlowRatio *float64 `json:"operating_cash_flow_ratio"`
	WorkingCapitalToAssets *float64 `json:"working_capital_to_assets"`
}

// SolvencyRatios measure capital-structure risk.
type SolvencyRatios struct {
	DebtToEquity          *float64 `json:"debt_to_equity"`
	DebtRatio             *float64 `json:"debt_ratio"`
	EquityRatio           *float64 `json:"equity_ratio"`
	InterestCoverage      *float64 `json:"interest_coverage"`
	LongTermDebtToCapital *float64 `json:"long_term_debt_to_capital"`
}

// ProfitabilityRatios measure margin and return quality.
type ProfitabilityRatios struct {
	GrossMargin     *float64 `json:"gross_margin"`
	OperatingMargin *float64 `json:"operating_margin"`
	NetMargin       *float64 `json:"net_margin"`
	ROA             *float64 `json:"roa"`
	ROE             *float64 `json:"roe"`
	ROCE            *float64 `json:"roce"`
	EBITDAMargin    *float64 `json:"ebitda_margin"`
}

// EfficiencyRatios measure asset utilization.
type EfficiencyRatios struct {
	AssetTurnover          *float64 `json:"asset_turnover"`
	ReceivablesTurnover    *float64 `json:"receivables_turnover"`
	InventoryTurnover      *float64 `json:"inventory_turnover"`
	FixedAssetTurnover     *float64 `json:"fixed_asset_turnover"`
	WorkingCapitalTurnover *float64 `json:"working_capital_turnover"`
}

// DuPontAnalysis decomposes ROE as net margin x asset turnover x leverage.
// Used as a cross-check against the primary ROE, not as its source.
type DuPontAnalysis struct {
	NetMargin        *float64 `json:"net_margin"`
	AssetTurnover    *float64 `json:"asset_turnover"`
	EquityMultiplier *float64 `json:"equity_multiplier"`
	ROE              *float64 `json:"roe"`
}

// AltmanZComponents are the five inputs to the Z-score.
type AltmanZComponents struct {
	WorkingCapitalToAssets    *float64 `json:"working_capital_to_assets"`
	RetainedEarningsToAssets  *float64 `json:"retained_earnings_to_assets"`
	EBITToAssets              *float64 `json:"ebit_to_assets"`
	MarketEquityToLiabilities *float64 `json:"market_value_equity_to_total_liabilities"`
	SalesToAssets             *float64 `json:"sales_to_assets"`
}

// AltmanZ is the bankruptcy-risk composite. Score is nil unless all five
// components are available; Zone is then "Unknown".
type AltmanZ struct {
	Score      *float64          `json:"score"`
	Zone       string            `json:"zone"`
	Components AltmanZComponents `json:"components"`
}

// PiotroskiSignals are the nine year-over-year improvement checks.
// Nil means the signal could not be evaluated for lack of data.
type PiotroskiSignals struct {
	PositiveROA            *bool `json:"positive_roa"`
	PositiveOperatingCF    *bool `json:"positive_operating_cash_flow"`
	ImprovingROA           *bool `json:"improving_roa"`
	OCFExceedsNetIncome    *bool `json:"operating_cash_flow_exceeds_net_income"`
	LowerLeverage          *bool `json:"lower_leverage"`
	ImprovingCurrentRatio  *bool `json:"improving_current_ratio"`
	NoShareDilution        *bool `json:"no_share_dilution"`
	ImprovingGrossMargin   *bool `json:"improving_gross_margin"`
	ImprovingAssetTurnover *bool `json:"improving_asset_turnover"`
}

// PiotroskiF is the 9-signal fundamental-quality score. Score is nil when no
// signal is evaluable.
type PiotroskiF struct {
	Score           *int             `json:"score"`
	MaxScore        int              `json:"max_score"`
	AvailableChecks int              `json:"available_checks"`
	Label           string           `json:"label"`
	Signals         PiotroskiSignals `json:"signals"`
}

// RatioDashboard is the full derived-ratio snapshot for one symbol.
// Recomputed per request, never persisted.
type RatioDashboard struct {
	Year          string              `json:"year"`
	PriorYear     string              `json:"prior_year,omitempty"`
	Liquidity     LiquidityRatios     `json:"liquidity"`
	Solvency      SolvencyRatios      `json:"solvency"`
	Profitability ProfitabilityRatios `json:"profitability"`
	Efficiency    EfficiencyRatios    `json:"efficiency"`
	DuPont        DuPontAnalysis      `json:"dupont_analysis"`
	AltmanZ       AltmanZ             `json:"altman_z_score"`
	Piotroski     PiotroskiF          `json:"piotroski_f_score"`
}

// ProfileRatios are the point-in-time fallbacks taken from the company
// profile when statement-derived values are unavailable.
type ProfileRatios struct {
	ROE          *float64
	ROCE         *float64
	DebtToEquity *float64
}

// BuildDashboard computes every ratio family from the latest and prior year
// of the statement bundle, with profile fallbacks for ROE, ROCE, and
// debt/equity. Every division is guarded; missing inputs propagate as nil.
func BuildDashboard(quote *contracts.Quote, profile ProfileRatios, bundle *contracts.StatementBundle) RatioDashboard {
	latestYear := bundle.LatestYear()
	priorYear := bundle.PriorYear()

	latest := Extract(bundle, latestYear)
	var prior Metrics
	if priorYear != "" {
		prior = Extract(bundle, priorYear)
	}

	dash := RatioDashboard{
		Year:      latestYear,
		PriorYear: priorYear,
	}

	// Profitability
	roa := quant.SafeDiv(latest.NetIncome, latest.TotalAssets)
	roe := quant.SafeDiv(latest.NetIncome, averageEquity(latest.Equity, prior.Equity))
	if roe == nil {
		roe = quant.NormalizeRate(profile.ROE)
	}
	roce := quant.SafeDiv(latest.EBIT, capitalEmployed(latest.TotalAssets, latest.CurrentLiabilities))
	if roce == nil {
		roce = quant.NormalizeRate(profile.ROCE)
	}
	grossMargin := quant.SafeDiv(latest.GrossProfit, latest.Revenue)
	netMargin := quant.SafeDiv(latest.NetIncome, latest.Revenue)
	dash.Profitability = ProfitabilityRatios{
		GrossMargin:     grossMargin,
		OperatingMargin: quant.SafeDiv(latest.OperatingIncome, latest.Revenue),
		NetMargin:       netMargin,
		ROA:             roa,
		ROE:             roe,
		ROCE:            roce,
		EBITDAMargin:    quant.SafeDiv(latest.EBITDA, latest.Revenue),
	}

	// Liquidity
	currentRatio := quant.SafeDiv(latest.CurrentAssets, latest.CurrentLiabilities)
	dash.Liquidity = LiquidityRatios{
		CurrentRatio:           currentRatio,
		QuickRatio:             quant.SafeDiv(quickAssets(latest.CurrentAssets, latest.Inventory), latest.CurrentLiabilities),
		CashRatio:              quant.SafeDiv(latest.CashAndEquivalents, latest.CurrentLiabilities),
		OperatingCashFlowRatio: quant.SafeDiv(latest.OperatingCashFlow, latest.CurrentLiabilities),
		WorkingCapitalToAssets: quant.SafeDiv(latest.WorkingCapital, latest.TotalAssets),
	}

	// Solvency
	debtToEquity := quant.SafeDiv(latest.TotalLiabilities, latest.Equity)
	if debtToEquity == nil {
		debtToEquity = quant.NormalizeDebtEquity(profile.DebtToEquity)
	}
	dash.Solvency = SolvencyRatios{
		DebtToEquity:          debtToEquity,
		DebtRatio:             quant.SafeDiv(latest.TotalLiabilities, latest.TotalAssets),
		EquityRatio:           quant.SafeDiv(latest.Equity, latest.TotalAssets),
		InterestCoverage:      quant.SafeDiv(latest.EBIT, absPtr(latest.InterestExpense)),
		LongTermDebtToCapital: quant.SafeDiv(latest.LongTermDebt, sumPtr(latest.LongTermDebt, latest.Equity)),
	}

	// Efficiency
	assetTurnover := quant.SafeDiv(latest.Revenue, latest.TotalAssets)
	dash.Efficiency = EfficiencyRatios{
		AssetTurnover:          assetTurnover,
		ReceivablesTurnover:    quant.SafeDiv(latest.Revenue, latest.Receivables),
		InventoryTurnover:      quant.SafeDiv(latest.CostOfRevenue, latest.Inventory),
		FixedAssetTurnover:     quant.SafeDiv(latest.Revenue, latest.NetPPE),
		WorkingCapitalTurnover: quant.SafeDiv(latest.Revenue, latest.WorkingCapital),
	}

	// DuPont
	equityMultiplier := quant.SafeDiv(latest.TotalAssets, latest.Equity)
	var dupontROE *float64
	if netMargin != nil && assetTurnover != nil && equityMultiplier != nil {
		v := *netMargin * *assetTurnover * *equityMultiplier
		dupontROE = &v
	}
	dash.DuPont = DuPontAnalysis{
		NetMargin:        netMargin,
		AssetTurnover:    assetTurnover,
		EquityMultiplier: equityMultiplier,
		ROE:              dupontROE,
	}

	dash.AltmanZ = buildAltmanZ(quote, latest)
	dash.Piotroski = buildPiotroski(latest, prior, roa, currentRatio, grossMargin, assetTurnover)

	return dash
}

func buildAltmanZ(quote *contracts.Quote, latest Metrics) AltmanZ {
	var marketCap *float64
	if quote != nil {
		marketCap = quote.MarketCap
	}

	components := AltmanZComponents{
		WorkingCapitalToAssets:    quant.SafeDiv(latest.WorkingCapital, latest.TotalAssets),
		RetainedEarningsToAssets:  quant.SafeDiv(latest.RetainedEarnings, latest.TotalAssets),
		EBITToAssets:              quant.SafeDiv(latest.EBIT, latest.TotalAssets),
		MarketEquityToLiabilities: quant.SafeDiv(marketCap, latest.TotalLiabilities),
		SalesToAssets:             quant.SafeDiv(latest.Revenue, latest.TotalAssets),
	}

	z := AltmanZ{Zone: "Unknown", Components: components}

	if components.WorkingCapitalToAssets == nil ||
		components.RetainedEarningsToAssets == nil ||
		components.EBITToAssets == nil ||
		components.MarketEquityToLiabilities == nil ||
		components.SalesToAssets == nil {
		return z
	}

	score := 1.2*(*components.WorkingCapitalToAssets) +
		1.4*(*components.RetainedEarningsToAssets) +
		3.3*(*components.EBITToAssets) +
		0.6*(*components.MarketEquityToLiabilities) +
		1.0*(*components.SalesToAssets)
	z.Score = &score

	switch {
	case score > 2.99:
		z.Zone = "Safe"
	case score >= 1.81:
		z.Zone = "Grey"
	default:
		z.Zone = "Distress"
	}
	return z
}

func buildPiotroski(latest, prior Metrics, roa, currentRatio, grossMargin, assetTurnover *float64) PiotroskiF {
	priorROA := quant.SafeDiv(prior.NetIncome, prior.TotalAssets)
	priorDebtRatio := quant.SafeDiv(prior.LongTermDebt, prior.TotalAssets)
	currentDebtRatio := quant.SafeDiv(latest.LongTermDebt, latest.TotalAssets)
	priorCurrentRatio := quant.SafeDiv(prior.CurrentAssets, prior.CurrentLiabilities)
	priorGrossMargin := quant.SafeDiv(prior.GrossProfit, prior.Revenue)
	priorAssetTurnover := quant.SafeDiv(prior.Revenue, prior.TotalAssets)

	signals := PiotroskiSignals{
		PositiveROA:            gtZero(roa),
		PositiveOperatingCF:    gtZero(latest.OperatingCashFlow),
		ImprovingROA:           gt(roa, priorROA),
		OCFExceedsNetIncome:    gt(latest.OperatingCashFlow, latest.NetIncome),
		LowerLeverage:          lt(currentDebtRatio, priorDebtRatio),
		ImprovingCurrentRatio:  gt(currentRatio, priorCurrentRatio),
		NoShareDilution:        lte(latest.SharesOutstanding, prior.SharesOutstanding),
		ImprovingGrossMargin:   gt(grossMargin, priorGrossMargin),
		ImprovingAssetTurnover: gt(assetTurnover, priorAssetTurnover),
	}

	all := []*bool{
		signals.PositiveROA,
		signals.PositiveOperatingCF,
		signals.ImprovingROA,
		signals.OCFExceedsNetIncome,
		signals.LowerLeverage,
		signals.ImprovingCurrentRatio,
		signals.NoShareDilution,
		signals.ImprovingGrossMargin,
		signals.ImprovingAssetTurnover,
	}

	score := 0
	available := 0
	for _, s := range all {
		if s == nil {
			continue
		}
		available++
		if *s {
			score++
		}
	}

	f := PiotroskiF{
		MaxScore:        9,
		AvailableChecks: available,
		Label:           "Unknown",
		Signals:         signals,
	}
	if available == 0 {
		return f
	}

	f.Score = &score
	switch {
	case score >= 7:
		f.Label = "Strong"
	case score >= 4:
		f.Label = "Average"
	default:
		f.Label = "Weak"
	}
	return f
}

func averageEquity(current, prior *float64) *float64 {
	switch {
	case current != nil && prior != nil:
		v := (*current + *prior) / 2
		return &v
	case current != nil:
		return current
	default:
		return nil
	}
}

func capitalEmployed(totalAssets, currentLiabilities *float64) *float64 {
	if totalAssets == nil || currentLiabilities == nil {
		return nil
	}
	v := *totalAssets - *currentLiabilities
	return &v
}

func quickAssets(currentAssets, inventory *float64) *float64 {
	if currentAssets == nil {
		return nil
	}
	v := *currentAssets
	if inventory != nil {
		v -= *inventory
	}
	return &v
}

func absPtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := math.Abs(*p)
	return &v
}

func sumPtr(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	v := *a + *b
	return &v
}

func gtZero(p *float64) *bool {
	if p == nil {
		return nil
	}
	v := *p > 0
	return &v
}

func gt(a, b *float64) *bool {
	if a == nil || b == nil {
		return nil
	}
	v := *a > *b
	return &v
}

func lt(a, b *float64) *bool {
	if a == nil || b == nil {
		return nil
	}
	v := *a < *b
	return &v
}

func lte(a, b *float64) *bool {
	if a == nil || b == nil {
		return nil
	}
	v := *a <= *b
	return &v
}
