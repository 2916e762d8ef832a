package insights

import (
	"github.com/equitylens/backend/internal/contracts"
	"github.com/equitylens/backend/internal/fundamentals"
	"github.com/equitylens/backend/internal/quant"
)

// StockInsights is the combined insights payload for one symbol.
type StockInsights struct {
	Symbol          string           `json:"symbol"`
	Risk            RiskAssessment   `json:"risk"`
	RedFlags        FraudAssessment  `json:"red_flags"`
	RevenueForecast *RevenueForecast `json:"revenue_forecast,omitempty"`
}

// BuildStockInsights assembles risk, red-flag, and forecast views from
// whatever data resolved. closes is the chronological close series used for
// realized volatility; any input may be nil or empty.
func BuildStockInsights(symbol string, quote *contracts.Quote, profile *contracts.Profile, closes []float64, bundle *contracts.StatementBundle) StockInsights {
	var in RiskInputs

	if vol := quant.AnnualizedVolatility(quant.DailyReturns(closes)); vol != nil {
		v := *vol * 100
		in.VolatilityPercent = &v
	}

	var profileRatios fundamentals.ProfileRatios
	if profile != nil {
		in.Beta = profile.Beta
		in.DebtToEquity = profile.DebtToEquity
		profileRatios.DebtToEquity = profile.DebtToEquity
	}

	if bundle != nil && len(bundle.Years) > 0 {
		latest := fundamentals.Extract(bundle, bundle.LatestYear())
		prior := fundamentals.Extract(bundle, bundle.PriorYear())

		in.NetMarginPercent = marginPercent(latest.NetIncome, latest.Revenue)
		in.RevenueGrowthPercent = pctGrowth(latest.Revenue, prior.Revenue)

		dash := fundamentals.BuildDashboard(quote, profileRatios, bundle)
		in.AltmanZone = dash.AltmanZ.Zone
		in.PiotroskiScore = dash.Piotroski.Score
	}

	return StockInsights{
		Symbol:          symbol,
		Risk:            AssessRisk(in),
		RedFlags:        ScanStatements(bundle),
		RevenueForecast: ForecastRevenue(bundle),
	}
}
