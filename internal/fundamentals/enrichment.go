package fundamentals

import (
	"github.com/equitylens/backend/internal/contracts"
	"github.com/equitylens/backend/internal/quant"
)

// Enrichment carries the statement-derived screener metrics. Computed only
// when a filter needs them; every field tolerates missing years.
type Enrichment struct {
	RevenueCAGR3Y       *float64 `json:"revenue_cagr_3y"`
	EPSCAGR5Y           *float64 `json:"eps_cagr_5y"`
	FCFYield            *float64 `json:"fcf_yield"`
	ROIC                *float64 `json:"roic"`
	PiotroskiScore      *int     `json:"piotroski_score"`
	FCFPositive5Y       *bool    `json:"fcf_positive_5y"`
	DebtDecreasing      *bool    `json:"debt_decreasing"`
	EarningsConsistency *float64 `json:"earnings_consistency"`
	OperatingLeverage   *bool    `json:"operating_leverage_improving"`
}

// BuildEnrichment derives the screener's fundamental metrics from a
// statement bundle. corporateTaxRate feeds the NOPAT step of ROIC.
func BuildEnrichment(quote *contracts.Quote, profile ProfileRatios, bundle *contracts.StatementBundle, corporateTaxRate float64) Enrichment {
	var e Enrichment
	if bundle == nil || len(bundle.Years) == 0 {
		return e
	}

	latest := Extract(bundle, bundle.LatestYear())
	byYear := make([]Metrics, 0, len(bundle.Years))
	for _, year := range bundle.Years {
		byYear = append(byYear, Extract(bundle, year))
	}

	e.RevenueCAGR3Y = metricCAGR(byYear, 3, func(m Metrics) *float64 { return m.Revenue })
	e.EPSCAGR5Y = epsCAGR(byYear, 5)

	if quote != nil {
		e.FCFYield = quant.SafeDiv(latest.FreeCashFlow, quote.MarketCap)
	}

	e.ROIC = roic(latest, corporateTaxRate)

	dash := BuildDashboard(quote, profile, bundle)
	e.PiotroskiScore = dash.Piotroski.Score

	e.FCFPositive5Y = fcfPositive(byYear, 5)
	e.DebtDecreasing = debtDecreasing(byYear, 5)
	e.EarningsConsistency = earningsConsistency(byYear, 5)
	e.OperatingLeverage = operatingLeverageImproving(byYear)

	return e
}

// metricCAGR compounds a line item from span years back to the latest year.
// byYear is ordered newest first.
func metricCAGR(byYear []Metrics, span int, pick func(Metrics) *float64) *float64 {
	if len(byYear) <= span {
		span = len(byYear) - 1
	}
	if span < 1 {
		return nil
	}
	newest := pick(byYear[0])
	oldest := pick(byYear[span])
	if newest == nil || oldest == nil {
		return nil
	}
	return quant.CAGR(*oldest, *newest, float64(span))
}

func epsCAGR(byYear []Metrics, span int) *float64 {
	return metricCAGR(byYear, span, func(m Metrics) *float64 {
		return quant.SafeDiv(m.NetIncome, m.SharesOutstanding)
	})
}

// roic is NOPAT over invested capital (equity + long-term debt).
func roic(latest Metrics, taxRate float64) *float64 {
	if latest.EBIT == nil {
		return nil
	}
	nopat := *latest.EBIT * (1 - taxRate)
	invested := sumPtr(latest.Equity, latest.LongTermDebt)
	if invested == nil {
		invested = latest.Equity
	}
	return quant.SafeDiv(&nopat, invested)
}

// fcfPositive is true when every reported free cash flow in the window is
// positive, nil when none is reported.
func fcfPositive(byYear []Metrics, window int) *bool {
	if len(byYear) < window {
		window = len(byYear)
	}
	seen := 0
	for _, m := range byYear[:window] {
		if m.FreeCashFlow == nil {
			continue
		}
		seen++
		if *m.FreeCashFlow <= 0 {
			v := false
			return &v
		}
	}
	if seen == 0 {
		return nil
	}
	v := true
	return &v
}

// debtDecreasing is true when the latest long-term debt sits below both the
// prior year and the oldest value in the window.
func debtDecreasing(byYear []Metrics, window int) *bool {
	if len(byYear) < window {
		window = len(byYear)
	}
	if window < 2 {
		return nil
	}
	latest := byYear[0].LongTermDebt
	prior := byYear[1].LongTermDebt
	oldest := byYear[window-1].LongTermDebt
	if latest == nil || prior == nil || oldest == nil {
		return nil
	}
	v := *latest < *prior && *latest <= *oldest
	return &v
}

// earningsConsistency is the share of year-over-year net-income transitions
// in the window that grew, 0..1. Nil below two observations.
func earningsConsistency(byYear []Metrics, window int) *float64 {
	if len(byYear) < window {
		window = len(byYear)
	}
	improved := 0
	compared := 0
	for i := 0; i < window-1; i++ {
		newer := byYear[i].NetIncome
		older := byYear[i+1].NetIncome
		if newer == nil || older == nil {
			continue
		}
		compared++
		if *newer > *older {
			improved++
		}
	}
	if compared == 0 {
		return nil
	}
	v := float64(improved) / float64(compared)
	return &v
}

// operatingLeverageImproving is true when latest operating-income growth
// outpaced revenue growth year over year.
func operatingLeverageImproving(byYear []Metrics) *bool {
	if len(byYear) < 2 {
		return nil
	}
	opGrowth := yoyGrowth(byYear[0].OperatingIncome, byYear[1].OperatingIncome)
	revGrowth := yoyGrowth(byYear[0].Revenue, byYear[1].Revenue)
	if opGrowth == nil || revGrowth == nil {
		return nil
	}
	v := *opGrowth > *revGrowth
	return &v
}

func yoyGrowth(newer, older *float64) *float64 {
	if newer == nil || older == nil || *older == 0 {
		return nil
	}
	v := (*newer - *older) / *older
	return &v
}
