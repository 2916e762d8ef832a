package quant

import "math"

// TradingDaysPerYear is the annualization base for daily series.
const TradingDaysPerYear = 252

// DefaultRiskFreeRate is the annual risk-free rate used by Sharpe/Sortino.
const DefaultRiskFreeRate = 0.04

// DailyReturns converts a close series into simple daily returns.
// Bars with a non-positive previous close are skipped.
func DailyReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		prev := closes[i-1]
		if prev <= 0 {
			continue
		}
		returns = append(returns, closes[i]/prev-1)
	}
	return returns
}

// AnnualizedVolatility is stdev(daily returns) · √252.
func AnnualizedVolatility(returns []float64) *float64 {
	sd := StdDev(returns)
	if sd == nil {
		return nil
	}
	v := *sd * math.Sqrt(TradingDaysPerYear)
	return &v
}

// MaxDrawdown is the worst peak-to-trough decline of a value series,
// returned as a negative fraction (-0.25 means a 25% drawdown).
func MaxDrawdown(series []float64) *float64 {
	if len(series) < 2 {
		return nil
	}
	peak := series[0]
	worst := 0.0
	for _, v := range series[1:] {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			dd := v/peak - 1
			if dd < worst {
				worst = dd
			}
		}
	}
	return &worst
}

// CAGR is the compound annual growth rate between two values over a span of
// years. Nil for non-positive endpoints or a non-positive span.
func CAGR(first, last, years float64) *float64 {
	if first <= 0 || last <= 0 || years <= 0 {
		return nil
	}
	v := math.Pow(last/first, 1/years) - 1
	return &v
}

// AnnualizedReturn derives CAGR from an index series sampled daily.
func AnnualizedReturn(series []float64) *float64 {
	if len(series) < 2 {
		return nil
	}
	years := float64(len(series)-1) / TradingDaysPerYear
	return CAGR(series[0], series[len(series)-1], years)
}

// Sharpe is the annualized Sharpe ratio of a daily-return series against an
// annual risk-free rate.
func Sharpe(returns []float64, riskFree float64) *float64 {
	mean := Mean(returns)
	sd := StdDev(returns)
	if mean == nil || sd == nil || *sd == 0 {
		return nil
	}
	rfDaily := riskFree / TradingDaysPerYear
	v := (*mean - rfDaily) / *sd * math.Sqrt(TradingDaysPerYear)
	return &v
}

// Sortino is Sharpe with downside deviation below the risk-free rate as the
// denominator. Nil when there are no downside observations.
func Sortino(returns []float64, riskFree float64) *float64 {
	mean := Mean(returns)
	if mean == nil {
		return nil
	}
	rfDaily := riskFree / TradingDaysPerYear

	sumSq := 0.0
	n := 0
	for _, r := range returns {
		if r < rfDaily {
			d := r - rfDaily
			sumSq += d * d
			n++
		}
	}
	if n == 0 {
		return nil
	}
	downside := math.Sqrt(sumSq / float64(n))
	if downside == 0 {
		return nil
	}
	v := (*mean - rfDaily) / downside * math.Sqrt(TradingDaysPerYear)
	return &v
}

// Calmar is annualized return over the magnitude of max drawdown.
func Calmar(annualReturn, maxDrawdown *float64) *float64 {
	if annualReturn == nil || maxDrawdown == nil || *maxDrawdown == 0 {
		return nil
	}
	v := *annualReturn / math.Abs(*maxDrawdown)
	return &v
}

// TrackingError is the annualized stdev of the active-return series.
// Both series must be date-aligned and equal length.
func TrackingError(portfolio, benchmark []float64) *float64 {
	active := ActiveReturns(portfolio, benchmark)
	return AnnualizedVolatility(active)
}

// InformationRatio is annualized mean active return over tracking error.
func InformationRatio(portfolio, benchmark []float64) *float64 {
	active := ActiveReturns(portfolio, benchmark)
	mean := Mean(active)
	te := AnnualizedVolatility(active)
	if mean == nil || te == nil || *te == 0 {
		return nil
	}
	v := *mean * TradingDaysPerYear / *te
	return &v
}

// ActiveReturns subtracts benchmark returns from portfolio returns pairwise.
func ActiveReturns(portfolio, benchmark []float64) []float64 {
	n := len(portfolio)
	if len(benchmark) < n {
		n = len(benchmark)
	}
	if n == 0 {
		return nil
	}
	active := make([]float64, n)
	for i := 0; i < n; i++ {
		active[i] = portfolio[i] - benchmark[i]
	}
	return active
}

// CaptureRatios reports mean portfolio return conditioned on benchmark sign,
// as percentages of the corresponding benchmark mean.
func CaptureRatios(portfolio, benchmark []float64) (up, down *float64) {
	n := len(portfolio)
	if len(benchmark) < n {
		n = len(benchmark)
	}

	var upPort, upBench, downPort, downBench []float64
	for i := 0; i < n; i++ {
		switch {
		case benchmark[i] > 0:
			upPort = append(upPort, portfolio[i])
			upBench = append(upBench, benchmark[i])
		case benchmark[i] < 0:
			downPort = append(downPort, portfolio[i])
			downBench = append(downBench, benchmark[i])
		}
	}

	up = captureRatio(upPort, upBench)
	down = captureRatio(downPort, downBench)
	return up, down
}

func captureRatio(port, bench []float64) *float64 {
	pm := Mean(port)
	bm := Mean(bench)
	if pm == nil || bm == nil || *bm == 0 {
		return nil
	}
	v := *pm / *bm * 100
	return &v
}
