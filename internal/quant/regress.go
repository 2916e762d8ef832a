package quant

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// BetaAlpha regresses portfolio returns on benchmark returns by OLS.
// Beta is the slope, alpha the annualized intercept. Nil below two
// overlapping observations or when the benchmark has no variance.
func BetaAlpha(portfolio, benchmark []float64) (beta, alpha *float64) {
	n := len(portfolio)
	if len(benchmark) < n {
		n = len(benchmark)
	}
	if n < 2 {
		return nil, nil
	}

	x := benchmark[:n]
	y := portfolio[:n]
	if v := stat.Variance(x, nil); v == 0 {
		return nil, nil
	}

	intercept, slope := stat.LinearRegression(x, y, nil, false)
	if math.IsNaN(slope) || math.IsNaN(intercept) {
		return nil, nil
	}

	annualAlpha := intercept * TradingDaysPerYear
	return &slope, &annualAlpha
}

// RollingBeta regresses over the trailing window of both series.
func RollingBeta(portfolio, benchmark []float64, window int) *float64 {
	n := len(portfolio)
	if len(benchmark) < n {
		n = len(benchmark)
	}
	if window < 2 || n < window {
		return nil
	}
	beta, _ := BetaAlpha(portfolio[n-window:n], benchmark[n-window:n])
	return beta
}

// Trend is a least-squares fit over an observation series.
type Trend struct {
	Slope     float64
	Intercept float64
	R2        float64
}

// FitTrend fits y = intercept + slope·x by OLS and reports R².
// Nil below two points or with zero variance in x.
func FitTrend(xs, ys []float64) *Trend {
	if len(xs) != len(ys) || len(xs) < 2 {
		return nil
	}
	if stat.Variance(xs, nil) == 0 {
		return nil
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)
	r2 := stat.RSquared(xs, ys, nil, intercept, slope)
	if math.IsNaN(slope) || math.IsNaN(intercept) {
		return nil
	}
	if math.IsNaN(r2) {
		r2 = 0
	}

	return &Trend{Slope: slope, Intercept: intercept, R2: r2}
}

// Forecast evaluates the fitted line at x.
func (t *Trend) Forecast(x float64) float64 {
	return t.Intercept + t.Slope*x
}
