package insights

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/equitylens/backend/internal/contracts"
	"github.com/equitylens/backend/internal/fundamentals"
	"github.com/equitylens/backend/internal/quant"
)

const forecastHorizonYears = 3

// ForecastPoint is one projected fiscal year.
type ForecastPoint struct {
	YearOffset int     `json:"year_offset"`
	Revenue    float64 `json:"revenue"`
}

// RevenueForecast is the regression-based revenue outlook.
type RevenueForecast struct {
	Model                string          `json:"model"`
	R2                   *float64        `json:"r2"`
	Forecast             []ForecastPoint `json:"forecast"`
	EstimatedCAGRPercent *float64        `json:"estimated_cagr_percent"`
}

// ForecastRevenue fits a trend through the reported revenue history and
// extrapolates three years out. When every observation is positive the fit
// runs in log space, so steady compounders project exponentially; otherwise
// a plain linear fit is used. R-squared is always reported against the
// actual revenues. Nil below three observations.
func ForecastRevenue(bundle *contracts.StatementBundle) *RevenueForecast {
	if bundle == nil {
		return nil
	}

	// Oldest first for the regression axis.
	revenues := make([]float64, 0, len(bundle.Years))
	for i := len(bundle.Years) - 1; i >= 0; i-- {
		m := fundamentals.Extract(bundle, bundle.Years[i])
		if m.Revenue == nil {
			return nil
		}
		revenues = append(revenues, *m.Revenue)
	}
	if len(revenues) < 3 {
		return nil
	}

	xs := make([]float64, len(revenues))
	for i := range xs {
		xs[i] = float64(i)
	}

	allPositive := true
	for _, r := range revenues {
		if r <= 0 {
			allPositive = false
			break
		}
	}

	var (
		model   string
		r2      float64
		predict func(x float64) float64
	)
	if allPositive {
		logs := make([]float64, len(revenues))
		for i, r := range revenues {
			logs[i] = math.Log(r)
		}
		trend := quant.FitTrend(xs, logs)
		if trend == nil {
			return nil
		}
		model = "log-linear"
		predict = func(x float64) float64 { return math.Exp(trend.Forecast(x)) }

		estimates := make([]float64, len(revenues))
		for i, x := range xs {
			estimates[i] = predict(x)
		}
		r2 = stat.RSquaredFrom(estimates, revenues, nil)
	} else {
		trend := quant.FitTrend(xs, revenues)
		if trend == nil {
			return nil
		}
		model = "linear"
		predict = trend.Forecast
		r2 = trend.R2
	}
	if math.IsNaN(r2) || math.IsInf(r2, 0) {
		r2 = 0
	}

	forecast := make([]ForecastPoint, 0, forecastHorizonYears)
	for i := 1; i <= forecastHorizonYears; i++ {
		forecast = append(forecast, ForecastPoint{
			YearOffset: i,
			Revenue:    math.Max(0, predict(float64(len(revenues) - 1 + i))),
		})
	}

	latest := revenues[len(revenues)-1]
	var cagrPercent *float64
	if final := forecast[len(forecast)-1].Revenue; latest > 0 && final > 0 {
		if g := quant.CAGR(latest, final, forecastHorizonYears); g != nil {
			v := *g * 100
			cagrPercent = &v
		}
	}

	return &RevenueForecast{
		Model:                model,
		R2:                   &r2,
		Forecast:             forecast,
		EstimatedCAGRPercent: cagrPercent,
	}
}
