package portfolio

import (
	"sort"

	"github.com/equitylens/backend/internal/contracts"
)

const dayKeyLayout = "2006-01-02"

// IndexSeries is a pair of date-aligned, base-100-free index series for the
// portfolio and its benchmark, ready for return computation.
type IndexSeries struct {
	Dates     []string
	Portfolio []float64
	Benchmark []float64
}

// BuildIndexSeries constructs the portfolio index as the market-value
// weighted sum of each holding's price ratio to its close on the anchor
// date. The anchor is the first date where every holding (and the
// benchmark, when given) has a close; earlier dates are dropped rather than
// averaged over partial windows. Holdings without history are excluded from
// the series but keep their place in the rest of the insight computation.
func BuildIndexSeries(holdings []Holding, benchmark []contracts.PriceBar) IndexSeries {
	var series IndexSeries

	closesBySymbol := make(map[string]map[string]float64)
	var withHistory []Holding
	for _, h := range holdings {
		if len(h.History) == 0 {
			continue
		}
		closesBySymbol[h.Symbol] = closesByDay(h.History)
		withHistory = append(withHistory, h)
	}
	if len(withHistory) == 0 {
		return series
	}

	var benchCloses map[string]float64
	if len(benchmark) > 0 {
		benchCloses = closesByDay(benchmark)
	}

	// Candidate dates come from the first holding, then must appear in
	// every other holding and in the benchmark.
	var dates []string
	for day := range closesBySymbol[withHistory[0].Symbol] {
		shared := true
		for _, h := range withHistory[1:] {
			if _, ok := closesBySymbol[h.Symbol][day]; !ok {
				shared = false
				break
			}
		}
		if shared && benchCloses != nil {
			if _, ok := benchCloses[day]; !ok {
				shared = false
			}
		}
		if shared {
			dates = append(dates, day)
		}
	}
	if len(dates) < 2 {
		return series
	}
	sort.Strings(dates)

	totalValue := 0.0
	for _, h := range withHistory {
		totalValue += h.MarketValue()
	}
	if totalValue <= 0 {
		return series
	}

	anchor := dates[0]
	portfolio := make([]float64, 0, len(dates))
	bench := make([]float64, 0, len(dates))
	for _, day := range dates {
		level := 0.0
		for _, h := range withHistory {
			closes := closesBySymbol[h.Symbol]
			base := closes[anchor]
			if base <= 0 {
				continue
			}
			weight := h.MarketValue() / totalValue
			level += weight * closes[day] / base
		}
		portfolio = append(portfolio, level)

		if benchCloses != nil {
			base := benchCloses[anchor]
			if base > 0 {
				bench = append(bench, benchCloses[day]/base)
			}
		}
	}

	series.Dates = dates
	series.Portfolio = portfolio
	if len(bench) == len(dates) {
		series.Benchmark = bench
	}
	return series
}

func closesByDay(bars []contracts.PriceBar) map[string]float64 {
	out := make(map[string]float64, len(bars))
	for _, b := range bars {
		if b.Close > 0 {
			out[b.Date.Format(dayKeyLayout)] = b.Close
		}
	}
	return out
}
