package screener

import (
	"sort"
	"strings"

	"github.com/equitylens/backend/internal/contracts"
	"github.com/equitylens/backend/internal/quant"
)

// rankRows runs the deterministic post-pass over the full surviving batch:
// composite ranks on score, percentile ranks, sector-relative ranks, and
// the cross-batch volatility percentile. Rows eliminated here by the
// volatility-percentile filter are counted like any other elimination.
func rankRows(rows []contracts.ScreenerRow, filters *contracts.ScreenerFilters, eliminations map[string]int) []contracts.ScreenerRow {
	if len(rows) == 0 {
		return rows
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Score != rows[j].Score {
			return rows[i].Score > rows[j].Score
		}
		return derefOrZero(rows[i].MarketCap) > derefOrZero(rows[j].MarketCap)
	})

	n := len(rows)
	for i := range rows {
		rows[i].CompositeRank = i + 1
		if n > 1 {
			rows[i].PercentileRank = float64(n-(i+1)) / float64(n-1) * 100
		} else {
			rows[i].PercentileRank = 100
		}
	}

	sectorCounters := make(map[string]int)
	for i := range rows {
		sector := rows[i].Sector
		sectorCounters[sector]++
		rows[i].SectorRank = sectorCounters[sector]
	}

	var vols []float64
	for i := range rows {
		if rows[i].Volatility != nil {
			vols = append(vols, *rows[i].Volatility)
		}
	}
	if len(vols) > 0 {
		for i := range rows {
			if rows[i].Volatility != nil {
				rows[i].VolatilityPercentile = quant.Ptr(quant.PercentileRank(vols, *rows[i].Volatility))
			}
		}
	}

	if filters.MaxVolatilityPercentile != nil {
		kept := rows[:0]
		for _, row := range rows {
			if row.VolatilityPercentile == nil || *row.VolatilityPercentile > *filters.MaxVolatilityPercentile {
				eliminations[filterMaxVolatilityPercentile]++
				continue
			}
			kept = append(kept, row)
		}
		rows = kept
	}

	return rows
}

// applySort orders the ranked rows by the caller's requested field. An
// unknown field keeps the score ordering from the ranking pass.
func applySort(rows []contracts.ScreenerRow, sortBy, sortOrder string) {
	key := sortKey(sortBy)
	if key == nil {
		return
	}

	ascending := strings.EqualFold(sortOrder, "asc")
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := key(&rows[i]), key(&rows[j])
		if ascending {
			return a < b
		}
		return a > b
	})
}

func sortKey(sortBy string) func(*contracts.ScreenerRow) float64 {
	switch strings.ToLower(sortBy) {
	case "", "score":
		return nil
	case "market_cap":
		return func(r *contracts.ScreenerRow) float64 { return derefOrZero(r.MarketCap) }
	case "price":
		return func(r *contracts.ScreenerRow) float64 { return derefOrZero(r.Price) }
	case "pe_ratio":
		return func(r *contracts.ScreenerRow) float64 { return derefOrZero(r.PERatio) }
	case "volatility":
		return func(r *contracts.ScreenerRow) float64 { return derefOrZero(r.Volatility) }
	case "momentum_6m":
		return func(r *contracts.ScreenerRow) float64 { return derefOrZero(r.Momentum6M) }
	case "dividend_yield":
		return func(r *contracts.ScreenerRow) float64 { return derefOrZero(r.DividendYield) }
	default:
		return nil
	}
}

func derefOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
