package screener

import (
	"github.com/equitylens/backend/internal/contracts"
	"github.com/equitylens/backend/internal/quant"
)

// Presets are the curated screener configurations the client offers
// one-click. Keys are stable API identifiers.
func Presets() map[string]contracts.ScreenerRequest {
	return map[string]contracts.ScreenerRequest{
		"safe-compounders": {
			Filters: contracts.ScreenerFilters{
				MinROE:               quant.Ptr(0.12),
				MaxDebtToEquity:      quant.Ptr(1.0),
				MaxVolatility:        quant.Ptr(0.30),
				MinPiotroski:         intPtr(6),
				RequirePositiveFCF5Y: true,
			},
			SortBy:    "score",
			SortOrder: "desc",
			Limit:     20,
		},
		"value-hunters": {
			Filters: contracts.ScreenerFilters{
				MaxPE:       quant.Ptr(15.0),
				MinFCFYield: quant.Ptr(0.05),
				MinROIC:     quant.Ptr(0.10),
			},
			SortBy:    "score",
			SortOrder: "desc",
			Limit:     20,
		},
		"high-growth": {
			Filters: contracts.ScreenerFilters{
				MinRevenueCAGR3Y: quant.Ptr(0.15),
				MinMomentum6M:    quant.Ptr(0.10),
				MinRevenueGrowth: quant.Ptr(0.10),
			},
			SortBy:    "score",
			SortOrder: "desc",
			Limit:     20,
		},
	}
}

func intPtr(v int) *int { return &v }
