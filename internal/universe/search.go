package universe

import (
	"sort"
	"strings"

	"github.com/equitylens/backend/internal/contracts"
)

// Match-quality scores for ranked search results.
const (
	scoreExactSymbol  = 100
	scoreSymbolPrefix = 75
	scoreNameMatch    = 50
	scoreWeakMatch    = 25
)

// MergeSearchResults combines results from multiple sources, deduplicates
// by symbol keeping the best-scored entry, and ranks by match quality
// against the query.
func MergeSearchResults(query string, sources ...[]contracts.SearchResult) []contracts.SearchResult {
	q := strings.ToUpper(strings.TrimSpace(query))

	best := make(map[string]contracts.SearchResult)
	var order []string
	for _, source := range sources {
		for _, result := range source {
			symbol := strings.ToUpper(result.Symbol)
			if symbol == "" {
				continue
			}
			result.Symbol = symbol
			result.Score = matchScore(q, result)

			existing, ok := best[symbol]
			if !ok {
				best[symbol] = result
				order = append(order, symbol)
				continue
			}
			if result.Score > existing.Score {
				best[symbol] = result
			}
		}
	}

	out := make([]contracts.SearchResult, 0, len(best))
	for _, symbol := range order {
		out = append(out, best[symbol])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

func matchScore(q string, r contracts.SearchResult) float64 {
	if q == "" {
		return scoreWeakMatch
	}
	switch {
	case r.Symbol == q:
		return scoreExactSymbol
	case strings.HasPrefix(r.Symbol, q):
		return scoreSymbolPrefix
	case strings.Contains(strings.ToUpper(r.Name), q):
		return scoreNameMatch
	default:
		return scoreWeakMatch
	}
}
