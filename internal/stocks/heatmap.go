package stocks

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/equitylens/backend/internal/universe"
	"github.com/equitylens/backend/pkg/cache"
)

const (
	heatmapMinLimit    = 20
	heatmapMaxLimit    = 200
	heatmapConcurrency = 8
)

// HeatmapItem is one tile on the market heatmap.
type HeatmapItem struct {
	Symbol        string   `json:"symbol"`
	Name          string   `json:"name"`
	Price         *float64 `json:"price"`
	ChangePercent *float64 `json:"change_percent"`
	MarketCap     *float64 `json:"market_cap"`
	Volume        *float64 `json:"volume"`
}

// HeatmapStats summarizes market breadth over the tiles.
type HeatmapStats struct {
	Advancers int `json:"advancers"`
	Decliners int `json:"decliners"`
	Unchanged int `json:"unchanged"`
}

// Heatmap is the market overview payload, sorted by market cap.
type Heatmap struct {
	Items       []HeatmapItem `json:"items"`
	Stats       HeatmapStats  `json:"stats"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// Heatmap builds the market-cap heatmap from live quotes over the large-cap
// universe, extended from the exchange directory when the static list runs
// short. The assembled payload is cached; quote failures shrink the grid
// and an empty grid falls back to unquoted tiles.
func (s *Service) Heatmap(ctx context.Context, limit int) (*Heatmap, error) {
	if limit < heatmapMinLimit {
		limit = heatmapMinLimit
	}
	if limit > heatmapMaxLimit {
		limit = heatmapMaxLimit
	}

	if s.cache == nil {
		return s.buildHeatmap(ctx, limit), nil
	}

	var payload Heatmap
	err := s.cache.Remember(ctx, cache.HeatmapKey(limit), &payload, cache.TTLHeatmap, func() (interface{}, error) {
		return s.buildHeatmap(ctx, limit), nil
	})
	if err != nil {
		return s.buildHeatmap(ctx, limit), nil
	}
	return &payload, nil
}

func (s *Service) buildHeatmap(ctx context.Context, limit int) *Heatmap {
	candidates := s.heatmapCandidates(ctx, limit)

	var (
		sem  = semaphore.NewWeighted(heatmapConcurrency)
		wg   sync.WaitGroup
		mu   sync.Mutex
		rows []HeatmapItem
	)
	for _, symbol := range candidates {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			defer sem.Release(1)

			quote, _, err := s.data.QuoteWithMeta(ctx, symbol)
			if err != nil || quote == nil {
				return
			}
			if quote.Price == nil && quote.MarketCap == nil {
				return
			}
			item := HeatmapItem{
				Symbol:        strings.ToUpper(symbol),
				Name:          quote.Name,
				Price:         quote.Price,
				ChangePercent: quote.ChangePercent,
				MarketCap:     quote.MarketCap,
				Volume:        quote.Volume,
			}
			mu.Lock()
			rows = append(rows, item)
			mu.Unlock()
		}(symbol)
	}
	wg.Wait()

	if len(rows) == 0 {
		s.logger.Warn("heatmap quotes unavailable, serving static universe")
		return staticHeatmap(limit)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return capOrZero(rows[i].MarketCap) > capOrZero(rows[j].MarketCap)
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}

	return &Heatmap{
		Items:       rows,
		Stats:       heatmapStats(rows),
		GeneratedAt: time.Now().UTC(),
	}
}

// heatmapCandidates starts from the static large-cap table and tops up from
// the exchange directory, keeping enough headroom over the requested limit
// to absorb failed quotes.
func (s *Service) heatmapCandidates(ctx context.Context, limit int) []string {
	target := limit + 40
	if target < 80 {
		target = 80
	}

	seen := make(map[string]bool, target)
	candidates := make([]string, 0, target)
	add := func(symbol string) {
		symbol = strings.ToUpper(strings.TrimSpace(symbol))
		if symbol == "" || seen[symbol] || !validHeatmapSymbol(symbol) {
			return
		}
		seen[symbol] = true
		candidates = append(candidates, symbol)
	}

	for _, symbol := range universe.HeatmapSymbols {
		add(symbol)
	}

	if len(candidates) < target && s.directory != nil {
		if page, err := s.directory.List(ctx, "", 0, target*2); err == nil {
			for _, listing := range page.Items {
				if len(candidates) >= target {
					break
				}
				add(listing.Symbol)
			}
		}
	}

	if len(candidates) > target {
		candidates = candidates[:target]
	}
	return candidates
}

func validHeatmapSymbol(symbol string) bool {
	if symbol == "" || len(symbol) > 10 {
		return false
	}
	first := symbol[0]
	if !(first >= 'A' && first <= 'Z') && !(first >= 'a' && first <= 'z') {
		return false
	}
	for i := 0; i < len(symbol); i++ {
		c := symbol[i]
		switch {
		case c >= 'A' && c <= 'Z':
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '.' || c == '-':
		default:
			return false
		}
	}
	return true
}

func heatmapStats(rows []HeatmapItem) HeatmapStats {
	stats := HeatmapStats{}
	for _, row := range rows {
		switch {
		case row.ChangePercent != nil && *row.ChangePercent > 0:
			stats.Advancers++
		case row.ChangePercent != nil && *row.ChangePercent < 0:
			stats.Decliners++
		default:
			stats.Unchanged++
		}
	}
	return stats
}

// staticHeatmap lists the universe without quotes so the endpoint still
// renders when every provider is down.
func staticHeatmap(limit int) *Heatmap {
	symbols := universe.HeatmapSymbols
	if len(symbols) > limit {
		symbols = symbols[:limit]
	}
	items := make([]HeatmapItem, 0, len(symbols))
	for _, symbol := range symbols {
		items = append(items, HeatmapItem{Symbol: symbol, Name: symbol})
	}
	return &Heatmap{
		Items:       items,
		Stats:       HeatmapStats{Unchanged: len(items)},
		GeneratedAt: time.Now().UTC(),
	}
}

func capOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
