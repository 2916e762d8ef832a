package stocks

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/equitylens/backend/internal/contracts"
	"github.com/equitylens/backend/internal/quant"
	"github.com/equitylens/backend/internal/universe"
)

const (
	peerFetchLimit = 10
	peerRankLimit  = 5

	similarityIndustryPoints = 45.0
	similaritySectorPoints   = 30.0
	similarityCapPoints      = 25.0
	similarityFieldPoints    = 3.0
)

// PeerRow is one comparable company with its similarity scoring.
type PeerRow struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Sector   string `json:"sector,omitempty"`
	Industry string `json:"industry,omitempty"`
	Currency string `json:"currency,omitempty"`

	Price         *float64 `json:"price"`
	MarketCap     *float64 `json:"market_cap"`
	PE            *float64 `json:"pe"`
	PB            *float64 `json:"pb"`
	PEG           *float64 `json:"peg"`
	ROE           *float64 `json:"roe"`
	RevenueGrowth *float64 `json:"revenue_growth"`
	ProfitMargin  *float64 `json:"profit_margin"`

	SimilarityScore          float64  `json:"similarity_score"`
	SectorMatch              *bool    `json:"sector_match"`
	IndustryMatch            *bool    `json:"industry_match"`
	MarketCapDistancePercent *float64 `json:"market_cap_distance_percent"`
	BenchmarkRank            int      `json:"benchmark_rank,omitempty"`
}

// PeerBenchmark carries the sector medians next to the company's own
// figures for direct comparison.
type PeerBenchmark struct {
	PeerCount                 int      `json:"peer_count"`
	SectorMedianPE            *float64 `json:"sector_median_pe"`
	SectorMedianROE           *float64 `json:"sector_median_roe"`
	SectorMedianRevenueGrowth *float64 `json:"sector_median_revenue_growth"`
	SectorMedianMarketCap     *float64 `json:"sector_median_market_cap"`
	CompanyPE                 *float64 `json:"company_pe"`
	CompanyROE                *float64 `json:"company_roe"`
	CompanyRevenueGrowth      *float64 `json:"company_revenue_growth"`
}

// PeerSnapshot is the dashboard's peer-benchmarking section.
type PeerSnapshot struct {
	Items     []PeerRow     `json:"items"`
	Benchmark PeerBenchmark `json:"benchmark"`
}

// peerSnapshot loads the sector's peer list concurrently, scores each peer
// for similarity, and ranks the top matches. Individual peer failures are
// skipped, never fatal.
func (s *Service) peerSnapshot(ctx context.Context, symbol string, quote *contracts.Quote, profile *contracts.Profile) *PeerSnapshot {
	sector := ""
	if profile != nil {
		sector = profile.Sector
	}
	india := isIndiaSymbol(symbol)
	candidates := excludeSymbol(universe.PeersForSector(sector, india), symbol)
	if len(candidates) > peerFetchLimit {
		candidates = candidates[:peerFetchLimit]
	}
	if len(candidates) == 0 {
		return nil
	}

	company := companyIdentity(symbol, quote, profile)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		rows []PeerRow
	)
	for _, peer := range candidates {
		wg.Add(1)
		go func(peer string) {
			defer wg.Done()
			row, ok := s.loadPeer(ctx, peer, company)
			if !ok {
				return
			}
			mu.Lock()
			rows = append(rows, row)
			mu.Unlock()
		}(peer)
	}
	wg.Wait()

	// Cross-listed Indian names only benchmark against the same exchange.
	if suffix := indiaSuffix(symbol); suffix != "" {
		kept := rows[:0]
		for _, row := range rows {
			if strings.HasSuffix(row.Symbol, suffix) {
				kept = append(kept, row)
			}
		}
		rows = kept
	}

	rankPeers(rows)

	snapshot := &PeerSnapshot{
		Benchmark: PeerBenchmark{
			PeerCount:                 len(rows),
			SectorMedianPE:            medianField(rows, func(r PeerRow) *float64 { return r.PE }),
			SectorMedianROE:           medianField(rows, func(r PeerRow) *float64 { return r.ROE }),
			SectorMedianRevenueGrowth: medianField(rows, func(r PeerRow) *float64 { return r.RevenueGrowth }),
			SectorMedianMarketCap:     medianField(rows, func(r PeerRow) *float64 { return r.MarketCap }),
		},
	}
	if profile != nil {
		snapshot.Benchmark.CompanyPE = firstPtr(profile.TrailingPE, quotePE(quote))
		snapshot.Benchmark.CompanyROE = quant.NormalizeRate(profile.ROE)
		snapshot.Benchmark.CompanyRevenueGrowth = quant.NormalizeRate(profile.RevenueGrowth)
	}

	if len(rows) > peerRankLimit {
		rows = rows[:peerRankLimit]
	}
	snapshot.Items = rows
	return snapshot
}

func (s *Service) loadPeer(ctx context.Context, symbol string, company identity) (PeerRow, bool) {
	var (
		wg      sync.WaitGroup
		quote   *contracts.Quote
		profile *contracts.Profile
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		if q, _, err := s.data.QuoteWithMeta(ctx, symbol); err == nil {
			quote = q
		}
	}()
	go func() {
		defer wg.Done()
		if p, _, err := s.data.ProfileWithMeta(ctx, symbol); err == nil {
			profile = p
		}
	}()
	wg.Wait()

	if quote == nil && profile == nil {
		return PeerRow{}, false
	}

	row := PeerRow{Symbol: symbol}
	if quote != nil {
		if quote.Symbol != "" {
			row.Symbol = strings.ToUpper(quote.Symbol)
		}
		row.Name = quote.Name
		row.Currency = quote.Currency
		row.Price = quote.Price
		row.MarketCap = quote.MarketCap
		row.PE = quote.PERatio
	}
	if profile != nil {
		if profile.Name != "" {
			row.Name = profile.Name
		}
		row.Sector = profile.Sector
		row.Industry = profile.Industry
		row.ROE = quant.NormalizeRate(profile.ROE)
		row.RevenueGrowth = quant.NormalizeRate(profile.RevenueGrowth)
		row.ProfitMargin = quant.NormalizeRate(profile.ProfitMargin)
		row.PB = profile.PB
		row.PEG = profile.PEG
		if row.PE == nil {
			row.PE = profile.TrailingPE
		}
		if row.MarketCap == nil {
			row.MarketCap = profile.MarketCap
		}
	}

	scorePeer(&row, company)
	return row, true
}

// identity captures the fields the similarity scoring compares against.
type identity struct {
	sectorKey   string
	industryKey string
	marketCap   *float64
}

func companyIdentity(symbol string, quote *contracts.Quote, profile *contracts.Profile) identity {
	id := identity{}
	if profile != nil {
		id.sectorKey = normKey(profile.Sector)
		id.industryKey = normKey(profile.Industry)
	}
	if quote != nil {
		id.marketCap = quote.MarketCap
	}
	if id.marketCap == nil && profile != nil {
		id.marketCap = profile.MarketCap
	}
	return id
}

// scorePeer fills the similarity fields: industry match 45, sector match
// 30, up to 25 for market-cap proximity, and 3 per populated data field.
func scorePeer(row *PeerRow, company identity) {
	score := 0.0

	peerSector := normKey(row.Sector)
	peerIndustry := normKey(row.Industry)

	if company.industryKey != "" && peerIndustry != "" {
		match := peerIndustry == company.industryKey
		row.IndustryMatch = &match
		if match {
			score += similarityIndustryPoints
		}
	}
	if company.sectorKey != "" && peerSector != "" {
		match := peerSector == company.sectorKey
		row.SectorMatch = &match
		if match {
			score += similaritySectorPoints
		}
	}

	if company.marketCap != nil && *company.marketCap > 0 && row.MarketCap != nil && *row.MarketCap > 0 {
		dist := math.Abs(*row.MarketCap-*company.marketCap) / *company.marketCap * 100
		row.MarketCapDistancePercent = &dist
		score += math.Max(0, similarityCapPoints-math.Min(dist, 250)/10)
	}

	completeness := 0
	for _, v := range []*float64{row.PE, row.ROE, row.RevenueGrowth, row.MarketCap} {
		if v != nil {
			completeness++
		}
	}
	score += float64(completeness) * similarityFieldPoints

	row.SimilarityScore = math.Round(score*100) / 100
}

// rankPeers orders by similarity, then market-cap proximity, then symbol,
// and assigns 1-based benchmark ranks to the head of the list.
func rankPeers(rows []PeerRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].SimilarityScore != rows[j].SimilarityScore {
			return rows[i].SimilarityScore > rows[j].SimilarityScore
		}
		di, dj := capDistanceOrHuge(rows[i]), capDistanceOrHuge(rows[j])
		if di != dj {
			return di < dj
		}
		return rows[i].Symbol < rows[j].Symbol
	})
	for i := range rows {
		if i < peerRankLimit {
			rows[i].BenchmarkRank = i + 1
		}
	}
}

func capDistanceOrHuge(row PeerRow) float64 {
	if row.MarketCapDistancePercent == nil {
		return math.MaxFloat64
	}
	return *row.MarketCapDistancePercent
}

func medianField(rows []PeerRow, pick func(PeerRow) *float64) *float64 {
	vals := make([]*float64, 0, len(rows))
	for _, row := range rows {
		vals = append(vals, pick(row))
	}
	return quant.MedianOfPtrs(vals)
}

func excludeSymbol(symbols []string, self string) []string {
	self = strings.ToUpper(self)
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if strings.ToUpper(s) != self {
			out = append(out, s)
		}
	}
	return out
}

func isIndiaSymbol(symbol string) bool {
	return indiaSuffix(symbol) != ""
}

func indiaSuffix(symbol string) string {
	upper := strings.ToUpper(symbol)
	switch {
	case strings.HasSuffix(upper, ".NS"):
		return ".NS"
	case strings.HasSuffix(upper, ".BO"):
		return ".BO"
	default:
		return ""
	}
}

func normKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func quotePE(quote *contracts.Quote) *float64 {
	if quote == nil {
		return nil
	}
	return quote.PERatio
}

func firstPtr(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
