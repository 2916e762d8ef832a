package stocks

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/equitylens/backend/internal/contracts"
	"github.com/equitylens/backend/internal/valuation"
)

// ValuationPayload is the full valuation view: the intrinsic DCF engine and
// the peer-relative multiples section.
type ValuationPayload struct {
	Symbol      string                       `json:"symbol"`
	Engine      *valuation.Engine            `json:"engine,omitempty"`
	Relative    *valuation.RelativeValuation `json:"relative,omitempty"`
	GeneratedAt time.Time                    `json:"generated_at"`
}

// Valuation builds the DCF engine from the statement bundle and the relative
// section from the scored peer set. Either half may be absent when its
// inputs could not be fetched; both missing is an error.
func (s *Service) Valuation(ctx context.Context, symbol string) (*ValuationPayload, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("valuation: empty symbol")
	}

	var (
		wg       sync.WaitGroup
		quote    *contracts.Quote
		profile  *contracts.Profile
		bundle   *contracts.StatementBundle
		quoteErr error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		quote, _, quoteErr = s.data.QuoteWithMeta(ctx, symbol)
	}()
	go func() {
		defer wg.Done()
		if p, _, err := s.data.ProfileWithMeta(ctx, symbol); err == nil {
			profile = p
		}
	}()
	go func() {
		defer wg.Done()
		if b, _, err := s.data.FinancialsWithMeta(ctx, symbol); err == nil {
			bundle = b
		}
	}()
	wg.Wait()

	if quoteErr != nil {
		return nil, fmt.Errorf("valuation %s: %w", symbol, quoteErr)
	}

	payload := &ValuationPayload{Symbol: symbol, GeneratedAt: time.Now().UTC()}

	if bundle != nil && len(bundle.Years) > 0 {
		engine := valuation.BuildEngine(valuation.DeriveInputs(symbol, quote, profileInputsOf(profile), bundle, s.assume))
		payload.Engine = &engine
	}

	if snapshot := s.peerSnapshot(ctx, symbol, quote, profile); snapshot != nil && len(snapshot.Items) > 0 {
		relative := valuation.BuildRelative(companyMultiplesOf(profile), peerMultiplesOf(snapshot.Items), quotePrice(quote))
		payload.Relative = &relative
	}

	if payload.Engine == nil && payload.Relative == nil {
		return nil, fmt.Errorf("valuation %s: insufficient data for any valuation basis", symbol)
	}
	return payload, nil
}

func companyMultiplesOf(profile *contracts.Profile) valuation.CompanyMultiples {
	if profile == nil {
		return valuation.CompanyMultiples{}
	}
	return valuation.CompanyMultiples{
		PE:            profile.TrailingPE,
		PB:            profile.PB,
		PEG:           profile.PEG,
		EPS:           profile.EPS,
		BookValue:     profile.BookValue,
		RevenueGrowth: profile.RevenueGrowth,
	}
}

func peerMultiplesOf(rows []PeerRow) []valuation.PeerMultiple {
	peers := make([]valuation.PeerMultiple, 0, len(rows))
	for _, row := range rows {
		peers = append(peers, valuation.PeerMultiple{
			Symbol:    row.Symbol,
			Name:      row.Name,
			Sector:    row.Sector,
			Industry:  row.Industry,
			Price:     row.Price,
			MarketCap: row.MarketCap,
			PE:        row.PE,
			PB:        row.PB,
			PEG:       row.PEG,
		})
	}
	return peers
}

func quotePrice(quote *contracts.Quote) *float64 {
	if quote == nil {
		return nil
	}
	return quote.Price
}
