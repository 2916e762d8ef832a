package stocks

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/equitylens/backend/internal/contracts"
	"github.com/equitylens/backend/internal/fundamentals"
	"github.com/equitylens/backend/internal/insights"
	"github.com/equitylens/backend/internal/valuation"
)

// Dashboard is the aggregated per-symbol payload. The quote is mandatory;
// every other section degrades to nil when its inputs are unavailable.
type Dashboard struct {
	Symbol      string                          `json:"symbol"`
	Quote       *contracts.Quote                `json:"quote"`
	Profile     *contracts.Profile              `json:"profile,omitempty"`
	History     []contracts.PriceBar            `json:"history,omitempty"`
	Financials  *contracts.StatementBundle      `json:"financial_statements,omitempty"`
	Ratios      *fundamentals.RatioDashboard    `json:"ratio_dashboard,omitempty"`
	Insights    *insights.StockInsights         `json:"insights,omitempty"`
	Peers       *PeerSnapshot                   `json:"peer_snapshot,omitempty"`
	Valuation   *valuation.Engine               `json:"valuation_engine,omitempty"`
	Sources     map[string]contracts.SourceMeta `json:"data_sources"`
	GeneratedAt time.Time                       `json:"generated_at"`
}

// Dashboard fetches everything for one symbol concurrently and assembles
// the derived sections. Partial upstream failures shrink the payload but
// only a missing quote fails the request.
func (s *Service) Dashboard(ctx context.Context, symbol string) (*Dashboard, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("dashboard: empty symbol")
	}

	var (
		wg sync.WaitGroup

		quote    *contracts.Quote
		profile  *contracts.Profile
		history  []contracts.PriceBar
		bundle   *contracts.StatementBundle
		quoteErr error

		mu      sync.Mutex
		sources = make(map[string]contracts.SourceMeta)
	)
	record := func(panel string, meta contracts.SourceMeta) {
		mu.Lock()
		sources[panel] = meta
		mu.Unlock()
	}

	wg.Add(4)
	go func() {
		defer wg.Done()
		q, meta, err := s.data.QuoteWithMeta(ctx, symbol)
		record("quote", meta)
		quote, quoteErr = q, err
	}()
	go func() {
		defer wg.Done()
		p, meta, err := s.data.ProfileWithMeta(ctx, symbol)
		record("profile", meta)
		if err != nil {
			s.logger.WithError(err).WithField("symbol", symbol).Debug("profile unavailable")
			return
		}
		profile = p
	}()
	go func() {
		defer wg.Done()
		bars, meta, err := s.data.HistoryWithMeta(ctx, symbol, "1y", "1d")
		record("history", meta)
		if err != nil {
			s.logger.WithError(err).WithField("symbol", symbol).Debug("history unavailable")
			return
		}
		history = bars
	}()
	go func() {
		defer wg.Done()
		b, meta, err := s.data.FinancialsWithMeta(ctx, symbol)
		record("financials", meta)
		if err != nil {
			s.logger.WithError(err).WithField("symbol", symbol).Debug("financials unavailable")
			return
		}
		bundle = b
	}()
	wg.Wait()

	if quoteErr != nil {
		return nil, fmt.Errorf("dashboard %s: %w", symbol, quoteErr)
	}

	dashboard := &Dashboard{
		Symbol:      symbol,
		Quote:       quote,
		Profile:     profile,
		History:     history,
		Financials:  bundle,
		Sources:     sources,
		GeneratedAt: time.Now().UTC(),
	}

	if bundle != nil && len(bundle.Years) > 0 {
		ratios := fundamentals.BuildDashboard(quote, profileRatiosOf(profile), bundle)
		dashboard.Ratios = &ratios

		engine := valuation.BuildEngine(valuation.DeriveInputs(symbol, quote, profileInputsOf(profile), bundle, s.assume))
		dashboard.Valuation = &engine
	}

	stockInsights := insights.BuildStockInsights(symbol, quote, profile, contracts.Closes(history), bundle)
	dashboard.Insights = &stockInsights

	if peers := s.peerSnapshot(ctx, symbol, quote, profile); peers != nil {
		dashboard.Peers = peers
	}

	return dashboard, nil
}

func profileRatiosOf(profile *contracts.Profile) fundamentals.ProfileRatios {
	if profile == nil {
		return fundamentals.ProfileRatios{}
	}
	return fundamentals.ProfileRatios{
		ROE:          profile.ROE,
		DebtToEquity: profile.DebtToEquity,
	}
}

func profileInputsOf(profile *contracts.Profile) valuation.ProfileInputs {
	if profile == nil {
		return valuation.ProfileInputs{}
	}
	return valuation.ProfileInputs{
		Beta:          profile.Beta,
		DebtToEquity:  profile.DebtToEquity,
		RevenueGrowth: profile.RevenueGrowth,
	}
}
