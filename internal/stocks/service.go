// Package stocks assembles the read-side payloads: quote/profile/history
// passthroughs, the aggregated company dashboard, the valuation engine with
// its peer-relative section, the market heatmap, and merged symbol search.
package stocks

import (
	"context"

	"github.com/equitylens/backend/internal/contracts"
	"github.com/equitylens/backend/internal/universe"
	"github.com/equitylens/backend/internal/valuation"
	"github.com/equitylens/backend/pkg/logger"
)

// DataSource is the provider surface the service consumes. The cached
// fallback chain satisfies it; tests substitute fakes.
type DataSource interface {
	QuoteWithMeta(ctx context.Context, symbol string) (*contracts.Quote, contracts.SourceMeta, error)
	ProfileWithMeta(ctx context.Context, symbol string) (*contracts.Profile, contracts.SourceMeta, error)
	HistoryWithMeta(ctx context.Context, symbol, rng, interval string) ([]contracts.PriceBar, contracts.SourceMeta, error)
	FinancialsWithMeta(ctx context.Context, symbol string) (*contracts.StatementBundle, contracts.SourceMeta, error)
	SearchWithMeta(ctx context.Context, query string) ([]contracts.SearchResult, contracts.SourceMeta, error)
}

// Service serves the stock read APIs.
type Service struct {
	data      DataSource
	directory *universe.Directory
	cache     contracts.Cache
	logger    *logger.Logger
	assume    valuation.Assumptions
}

// NewService wires the service. directory and cache may be nil; search then
// skips the listings source and the heatmap recomputes per request.
func NewService(data DataSource, directory *universe.Directory, c contracts.Cache, log *logger.Logger, assume valuation.Assumptions) *Service {
	return &Service{
		data:      data,
		directory: directory,
		cache:     c,
		logger:    log.WithField("component", "stocks"),
		assume:    assume,
	}
}

// Quote returns the live quote with source provenance.
func (s *Service) Quote(ctx context.Context, symbol string) (*contracts.Quote, contracts.SourceMeta, error) {
	return s.data.QuoteWithMeta(ctx, symbol)
}

// Profile returns company reference data with source provenance.
func (s *Service) Profile(ctx context.Context, symbol string) (*contracts.Profile, contracts.SourceMeta, error) {
	return s.data.ProfileWithMeta(ctx, symbol)
}

// History returns price bars with source provenance.
func (s *Service) History(ctx context.Context, symbol, rng, interval string) ([]contracts.PriceBar, contracts.SourceMeta, error) {
	return s.data.HistoryWithMeta(ctx, symbol, rng, interval)
}

// Financials returns the annual statement bundle with source provenance.
func (s *Service) Financials(ctx context.Context, symbol string) (*contracts.StatementBundle, contracts.SourceMeta, error) {
	return s.data.FinancialsWithMeta(ctx, symbol)
}

// Search merges provider results with the exchange directory, dedupes by
// symbol, and ranks exact and prefix matches first. Either source may fail
// without failing the search.
func (s *Service) Search(ctx context.Context, query string) []contracts.SearchResult {
	var providerResults []contracts.SearchResult
	if results, _, err := s.data.SearchWithMeta(ctx, query); err == nil {
		providerResults = results
	} else {
		s.logger.WithError(err).WithField("query", query).Debug("provider search unavailable")
	}

	var directoryResults []contracts.SearchResult
	if s.directory != nil {
		directoryResults = s.directory.SearchResults(ctx, query, 8)
	}

	return universe.MergeSearchResults(query, providerResults, directoryResults)
}
