// Package marketdata composes the upstream providers into one resilient
// surface: an ordered fallback chain plus a cache wrapper with tiered TTLs.
package marketdata

import (
	"context"
	"errors"
	"fmt"

	"github.com/equitylens/backend/internal/contracts"
	"github.com/equitylens/backend/pkg/logger"
)

// ErrProvidersUnavailable means every configured provider failed or was
// skipped. The API layer maps it to 503.
var ErrProvidersUnavailable = errors.New("no configured provider could serve the request")

// Chain tries providers in order and returns the first success, recording
// every attempt for source metadata.
type Chain struct {
	providers []contracts.MarketDataProvider
	logger    *logger.Logger
}

// NewChain builds the chain in the given priority order.
func NewChain(log *logger.Logger, providers ...contracts.MarketDataProvider) *Chain {
	return &Chain{
		providers: providers,
		logger:    log.WithField("component", "marketdata"),
	}
}

func (c *Chain) Name() string { return "chain" }

// Ready reports whether at least one provider is usable.
func (c *Chain) Ready() bool {
	for _, p := range c.providers {
		if p.Ready() {
			return true
		}
	}
	return false
}

// attempt walks the chain for one operation. Providers that report not
// ready are skipped without an attempt record, mirroring how a missing API
// key is configuration rather than a failure.
func attempt[T any](ctx context.Context, c *Chain, op, subject string, call func(contracts.MarketDataProvider) (T, error)) (T, contracts.SourceMeta, error) {
	var zero T
	var meta contracts.SourceMeta

	for _, p := range c.providers {
		if !p.Ready() {
			continue
		}
		out, err := call(p)
		if err == nil {
			meta.Source = p.Name()
			meta.Fallback = len(meta.Attempts) > 0
			meta.Attempts = append(meta.Attempts, contracts.ProviderAttempt{Provider: p.Name()})
			return out, meta, nil
		}

		meta.Attempts = append(meta.Attempts, contracts.ProviderAttempt{Provider: p.Name(), Error: err.Error()})
		c.logger.WithError(err).WithFields(map[string]interface{}{
			"provider": p.Name(),
			"op":       op,
			"subject":  subject,
		}).Debug("provider attempt failed")

		if ctx.Err() != nil {
			break
		}
	}
	return zero, meta, fmt.Errorf("%s %s: %w", op, subject, ErrProvidersUnavailable)
}

// QuoteWithMeta fetches a quote plus the provenance of the payload.
func (c *Chain) QuoteWithMeta(ctx context.Context, symbol string) (*contracts.Quote, contracts.SourceMeta, error) {
	return attempt(ctx, c, "quote", symbol, func(p contracts.MarketDataProvider) (*contracts.Quote, error) {
		return p.Quote(ctx, symbol)
	})
}

// ProfileWithMeta fetches a profile plus provenance.
func (c *Chain) ProfileWithMeta(ctx context.Context, symbol string) (*contracts.Profile, contracts.SourceMeta, error) {
	return attempt(ctx, c, "profile", symbol, func(p contracts.MarketDataProvider) (*contracts.Profile, error) {
		return p.Profile(ctx, symbol)
	})
}

// HistoryWithMeta fetches price history plus provenance.
func (c *Chain) HistoryWithMeta(ctx context.Context, symbol, rng, interval string) ([]contracts.PriceBar, contracts.SourceMeta, error) {
	return attempt(ctx, c, "history", symbol, func(p contracts.MarketDataProvider) ([]contracts.PriceBar, error) {
		return p.History(ctx, symbol, rng, interval)
	})
}

// FinancialsWithMeta fetches the statement bundle plus provenance.
func (c *Chain) FinancialsWithMeta(ctx context.Context, symbol string) (*contracts.StatementBundle, contracts.SourceMeta, error) {
	return attempt(ctx, c, "financials", symbol, func(p contracts.MarketDataProvider) (*contracts.StatementBundle, error) {
		return p.Financials(ctx, symbol)
	})
}

// SearchWithMeta fetches search results plus provenance.
func (c *Chain) SearchWithMeta(ctx context.Context, query string) ([]contracts.SearchResult, contracts.SourceMeta, error) {
	return attempt(ctx, c, "search", query, func(p contracts.MarketDataProvider) ([]contracts.SearchResult, error) {
		return p.Search(ctx, query)
	})
}

// InsiderActivityWithMeta fetches insider activity plus provenance.
func (c *Chain) InsiderActivityWithMeta(ctx context.Context, symbol string) (*contracts.InsiderActivity, contracts.SourceMeta, error) {
	return attempt(ctx, c, "insider", symbol, func(p contracts.MarketDataProvider) (*contracts.InsiderActivity, error) {
		return p.InsiderActivity(ctx, symbol)
	})
}

// Quote implements contracts.MarketDataProvider.
func (c *Chain) Quote(ctx context.Context, symbol string) (*contracts.Quote, error) {
	out, _, err := c.QuoteWithMeta(ctx, symbol)
	return out, err
}

// Profile implements contracts.MarketDataProvider.
func (c *Chain) Profile(ctx context.Context, symbol string) (*contracts.Profile, error) {
	out, _, err := c.ProfileWithMeta(ctx, symbol)
	return out, err
}

// History implements contracts.MarketDataProvider.
func (c *Chain) History(ctx context.Context, symbol, rng, interval string) ([]contracts.PriceBar, error) {
	out, _, err := c.HistoryWithMeta(ctx, symbol, rng, interval)
	return out, err
}

// Financials implements contracts.MarketDataProvider.
func (c *Chain) Financials(ctx context.Context, symbol string) (*contracts.StatementBundle, error) {
	out, _, err := c.FinancialsWithMeta(ctx, symbol)
	return out, err
}

// Search implements contracts.MarketDataProvider.
func (c *Chain) Search(ctx context.Context, query string) ([]contracts.SearchResult, error) {
	out, _, err := c.SearchWithMeta(ctx, query)
	return out, err
}

// InsiderActivity implements contracts.MarketDataProvider.
func (c *Chain) InsiderActivity(ctx context.Context, symbol string) (*contracts.InsiderActivity, error) {
	out, _, err := c.InsiderActivityWithMeta(ctx, symbol)
	return out, err
}
