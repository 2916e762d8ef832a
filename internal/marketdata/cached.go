package marketdata

import (
	"context"
	"time"

	"github.com/equitylens/backend/internal/contracts"
	"github.com/equitylens/backend/pkg/cache"
)

// Cached wraps the chain with Redis-backed caching. Each payload type gets
// its own TTL tier; cache hits are marked in the source metadata so callers
// can tell a fresh fallback from a cached one.
type Cached struct {
	chain *Chain
	cache contracts.Cache
}

// NewCached wraps the chain with the given cache.
func NewCached(chain *Chain, c contracts.Cache) *Cached {
	return &Cached{chain: chain, cache: c}
}

func (c *Cached) Name() string { return c.chain.Name() }

func (c *Cached) Ready() bool { return c.chain.Ready() }

// envelope stores a payload together with its provenance, so a cache hit
// still reports which provider originally served it.
type envelope[T any] struct {
	Payload T                    `json:"payload"`
	Meta    contracts.SourceMeta `json:"meta"`
}

func remember[T any](ctx context.Context, c *Cached, key string, ttl time.Duration, fetch func() (T, contracts.SourceMeta, error)) (T, contracts.SourceMeta, error) {
	var stored envelope[T]
	found, err := c.cache.Get(ctx, key, &stored)
	if err == nil && found {
		stored.Meta.Cached = true
		return stored.Payload, stored.Meta, nil
	}

	payload, meta, err := fetch()
	if err != nil {
		var zero T
		return zero, meta, err
	}
	// A failed Set must not fail the fetch.
	_ = c.cache.Set(ctx, key, envelope[T]{Payload: payload, Meta: meta}, ttl)
	return payload, meta, nil
}

// QuoteWithMeta serves from cache inside the quote TTL.
func (c *Cached) QuoteWithMeta(ctx context.Context, symbol string) (*contracts.Quote, contracts.SourceMeta, error) {
	return remember(ctx, c, cache.QuoteKey(symbol), cache.TTLQuote, func() (*contracts.Quote, contracts.SourceMeta, error) {
		return c.chain.QuoteWithMeta(ctx, symbol)
	})
}

// ProfileWithMeta serves from cache inside the profile TTL.
func (c *Cached) ProfileWithMeta(ctx context.Context, symbol string) (*contracts.Profile, contracts.SourceMeta, error) {
	return remember(ctx, c, cache.ProfileKey(symbol), cache.TTLProfile, func() (*contracts.Profile, contracts.SourceMeta, error) {
		return c.chain.ProfileWithMeta(ctx, symbol)
	})
}

// HistoryWithMeta serves from cache inside the history TTL.
func (c *Cached) HistoryWithMeta(ctx context.Context, symbol, rng, interval string) ([]contracts.PriceBar, contracts.SourceMeta, error) {
	return remember(ctx, c, cache.HistoryKey(symbol, rng, interval), cache.TTLHistory, func() ([]contracts.PriceBar, contracts.SourceMeta, error) {
		return c.chain.HistoryWithMeta(ctx, symbol, rng, interval)
	})
}

// FinancialsWithMeta serves from cache inside the financials TTL. Annual
// statements barely move; this tier is hours, not minutes.
func (c *Cached) FinancialsWithMeta(ctx context.Context, symbol string) (*contracts.StatementBundle, contracts.SourceMeta, error) {
	return remember(ctx, c, cache.FinancialsKey(symbol), cache.TTLFinancials, func() (*contracts.StatementBundle, contracts.SourceMeta, error) {
		return c.chain.FinancialsWithMeta(ctx, symbol)
	})
}

// SearchWithMeta serves from cache inside the search TTL.
func (c *Cached) SearchWithMeta(ctx context.Context, query string) ([]contracts.SearchResult, contracts.SourceMeta, error) {
	return remember(ctx, c, cache.SearchKey(query), cache.TTLSearch, func() ([]contracts.SearchResult, contracts.SourceMeta, error) {
		return c.chain.SearchWithMeta(ctx, query)
	})
}

// Quote implements contracts.MarketDataProvider.
func (c *Cached) Quote(ctx context.Context, symbol string) (*contracts.Quote, error) {
	out, _, err := c.QuoteWithMeta(ctx, symbol)
	return out, err
}

// Profile implements contracts.MarketDataProvider.
func (c *Cached) Profile(ctx context.Context, symbol string) (*contracts.Profile, error) {
	out, _, err := c.ProfileWithMeta(ctx, symbol)
	return out, err
}

// History implements contracts.MarketDataProvider.
func (c *Cached) History(ctx context.Context, symbol, rng, interval string) ([]contracts.PriceBar, error) {
	out, _, err := c.HistoryWithMeta(ctx, symbol, rng, interval)
	return out, err
}

// Financials implements contracts.MarketDataProvider.
func (c *Cached) Financials(ctx context.Context, symbol string) (*contracts.StatementBundle, error) {
	out, _, err := c.FinancialsWithMeta(ctx, symbol)
	return out, err
}

// Search implements contracts.MarketDataProvider.
func (c *Cached) Search(ctx context.Context, query string) ([]contracts.SearchResult, error) {
	out, _, err := c.SearchWithMeta(ctx, query)
	return out, err
}

// InsiderActivity passes through uncached; the screener already wraps it in
// a short sub-timeout and the feed is tiny.
func (c *Cached) InsiderActivity(ctx context.Context, symbol string) (*contracts.InsiderActivity, error) {
	out, _, err := c.chain.InsiderActivityWithMeta(ctx, symbol)
	return out, err
}
