package contracts

import (
	"context"
	"time"
)

// MarketDataProvider is a single upstream data source.
// Providers normalize upstream payloads into the shared types; a field the
// upstream cannot supply stays nil rather than zero.
type MarketDataProvider interface {
	// Name identifies the provider in source metadata and logs.
	Name() string

	// Ready reports whether the provider is usable (credentials present).
	Ready() bool

	Quote(ctx context.Context, symbol string) (*Quote, error)
	Profile(ctx context.Context, symbol string) (*Profile, error)
	History(ctx context.Context, symbol, rng, interval string) ([]PriceBar, error)
	Financials(ctx context.Context, symbol string) (*StatementBundle, error)
	Search(ctx context.Context, query string) ([]SearchResult, error)
	InsiderActivity(ctx context.Context, symbol string) (*InsiderActivity, error)
}

// Cache is the caching surface the data layer depends on.
// pkg/cache satisfies it; tests substitute an in-memory implementation.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Remember(ctx context.Context, key string, dest interface{}, ttl time.Duration, fn func() (interface{}, error)) error
}
