package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/equitylens/backend/internal/contracts"
	"github.com/equitylens/backend/internal/quant"
	"github.com/equitylens/backend/pkg/config"
	"github.com/equitylens/backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{LogLevel: "error", LogFormat: "json", Env: "development"})
}

type stubProvider struct {
	name       string
	notReady   bool
	err        error
	quoteCalls int
}

func (s *stubProvider) Name() string { return s.name }
func (s *stubProvider) Ready() bool  { return !s.notReady }

func (s *stubProvider) Quote(ctx context.Context, symbol string) (*contracts.Quote, error) {
	s.quoteCalls++
	if s.err != nil {
		return nil, s.err
	}
	return &contracts.Quote{Symbol: symbol, Price: quant.Ptr(100)}, nil
}

func (s *stubProvider) Profile(ctx context.Context, symbol string) (*contracts.Profile, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &contracts.Profile{Symbol: symbol, Name: symbol}, nil
}

func (s *stubProvider) History(ctx context.Context, symbol, rng, interval string) ([]contracts.PriceBar, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []contracts.PriceBar{{Close: 100}}, nil
}

func (s *stubProvider) Financials(ctx context.Context, symbol string) (*contracts.StatementBundle, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &contracts.StatementBundle{Symbol: symbol, Years: []string{"2024"}}, nil
}

func (s *stubProvider) Search(ctx context.Context, query string) ([]contracts.SearchResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []contracts.SearchResult{{Symbol: "AAPL"}}, nil
}

func (s *stubProvider) InsiderActivity(ctx context.Context, symbol string) (*contracts.InsiderActivity, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &contracts.InsiderActivity{Symbol: symbol}, nil
}

func TestChain_FirstProviderWins(t *testing.T) {
	primary := &stubProvider{name: "primary"}
	backup := &stubProvider{name: "backup"}
	chain := NewChain(testLogger(), primary, backup)

	quote, meta, err := chain.QuoteWithMeta(context.Background(), "AAPL")
	if err != nil {
		t.Fatal(err)
	}
	if quote.Symbol != "AAPL" {
		t.Errorf("symbol = %q", quote.Symbol)
	}
	if meta.Source != "primary" || meta.Fallback {
		t.Errorf("meta = %+v, want primary without fallback", meta)
	}
	if backup.quoteCalls != 0 {
		t.Error("backup should not have been tried")
	}
}

func TestChain_FallsBackOnError(t *testing.T) {
	primary := &stubProvider{name: "primary", err: errors.New("rate limited")}
	backup := &stubProvider{name: "backup"}
	chain := NewChain(testLogger(), primary, backup)

	_, meta, err := chain.QuoteWithMeta(context.Background(), "AAPL")
	if err != nil {
		t.Fatal(err)
	}
	if meta.Source != "backup" || !meta.Fallback {
		t.Errorf("meta = %+v, want backup with fallback flag", meta)
	}
	if len(meta.Attempts) != 2 {
		t.Fatalf("attempts = %d, want 2", len(meta.Attempts))
	}
	if meta.Attempts[0].Provider != "primary" || meta.Attempts[0].Error == "" {
		t.Errorf("first attempt = %+v, want recorded primary failure", meta.Attempts[0])
	}
	if meta.Attempts[1].Error != "" {
		t.Errorf("winning attempt should carry no error: %+v", meta.Attempts[1])
	}
}

func TestChain_SkipsNotReadyWithoutAttempt(t *testing.T) {
	keyless := &stubProvider{name: "keyless", notReady: true}
	backup := &stubProvider{name: "backup"}
	chain := NewChain(testLogger(), keyless, backup)

	_, meta, err := chain.QuoteWithMeta(context.Background(), "AAPL")
	if err != nil {
		t.Fatal(err)
	}
	if meta.Fallback {
		t.Error("skipping an unconfigured provider is not a fallback")
	}
	if len(meta.Attempts) != 1 || meta.Attempts[0].Provider != "backup" {
		t.Errorf("attempts = %+v", meta.Attempts)
	}
	if keyless.quoteCalls != 0 {
		t.Error("not-ready provider must not be called")
	}
}

func TestChain_AllProvidersFail(t *testing.T) {
	chain := NewChain(testLogger(),
		&stubProvider{name: "a", err: errors.New("boom")},
		&stubProvider{name: "b", err: errors.New("bust")},
	)

	_, meta, err := chain.QuoteWithMeta(context.Background(), "AAPL")
	if !errors.Is(err, ErrProvidersUnavailable) {
		t.Fatalf("err = %v, want ErrProvidersUnavailable", err)
	}
	if len(meta.Attempts) != 2 {
		t.Errorf("attempts = %+v", meta.Attempts)
	}
}

// memoryCache is an in-process contracts.Cache for tests.
type memoryCache struct {
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func (m *memoryCache) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *memoryCache) Remember(ctx context.Context, key string, dest interface{}, ttl time.Duration, fn func() (interface{}, error)) error {
	found, err := m.Get(ctx, key, dest)
	if err != nil || found {
		return err
	}
	value, err := fn()
	if err != nil {
		return err
	}
	if err := m.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	return json.Unmarshal(m.data[key], dest)
}

func TestCached_QuoteHitSkipsProviders(t *testing.T) {
	provider := &stubProvider{name: "primary"}
	cached := NewCached(NewChain(testLogger(), provider), newMemoryCache())

	first, meta, err := cached.QuoteWithMeta(context.Background(), "AAPL")
	if err != nil {
		t.Fatal(err)
	}
	if meta.Cached {
		t.Error("first fetch must not report cached")
	}

	second, meta, err := cached.QuoteWithMeta(context.Background(), "AAPL")
	if err != nil {
		t.Fatal(err)
	}
	if !meta.Cached {
		t.Error("second fetch should come from cache")
	}
	if meta.Source != "primary" {
		t.Errorf("cached meta keeps the original source, got %q", meta.Source)
	}
	if provider.quoteCalls != 1 {
		t.Errorf("provider calls = %d, want 1", provider.quoteCalls)
	}
	if *first.Price != *second.Price {
		t.Error("cached payload mismatch")
	}
}

func TestCached_ErrorIsNotCached(t *testing.T) {
	provider := &stubProvider{name: "primary", err: errors.New("down")}
	cached := NewCached(NewChain(testLogger(), provider), newMemoryCache())

	if _, _, err := cached.QuoteWithMeta(context.Background(), "AAPL"); err == nil {
		t.Fatal("expected error")
	}

	provider.err = nil
	quote, meta, err := cached.QuoteWithMeta(context.Background(), "AAPL")
	if err != nil {
		t.Fatal(err)
	}
	if quote == nil || meta.Cached {
		t.Errorf("recovery fetch should be fresh, meta = %+v", meta)
	}
}
