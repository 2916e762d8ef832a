package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Cache provides typed JSON caching on top of Client.
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

// Get retrieves a cached value
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	fullKey := fmt.Sprintf("%s:cache:%s", c.prefix, key)
	data, err := c.client.Redis().Get(ctx, fullKey).Bytes()
	if err != nil {
		// Key not found is not an error
		return false, nil
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}

	return true, nil
}

// Set stores a value in cache with TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	fullKey := fmt.Sprintf("%s:cache:%s", c.prefix, key)
	return c.client.Redis().Set(ctx, fullKey, data, ttl).Err()
}

// Delete removes a cached value
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}

	fullKey := fmt.Sprintf("%s:cache:%s", c.prefix, key)
	return c.client.Redis().Del(ctx, fullKey).Err()
}

// Remember retrieves from cache or calls fn to populate it.
// A failed Set does not fail the call; the fresh value still reaches dest.
func (c *Cache) Remember(ctx context.Context, key string, dest interface{}, ttl time.Duration, fn func() (interface{}, error)) error {
	found, err := c.Get(ctx, key, dest)
	if err != nil {
		return err
	}
	if found {
		return nil
	}

	value, err := fn()
	if err != nil {
		return err
	}

	_ = c.Set(ctx, key, value, ttl)

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}
	return json.Unmarshal(data, dest)
}

// Tiered TTLs per payload type. Quotes churn fast, annual statements do not.
const (
	TTLQuote      = 1 * time.Minute
	TTLHistory    = 5 * time.Minute
	TTLSearch     = 5 * time.Minute
	TTLProfile    = 15 * time.Minute
	TTLFinancials = 6 * time.Hour
	TTLHeatmap    = 10 * time.Minute
)

// Common cache key generators
func QuoteKey(symbol string) string {
	return fmt.Sprintf("quote:%s", symbol)
}

func ProfileKey(symbol string) string {
	return fmt.Sprintf("profile:%s", symbol)
}

func HistoryKey(symbol, rng, interval string) string {
	return fmt.Sprintf("history:%s:%s:%s", symbol, rng, interval)
}

func FinancialsKey(symbol string) string {
	return fmt.Sprintf("financials:%s", symbol)
}

func SearchKey(query string) string {
	return fmt.Sprintf("search:%s", query)
}

func HeatmapKey(limit int) string {
	return fmt.Sprintf("heatmap:%d", limit)
}
