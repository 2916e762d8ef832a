package universe

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/equitylens/backend/internal/contracts"
	"github.com/equitylens/backend/pkg/httputil"
	"github.com/equitylens/backend/pkg/logger"
)

const (
	nasdaqListedURL = "https://www.nasdaqtrader.com/dynamic/SymDir/nasdaqlisted.txt"
	otherListedURL  = "https://www.nasdaqtrader.com/dynamic/SymDir/otherlisted.txt"

	directoryTTL = 24 * time.Hour
)

// exchangeCodes maps the directory's single-letter exchange codes.
var exchangeCodes = map[string]string{
	"A": "AMEX",
	"N": "NYSE",
	"P": "NYSE ARCA",
	"Q": "NASDAQ",
	"V": "IEX",
	"Z": "BATS",
}

// Listing is one tradable symbol in the exchange directory.
type Listing struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
}

// fallbackListings seed the directory when the upstream download fails.
var fallbackListings = []Listing{
	{Symbol: "AAPL", Name: "Apple Inc.", Exchange: "NASDAQ"},
	{Symbol: "MSFT", Name: "Microsoft Corporation", Exchange: "NASDAQ"},
	{Symbol: "NVDA", Name: "NVIDIA Corporation", Exchange: "NASDAQ"},
	{Symbol: "AMZN", Name: "Amazon.com, Inc.", Exchange: "NASDAQ"},
	{Symbol: "GOOGL", Name: "Alphabet Inc.", Exchange: "NASDAQ"},
	{Symbol: "META", Name: "Meta Platforms, Inc.", Exchange: "NASDAQ"},
	{Symbol: "TSLA", Name: "Tesla, Inc.", Exchange: "NASDAQ"},
	{Symbol: "JPM", Name: "JPMorgan Chase & Co.", Exchange: "NYSE"},
	{Symbol: "V", Name: "Visa Inc.", Exchange: "NYSE"},
	{Symbol: "WMT", Name: "Walmart Inc.", Exchange: "NYSE"},
}

// Directory serves symbol listings from the public exchange symbol files,
// refreshed at most once per TTL and guarded for concurrent callers.
type Directory struct {
	client *httputil.Client
	logger *logger.Logger

	mu          sync.Mutex
	listings    []Listing
	lastRefresh time.Time
}

// NewDirectory creates a new Directory instance.
func NewDirectory(client *httputil.Client, log *logger.Logger) *Directory {
	return &Directory{
		client: client,
		logger: log.WithField("component", "universe"),
	}
}

// ListingsPage is one page of directory results.
type ListingsPage struct {
	Total int       `json:"total"`
	Items []Listing `json:"items"`
}

// List filters the directory by symbol prefix or name substring and pages
// the result.
func (d *Directory) List(ctx context.Context, query string, offset, limit int) (*ListingsPage, error) {
	listings, err := d.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	q := strings.ToUpper(strings.TrimSpace(query))
	if q != "" {
		filtered := make([]Listing, 0, 64)
		for _, item := range listings {
			if strings.HasPrefix(item.Symbol, q) || strings.Contains(strings.ToUpper(item.Name), q) {
				filtered = append(filtered, item)
			}
		}
		listings = filtered
	}

	total := len(listings)
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}

	return &ListingsPage{Total: total, Items: listings[offset:end]}, nil
}

// SearchResults adapts directory matches to the shared search type.
func (d *Directory) SearchResults(ctx context.Context, query string, limit int) []contracts.SearchResult {
	page, err := d.List(ctx, query, 0, limit)
	if err != nil {
		return nil
	}
	out := make([]contracts.SearchResult, 0, len(page.Items))
	for _, item := range page.Items {
		out = append(out, contracts.SearchResult{
			Symbol:   item.Symbol,
			Name:     item.Name,
			Exchange: item.Exchange,
			Type:     "EQUITY",
			Source:   "directory",
		})
	}
	return out
}

// snapshot returns the current listings, refreshing from upstream when the
// TTL lapsed. A failed refresh keeps serving the previous snapshot, or the
// static fallback when nothing was ever loaded.
func (d *Directory) snapshot(ctx context.Context) ([]Listing, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.listings) > 0 && time.Since(d.lastRefresh) < directoryTTL {
		return d.listings, nil
	}

	listings, err := d.download(ctx)
	if err != nil {
		d.logger.WithError(err).Warn("exchange directory refresh failed")
		if len(d.listings) > 0 {
			return d.listings, nil
		}
		d.listings = fallbackListings
		d.lastRefresh = time.Now()
		return d.listings, nil
	}

	d.listings = listings
	d.lastRefresh = time.Now()
	return d.listings, nil
}

func (d *Directory) download(ctx context.Context) ([]Listing, error) {
	nasdaqText, err := d.fetchText(ctx, nasdaqListedURL)
	if err != nil {
		return nil, fmt.Errorf("download nasdaq listings: %w", err)
	}
	otherText, err := d.fetchText(ctx, otherListedURL)
	if err != nil {
		return nil, fmt.Errorf("download other listings: %w", err)
	}

	merged := append(
		parseNasdaq(parsePipeTable(nasdaqText)),
		parseOther(parsePipeTable(otherText))...,
	)
	if len(merged) == 0 {
		return nil, fmt.Errorf("exchange directory parsed empty")
	}

	// First listing wins on duplicate symbols.
	seen := make(map[string]bool, len(merged))
	dedup := make([]Listing, 0, len(merged))
	for _, item := range merged {
		if seen[item.Symbol] {
			continue
		}
		seen[item.Symbol] = true
		dedup = append(dedup, item)
	}
	sort.Slice(dedup, func(i, j int) bool { return dedup[i].Symbol < dedup[j].Symbol })
	return dedup, nil
}

func (d *Directory) fetchText(ctx context.Context, url string) (string, error) {
	resp, err := d.client.Get(ctx, url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// parsePipeTable splits the pipe-delimited symbol file into header-keyed
// rows, skipping the trailing file-creation-time line.
func parsePipeTable(text string) []map[string]string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return nil
	}

	header := splitPipe(lines[0])
	rows := make([]map[string]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		if strings.HasPrefix(line, "File Creation Time") {
			continue
		}
		columns := splitPipe(line)
		row := make(map[string]string, len(header))
		for i, key := range header {
			if i < len(columns) {
				row[key] = columns[i]
			} else {
				row[key] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func splitPipe(line string) []string {
	parts := strings.Split(line, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parseNasdaq(rows []map[string]string) []Listing {
	out := make([]Listing, 0, len(rows))
	for _, row := range rows {
		symbol := strings.ToUpper(strings.TrimSpace(row["Symbol"]))
		if symbol == "" || symbol == "SYMBOL" {
			continue
		}
		if strings.ToUpper(strings.TrimSpace(row["Test Issue"])) == "Y" {
			continue
		}
		name := strings.TrimSpace(row["Security Name"])
		if name == "" {
			name = symbol
		}
		out = append(out, Listing{Symbol: symbol, Name: name, Exchange: "NASDAQ"})
	}
	return out
}

func parseOther(rows []map[string]string) []Listing {
	out := make([]Listing, 0, len(rows))
	for _, row := range rows {
		symbol := strings.TrimSpace(row["ACT Symbol"])
		if symbol == "" {
			symbol = strings.TrimSpace(row["CQS Symbol"])
		}
		symbol = strings.ToUpper(symbol)
		if symbol == "" {
			continue
		}
		if strings.ToUpper(strings.TrimSpace(row["Test Issue"])) == "Y" {
			continue
		}

		code := strings.ToUpper(strings.TrimSpace(row["Exchange"]))
		exchange := exchangeCodes[code]
		if exchange == "" {
			if code != "" {
				exchange = code
			} else {
				exchange = "OTHER"
			}
		}
		name := strings.TrimSpace(row["Security Name"])
		if name == "" {
			name = symbol
		}
		out = append(out, Listing{Symbol: symbol, Name: name, Exchange: exchange})
	}
	return out
}
