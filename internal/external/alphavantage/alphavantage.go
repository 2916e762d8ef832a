// Package alphavantage implements the Alpha Vantage provider, the last stop
// in the fallback chain. The free tier is heavily rate limited and every
// numeric field arrives as a string.
package alphavantage

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/equitylens/backend/internal/contracts"
	"github.com/equitylens/backend/pkg/config"
	"github.com/equitylens/backend/pkg/httputil"
	"github.com/equitylens/backend/pkg/logger"
)

const (
	defaultBaseURL = "https://www.alphavantage.co/query"

	requestTimeout = 20 * time.Second
	historyMaxBars = 120
)

// Provider is the Alpha Vantage client.
type Provider struct {
	client  *httputil.Client
	logger  *logger.Logger
	baseURL string
	apiKey  string
}

// New creates the Alpha Vantage provider. Without an API key it reports not
// ready and the chain skips it.
func New(log *logger.Logger, cfg config.ProvidersConfig) *Provider {
	base := cfg.AlphaVantageURL
	if base == "" {
		base = defaultBaseURL
	}
	return &Provider{
		client:  httputil.NewWithTimeout(log, requestTimeout).WithRateLimit(cfg.RateLimitPerSecond),
		logger:  log.WithField("provider", "alpha_vantage"),
		baseURL: base,
		apiKey:  cfg.AlphaVantageAPIKey,
	}
}

func (p *Provider) Name() string { return "alpha_vantage" }

func (p *Provider) Ready() bool { return p.apiKey != "" }

func (p *Provider) query(function string, params map[string]string) string {
	values := url.Values{}
	values.Set("function", function)
	values.Set("apikey", p.apiKey)
	for k, v := range params {
		values.Set(k, v)
	}
	return p.baseURL + "?" + values.Encode()
}

// Quote fetches GLOBAL_QUOTE.
func (p *Provider) Quote(ctx context.Context, symbol string) (*contracts.Quote, error) {
	if !p.Ready() {
		return nil, fmt.Errorf("alpha vantage quote %s: api key missing", symbol)
	}

	var payload struct {
		GlobalQuote map[string]string `json:"Global Quote"`
	}
	if err := p.client.GetJSON(ctx, p.query("GLOBAL_QUOTE", map[string]string{"symbol": symbol}), &payload); err != nil {
		return nil, fmt.Errorf("alpha vantage quote %s: %w", symbol, err)
	}
	if len(payload.GlobalQuote) == 0 {
		return nil, fmt.Errorf("alpha vantage quote %s: empty payload", symbol)
	}

	q := payload.GlobalQuote
	quote := &contracts.Quote{
		Symbol:        symbol,
		Name:          symbol,
		Price:         parseFloat(q["05. price"]),
		Change:        parseFloat(q["09. change"]),
		ChangePercent: parseFloat(strings.TrimSuffix(q["10. change percent"], "%")),
		PreviousClose: parseFloat(q["08. previous close"]),
		Open:          parseFloat(q["02. open"]),
		DayHigh:       parseFloat(q["03. high"]),
		DayLow:        parseFloat(q["04. low"]),
		Volume:        parseFloat(q["06. volume"]),
		Currency:      "USD",
		UpdatedAt:     time.Now().UTC(),
	}
	if quote.Price == nil {
		return nil, fmt.Errorf("alpha vantage quote %s: no price in payload", symbol)
	}
	return quote, nil
}

// Profile fetches the OVERVIEW fundamentals.
func (p *Provider) Profile(ctx context.Context, symbol string) (*contracts.Profile, error) {
	if !p.Ready() {
		return nil, fmt.Errorf("alpha vantage profile %s: api key missing", symbol)
	}

	var data map[string]string
	if err := p.client.GetJSON(ctx, p.query("OVERVIEW", map[string]string{"symbol": symbol}), &data); err != nil {
		return nil, fmt.Errorf("alpha vantage profile %s: %w", symbol, err)
	}
	if data["Symbol"] == "" {
		return nil, fmt.Errorf("alpha vantage profile %s: empty payload", symbol)
	}

	return &contracts.Profile{
		Symbol:        data["Symbol"],
		Name:          firstNonEmpty(data["Name"], symbol),
		Sector:        data["Sector"],
		Industry:      data["Industry"],
		Description:   data["Description"],
		Website:       data["OfficialSite"],
		Country:       data["Country"],
		Exchange:      data["Exchange"],
		MarketCap:     parseFloat(data["MarketCapitalization"]),
		Beta:          parseFloat(data["Beta"]),
		DebtToEquity:  parseFloat(data["DebtToEquity"]),
		SharesOut:     parseFloat(data["SharesOutstanding"]),
		ROE:           parseFloat(data["ReturnOnEquityTTM"]),
		ProfitMargin:  parseFloat(data["ProfitMargin"]),
		RevenueGrowth: parseFloat(data["QuarterlyRevenueGrowthYOY"]),
		TrailingPE:    parseFloat(data["PERatio"]),
		PB:            parseFloat(data["PriceToBookRatio"]),
		PEG:           parseFloat(data["PEGRatio"]),
		EPS:           parseFloat(data["EPS"]),
		BookValue:     parseFloat(data["BookValue"]),
	}, nil
}

// History fetches TIME_SERIES_DAILY. The compact output caps at 100 sessions;
// longer ranges request the full dump and trim.
func (p *Provider) History(ctx context.Context, symbol, rng, interval string) ([]contracts.PriceBar, error) {
	if !p.Ready() {
		return nil, fmt.Errorf("alpha vantage history %s: api key missing", symbol)
	}

	outputSize := "compact"
	if rng != "" && rng != "1mo" && rng != "3mo" {
		outputSize = "full"
	}
	var payload struct {
		Series map[string]map[string]string `json:"Time Series (Daily)"`
	}
	endpoint := p.query("TIME_SERIES_DAILY", map[string]string{"symbol": symbol, "outputsize": outputSize})
	if err := p.client.GetJSON(ctx, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("alpha vantage history %s: %w", symbol, err)
	}
	if len(payload.Series) == 0 {
		return nil, fmt.Errorf("alpha vantage history %s: empty payload", symbol)
	}

	dates := make([]string, 0, len(payload.Series))
	for d := range payload.Series {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	if max := barsForRange(rng); len(dates) > max {
		dates = dates[len(dates)-max:]
	}

	bars := make([]contracts.PriceBar, 0, len(dates))
	for _, d := range dates {
		row := payload.Series[d]
		date, err := time.Parse("2006-01-02", d)
		if err != nil {
			continue
		}
		closeVal := parseFloat(row["4. close"])
		if closeVal == nil {
			continue
		}
		bars = append(bars, contracts.PriceBar{
			Date:     date,
			Open:     derefOr(parseFloat(row["1. open"]), 0),
			High:     derefOr(parseFloat(row["2. high"]), 0),
			Low:      derefOr(parseFloat(row["3. low"]), 0),
			Close:    *closeVal,
			AdjClose: *closeVal,
			Volume:   int64(derefOr(parseFloat(row["5. volume"]), 0)),
		})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("alpha vantage history %s: no parsable bars", symbol)
	}
	return bars, nil
}

// Search queries SYMBOL_SEARCH.
func (p *Provider) Search(ctx context.Context, query string) ([]contracts.SearchResult, error) {
	if !p.Ready() {
		return nil, fmt.Errorf("alpha vantage search %q: api key missing", query)
	}

	var payload struct {
		BestMatches []map[string]string `json:"bestMatches"`
	}
	if err := p.client.GetJSON(ctx, p.query("SYMBOL_SEARCH", map[string]string{"keywords": query}), &payload); err != nil {
		return nil, fmt.Errorf("alpha vantage search %q: %w", query, err)
	}

	results := make([]contracts.SearchResult, 0, len(payload.BestMatches))
	for _, item := range payload.BestMatches {
		symbol := item["1. symbol"]
		if symbol == "" {
			continue
		}
		results = append(results, contracts.SearchResult{
			Symbol:   symbol,
			Name:     item["2. name"],
			Exchange: item["4. region"],
			Type:     item["3. type"],
			Source:   p.Name(),
		})
	}
	return results, nil
}

// Financials is not available on the configured plan.
func (p *Provider) Financials(ctx context.Context, symbol string) (*contracts.StatementBundle, error) {
	return nil, fmt.Errorf("alpha vantage financials %s: statements endpoint not enabled", symbol)
}

// InsiderActivity is not available on the configured plan.
func (p *Provider) InsiderActivity(ctx context.Context, symbol string) (*contracts.InsiderActivity, error) {
	return nil, fmt.Errorf("alpha vantage insider %s: endpoint not enabled", symbol)
}

func barsForRange(rng string) int {
	switch strings.ToLower(rng) {
	case "1mo":
		return 22
	case "3mo":
		return 66
	case "6mo":
		return historyMaxBars
	case "2y":
		return 504
	case "5y":
		return 1260
	case "10y", "max":
		return 2520
	default:
		return 252
	}
}

// parseFloat turns Alpha Vantage's stringly numbers into pointers; "None",
// "-", and empty strings mean unknown.
func parseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "None" || s == "-" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func derefOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
