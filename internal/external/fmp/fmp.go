// Package fmp implements the Financial Modeling Prep provider. It requires
// an API key and sits behind Yahoo in the fallback chain.
package fmp

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/equitylens/backend/internal/contracts"
	"github.com/equitylens/backend/pkg/config"
	"github.com/equitylens/backend/pkg/httputil"
	"github.com/equitylens/backend/pkg/logger"
)

const (
	defaultBaseURL = "https://financialmodelingprep.com/api"

	requestTimeout  = 20 * time.Second
	statementLimit  = 10
	searchLimit     = 8
	insiderPageSize = 50
)

// Provider is the FMP client.
type Provider struct {
	client  *httputil.Client
	logger  *logger.Logger
	baseURL string
	apiKey  string
}

// New creates the FMP provider. Without an API key it reports not ready and
// the chain skips it.
func New(log *logger.Logger, cfg config.ProvidersConfig) *Provider {
	base := cfg.FMPBaseURL
	if base == "" {
		base = defaultBaseURL
	}
	return &Provider{
		client:  httputil.NewWithTimeout(log, requestTimeout).WithRateLimit(cfg.RateLimitPerSecond),
		logger:  log.WithField("provider", "fmp"),
		baseURL: base,
		apiKey:  cfg.FMPAPIKey,
	}
}

func (p *Provider) Name() string { return "fmp" }

func (p *Provider) Ready() bool { return p.apiKey != "" }

func (p *Provider) endpoint(path string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	params.Set("apikey", p.apiKey)
	return fmt.Sprintf("%s%s?%s", p.baseURL, path, params.Encode())
}

// Quote fetches /v3/quote, which returns a single-element array.
func (p *Provider) Quote(ctx context.Context, symbol string) (*contracts.Quote, error) {
	if !p.Ready() {
		return nil, fmt.Errorf("fmp quote %s: api key missing", symbol)
	}

	var payload []quoteRow
	if err := p.client.GetJSON(ctx, p.endpoint("/v3/quote/"+url.PathEscape(symbol), nil), &payload); err != nil {
		return nil, fmt.Errorf("fmp quote %s: %w", symbol, err)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("fmp quote %s: empty payload", symbol)
	}

	row := payload[0]
	return &contracts.Quote{
		Symbol:        strings.ToUpper(firstNonEmpty(row.Symbol, symbol)),
		Name:          row.Name,
		Price:         row.Price,
		Change:        row.Change,
		ChangePercent: row.ChangesPercentage,
		PreviousClose: row.PreviousClose,
		Open:          row.Open,
		DayHigh:       row.DayHigh,
		DayLow:        row.DayLow,
		High52W:       row.YearHigh,
		Low52W:        row.YearLow,
		Volume:        row.Volume,
		AvgVolume:     row.AvgVolume,
		MarketCap:     row.MarketCap,
		PERatio:       row.PE,
		EPS:           row.EPS,
		Currency:      "USD",
		Exchange:      row.Exchange,
		UpdatedAt:     time.Now().UTC(),
	}, nil
}

// Profile fetches /v3/profile.
func (p *Provider) Profile(ctx context.Context, symbol string) (*contracts.Profile, error) {
	if !p.Ready() {
		return nil, fmt.Errorf("fmp profile %s: api key missing", symbol)
	}

	var payload []profileRow
	if err := p.client.GetJSON(ctx, p.endpoint("/v3/profile/"+url.PathEscape(symbol), nil), &payload); err != nil {
		return nil, fmt.Errorf("fmp profile %s: %w", symbol, err)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("fmp profile %s: empty payload", symbol)
	}

	row := payload[0]
	return &contracts.Profile{
		Symbol:       strings.ToUpper(firstNonEmpty(row.Symbol, symbol)),
		Name:         firstNonEmpty(row.CompanyName, symbol),
		Sector:       row.Sector,
		Industry:     row.Industry,
		Description:  row.Description,
		Website:      row.Website,
		Country:      row.Country,
		Exchange:     row.ExchangeShortName,
		Employees:    row.FullTimeEmployees,
		MarketCap:    row.MarketCap,
		Beta:         row.Beta,
		DebtToEquity: row.DebtToEquity,
	}, nil
}

// History fetches /v3/historical-price-full and reverses the newest-first
// payload into chronological bars.
func (p *Provider) History(ctx context.Context, symbol, rng, interval string) ([]contracts.PriceBar, error) {
	if !p.Ready() {
		return nil, fmt.Errorf("fmp history %s: api key missing", symbol)
	}

	params := url.Values{}
	params.Set("timeseries", fmt.Sprintf("%d", tradingDays(rng)))
	var payload struct {
		Historical []historyRow `json:"historical"`
	}
	if err := p.client.GetJSON(ctx, p.endpoint("/v3/historical-price-full/"+url.PathEscape(symbol), params), &payload); err != nil {
		return nil, fmt.Errorf("fmp history %s: %w", symbol, err)
	}
	if len(payload.Historical) == 0 {
		return nil, fmt.Errorf("fmp history %s: empty payload", symbol)
	}

	bars := make([]contracts.PriceBar, 0, len(payload.Historical))
	for i := len(payload.Historical) - 1; i >= 0; i-- {
		row := payload.Historical[i]
		date, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			continue
		}
		adj := row.Close
		if row.AdjClose != nil {
			adj = *row.AdjClose
		}
		bars = append(bars, contracts.PriceBar{
			Date:     date,
			Open:     row.Open,
			High:     row.High,
			Low:      row.Low,
			Close:    row.Close,
			AdjClose: adj,
			Volume:   row.Volume,
		})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("fmp history %s: no parsable bars", symbol)
	}
	return bars, nil
}

// Financials fetches the three annual statements and reshapes them into the
// canonical bundle.
func (p *Provider) Financials(ctx context.Context, symbol string) (*contracts.StatementBundle, error) {
	if !p.Ready() {
		return nil, fmt.Errorf("fmp financials %s: api key missing", symbol)
	}

	params := url.Values{}
	params.Set("period", "annual")
	params.Set("limit", fmt.Sprintf("%d", statementLimit))

	var income []incomeRow
	if err := p.client.GetJSON(ctx, p.endpoint("/v3/income-statement/"+url.PathEscape(symbol), cloneValues(params)), &income); err != nil {
		return nil, fmt.Errorf("fmp income statement %s: %w", symbol, err)
	}
	var balance []balanceRow
	if err := p.client.GetJSON(ctx, p.endpoint("/v3/balance-sheet-statement/"+url.PathEscape(symbol), cloneValues(params)), &balance); err != nil {
		return nil, fmt.Errorf("fmp balance sheet %s: %w", symbol, err)
	}
	var cashflow []cashflowRow
	if err := p.client.GetJSON(ctx, p.endpoint("/v3/cash-flow-statement/"+url.PathEscape(symbol), cloneValues(params)), &cashflow); err != nil {
		return nil, fmt.Errorf("fmp cash flow %s: %w", symbol, err)
	}

	bundle := buildBundle(symbol, income, balance, cashflow)
	if len(bundle.Years) == 0 {
		return nil, fmt.Errorf("fmp financials %s: no annual statements", symbol)
	}
	return bundle, nil
}

// Search queries /v3/search across the major US exchanges.
func (p *Provider) Search(ctx context.Context, query string) ([]contracts.SearchResult, error) {
	if !p.Ready() {
		return nil, fmt.Errorf("fmp search %q: api key missing", query)
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", fmt.Sprintf("%d", searchLimit))

	var payload []searchRow
	if err := p.client.GetJSON(ctx, p.endpoint("/v3/search", params), &payload); err != nil {
		return nil, fmt.Errorf("fmp search %q: %w", query, err)
	}

	results := make([]contracts.SearchResult, 0, len(payload))
	for _, row := range payload {
		if row.Symbol == "" {
			continue
		}
		results = append(results, contracts.SearchResult{
			Symbol:   row.Symbol,
			Name:     row.Name,
			Exchange: row.ExchangeShortName,
			Type:     "EQUITY",
			Source:   p.Name(),
		})
	}
	return results, nil
}

// InsiderActivity aggregates the recent insider trading feed into buy/sell
// counts and a net share figure.
func (p *Provider) InsiderActivity(ctx context.Context, symbol string) (*contracts.InsiderActivity, error) {
	if !p.Ready() {
		return nil, fmt.Errorf("fmp insider %s: api key missing", symbol)
	}

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("page", "0")
	params.Set("limit", fmt.Sprintf("%d", insiderPageSize))

	var payload []insiderRow
	if err := p.client.GetJSON(ctx, p.endpoint("/v4/insider-trading", params), &payload); err != nil {
		return nil, fmt.Errorf("fmp insider %s: %w", symbol, err)
	}

	activity := &contracts.InsiderActivity{Symbol: symbol}
	net := 0.0
	for _, row := range payload {
		shares := 0.0
		if row.SecuritiesTransacted != nil {
			shares = *row.SecuritiesTransacted
		}
		switch strings.ToUpper(row.AcquisitionOrDisposition) {
		case "A":
			activity.BuyCount++
			net += shares
		case "D":
			activity.SellCount++
			net -= shares
		}
	}
	activity.NetShares = &net
	return activity, nil
}

// tradingDays maps the shared range vocabulary onto FMP's timeseries count.
func tradingDays(rng string) int {
	switch strings.ToLower(rng) {
	case "1mo":
		return 22
	case "3mo":
		return 66
	case "6mo":
		return 126
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

func cloneValues(v url.Values) url.Values {
	out := url.Values{}
	for key, vals := range v {
		for _, val := range vals {
			out.Add(key, val)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
