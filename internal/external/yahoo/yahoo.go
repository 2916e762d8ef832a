// Package yahoo implements the keyless Yahoo Finance provider. It is first
// in the fallback chain: no credentials, generous quotas, and the widest
// payload coverage of the upstreams.
package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/equitylens/backend/internal/contracts"
	"github.com/equitylens/backend/pkg/config"
	"github.com/equitylens/backend/pkg/httputil"
	"github.com/equitylens/backend/pkg/logger"
)

const (
	defaultBaseURL = "https://query1.finance.yahoo.com"

	// Yahoo rejects requests without a browser-looking User-Agent.
	browserUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

	requestTimeout  = 20 * time.Second
	searchMaxQuotes = 8
)

// Provider is the Yahoo Finance client.
type Provider struct {
	client  *httputil.Client
	logger  *logger.Logger
	baseURL string
}

// New creates the Yahoo provider from the shared provider configuration.
func New(log *logger.Logger, cfg config.ProvidersConfig) *Provider {
	base := cfg.YahooBaseURL
	if base == "" {
		base = defaultBaseURL
	}
	return &Provider{
		client: httputil.NewWithTimeout(log, requestTimeout).
			WithRateLimit(cfg.RateLimitPerSecond).
			WithUserAgent(browserUserAgent),
		logger:  log.WithField("provider", "yahoo"),
		baseURL: base,
	}
}

func (p *Provider) Name() string { return "yahoo" }

// Ready is always true: Yahoo needs no credentials.
func (p *Provider) Ready() bool { return true }

// Quote fetches the price/summary modules. When the JSON API is blocked it
// falls back to scraping the public quote page.
func (p *Provider) Quote(ctx context.Context, symbol string) (*contracts.Quote, error) {
	result, err := p.quoteSummary(ctx, symbol, "price,summaryDetail")
	if err != nil {
		p.logger.WithError(err).WithField("symbol", symbol).Debug("quote summary failed, scraping quote page")
		return p.scrapeQuote(ctx, symbol)
	}

	price := result.Price
	detail := result.SummaryDetail
	if price == nil {
		return p.scrapeQuote(ctx, symbol)
	}

	quote := &contracts.Quote{
		Symbol:        symbol,
		Name:          firstNonEmpty(price.LongName, price.ShortName),
		Price:         price.RegularMarketPrice.ptr(),
		Change:        price.RegularMarketChange.ptr(),
		ChangePercent: scalePercent(price.RegularMarketChangePercent.ptr()),
		DayHigh:       price.RegularMarketDayHigh.ptr(),
		DayLow:        price.RegularMarketDayLow.ptr(),
		Volume:        price.RegularMarketVolume.ptr(),
		AvgVolume:     price.AverageDailyVolume3Month.ptr(),
		MarketCap:     price.MarketCap.ptr(),
		Currency:      price.Currency,
		Exchange:      price.ExchangeName,
		UpdatedAt:     time.Now().UTC(),
	}
	if detail != nil {
		quote.PreviousClose = detail.PreviousClose.ptr()
		quote.Open = detail.Open.ptr()
		quote.High52W = detail.FiftyTwoWeekHigh.ptr()
		quote.Low52W = detail.FiftyTwoWeekLow.ptr()
		quote.PERatio = detail.TrailingPE.ptr()
		quote.DividendYield = detail.DividendYield.ptr()
	}
	if quote.Price == nil {
		return nil, fmt.Errorf("yahoo quote %s: no market price in payload", symbol)
	}
	return quote, nil
}

// History fetches daily bars from the chart API. rng and interval pass
// through in Yahoo's own vocabulary ("1y", "5y", "1d").
func (p *Provider) History(ctx context.Context, symbol, rng, interval string) ([]contracts.PriceBar, error) {
	if rng == "" {
		rng = "1y"
	}
	if interval == "" {
		interval = "1d"
	}
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=%s&includePrePost=false",
		p.baseURL, url.PathEscape(symbol), url.QueryEscape(rng), url.QueryEscape(interval))

	var payload chartResponse
	if err := p.client.GetJSON(ctx, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("yahoo history %s: %w", symbol, err)
	}
	if payload.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo history %s: %s", symbol, payload.Chart.Error.Description)
	}
	if len(payload.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo history %s: empty result", symbol)
	}

	result := payload.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo history %s: no quote indicators", symbol)
	}
	ohlcv := result.Indicators.Quote[0]

	var adjCloses []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adjCloses = result.Indicators.AdjClose[0].AdjClose
	}

	bars := make([]contracts.PriceBar, 0, len(result.Timestamps))
	for i, ts := range result.Timestamps {
		closeVal := at(ohlcv.Close, i)
		if closeVal == nil {
			// Yahoo pads halted sessions with nulls.
			continue
		}
		bar := contracts.PriceBar{
			Date:     time.Unix(ts, 0).UTC(),
			Open:     deref(at(ohlcv.Open, i)),
			High:     deref(at(ohlcv.High, i)),
			Low:      deref(at(ohlcv.Low, i)),
			Close:    *closeVal,
			AdjClose: *closeVal,
			Volume:   int64(deref(at(ohlcv.Volume, i))),
		}
		if adj := at(adjCloses, i); adj != nil {
			bar.AdjClose = *adj
		}
		bars = append(bars, bar)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("yahoo history %s: no usable bars", symbol)
	}
	return bars, nil
}

// Search queries the symbol/name search endpoint.
func (p *Provider) Search(ctx context.Context, query string) ([]contracts.SearchResult, error) {
	endpoint := fmt.Sprintf("%s/v1/finance/search?q=%s&quotesCount=%d&newsCount=0",
		p.baseURL, url.QueryEscape(query), searchMaxQuotes)

	var payload searchResponse
	if err := p.client.GetJSON(ctx, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("yahoo search %q: %w", query, err)
	}

	results := make([]contracts.SearchResult, 0, len(payload.Quotes))
	for _, q := range payload.Quotes {
		if q.Symbol == "" {
			continue
		}
		results = append(results, contracts.SearchResult{
			Symbol:   q.Symbol,
			Name:     firstNonEmpty(q.ShortName, q.LongName, q.Symbol),
			Exchange: q.Exchange,
			Type:     q.QuoteType,
			Source:   p.Name(),
		})
	}
	return results, nil
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamps []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type searchResponse struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		ShortName string `json:"shortname"`
		LongName  string `json:"longname"`
		Exchange  string `json:"exchange"`
		QuoteType string `json:"quoteType"`
	} `json:"quotes"`
}

func at(xs []*float64, i int) *float64 {
	if i < 0 || i >= len(xs) {
		return nil
	}
	return xs[i]
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
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

// scalePercent converts Yahoo's fractional change (0.0123) to percent form
// to match the other providers.
func scalePercent(v *float64) *float64 {
	if v == nil {
		return nil
	}
	scaled := *v * 100
	return &scaled
}
