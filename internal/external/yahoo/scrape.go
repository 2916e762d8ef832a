package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/equitylens/backend/internal/contracts"
)

const quotePageURL = "https://finance.yahoo.com/quote/%s"

// scrapeQuote parses the public quote page. The JSON endpoints occasionally
// reject unauthenticated callers; the HTML page carries the live price in
// fin-streamer elements and keeps the provider usable.
func (p *Provider) scrapeQuote(ctx context.Context, symbol string) (*contracts.Quote, error) {
	resp, err := p.client.Get(ctx, fmt.Sprintf(quotePageURL, url.PathEscape(symbol)))
	if err != nil {
		return nil, fmt.Errorf("yahoo scrape %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo scrape %s: status %d", symbol, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo scrape %s: parse page: %w", symbol, err)
	}

	quote := &contracts.Quote{
		Symbol:        symbol,
		Price:         streamerValue(doc, symbol, "regularMarketPrice"),
		Change:        streamerValue(doc, symbol, "regularMarketChange"),
		ChangePercent: streamerValue(doc, symbol, "regularMarketChangePercent"),
		UpdatedAt:     time.Now().UTC(),
	}
	if name := strings.TrimSpace(doc.Find("h1").First().Text()); name != "" {
		quote.Name = name
	}
	if quote.Price == nil {
		return nil, fmt.Errorf("yahoo scrape %s: price not on page", symbol)
	}
	return quote, nil
}

func streamerValue(doc *goquery.Document, symbol, field string) *float64 {
	selector := fmt.Sprintf(`fin-streamer[data-symbol="%s"][data-field="%s"]`, symbol, field)
	raw, ok := doc.Find(selector).First().Attr("data-value")
	if !ok {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return nil
	}
	return &v
}
