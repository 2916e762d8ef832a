package contracts

import (
	"strings"
	"time"
)

// Quote is a normalized real-time quote. Fields an upstream could not supply
// stay nil; callers must treat nil as "unknown", not zero.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name,omitempty"`
	Price         *float64  `json:"price"`
	Change        *float64  `json:"change"`
	ChangePercent *float64  `json:"change_percent"`
	PreviousClose *float64  `json:"previous_close"`
	Open          *float64  `json:"open"`
	DayHigh       *float64  `json:"day_high"`
	DayLow        *float64  `json:"day_low"`
	High52W       *float64  `json:"high_52w"`
	Low52W        *float64  `json:"low_52w"`
	Volume        *float64  `json:"volume"`
	AvgVolume     *float64  `json:"avg_volume"`
	MarketCap     *float64  `json:"market_cap"`
	PERatio       *float64  `json:"pe_ratio"`
	EPS           *float64  `json:"eps"`
	DividendYield *float64  `json:"dividend_yield"`
	Currency      string    `json:"currency,omitempty"`
	Exchange      string    `json:"exchange,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Profile is normalized company reference data.
type Profile struct {
	Symbol       string   `json:"symbol"`
	Name         string   `json:"name"`
	Sector       string   `json:"sector,omitempty"`
	Industry     string   `json:"industry,omitempty"`
	Description  string   `json:"description,omitempty"`
	Website      string   `json:"website,omitempty"`
	Country      string   `json:"country,omitempty"`
	Exchange     string   `json:"exchange,omitempty"`
	Employees    *float64 `json:"employees"`
	MarketCap    *float64 `json:"market_cap"`
	Beta         *float64 `json:"beta"`
	DebtToEquity *float64 `json:"debt_to_equity"`
	SharesOut    *float64 `json:"shares_outstanding"`

	// Trailing fundamentals as the upstream reports them. Rate fields may
	// arrive as fractions or percentages; consumers normalize.
	ROE           *float64 `json:"roe"`
	ProfitMargin  *float64 `json:"profit_margin"`
	RevenueGrowth *float64 `json:"revenue_growth"`

	// Valuation multiples for the peer-relative section.
	TrailingPE *float64 `json:"trailing_pe"`
	PB         *float64 `json:"pb"`
	PEG        *float64 `json:"peg"`
	EPS        *float64 `json:"eps"`
	BookValue  *float64 `json:"book_value"`
}

// PriceBar is one OHLCV bar of price history.
type PriceBar struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adj_close"`
	Volume   int64     `json:"volume"`
}

// Closes extracts the close series in chronological order.
func Closes(bars []PriceBar) []float64 {
	out := make([]float64, 0, len(bars))
	for _, b := range bars {
		out = append(out, b.Close)
	}
	return out
}

// InsiderActivity summarizes recent insider transactions for a symbol.
type InsiderActivity struct {
	Symbol    string   `json:"symbol"`
	BuyCount  int      `json:"buy_count"`
	SellCount int      `json:"sell_count"`
	NetShares *float64 `json:"net_shares"`
}

// NetBuying reports whether insiders bought more than they sold.
func (ia *InsiderActivity) NetBuying() bool {
	if ia == nil {
		return false
	}
	if ia.NetShares != nil {
		return *ia.NetShares > 0
	}
	return ia.BuyCount > ia.SellCount
}

// SearchResult is one hit from a symbol/name search.
type SearchResult struct {
	Symbol   string  `json:"symbol"`
	Name     string  `json:"name"`
	Exchange string  `json:"exchange,omitempty"`
	Type     string  `json:"type,omitempty"`
	Score    float64 `json:"score"`
	Source   string  `json:"source,omitempty"`
}

// MetricRow is one financial-statement line item across reporting periods.
// Values is keyed by year label (e.g. "2024"); a missing or nil entry means
// the upstream did not report the item for that period.
type MetricRow struct {
	Metric    string              `json:"metric"`
	Values    map[string]*float64 `json:"values"`
	YoYGrowth map[string]*float64 `json:"yoy_growth,omitempty"`
	CAGR      *float64            `json:"cagr,omitempty"`
}

// StatementBundle groups the three statements for a symbol.
// Years is ordered newest first and is the key space for every MetricRow.
type StatementBundle struct {
	Symbol   string      `json:"symbol"`
	Years    []string    `json:"years"`
	Income   []MetricRow `json:"income"`
	Balance  []MetricRow `json:"balance"`
	CashFlow []MetricRow `json:"cash_flow"`
	Source   string      `json:"source,omitempty"`
}

// LatestYear returns the most recent reporting period, or "" when empty.
func (b *StatementBundle) LatestYear() string {
	if b == nil || len(b.Years) == 0 {
		return ""
	}
	return b.Years[0]
}

// PriorYear returns the period before the most recent one, or "".
func (b *StatementBundle) PriorYear() string {
	if b == nil || len(b.Years) < 2 {
		return ""
	}
	return b.Years[1]
}

// FindRow locates a row by metric label. Matching ignores case and every
// non-alphanumeric character, so "Total Revenue" and "totalRevenue" collide.
func FindRow(rows []MetricRow, metric string) (MetricRow, bool) {
	want := NormalizeMetricName(metric)
	for _, row := range rows {
		if NormalizeMetricName(row.Metric) == want {
			return row, true
		}
	}
	return MetricRow{}, false
}

// NormalizeMetricName lowercases and strips non-alphanumerics from a
// statement line-item label.
func NormalizeMetricName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ProviderAttempt records one provider try inside a fallback chain.
type ProviderAttempt struct {
	Provider string `json:"provider"`
	Error    string `json:"error,omitempty"`
}

// SourceMeta describes where a payload came from and what it took to get it.
type SourceMeta struct {
	Source   string            `json:"source"`
	Fallback bool              `json:"fallback"`
	Cached   bool              `json:"cached,omitempty"`
	Attempts []ProviderAttempt `json:"attempts,omitempty"`
}
