package portfolio

import (
	"math"
	"testing"
	"time"
)

var testRates = TaxRates{ShortTerm: 0.30, LongTerm: 0.15}

func day(n int) time.Time {
	return time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n-1)
}

func TestComputeTaxSummary_FIFOMatching(t *testing.T) {
	// Buy 10@100 day 1, buy 10@120 day 40, sell 15@150 day 400.
	// The day-1 lot is held 399 days (long-term), the day-40 lot 360 days
	// (short-term).
	txs := []Transaction{
		{Symbol: "AAPL", Side: SideBuy, Quantity: 10, Price: 100, TradeDate: day(1), CreatedAt: day(1)},
		{Symbol: "AAPL", Side: SideBuy, Quantity: 10, Price: 120, TradeDate: day(40), CreatedAt: day(40)},
		{Symbol: "AAPL", Side: SideSell, Quantity: 15, Price: 150, TradeDate: day(400), CreatedAt: day(400)},
	}

	got := ComputeTaxSummary(txs, map[string]float64{"AAPL": 150}, day(400), testRates)

	if got.RealizedLongTerm != 500 {
		t.Errorf("realized long-term = %v, want 500", got.RealizedLongTerm)
	}
	if got.RealizedShortTerm != 150 {
		t.Errorf("realized short-term = %v, want 150", got.RealizedShortTerm)
	}
	// 5 open shares from the day-40 lot, held 360 days as of day 400.
	if got.UnrealizedShortTerm != 150 {
		t.Errorf("unrealized short-term = %v, want 150", got.UnrealizedShortTerm)
	}
	if got.UnrealizedLongTerm != 0 {
		t.Errorf("unrealized long-term = %v, want 0", got.UnrealizedLongTerm)
	}
	// 0.30*150 + 0.15*500
	if math.Abs(got.EstimatedTax-120) > 1e-9 {
		t.Errorf("estimated tax = %v, want 120", got.EstimatedTax)
	}
}

func TestComputeTaxSummary_UnmatchedSellRemainder(t *testing.T) {
	// Selling more than the tracked lots books the remainder's full
	// proceeds as short-term gain.
	txs := []Transaction{
		{Symbol: "MSFT", Side: SideBuy, Quantity: 5, Price: 100, TradeDate: day(1), CreatedAt: day(1)},
		{Symbol: "MSFT", Side: SideSell, Quantity: 8, Price: 110, TradeDate: day(30), CreatedAt: day(30)},
	}

	got := ComputeTaxSummary(txs, nil, day(30), testRates)

	// 5 matched: 5*(110-100)=50 short-term. 3 unmatched: 3*110=330 proceeds.
	if got.RealizedShortTerm != 380 {
		t.Errorf("realized short-term = %v, want 380", got.RealizedShortTerm)
	}
	if got.RealizedLongTerm != 0 {
		t.Errorf("realized long-term = %v, want 0", got.RealizedLongTerm)
	}
}

func TestComputeTaxSummary_FeesInUnitCost(t *testing.T) {
	txs := []Transaction{
		{Symbol: "NVDA", Side: SideBuy, Quantity: 10, Price: 100, Fee: 10, TradeDate: day(1), CreatedAt: day(1)},
		{Symbol: "NVDA", Side: SideSell, Quantity: 10, Price: 110, Fee: 10, TradeDate: day(100), CreatedAt: day(100)},
	}

	got := ComputeTaxSummary(txs, nil, day(100), testRates)

	// Unit cost 101, unit proceeds 109: gain 10*(109-101)=80.
	if math.Abs(got.RealizedShortTerm-80) > 1e-9 {
		t.Errorf("realized short-term = %v, want 80", got.RealizedShortTerm)
	}
}

func TestComputeTaxSummary_OrderingByTradeDate(t *testing.T) {
	// Ledger arrives out of order; matching must follow trade dates.
	txs := []Transaction{
		{Symbol: "TSLA", Side: SideSell, Quantity: 5, Price: 200, TradeDate: day(500), CreatedAt: day(500)},
		{Symbol: "TSLA", Side: SideBuy, Quantity: 5, Price: 150, TradeDate: day(450), CreatedAt: day(450)},
		{Symbol: "TSLA", Side: SideBuy, Quantity: 5, Price: 100, TradeDate: day(1), CreatedAt: day(1)},
	}

	got := ComputeTaxSummary(txs, nil, day(500), testRates)

	// The oldest lot (day 1, cost 100) matches first: 5*(200-100)=500,
	// held 499 days so long-term. The day-450 lot stays open.
	if got.RealizedLongTerm != 500 {
		t.Errorf("realized long-term = %v, want 500", got.RealizedLongTerm)
	}
	if got.RealizedShortTerm != 0 {
		t.Errorf("realized short-term = %v, want 0", got.RealizedShortTerm)
	}
}

func TestComputeTaxSummary_LossesDoNotReduceTax(t *testing.T) {
	txs := []Transaction{
		{Symbol: "META", Side: SideBuy, Quantity: 10, Price: 300, TradeDate: day(1), CreatedAt: day(1)},
		{Symbol: "META", Side: SideSell, Quantity: 10, Price: 200, TradeDate: day(30), CreatedAt: day(30)},
	}

	got := ComputeTaxSummary(txs, nil, day(30), testRates)

	if got.RealizedShortTerm != -1000 {
		t.Errorf("realized short-term = %v, want -1000", got.RealizedShortTerm)
	}
	if got.EstimatedTax != 0 {
		t.Errorf("estimated tax = %v, want 0 on a pure loss", got.EstimatedTax)
	}
}
