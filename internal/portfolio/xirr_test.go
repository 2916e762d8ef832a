package portfolio

import (
	"math"
	"testing"
	"time"
)

func TestXIRR_OneYearRoundTrip(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	flows := []Cashflow{
		{Date: start, Amount: -1000},
		{Date: start.AddDate(0, 0, 365), Amount: 1100},
	}

	got := XIRR(flows)
	if got == nil {
		t.Fatal("expected a rate")
	}
	if math.Abs(*got-0.10) > 0.005 {
		t.Errorf("xirr = %v, want ~0.10", *got)
	}
}

func TestXIRR_RequiresBothSigns(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	onlyBuys := []Cashflow{
		{Date: start, Amount: -1000},
		{Date: start.AddDate(0, 1, 0), Amount: -500},
	}
	if XIRR(onlyBuys) != nil {
		t.Error("all-negative flows should yield nil")
	}

	onlySells := []Cashflow{{Date: start, Amount: 1000}}
	if XIRR(onlySells) != nil {
		t.Error("all-positive flows should yield nil")
	}

	if XIRR(nil) != nil {
		t.Error("empty flows should yield nil")
	}
}

func TestXIRR_NegativeReturn(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	flows := []Cashflow{
		{Date: start, Amount: -1000},
		{Date: start.AddDate(0, 0, 365), Amount: 800},
	}

	got := XIRR(flows)
	if got == nil {
		t.Fatal("expected a rate")
	}
	if math.Abs(*got-(-0.20)) > 0.005 {
		t.Errorf("xirr = %v, want ~-0.20", *got)
	}
}

func TestXIRR_UnorderedFlows(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	flows := []Cashflow{
		{Date: start.AddDate(0, 0, 365), Amount: 1100},
		{Date: start, Amount: -1000},
	}

	got := XIRR(flows)
	if got == nil {
		t.Fatal("expected a rate")
	}
	if math.Abs(*got-0.10) > 0.005 {
		t.Errorf("xirr = %v, want ~0.10", *got)
	}
}

func TestCashflowsFromLedger(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	txs := []Transaction{
		{Side: SideBuy, Quantity: 10, Price: 100, Fee: 5, TradeDate: start},
		{Side: SideSell, Quantity: 4, Price: 120, Fee: 5, TradeDate: start.AddDate(0, 6, 0)},
	}

	flows := CashflowsFromLedger(txs, 900, start.AddDate(1, 0, 0))

	if len(flows) != 3 {
		t.Fatalf("flows = %d, want 3", len(flows))
	}
	if flows[0].Amount != -1005 {
		t.Errorf("buy flow = %v, want -1005", flows[0].Amount)
	}
	if flows[1].Amount != 475 {
		t.Errorf("sell flow = %v, want 475", flows[1].Amount)
	}
	if flows[2].Amount != 900 {
		t.Errorf("terminal flow = %v, want 900", flows[2].Amount)
	}
}
