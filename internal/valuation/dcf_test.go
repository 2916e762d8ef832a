package valuation

import (
	"math"
	"testing"

	"github.com/equitylens/backend/internal/quant"
)

func baseParams() Params {
	return Params{
		BaseCashFlow:       quant.Ptr(1_000_000_000),
		GrowthRate:         0.08,
		DiscountRate:       0.10,
		TerminalGrowthRate: 0.025,
		ProjectionYears:    5,
		SharesOutstanding:  quant.Ptr(100_000_000),
		NetDebt:            quant.Ptr(500_000_000),
		MarketPrice:        quant.Ptr(150),
		Mode:               ModeFCFF,
	}
}

func TestProject_Basic(t *testing.T) {
	result := Project(baseParams())

	if result.IntrinsicValuePerShare == nil {
		t.Fatal("intrinsic value should be computed for valid inputs")
	}
	if *result.IntrinsicValuePerShare <= 0 {
		t.Errorf("intrinsic = %v, want positive", *result.IntrinsicValuePerShare)
	}
	if len(result.Projection) != 5 {
		t.Errorf("projection years = %d, want 5", len(result.Projection))
	}
	if result.UpsidePercent == nil {
		t.Error("upside should be computed when market price is given")
	}

	// FCFF: equity = enterprise - net debt
	if math.Abs(*result.EnterpriseValue-*result.EquityValue-500_000_000) > 1e-6 {
		t.Error("enterprise minus equity should equal net debt in fcff mode")
	}
}

func TestProject_ModeFCFE(t *testing.T) {
	p := baseParams()
	p.Mode = ModeFCFE
	result := Project(p)

	if result.EquityValue == nil || result.EnterpriseValue == nil {
		t.Fatal("values should be computed")
	}
	// FCFE: enterprise = equity + net debt
	if math.Abs(*result.EnterpriseValue-*result.EquityValue-500_000_000) > 1e-6 {
		t.Error("enterprise should equal equity plus net debt in fcfe mode")
	}
}

func TestProject_Guards(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"nil base cash flow", func(p *Params) { p.BaseCashFlow = nil }},
		{"negative base cash flow", func(p *Params) { p.BaseCashFlow = quant.Ptr(-100) }},
		{"zero shares", func(p *Params) { p.SharesOutstanding = quant.Ptr(0) }},
		{"nil shares", func(p *Params) { p.SharesOutstanding = nil }},
		{"discount rate floor", func(p *Params) { p.DiscountRate = -0.95 }},
		{"terminal growth floor", func(p *Params) { p.TerminalGrowthRate = -0.95 }},
		{"discount at terminal growth", func(p *Params) {
			p.DiscountRate = 0.03
			p.TerminalGrowthRate = 0.03
		}},
		{"discount inside stability floor", func(p *Params) {
			p.DiscountRate = 0.0315
			p.TerminalGrowthRate = 0.03
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := baseParams()
			tt.mutate(&p)
			result := Project(p)
			if result.IntrinsicValuePerShare != nil {
				t.Error("guarded input should produce nil intrinsic value")
			}
			if len(result.Projection) != 0 {
				t.Error("guarded input should produce empty projection")
			}
		})
	}
}

func TestProject_Monotonicity(t *testing.T) {
	p := baseParams()

	var prev float64
	for i, g := range []float64{0.02, 0.05, 0.08, 0.11} {
		p.GrowthRate = g
		v := Project(p).IntrinsicValuePerShare
		if v == nil {
			t.Fatalf("growth %v: nil intrinsic", g)
		}
		if i > 0 && *v <= prev {
			t.Errorf("intrinsic should rise with growth: %v -> %v", prev, *v)
		}
		prev = *v
	}

	p = baseParams()
	for i, r := range []float64{0.08, 0.10, 0.12, 0.14} {
		p.DiscountRate = r
		v := Project(p).IntrinsicValuePerShare
		if v == nil {
			t.Fatalf("discount %v: nil intrinsic", r)
		}
		if i > 0 && *v >= prev {
			t.Errorf("intrinsic should fall as discount rises: %v -> %v", prev, *v)
		}
		prev = *v
	}
}

func TestReverseGrowth_RoundTrip(t *testing.T) {
	p := baseParams()

	// Price the company at a mid-range growth, then recover that growth.
	p.GrowthRate = 0.07
	intrinsic := Project(p).IntrinsicValuePerShare
	if intrinsic == nil {
		t.Fatal("setup projection failed")
	}

	p.MarketPrice = intrinsic
	got := ReverseGrowth(p)
	if got == nil {
		t.Fatal("ReverseGrowth returned nil")
	}
	if math.Abs(*got-0.07) > 1e-4 {
		t.Errorf("recovered growth = %v, want 0.07 within 1e-4", *got)
	}

	// Forward at the recovered growth reproduces the market price.
	p.GrowthRate = *got
	price := Project(p).IntrinsicValuePerShare
	if price == nil {
		t.Fatal("forward at recovered growth failed")
	}
	if math.Abs(*price-*intrinsic)/(*intrinsic) > 1e-3 {
		t.Errorf("round-trip price = %v, want ~%v", *price, *intrinsic)
	}
}

func TestReverseGrowth_InvalidInputs(t *testing.T) {
	p := baseParams()
	p.MarketPrice = nil
	if ReverseGrowth(p) != nil {
		t.Error("nil market price should yield nil growth")
	}

	p = baseParams()
	p.BaseCashFlow = quant.Ptr(-1)
	if ReverseGrowth(p) != nil {
		t.Error("negative base should yield nil growth")
	}
}

func TestSensitivityGrid(t *testing.T) {
	grid := SensitivityGrid(baseParams())

	if len(grid.WACCValues) != 5 {
		t.Errorf("wacc points = %d, want 5", len(grid.WACCValues))
	}
	if len(grid.GrowthValues) != 5 {
		t.Errorf("growth points = %d, want 5", len(grid.GrowthValues))
	}
	if len(grid.Rows) != len(grid.GrowthValues) {
		t.Fatalf("rows = %d, want %d", len(grid.Rows), len(grid.GrowthValues))
	}

	// WACC values ascend, growth values descend
	for i := 1; i < len(grid.WACCValues); i++ {
		if grid.WACCValues[i] <= grid.WACCValues[i-1] {
			t.Error("wacc points should ascend")
		}
	}
	for i := 1; i < len(grid.GrowthValues); i++ {
		if grid.GrowthValues[i] >= grid.GrowthValues[i-1] {
			t.Error("growth points should descend")
		}
	}

	for _, row := range grid.Rows {
		if len(row.Values) != len(grid.WACCValues) {
			t.Errorf("row cells = %d, want %d", len(row.Values), len(grid.WACCValues))
		}
		for _, cell := range row.Values {
			if cell.IntrinsicValuePerShare == nil {
				t.Error("cell intrinsic should be computed for stable inputs")
			}
		}
	}
}

func TestSensitivityGrid_ClampCollapses(t *testing.T) {
	p := baseParams()
	p.DiscountRate = 0.05 // at the lower clamp; -2%,-1%,0 all collapse to 0.05
	grid := SensitivityGrid(p)

	if len(grid.WACCValues) >= 5 {
		t.Errorf("clamped wacc points = %d, want fewer than 5", len(grid.WACCValues))
	}
}

func TestBuildEngine(t *testing.T) {
	in := Inputs{
		Symbol:             "ACME",
		MarketPrice:        quant.Ptr(150),
		SharesOutstanding:  quant.Ptr(100_000_000),
		NetDebt:            quant.Ptr(500_000_000),
		FCFFBase:           quant.Ptr(1_000_000_000),
		FCFEBase:           quant.Ptr(900_000_000),
		GrowthRate:         0.08,
		TerminalGrowthRate: 0.025,
		WACC:               0.10,
		ProjectionYears:    5,
	}

	engine := BuildEngine(in)

	for _, mode := range []string{"fcff", "fcfe"} {
		if engine.DCF[mode].IntrinsicValuePerShare == nil {
			t.Errorf("%s intrinsic missing", mode)
		}
		if len(engine.Sensitivity[mode].Rows) == 0 {
			t.Errorf("%s sensitivity missing", mode)
		}
	}
	if engine.ReverseDCF["fcff_required_growth_rate"] == nil {
		t.Error("fcff reverse growth missing")
	}
}
