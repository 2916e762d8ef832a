package quant

import (
	"math"
	"testing"
)

func TestSafeDiv(t *testing.T) {
	ten := 10.0
	two := 2.0
	zero := 0.0

	tests := []struct {
		name string
		a    *float64
		b    *float64
		want *float64
	}{
		{"normal division", &ten, &two, Ptr(5)},
		{"nil numerator", nil, &two, nil},
		{"nil denominator", &ten, nil, nil},
		{"zero denominator", &ten, &zero, nil},
		{"both nil", nil, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SafeDiv(tt.a, tt.b)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("SafeDiv() nil mismatch: got %v, want %v", got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("SafeDiv() = %v, want %v", *got, *tt.want)
			}
		})
	}
}

func TestNormalizeRate(t *testing.T) {
	tests := []struct {
		name  string
		input float64
		want  float64
	}{
		{"already fractional", 0.05, 0.05},
		{"percentage shaped", 5, 0.05},
		{"negative percentage", -15, -0.15},
		{"boundary stays", 2, 2},
		{"just over boundary", 2.5, 0.025},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeRate(Ptr(tt.input))
			if got == nil || math.Abs(*got-tt.want) > 1e-12 {
				t.Errorf("NormalizeRate(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}

	if NormalizeRate(nil) != nil {
		t.Error("NormalizeRate(nil) should stay nil")
	}

	// Debt/equity uses the looser threshold
	de := NormalizeDebtEquity(Ptr(4.5))
	if de == nil || *de != 4.5 {
		t.Errorf("NormalizeDebtEquity(4.5) = %v, want 4.5 unchanged", de)
	}
	de = NormalizeDebtEquity(Ptr(45))
	if de == nil || math.Abs(*de-0.45) > 1e-12 {
		t.Errorf("NormalizeDebtEquity(45) = %v, want 0.45", de)
	}
}

func TestDailyReturns(t *testing.T) {
	closes := []float64{100, 110, 99}
	returns := DailyReturns(closes)

	if len(returns) != 2 {
		t.Fatalf("len(returns) = %d, want 2", len(returns))
	}
	if math.Abs(returns[0]-0.10) > 1e-12 {
		t.Errorf("returns[0] = %v, want 0.10", returns[0])
	}
	if math.Abs(returns[1]-(-0.10)) > 1e-12 {
		t.Errorf("returns[1] = %v, want -0.10", returns[1])
	}

	if DailyReturns([]float64{100}) != nil {
		t.Error("single close should yield nil returns")
	}
}

func TestMaxDrawdown(t *testing.T) {
	series := []float64{100, 120, 90, 110, 80}
	dd := MaxDrawdown(series)
	if dd == nil {
		t.Fatal("MaxDrawdown returned nil")
	}
	// Peak 120, trough 80
	want := 80.0/120.0 - 1
	if math.Abs(*dd-want) > 1e-12 {
		t.Errorf("MaxDrawdown = %v, want %v", *dd, want)
	}

	flat := MaxDrawdown([]float64{100, 100, 100})
	if flat == nil || *flat != 0 {
		t.Errorf("flat series drawdown = %v, want 0", flat)
	}
}

func TestCAGR(t *testing.T) {
	got := CAGR(100, 121, 2)
	if got == nil || math.Abs(*got-0.10) > 1e-9 {
		t.Errorf("CAGR(100,121,2) = %v, want 0.10", got)
	}

	if CAGR(-100, 121, 2) != nil {
		t.Error("negative base should yield nil")
	}
	if CAGR(100, 121, 0) != nil {
		t.Error("zero span should yield nil")
	}
}

func TestSharpeAndSortino(t *testing.T) {
	// Constant positive returns: Sharpe defined only if stdev > 0
	if got := Sharpe([]float64{0.01, 0.01, 0.01}, 0.04); got != nil {
		t.Errorf("zero-variance Sharpe = %v, want nil", got)
	}

	returns := []float64{0.01, -0.005, 0.02, -0.01, 0.015}
	sharpe := Sharpe(returns, 0.04)
	if sharpe == nil {
		t.Fatal("Sharpe returned nil")
	}

	sortino := Sortino(returns, 0.04)
	if sortino == nil {
		t.Fatal("Sortino returned nil")
	}

	// All returns above the daily risk-free rate leaves no downside sample
	if got := Sortino([]float64{0.05, 0.06, 0.04}, 0.04); got != nil {
		t.Errorf("no-downside Sortino = %v, want nil", got)
	}
}

func TestRSI(t *testing.T) {
	up := make([]float64, 30)
	for i := range up {
		up[i] = 100 + float64(i)
	}
	got := RSI(up, 14)
	if got == nil || *got != 100 {
		t.Errorf("all-gains RSI = %v, want 100", got)
	}

	down := make([]float64, 30)
	for i := range down {
		down[i] = 100 - float64(i)
	}
	got = RSI(down, 14)
	if got == nil || *got != 0 {
		t.Errorf("all-losses RSI = %v, want 0", got)
	}

	if RSI([]float64{1, 2, 3}, 14) != nil {
		t.Error("short series RSI should be nil")
	}

	mixed := []float64{44, 44.3, 44.1, 43.6, 44.3, 44.8, 45.1, 45.4, 45.8, 46.1, 45.9, 46.3, 46.8, 46.5, 46.2, 46.6}
	got = RSI(mixed, 14)
	if got == nil || *got < 0 || *got > 100 {
		t.Errorf("mixed RSI = %v, want value in [0,100]", got)
	}
}

func TestChangeOverOffset(t *testing.T) {
	closes := []float64{100, 105, 110, 121}
	got := ChangeOverOffset(closes, 2)
	if got == nil || math.Abs(*got-(121.0/105.0-1)) > 1e-12 {
		t.Errorf("ChangeOverOffset = %v", got)
	}

	if ChangeOverOffset(closes, 10) != nil {
		t.Error("offset beyond series should yield nil")
	}
}

func TestBreakout(t *testing.T) {
	closes := make([]float64, 85)
	for i := range closes {
		closes[i] = 100
	}
	closes[len(closes)-1] = 101
	if !Breakout(closes, 80) {
		t.Error("latest close above prior window should be a breakout")
	}

	closes[len(closes)-1] = 100
	if Breakout(closes, 80) {
		t.Error("latest close equal to prior max is not a breakout")
	}
}

func TestVolumeSpike(t *testing.T) {
	volumes := make([]int64, 25)
	for i := range volumes {
		volumes[i] = 1000
	}
	volumes[len(volumes)-1] = 1800
	if !VolumeSpike(volumes, 20, 1.8) {
		t.Error("1.8x average volume should register as a spike")
	}

	volumes[len(volumes)-1] = 1700
	if VolumeSpike(volumes, 20, 1.8) {
		t.Error("below-threshold volume should not register")
	}
}

func TestBetaAlpha(t *testing.T) {
	bench := []float64{0.01, -0.02, 0.015, 0.005, -0.01}
	port := make([]float64, len(bench))
	for i, b := range bench {
		port[i] = 2*b + 0.001
	}

	beta, alpha := BetaAlpha(port, bench)
	if beta == nil || alpha == nil {
		t.Fatal("BetaAlpha returned nil for clean inputs")
	}
	if math.Abs(*beta-2) > 1e-9 {
		t.Errorf("beta = %v, want 2", *beta)
	}
	if math.Abs(*alpha-0.001*TradingDaysPerYear) > 1e-9 {
		t.Errorf("alpha = %v, want %v", *alpha, 0.001*TradingDaysPerYear)
	}

	beta, alpha = BetaAlpha(port, []float64{0.01, 0.01, 0.01, 0.01, 0.01})
	if beta != nil || alpha != nil {
		t.Error("zero-variance benchmark should yield nil beta/alpha")
	}
}

func TestCaptureRatios(t *testing.T) {
	bench := []float64{0.02, -0.01, 0.01, -0.02}
	port := []float64{0.01, -0.005, 0.005, -0.01}

	up, down := CaptureRatios(port, bench)
	if up == nil || math.Abs(*up-50) > 1e-9 {
		t.Errorf("up capture = %v, want 50", up)
	}
	if down == nil || math.Abs(*down-50) > 1e-9 {
		t.Errorf("down capture = %v, want 50", down)
	}
}

func TestBisect(t *testing.T) {
	// Root of x^2 - 2 in [0, 2]
	root, ok := Bisect(func(x float64) float64 { return x*x - 2 }, 0, 2, 100, 1e-10)
	if !ok {
		t.Fatal("Bisect failed to find bracketed root")
	}
	if math.Abs(root-math.Sqrt2) > 1e-8 {
		t.Errorf("root = %v, want sqrt(2)", root)
	}

	// No sign change
	if _, ok := Bisect(func(x float64) float64 { return x*x + 1 }, -1, 1, 100, 1e-10); ok {
		t.Error("Bisect should fail without a sign change")
	}
}

func TestMedianAndPercentile(t *testing.T) {
	m := Median([]float64{3, 1, 2})
	if m == nil || *m != 2 {
		t.Errorf("Median odd = %v, want 2", m)
	}
	m = Median([]float64{4, 1, 3, 2})
	if m == nil || *m != 2.5 {
		t.Errorf("Median even = %v, want 2.5", m)
	}
	if Median(nil) != nil {
		t.Error("Median of empty should be nil")
	}

	xs := []float64{1, 2, 3, 4, 5}
	if got := PercentileRank(xs, 3); got != 40 {
		t.Errorf("PercentileRank = %v, want 40", got)
	}
}
