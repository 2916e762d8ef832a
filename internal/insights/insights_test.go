package insights

import (
	"math"
	"testing"

	"github.com/equitylens/backend/internal/contracts"
	"github.com/equitylens/backend/internal/quant"
)

func TestAssessRisk_AllCalm(t *testing.T) {
	got := AssessRisk(RiskInputs{
		VolatilityPercent:    quant.Ptr(15),
		Beta:                 quant.Ptr(0.8),
		DebtToEquity:         quant.Ptr(0.3),
		NetMarginPercent:     quant.Ptr(20),
		RevenueGrowthPercent: quant.Ptr(12),
		AltmanZone:           "Safe",
		PiotroskiScore:       intPtr(8),
	})

	// 50 -8 -4 -4 -6 -4 -8 -6 = 10
	if got.Score != 10 {
		t.Errorf("score = %v, want 10", got.Score)
	}
	if got.Level != "Low" {
		t.Errorf("level = %q, want Low", got.Level)
	}
	if len(got.Factors) != 7 {
		t.Errorf("factors = %d, want 7", len(got.Factors))
	}
}

func TestAssessRisk_AllStressed(t *testing.T) {
	got := AssessRisk(RiskInputs{
		VolatilityPercent:    quant.Ptr(60),
		Beta:                 quant.Ptr(1.8),
		DebtToEquity:         quant.Ptr(2.5),
		NetMarginPercent:     quant.Ptr(2),
		RevenueGrowthPercent: quant.Ptr(-3),
		AltmanZone:           "Distress",
		PiotroskiScore:       intPtr(2),
	})

	// 50 +15 +8 +14 +10 +8 +14 +10 = 129, clamped to 100
	if got.Score != 100 {
		t.Errorf("score = %v, want 100", got.Score)
	}
	if got.Level != "High" {
		t.Errorf("level = %q, want High", got.Level)
	}
}

func TestAssessRisk_MissingInputs(t *testing.T) {
	got := AssessRisk(RiskInputs{})

	if got.Score != 50 {
		t.Errorf("score = %v, want 50 with no signals", got.Score)
	}
	if got.Level != "Medium" {
		t.Errorf("level = %q, want Medium", got.Level)
	}
	if len(got.Factors) != 0 {
		t.Errorf("factors = %d, want none", len(got.Factors))
	}
}

func TestAssessRisk_NeutralBands(t *testing.T) {
	// Mid-band volatility, beta, and piotroski contribute nothing.
	got := AssessRisk(RiskInputs{
		VolatilityPercent: quant.Ptr(30),
		Beta:              quant.Ptr(1.1),
		PiotroskiScore:    intPtr(5),
	})

	if got.Score != 50 {
		t.Errorf("score = %v, want 50", got.Score)
	}
	if len(got.Factors) != 0 {
		t.Errorf("factors = %d, want none", len(got.Factors))
	}
}

func statementBundle(years []string, income, balance, cash map[string][]float64) *contracts.StatementBundle {
	rows := func(src map[string][]float64) []contracts.MetricRow {
		out := make([]contracts.MetricRow, 0, len(src))
		for metric, vals := range src {
			values := make(map[string]*float64, len(vals))
			for i, y := range years {
				if i < len(vals) && !math.IsNaN(vals[i]) {
					values[y] = quant.Ptr(vals[i])
				}
			}
			out = append(out, contracts.MetricRow{Metric: metric, Values: values})
		}
		return out
	}
	return &contracts.StatementBundle{
		Symbol:   "TEST",
		Years:    years,
		Income:   rows(income),
		Balance:  rows(balance),
		CashFlow: rows(cash),
	}
}

func TestScanStatements_CleanBook(t *testing.T) {
	bundle := statementBundle(
		[]string{"2024", "2023"},
		map[string][]float64{
			"Total Revenue": {1100, 1000},
			"Gross Profit":  {440, 400},
			"Net Income":    {120, 110},
		},
		map[string][]float64{
			"Total Assets":           {2000, 1900},
			"Accounts Receivable":    {110, 100},
			"Long Term Debt":         {400, 390},
			"Ordinary Shares Number": {100, 100},
		},
		map[string][]float64{
			"Operating Cash Flow": {150, 140},
		},
	)

	got := ScanStatements(bundle)

	if len(got.Signals) != 0 {
		t.Errorf("signals = %v, want none", got.Signals)
	}
	if got.Level != "Low" || got.Score != 0 {
		t.Errorf("level=%q score=%v, want Low 0", got.Level, got.Score)
	}
}

func TestScanStatements_RedFlags(t *testing.T) {
	// Earnings far ahead of cash, receivables ballooning, debt and share
	// count jumping, margins sliding.
	bundle := statementBundle(
		[]string{"2024", "2023"},
		map[string][]float64{
			"Total Revenue": {1050, 1000},
			"Gross Profit":  {300, 350},
			"Net Income":    {400, 110},
		},
		map[string][]float64{
			"Total Assets":           {2000, 1900},
			"Accounts Receivable":    {160, 100},
			"Long Term Debt":         {600, 400},
			"Ordinary Shares Number": {110, 100},
		},
		map[string][]float64{
			"Operating Cash Flow": {100, 140},
		},
	)

	got := ScanStatements(bundle)

	want := map[string]bool{
		"high_accruals":               true,
		"cash_conversion":             true,
		"receivables_outpacing_sales": true,
		"leverage_jump":               true,
		"margin_deterioration":        true,
		"dilution":                    true,
	}
	for _, s := range got.Signals {
		if !want[s.Name] {
			t.Errorf("unexpected signal %q", s.Name)
		}
		delete(want, s.Name)
	}
	for name := range want {
		t.Errorf("missing signal %q", name)
	}

	// Two high (16) + four medium (8) signals.
	if got.Score != 64 {
		t.Errorf("score = %v, want 64", got.Score)
	}
	if got.Level != "High" {
		t.Errorf("level = %q, want High", got.Level)
	}
}

func TestScanStatements_EmptyBundle(t *testing.T) {
	got := ScanStatements(nil)
	if got.Level != "Low" || len(got.Signals) != 0 {
		t.Errorf("nil bundle should scan clean, got %+v", got)
	}
}

func TestForecastRevenue_LogLinear(t *testing.T) {
	// Perfect 10% compounder.
	bundle := statementBundle(
		[]string{"2024", "2023", "2022", "2021"},
		map[string][]float64{
			"Total Revenue": {1331, 1210, 1100, 1000},
		},
		map[string][]float64{},
		map[string][]float64{},
	)

	got := ForecastRevenue(bundle)
	if got == nil {
		t.Fatal("expected a forecast")
	}
	if got.Model != "log-linear" {
		t.Errorf("model = %q, want log-linear", got.Model)
	}
	if got.R2 == nil || *got.R2 < 0.999 {
		t.Errorf("r2 = %v, want ~1 for an exact compounder", got.R2)
	}
	if len(got.Forecast) != 3 {
		t.Fatalf("forecast points = %d, want 3", len(got.Forecast))
	}
	if math.Abs(got.Forecast[0].Revenue-1464.1) > 1 {
		t.Errorf("year 1 forecast = %v, want ~1464", got.Forecast[0].Revenue)
	}
	if got.EstimatedCAGRPercent == nil || math.Abs(*got.EstimatedCAGRPercent-10) > 0.5 {
		t.Errorf("cagr = %v, want ~10", got.EstimatedCAGRPercent)
	}
}

func TestForecastRevenue_LinearFallback(t *testing.T) {
	// A loss-to-revenue oddity with a non-positive observation drops to the
	// linear model and floors projections at zero.
	bundle := statementBundle(
		[]string{"2024", "2023", "2022"},
		map[string][]float64{
			"Total Revenue": {100, 50, -10},
		},
		map[string][]float64{},
		map[string][]float64{},
	)

	got := ForecastRevenue(bundle)
	if got == nil {
		t.Fatal("expected a forecast")
	}
	if got.Model != "linear" {
		t.Errorf("model = %q, want linear", got.Model)
	}
	for _, p := range got.Forecast {
		if p.Revenue < 0 {
			t.Errorf("forecast %d = %v, want >= 0", p.YearOffset, p.Revenue)
		}
	}
}

func TestForecastRevenue_TooFewYears(t *testing.T) {
	bundle := statementBundle(
		[]string{"2024", "2023"},
		map[string][]float64{"Total Revenue": {110, 100}},
		map[string][]float64{},
		map[string][]float64{},
	)
	if got := ForecastRevenue(bundle); got != nil {
		t.Errorf("two observations should not forecast, got %+v", got)
	}
}

func TestBuildStockInsights(t *testing.T) {
	bundle := statementBundle(
		[]string{"2024", "2023", "2022"},
		map[string][]float64{
			"Total Revenue": {1210, 1100, 1000},
			"Net Income":    {242, 220, 200},
		},
		map[string][]float64{
			"Total Assets": {2000, 1900, 1800},
		},
		map[string][]float64{
			"Operating Cash Flow": {260, 240, 220},
		},
	)
	profile := &contracts.Profile{
		Symbol:       "TEST",
		Beta:         quant.Ptr(1.5),
		DebtToEquity: quant.Ptr(0.5),
	}

	got := BuildStockInsights("TEST", nil, profile, nil, bundle)

	if got.Symbol != "TEST" {
		t.Errorf("symbol = %q", got.Symbol)
	}
	// Margin 20% (-6), growth 10% (-4), beta 1.5 (+8), d/e 0.5 (-4): 44.
	if got.Risk.Score != 44 {
		t.Errorf("risk score = %v, want 44", got.Risk.Score)
	}
	if got.RevenueForecast == nil {
		t.Error("expected a revenue forecast")
	}
}

func intPtr(v int) *int { return &v }
