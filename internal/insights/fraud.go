package insights

import (
	"fmt"

	"github.com/equitylens/backend/internal/contracts"
	"github.com/equitylens/backend/internal/fundamentals"
)

// Signal severities and their score weights.
const (
	severityHigh   = "high"
	severityMedium = "medium"

	weightHigh   = 16.0
	weightMedium = 8.0
)

// Red-flag level cut points.
const (
	flagLevelHigh   = 50
	flagLevelMedium = 24
)

// FraudSignal is one accounting red flag.
type FraudSignal struct {
	Name     string  `json:"name"`
	Severity string  `json:"severity"`
	Detail   string  `json:"detail"`
	Weight   float64 `json:"weight"`
}

// FraudAssessment aggregates the red flags into a scored level.
type FraudAssessment struct {
	Score   float64       `json:"score"`
	Level   string        `json:"level"`
	Signals []FraudSignal `json:"signals"`
}

// ScanStatements checks the latest two fiscal years for the classic
// earnings-quality warning signs. Signals whose inputs are missing are
// skipped rather than assumed clean or dirty.
func ScanStatements(bundle *contracts.StatementBundle) FraudAssessment {
	var signals []FraudSignal
	if bundle == nil || len(bundle.Years) == 0 {
		return FraudAssessment{Level: "Low", Signals: signals}
	}

	latest := fundamentals.Extract(bundle, bundle.LatestYear())
	prior := fundamentals.Extract(bundle, bundle.PriorYear())

	high := func(name, detail string) {
		signals = append(signals, FraudSignal{Name: name, Severity: severityHigh, Detail: detail, Weight: weightHigh})
	}
	medium := func(name, detail string) {
		signals = append(signals, FraudSignal{Name: name, Severity: severityMedium, Detail: detail, Weight: weightMedium})
	}

	if latest.NetIncome != nil && latest.OperatingCashFlow != nil && latest.TotalAssets != nil && *latest.TotalAssets != 0 {
		accruals := (*latest.NetIncome - *latest.OperatingCashFlow) / *latest.TotalAssets
		if accruals > 0.08 {
			high("high_accruals", fmt.Sprintf("accrual ratio %.1f%% of assets", accruals*100))
		}
	}

	if latest.NetIncome != nil && *latest.NetIncome > 0 && latest.OperatingCashFlow != nil {
		if *latest.OperatingCashFlow < 0.7*(*latest.NetIncome) {
			high("cash_conversion", "operating cash flow covers under 70% of net income")
		}
	}

	recvGrowth := pctGrowth(latest.Receivables, prior.Receivables)
	revGrowth := pctGrowth(latest.Revenue, prior.Revenue)
	if recvGrowth != nil && revGrowth != nil && *recvGrowth-*revGrowth > 15 {
		medium("receivables_outpacing_sales",
			fmt.Sprintf("receivables grew %.1f%% against %.1f%% revenue growth", *recvGrowth, *revGrowth))
	}

	if debtGrowth := pctGrowth(latest.LongTermDebt, prior.LongTermDebt); debtGrowth != nil && *debtGrowth > 30 {
		medium("leverage_jump", fmt.Sprintf("long-term debt grew %.1f%% year over year", *debtGrowth))
	}

	latestGM := marginPercent(latest.GrossProfit, latest.Revenue)
	priorGM := marginPercent(prior.GrossProfit, prior.Revenue)
	if latestGM != nil && priorGM != nil && *latestGM-*priorGM < -5 {
		medium("margin_deterioration",
			fmt.Sprintf("gross margin fell %.1f points year over year", *priorGM-*latestGM))
	}

	if shareGrowth := pctGrowth(latest.SharesOutstanding, prior.SharesOutstanding); shareGrowth != nil && *shareGrowth > 5 {
		medium("dilution", fmt.Sprintf("share count grew %.1f%% year over year", *shareGrowth))
	}

	score := 0.0
	for _, s := range signals {
		score += s.Weight
	}

	level := "Low"
	switch {
	case score >= flagLevelHigh:
		level = "High"
	case score >= flagLevelMedium:
		level = "Medium"
	}

	return FraudAssessment{Score: score, Level: level, Signals: signals}
}

func pctGrowth(newer, older *float64) *float64 {
	if newer == nil || older == nil || *older == 0 {
		return nil
	}
	v := (*newer - *older) / *older * 100
	return &v
}

func marginPercent(numerator, revenue *float64) *float64 {
	if numerator == nil || revenue == nil || *revenue == 0 {
		return nil
	}
	v := *numerator / *revenue * 100
	return &v
}
