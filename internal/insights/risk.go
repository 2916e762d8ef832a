// Package insights derives qualitative assessments from quantitative data:
// a factor-based risk score, accounting red-flag scanning, and a revenue
// trend forecast.
package insights

import (
	"fmt"

	"github.com/equitylens/backend/internal/quant"
)

// Risk level cut points on the 0-100 score.
const (
	riskLevelHigh   = 67
	riskLevelMedium = 35
)

// RiskFactor is one contribution to the risk score.
type RiskFactor struct {
	Name   string  `json:"name"`
	Detail string  `json:"detail"`
	Impact float64 `json:"impact"`
}

// RiskInputs are the signals the risk model reads. Nil fields are skipped,
// leaving the base score untouched for that factor.
type RiskInputs struct {
	VolatilityPercent    *float64
	Beta                 *float64
	DebtToEquity         *float64
	NetMarginPercent     *float64
	RevenueGrowthPercent *float64
	AltmanZone           string
	PiotroskiScore       *int
}

// RiskAssessment is the scored risk profile.
type RiskAssessment struct {
	Score   float64      `json:"score"`
	Level   string       `json:"level"`
	Factors []RiskFactor `json:"factors"`
}

// AssessRisk runs the additive factor model: each available signal pushes a
// base score of 50 up or down, and the sum is clamped to 0-100.
func AssessRisk(in RiskInputs) RiskAssessment {
	score := 50.0
	var factors []RiskFactor

	add := func(name, detail string, impact float64) {
		score += impact
		factors = append(factors, RiskFactor{Name: name, Detail: detail, Impact: impact})
	}

	if v := in.VolatilityPercent; v != nil {
		switch {
		case *v > 45:
			add("volatility", fmt.Sprintf("annualized volatility %.1f%%", *v), 15)
		case *v < 20:
			add("volatility", fmt.Sprintf("annualized volatility %.1f%%", *v), -8)
		}
	}

	if b := in.Beta; b != nil {
		switch {
		case *b > 1.3:
			add("beta", fmt.Sprintf("beta %.2f amplifies market swings", *b), 8)
		case *b < 0.9:
			add("beta", fmt.Sprintf("beta %.2f dampens market swings", *b), -4)
		}
	}

	if de := quant.NormalizeDebtEquity(in.DebtToEquity); de != nil {
		switch {
		case *de > 2:
			add("leverage", fmt.Sprintf("debt/equity %.2f", *de), 14)
		case *de > 1:
			add("leverage", fmt.Sprintf("debt/equity %.2f", *de), 6)
		default:
			add("leverage", fmt.Sprintf("debt/equity %.2f", *de), -4)
		}
	}

	if m := in.NetMarginPercent; m != nil {
		switch {
		case *m < 5:
			add("margin", fmt.Sprintf("net margin %.1f%%", *m), 10)
		case *m < 12:
			add("margin", fmt.Sprintf("net margin %.1f%%", *m), 3)
		default:
			add("margin", fmt.Sprintf("net margin %.1f%%", *m), -6)
		}
	}

	if g := in.RevenueGrowthPercent; g != nil {
		switch {
		case *g < 0:
			add("growth", fmt.Sprintf("revenue shrinking %.1f%%", *g), 8)
		case *g < 5:
			add("growth", fmt.Sprintf("revenue growth %.1f%%", *g), 3)
		default:
			add("growth", fmt.Sprintf("revenue growth %.1f%%", *g), -4)
		}
	}

	switch in.AltmanZone {
	case "Distress":
		add("altman_z", "Altman Z in the distress zone", 14)
	case "Safe":
		add("altman_z", "Altman Z in the safe zone", -8)
	}

	if p := in.PiotroskiScore; p != nil {
		switch {
		case *p <= 3:
			add("piotroski", fmt.Sprintf("Piotroski F-score %d", *p), 10)
		case *p >= 7:
			add("piotroski", fmt.Sprintf("Piotroski F-score %d", *p), -6)
		}
	}

	score = quant.Clamp(score, 0, 100)

	level := "Low"
	switch {
	case score >= riskLevelHigh:
		level = "High"
	case score >= riskLevelMedium:
		level = "Medium"
	}

	return RiskAssessment{Score: score, Level: level, Factors: factors}
}
