// Package valuation implements the forward and reverse DCF engine with
// sensitivity analysis and peer-multiple relative valuation.
package valuation

import (
	"math"
	"sort"

	"github.com/equitylens/backend/internal/quant"
)

// Mode selects the cash-flow basis of a DCF run.
type Mode string

const (
	// ModeFCFF discounts free cash flow to the firm; value is enterprise value.
	ModeFCFF Mode = "fcff"
	// ModeFCFE discounts free cash flow to equity; value is equity value.
	ModeFCFE Mode = "fcfe"
)

// Params are the inputs of one DCF projection.
type Params struct {
	BaseCashFlow       *float64
	GrowthRate         float64
	DiscountRate       float64
	TerminalGrowthRate float64
	ProjectionYears    int
	SharesOutstanding  *float64
	NetDebt            *float64
	MarketPrice        *float64
	Mode               Mode
}

// ProjectionYear is one projected and discounted cash flow.
type ProjectionYear struct {
	YearIndex    int     `json:"year_index"`
	CashFlow     float64 `json:"cash_flow"`
	PresentValue float64 `json:"present_value"`
}

// Result is a DCF projection outcome. Guarded inputs produce the zero
// Result: empty projection, all values nil.
type Result struct {
	Projection              []ProjectionYear `json:"projection"`
	PresentValueOfCashFlows *float64         `json:"present_value_of_cash_flows"`
	TerminalValue           *float64         `json:"terminal_value"`
	PresentValueTerminal    *float64         `json:"present_value_terminal"`
	EnterpriseValue         *float64         `json:"enterprise_value"`
	EquityValue             *float64         `json:"equity_value"`
	IntrinsicValuePerShare  *float64         `json:"intrinsic_value_per_share"`
	UpsidePercent           *float64         `json:"upside_percent"`
}

// Project runs a forward DCF. Degenerate inputs short-circuit to an all-nil
// result instead of producing NaN or Inf: non-positive base cash flow or
// share count, discount or terminal growth at -90% or below, and a discount
// rate within 0.2% of terminal growth (the terminal-value denominator floor).
func Project(p Params) Result {
	if p.BaseCashFlow == nil || *p.BaseCashFlow <= 0 {
		return Result{Projection: []ProjectionYear{}}
	}
	if p.SharesOutstanding == nil || *p.SharesOutstanding <= 0 {
		return Result{Projection: []ProjectionYear{}}
	}
	if p.DiscountRate <= -0.9 || p.TerminalGrowthRate <= -0.9 || p.DiscountRate <= p.TerminalGrowthRate+0.002 {
		return Result{Projection: []ProjectionYear{}}
	}

	base := *p.BaseCashFlow
	pvCashFlows := 0.0
	lastCashFlow := base
	projection := make([]ProjectionYear, 0, p.ProjectionYears)

	for i := 1; i <= p.ProjectionYears; i++ {
		projected := base * math.Pow(1+p.GrowthRate, float64(i))
		pv := projected / math.Pow(1+p.DiscountRate, float64(i))
		projection = append(projection, ProjectionYear{
			YearIndex:    i,
			CashFlow:     projected,
			PresentValue: pv,
		})
		pvCashFlows += pv
		lastCashFlow = projected
	}

	terminalCashFlow := lastCashFlow * (1 + p.TerminalGrowthRate)
	terminalValue := terminalCashFlow / (p.DiscountRate - p.TerminalGrowthRate)
	pvTerminal := terminalValue / math.Pow(1+p.DiscountRate, float64(p.ProjectionYears))

	netDebt := 0.0
	if p.NetDebt != nil {
		netDebt = *p.NetDebt
	}

	var enterpriseValue, equityValue float64
	if p.Mode == ModeFCFF {
		enterpriseValue = pvCashFlows + pvTerminal
		equityValue = enterpriseValue - netDebt
	} else {
		equityValue = pvCashFlows + pvTerminal
		enterpriseValue = equityValue + netDebt
	}

	intrinsic := quant.SafeDivVal(equityValue, *p.SharesOutstanding)
	var upside *float64
	if intrinsic != nil && p.MarketPrice != nil && *p.MarketPrice > 0 {
		v := (*intrinsic - *p.MarketPrice) / *p.MarketPrice * 100
		upside = &v
	}

	return Result{
		Projection:              projection,
		PresentValueOfCashFlows: &pvCashFlows,
		TerminalValue:           &terminalValue,
		PresentValueTerminal:    &pvTerminal,
		EnterpriseValue:         &enterpriseValue,
		EquityValue:             &equityValue,
		IntrinsicValuePerShare:  intrinsic,
		UpsidePercent:           upside,
	}
}

// Reverse-DCF growth search bounds.
const (
	reverseGrowthLow  = -0.30
	reverseGrowthHigh = 0.45
	reverseIterations = 70
)

// ReverseGrowth bisects for the growth rate that makes the intrinsic value
// per share converge to the market price. p.GrowthRate is ignored. Nil when
// inputs are invalid or any probe inside the search degenerates.
func ReverseGrowth(p Params) *float64 {
	if p.BaseCashFlow == nil || *p.BaseCashFlow <= 0 {
		return nil
	}
	if p.SharesOutstanding == nil || *p.SharesOutstanding <= 0 {
		return nil
	}
	if p.MarketPrice == nil || *p.MarketPrice <= 0 {
		return nil
	}

	low, high := reverseGrowthLow, reverseGrowthHigh
	for i := 0; i < reverseIterations; i++ {
		mid := (low + high) / 2
		probe := p
		probe.GrowthRate = mid
		price := Project(probe).IntrinsicValuePerShare
		if price == nil {
			return nil
		}
		// Intrinsic value rises with growth, so overshoot narrows the top.
		if *price > *p.MarketPrice {
			high = mid
		} else {
			low = mid
		}
	}
	v := (low + high) / 2
	return &v
}

// GridCell is one sensitivity evaluation at a WACC point.
type GridCell struct {
	WACC                   float64  `json:"wacc"`
	IntrinsicValuePerShare *float64 `json:"intrinsic_value_per_share"`
	UpsidePercent          *float64 `json:"upside_percent"`
}

// GridRow holds the cells for one growth assumption.
type GridRow struct {
	Growth float64    `json:"growth"`
	Values []GridCell `json:"values"`
}

// Grid is the WACC x growth sensitivity matrix, at most 5x5 after clamping
// and deduplication.
type Grid struct {
	WACCValues   []float64 `json:"wacc_values"`
	GrowthValues []float64 `json:"growth_values"`
	Rows         []GridRow `json:"rows"`
}

var sensitivityDeltas = []float64{-0.02, -0.01, 0, 0.01, 0.02}

// SensitivityGrid varies WACC and growth around the base assumptions.
// WACC candidates are clamped to [5%, 25%] and must clear the terminal
// growth floor; growth candidates are clamped to [-15%, 25%]. Clamping can
// collapse duplicate points, shrinking the grid.
func SensitivityGrid(p Params) Grid {
	var waccPoints []float64
	for _, delta := range sensitivityDeltas {
		candidate := quant.Clamp(p.DiscountRate+delta, 0.05, 0.25)
		if candidate > p.TerminalGrowthRate+0.002 && !containsFloat(waccPoints, candidate) {
			waccPoints = append(waccPoints, candidate)
		}
	}
	if len(waccPoints) == 0 {
		waccPoints = []float64{math.Max(p.DiscountRate, p.TerminalGrowthRate+0.01)}
	}
	sort.Float64s(waccPoints)

	var growthPoints []float64
	for _, delta := range sensitivityDeltas {
		candidate := quant.Clamp(p.GrowthRate+delta, -0.15, 0.25)
		if !containsFloat(growthPoints, candidate) {
			growthPoints = append(growthPoints, candidate)
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(growthPoints)))

	rows := make([]GridRow, 0, len(growthPoints))
	for _, growth := range growthPoints {
		cells := make([]GridCell, 0, len(waccPoints))
		for _, wacc := range waccPoints {
			probe := p
			probe.GrowthRate = growth
			probe.DiscountRate = wacc
			result := Project(probe)
			cells = append(cells, GridCell{
				WACC:                   wacc,
				IntrinsicValuePerShare: result.IntrinsicValuePerShare,
				UpsidePercent:          result.UpsidePercent,
			})
		}
		rows = append(rows, GridRow{Growth: growth, Values: cells})
	}

	return Grid{
		WACCValues:   waccPoints,
		GrowthValues: growthPoints,
		Rows:         rows,
	}
}

func containsFloat(xs []float64, v float64) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
