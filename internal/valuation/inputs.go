package valuation

import (
	"math"
	"strings"

	"github.com/equitylens/backend/internal/contracts"
	"github.com/equitylens/backend/internal/fundamentals"
	"github.com/equitylens/backend/internal/quant"
)

// Assumptions are the cost-of-capital defaults. They stand in for a full
// cost-of-capital model; the clamps below keep the DCF stable whatever the
// caller configures.
type Assumptions struct {
	RiskFreeRate      float64
	MarketRiskPremium float64
	CorporateTaxRate  float64
	CostOfDebt        float64
	ProjectionYears   int
}

// DefaultAssumptions mirror the long-standing product defaults.
func DefaultAssumptions() Assumptions {
	return Assumptions{
		RiskFreeRate:      0.043,
		MarketRiskPremium: 0.055,
		CorporateTaxRate:  0.21,
		CostOfDebt:        0.05,
		ProjectionYears:   5,
	}
}

// ProfileInputs are the profile fields the derivation consumes.
type ProfileInputs struct {
	Beta          *float64
	DebtToEquity  *float64
	RevenueGrowth *float64
}

// Inputs is the resolved parameter snapshot feeding every DCF run.
type Inputs struct {
	Symbol             string   `json:"symbol"`
	BaseYear           string   `json:"base_year,omitempty"`
	Currency           string   `json:"currency"`
	MarketPrice        *float64 `json:"market_price"`
	MarketCap          *float64 `json:"market_cap"`
	SharesOutstanding  *float64 `json:"shares_outstanding"`
	NetDebt            *float64 `json:"net_debt"`
	FCFFBase           *float64 `json:"fcff_base"`
	FCFEBase           *float64 `json:"fcfe_base"`
	GrowthRate         float64  `json:"growth_rate"`
	TerminalGrowthRate float64  `json:"terminal_growth_rate"`
	WACC               float64  `json:"wacc"`
	CostOfEquity       float64  `json:"cost_of_equity"`
	CostOfDebt         float64  `json:"cost_of_debt"`
	TaxRate            float64  `json:"tax_rate"`
	ProjectionYears    int      `json:"projection_years"`
}

// DeriveInputs resolves every DCF parameter from the quote, profile, and
// latest statement year.
//
// Cost of equity comes from CAPM with beta floored to 1.0 when missing or
// non-positive. The debt weight is D/(1+D) with debt/equity defaulted to 0.4.
// WACC is clamped to [6%, 18%] and terminal growth to [1%, 4%] with a 1.5%
// floor on 45% of the growth rate. Shares outstanding fall back to market
// cap over price; net debt is long-term debt minus cash with one-sided
// fallbacks.
func DeriveInputs(symbol string, quote *contracts.Quote, profile ProfileInputs, bundle *contracts.StatementBundle, a Assumptions) Inputs {
	latestYear := bundle.LatestYear()
	latest := fundamentals.Extract(bundle, latestYear)

	var marketPrice, marketCap *float64
	currency := "USD"
	if quote != nil {
		marketPrice = quote.Price
		marketCap = quote.MarketCap
		if quote.Currency != "" {
			currency = quote.Currency
		}
	}

	shares := latest.SharesOutstanding
	if (shares == nil || *shares <= 0) && marketPrice != nil && *marketPrice > 0 && marketCap != nil {
		shares = quant.SafeDiv(marketCap, marketPrice)
	}

	netDebt := netDebtOf(latest.LongTermDebt, latest.CashAndEquivalents)

	growth := quant.NormalizeRate(profile.RevenueGrowth)
	growthRate := 0.05
	if growth != nil {
		growthRate = *growth
	}
	growthRate = quant.Clamp(growthRate, -0.05, 0.20)

	beta := 1.0
	if profile.Beta != nil && *profile.Beta > 0 {
		beta = *profile.Beta
	}
	costOfEquity := a.RiskFreeRate + beta*a.MarketRiskPremium

	debtToEquity := 0.4
	if de := quant.NormalizeDebtEquity(profile.DebtToEquity); de != nil && *de >= 0 {
		debtToEquity = *de
	}
	debtWeight := debtToEquity / (1 + debtToEquity)
	wacc := costOfEquity*(1-debtWeight) + a.CostOfDebt*(1-a.CorporateTaxRate)*debtWeight
	wacc = quant.Clamp(wacc, 0.06, 0.18)

	terminalGrowth := quant.Clamp(math.Max(0.015, growthRate*0.45), 0.01, 0.04)

	fcffBase, fcfeBase := cashFlowBases(latest, a.CorporateTaxRate)

	return Inputs{
		Symbol:             strings.ToUpper(symbol),
		BaseYear:           latestYear,
		Currency:           currency,
		MarketPrice:        marketPrice,
		MarketCap:          marketCap,
		SharesOutstanding:  shares,
		NetDebt:            netDebt,
		FCFFBase:           fcffBase,
		FCFEBase:           fcfeBase,
		GrowthRate:         growthRate,
		TerminalGrowthRate: terminalGrowth,
		WACC:               wacc,
		CostOfEquity:       costOfEquity,
		CostOfDebt:         a.CostOfDebt,
		TaxRate:            a.CorporateTaxRate,
		ProjectionYears:    a.ProjectionYears,
	}
}

// cashFlowBases derives the FCFF and FCFE starting cash flows.
// FCFE prefers reported free cash flow, then OCF minus capex. FCFF prefers
// OCF minus capex, then reported FCF, then an EBIT build-up, and always adds
// back after-tax interest. Each falls back to the other when one side has
// no usable inputs.
func cashFlowBases(m fundamentals.Metrics, taxRate float64) (fcff, fcfe *float64) {
	ocf := m.OperatingCashFlow
	freeCF := m.FreeCashFlow
	capex := m.CapitalExpenditure

	fcfe = freeCF
	if fcfe == nil && ocf != nil {
		v := *ocf
		if capex != nil {
			v -= math.Abs(*capex)
		}
		fcfe = &v
	}

	switch {
	case ocf != nil:
		v := *ocf
		if capex != nil {
			v -= math.Abs(*capex)
		}
		fcff = &v
	case freeCF != nil:
		v := *freeCF
		fcff = &v
	case m.EBIT != nil:
		capexSpend := 0.0
		if capex != nil {
			capexSpend = math.Abs(*capex)
		}
		da := 0.0
		if m.DepreciationAmort != nil {
			da = *m.DepreciationAmort
		}
		v := *m.EBIT*(1-taxRate) + da - capexSpend
		fcff = &v
	}

	if fcff != nil && m.InterestExpense != nil {
		v := *fcff + math.Abs(*m.InterestExpense)*(1-taxRate)
		fcff = &v
	}
	if fcfe == nil {
		fcfe = fcff
	}
	return fcff, fcfe
}

func netDebtOf(longTermDebt, cash *float64) *float64 {
	switch {
	case longTermDebt != nil && cash != nil:
		v := *longTermDebt - *cash
		return &v
	case longTermDebt != nil:
		return longTermDebt
	case cash != nil:
		v := -*cash
		return &v
	default:
		return nil
	}
}

// Engine is the full valuation payload for one symbol, minus the
// peer-relative section which needs live peer fetches.
type Engine struct {
	Inputs      Inputs              `json:"inputs"`
	DCF         map[string]Result   `json:"dcf"`
	ReverseDCF  map[string]*float64 `json:"reverse_dcf"`
	Sensitivity map[string]Grid     `json:"sensitivity"`
}

// BuildEngine runs the forward, reverse, and sensitivity analyses for both
// cash-flow bases.
func BuildEngine(in Inputs) Engine {
	params := func(mode Mode) Params {
		base := in.FCFFBase
		if mode == ModeFCFE {
			base = in.FCFEBase
		}
		return Params{
			BaseCashFlow:       base,
			GrowthRate:         in.GrowthRate,
			DiscountRate:       in.WACC,
			TerminalGrowthRate: in.TerminalGrowthRate,
			ProjectionYears:    in.ProjectionYears,
			SharesOutstanding:  in.SharesOutstanding,
			NetDebt:            in.NetDebt,
			MarketPrice:        in.MarketPrice,
			Mode:               mode,
		}
	}

	fcff := params(ModeFCFF)
	fcfe := params(ModeFCFE)

	return Engine{
		Inputs: in,
		DCF: map[string]Result{
			"fcff": Project(fcff),
			"fcfe": Project(fcfe),
		},
		ReverseDCF: map[string]*float64{
			"fcff_required_growth_rate": ReverseGrowth(fcff),
			"fcfe_required_growth_rate": ReverseGrowth(fcfe),
		},
		Sensitivity: map[string]Grid{
			"fcff": SensitivityGrid(fcff),
			"fcfe": SensitivityGrid(fcfe),
		},
	}
}
