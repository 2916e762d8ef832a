// Package fundamentals turns raw financial statements into canonical line
// items and the ratio dashboard derived from them.
package fundamentals

import (
	"github.com/equitylens/backend/internal/contracts"
)

// Metrics is the canonical line-item dictionary for one fiscal year.
// A nil field means no upstream row matched any known alias.
type Metrics struct {
	Revenue            *float64
	CostOfRevenue      *float64
	GrossProfit        *float64
	OperatingIncome    *float64
	EBIT               *float64
	EBITDA             *float64
	InterestExpense    *float64
	NetIncome          *float64
	TotalAssets        *float64
	CurrentAssets      *float64
	CurrentLiabilities *float64
	CashAndEquivalents *float64
	Inventory          *float64
	Receivables        *float64
	NetPPE             *float64
	TotalLiabilities   *float64
	LongTermDebt       *float64
	Equity             *float64
	WorkingCapital     *float64
	RetainedEarnings   *float64
	SharesOutstanding  *float64
	OperatingCashFlow  *float64
	FreeCashFlow       *float64
	CapitalExpenditure *float64
	DepreciationAmort  *float64
}

// Alias candidates in priority order. Providers label the same line item
// differently; the first matching row wins.
var (
	revenueAliases          = []string{"Total Revenue", "Operating Revenue", "Revenue", "Net Sales", "Sales"}
	costOfRevenueAliases    = []string{"Cost Of Revenue", "Cost Of Goods Sold"}
	grossProfitAliases      = []string{"Gross Profit"}
	operatingIncomeAliases  = []string{"Operating Income", "Operating Income Loss"}
	ebitAliases             = []string{"EBIT"}
	ebitdaAliases           = []string{"EBITDA"}
	interestExpenseAliases  = []string{"Interest Expense", "Interest Expense Non Operating"}
	netIncomeAliases        = []string{"Net Income", "Net Income Common Stockholders", "Net Income Including Noncontrolling Interests"}
	totalAssetsAliases      = []string{"Total Assets"}
	currentAssetsAliases    = []string{"Current Assets", "Total Current Assets"}
	currentLiabAliases      = []string{"Current Liabilities", "Total Current Liabilities"}
	cashAliases             = []string{"Cash And Cash Equivalents", "Cash And Short Term Investments", "Cash", "Cash Cash Equivalents And Short Term Investments"}
	inventoryAliases        = []string{"Inventory", "Inventories"}
	receivablesAliases      = []string{"Accounts Receivable", "Receivables", "Net Receivables"}
	netPPEAliases           = []string{"Net PPE", "Property Plant Equipment Net", "Net Property Plant Equipment"}
	totalLiabAliases        = []string{"Total Liabilities Net Minority Interest", "Total Liabilities", "Total Liab"}
	longTermDebtAliases     = []string{"Long Term Debt", "Long Term Debt And Capital Lease Obligation", "Long Term Debt Noncurrent"}
	equityAliases           = []string{"Stockholders Equity", "Shareholders Equity", "Total Equity Gross Minority Interest", "Common Stock Equity"}
	workingCapitalAliases   = []string{"Working Capital"}
	retainedEarningsAliases = []string{"Retained Earnings", "Retained Earnings Accumulated Deficit"}
	sharesAliases           = []string{"Ordinary Shares Number", "Share Issued", "Common Stock Shares Outstanding", "Basic Average Shares", "Diluted Average Shares"}
	operatingCashAliases    = []string{"Operating Cash Flow", "Net Cash Provided By Operating Activities", "Net Cash Flow From Operating Activities", "Cash Flow From Operations"}
	freeCashFlowAliases     = []string{"Free Cash Flow"}
	capexAliases            = []string{"Capital Expenditure", "Capital Expenditures", "Purchase Of PPE", "Purchase Of Property Plant And Equipment"}
	depreciationAliases     = []string{"Depreciation And Amortization", "Depreciation Amortization Depletion", "Depreciation"}
)

// Extract maps the bundle's raw statement rows to canonical line items for
// the given year. Missing rows yield nil fields, never an error. Working
// capital is derived from current assets and liabilities when no upstream
// row carries it.
func Extract(bundle *contracts.StatementBundle, year string) Metrics {
	var m Metrics
	if bundle == nil || year == "" {
		return m
	}

	income := bundle.Income
	balance := bundle.Balance
	cash := bundle.CashFlow

	m.Revenue = statementValue(income, year, revenueAliases)
	m.CostOfRevenue = statementValue(income, year, costOfRevenueAliases)
	m.GrossProfit = statementValue(income, year, grossProfitAliases)
	m.OperatingIncome = statementValue(income, year, operatingIncomeAliases)
	m.EBIT = statementValue(income, year, ebitAliases)
	m.EBITDA = statementValue(income, year, ebitdaAliases)
	m.InterestExpense = statementValue(income, year, interestExpenseAliases)
	m.NetIncome = statementValue(income, year, netIncomeAliases)

	m.TotalAssets = statementValue(balance, year, totalAssetsAliases)
	m.CurrentAssets = statementValue(balance, year, currentAssetsAliases)
	m.CurrentLiabilities = statementValue(balance, year, currentLiabAliases)
	m.CashAndEquivalents = statementValue(balance, year, cashAliases)
	m.Inventory = statementValue(balance, year, inventoryAliases)
	m.Receivables = statementValue(balance, year, receivablesAliases)
	m.NetPPE = statementValue(balance, year, netPPEAliases)
	m.TotalLiabilities = statementValue(balance, year, totalLiabAliases)
	m.LongTermDebt = statementValue(balance, year, longTermDebtAliases)
	m.Equity = statementValue(balance, year, equityAliases)
	m.WorkingCapital = statementValue(balance, year, workingCapitalAliases)
	m.RetainedEarnings = statementValue(balance, year, retainedEarningsAliases)
	m.SharesOutstanding = statementValue(balance, year, sharesAliases)

	m.OperatingCashFlow = statementValue(cash, year, operatingCashAliases)
	m.FreeCashFlow = statementValue(cash, year, freeCashFlowAliases)
	m.CapitalExpenditure = statementValue(cash, year, capexAliases)
	m.DepreciationAmort = statementValue(cash, year, depreciationAliases)

	if m.WorkingCapital == nil && m.CurrentAssets != nil && m.CurrentLiabilities != nil {
		wc := *m.CurrentAssets - *m.CurrentLiabilities
		m.WorkingCapital = &wc
	}

	return m
}

// statementValue finds the first row whose metric matches any candidate and
// returns its value for the year. Candidates are tried in order.
func statementValue(rows []contracts.MetricRow, year string, candidates []string) *float64 {
	for _, candidate := range candidates {
		row, ok := contracts.FindRow(rows, candidate)
		if !ok {
			continue
		}
		if v, present := row.Values[year]; present && v != nil {
			return v
		}
	}
	return nil
}
