package fmp

import (
	"github.com/equitylens/backend/internal/contracts"
)

type quoteRow struct {
	Symbol            string   `json:"symbol"`
	Name              string   `json:"name"`
	Price             *float64 `json:"price"`
	Change            *float64 `json:"change"`
	ChangesPercentage *float64 `json:"changesPercentage"`
	PreviousClose     *float64 `json:"previousClose"`
	Open              *float64 `json:"open"`
	DayHigh           *float64 `json:"dayHigh"`
	DayLow            *float64 `json:"dayLow"`
	YearHigh          *float64 `json:"yearHigh"`
	YearLow           *float64 `json:"yearLow"`
	Volume            *float64 `json:"volume"`
	AvgVolume         *float64 `json:"avgVolume"`
	MarketCap         *float64 `json:"marketCap"`
	PE                *float64 `json:"pe"`
	EPS               *float64 `json:"eps"`
	Exchange          string   `json:"exchange"`
}

type profileRow struct {
	Symbol            string   `json:"symbol"`
	CompanyName       string   `json:"companyName"`
	Sector            string   `json:"sector"`
	Industry          string   `json:"industry"`
	Description       string   `json:"description"`
	Website           string   `json:"website"`
	Country           string   `json:"country"`
	ExchangeShortName string   `json:"exchangeShortName"`
	FullTimeEmployees *float64 `json:"fullTimeEmployees,string"`
	MarketCap         *float64 `json:"mktCap"`
	Beta              *float64 `json:"beta"`
	DebtToEquity      *float64 `json:"debtToEquity"`
}

type historyRow struct {
	Date     string   `json:"date"`
	Open     float64  `json:"open"`
	High     float64  `json:"high"`
	Low      float64  `json:"low"`
	Close    float64  `json:"close"`
	AdjClose *float64 `json:"adjClose"`
	Volume   int64    `json:"volume"`
}

type searchRow struct {
	Symbol            string `json:"symbol"`
	Name              string `json:"name"`
	ExchangeShortName string `json:"exchangeShortName"`
}

type insiderRow struct {
	TransactionType          string   `json:"transactionType"`
	AcquisitionOrDisposition string   `json:"acquistionOrDisposition"`
	SecuritiesTransacted     *float64 `json:"securitiesTransacted"`
}

type incomeRow struct {
	Date                        string   `json:"date"`
	Revenue                     *float64 `json:"revenue"`
	CostOfRevenue               *float64 `json:"costOfRevenue"`
	GrossProfit                 *float64 `json:"grossProfit"`
	OperatingIncome             *float64 `json:"operatingIncome"`
	InterestExpense             *float64 `json:"interestExpense"`
	NetIncome                   *float64 `json:"netIncome"`
	EBITDA                      *float64 `json:"ebitda"`
	DepreciationAndAmortization *float64 `json:"depreciationAndAmortization"`
	WeightedAverageShsOut       *float64 `json:"weightedAverageShsOut"`
}

type balanceRow struct {
	Date                       string   `json:"date"`
	TotalAssets                *float64 `json:"totalAssets"`
	TotalCurrentAssets         *float64 `json:"totalCurrentAssets"`
	TotalCurrentLiabilities    *float64 `json:"totalCurrentLiabilities"`
	CashAndCashEquivalents     *float64 `json:"cashAndCashEquivalents"`
	Inventory                  *float64 `json:"inventory"`
	NetReceivables             *float64 `json:"netReceivables"`
	PropertyPlantEquipmentNet  *float64 `json:"propertyPlantEquipmentNet"`
	TotalLiabilities           *float64 `json:"totalLiabilities"`
	LongTermDebt               *float64 `json:"longTermDebt"`
	TotalStockholdersEquity    *float64 `json:"totalStockholdersEquity"`
	RetainedEarnings           *float64 `json:"retainedEarnings"`
	CommonStockSharesOutstand  *float64 `json:"commonStock"`
}

type cashflowRow struct {
	Date                        string   `json:"date"`
	OperatingCashFlow           *float64 `json:"operatingCashFlow"`
	CapitalExpenditure          *float64 `json:"capitalExpenditure"`
	FreeCashFlow                *float64 `json:"freeCashFlow"`
	DepreciationAndAmortization *float64 `json:"depreciationAndAmortization"`
}

// buildBundle reshapes FMP's per-year statement arrays into canonical
// metric rows keyed by fiscal year, newest first.
func buildBundle(symbol string, income []incomeRow, balance []balanceRow, cashflow []cashflowRow) *contracts.StatementBundle {
	bundle := &contracts.StatementBundle{Symbol: symbol, Source: "fmp"}
	var incomeAcc, balanceAcc, cashAcc statementAccumulator
	seenYears := make(map[string]bool)
	addYear := func(year string) {
		if year != "" && !seenYears[year] {
			seenYears[year] = true
			bundle.Years = append(bundle.Years, year)
		}
	}

	for _, row := range income {
		year := fiscalYear(row.Date)
		if year == "" {
			continue
		}
		addYear(year)
		incomeAcc.add("Total Revenue", year, row.Revenue)
		incomeAcc.add("Cost Of Revenue", year, row.CostOfRevenue)
		incomeAcc.add("Gross Profit", year, row.GrossProfit)
		incomeAcc.add("Operating Income", year, row.OperatingIncome)
		incomeAcc.add("EBITDA", year, row.EBITDA)
		incomeAcc.add("Interest Expense", year, row.InterestExpense)
		incomeAcc.add("Net Income", year, row.NetIncome)
	}
	for _, row := range balance {
		year := fiscalYear(row.Date)
		if year == "" {
			continue
		}
		addYear(year)
		balanceAcc.add("Total Assets", year, row.TotalAssets)
		balanceAcc.add("Total Current Assets", year, row.TotalCurrentAssets)
		balanceAcc.add("Total Current Liabilities", year, row.TotalCurrentLiabilities)
		balanceAcc.add("Cash And Cash Equivalents", year, row.CashAndCashEquivalents)
		balanceAcc.add("Inventory", year, row.Inventory)
		balanceAcc.add("Net Receivables", year, row.NetReceivables)
		balanceAcc.add("Property Plant Equipment Net", year, row.PropertyPlantEquipmentNet)
		balanceAcc.add("Total Liabilities", year, row.TotalLiabilities)
		balanceAcc.add("Long Term Debt", year, row.LongTermDebt)
		balanceAcc.add("Stockholders Equity", year, row.TotalStockholdersEquity)
		balanceAcc.add("Retained Earnings", year, row.RetainedEarnings)
		balanceAcc.add("Share Issued", year, row.CommonStockSharesOutstand)
	}
	for _, row := range cashflow {
		year := fiscalYear(row.Date)
		if year == "" {
			continue
		}
		addYear(year)
		cashAcc.add("Operating Cash Flow", year, row.OperatingCashFlow)
		cashAcc.add("Capital Expenditure", year, row.CapitalExpenditure)
		cashAcc.add("Free Cash Flow", year, row.FreeCashFlow)
		cashAcc.add("Depreciation And Amortization", year, row.DepreciationAndAmortization)
	}

	bundle.Income = incomeAcc.rows()
	bundle.Balance = balanceAcc.rows()
	bundle.CashFlow = cashAcc.rows()
	return bundle
}

// fiscalYear extracts the year label from a date like "2024-09-28".
func fiscalYear(date string) string {
	if len(date) >= 4 {
		return date[:4]
	}
	return ""
}

type statementAccumulator struct {
	labels []string
	values map[string]map[string]*float64
}

func (a *statementAccumulator) add(label, year string, v *float64) {
	if v == nil {
		return
	}
	if a.values == nil {
		a.values = make(map[string]map[string]*float64)
	}
	if _, ok := a.values[label]; !ok {
		a.labels = append(a.labels, label)
		a.values[label] = make(map[string]*float64)
	}
	a.values[label][year] = v
}

func (a *statementAccumulator) rows() []contracts.MetricRow {
	rows := make([]contracts.MetricRow, 0, len(a.labels))
	for _, label := range a.labels {
		rows = append(rows, contracts.MetricRow{Metric: label, Values: a.values[label]})
	}
	return rows
}
