package yahoo

import (
	"context"
	"fmt"
	"net/url"

	"github.com/equitylens/backend/internal/contracts"
)

// rawValue is Yahoo's number envelope: {"raw": 1.23, "fmt": "1.23"}.
// A missing line item decodes as the zero value with a nil Raw.
type rawValue struct {
	Raw *float64 `json:"raw"`
	Fmt string   `json:"fmt,omitempty"`
}

func (v rawValue) ptr() *float64 { return v.Raw }

func (p *Provider) quoteSummary(ctx context.Context, symbol, modules string) (*summaryResult, error) {
	endpoint := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s",
		p.baseURL, url.PathEscape(symbol), url.QueryEscape(modules))

	var payload summaryResponse
	if err := p.client.GetJSON(ctx, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("yahoo summary %s: %w", symbol, err)
	}
	if payload.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("yahoo summary %s: %s", symbol, payload.QuoteSummary.Error.Description)
	}
	if len(payload.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("yahoo summary %s: empty result", symbol)
	}
	return &payload.QuoteSummary.Result[0], nil
}

// Profile combines the asset profile with key statistics and the trailing
// fundamentals Yahoo exposes under financialData.
func (p *Provider) Profile(ctx context.Context, symbol string) (*contracts.Profile, error) {
	result, err := p.quoteSummary(ctx, symbol,
		"assetProfile,price,summaryDetail,defaultKeyStatistics,financialData")
	if err != nil {
		return nil, err
	}

	profile := &contracts.Profile{Symbol: symbol, Name: symbol}
	if price := result.Price; price != nil {
		profile.Name = firstNonEmpty(price.LongName, price.ShortName, symbol)
		profile.Exchange = price.ExchangeName
		profile.MarketCap = price.MarketCap.ptr()
	}
	if asset := result.AssetProfile; asset != nil {
		profile.Sector = asset.Sector
		profile.Industry = asset.Industry
		profile.Description = asset.LongBusinessSummary
		profile.Website = asset.Website
		profile.Country = asset.Country
		profile.Employees = asset.FullTimeEmployees
	}
	if detail := result.SummaryDetail; detail != nil {
		profile.Beta = detail.Beta.ptr()
		profile.TrailingPE = detail.TrailingPE.ptr()
	}
	if stats := result.DefaultKeyStatistics; stats != nil {
		profile.SharesOut = stats.SharesOutstanding.ptr()
		profile.PB = stats.PriceToBook.ptr()
		profile.PEG = stats.PegRatio.ptr()
		profile.EPS = stats.TrailingEps.ptr()
		profile.BookValue = stats.BookValue.ptr()
		if profile.Beta == nil {
			profile.Beta = stats.Beta.ptr()
		}
	}
	if fin := result.FinancialData; fin != nil {
		profile.ROE = fin.ReturnOnEquity.ptr()
		profile.DebtToEquity = fin.DebtToEquity.ptr()
		profile.ProfitMargin = fin.ProfitMargins.ptr()
		profile.RevenueGrowth = fin.RevenueGrowth.ptr()
	}
	return profile, nil
}

// Financials pulls the three annual statement histories and reshapes them
// into the canonical bundle, newest year first.
func (p *Provider) Financials(ctx context.Context, symbol string) (*contracts.StatementBundle, error) {
	result, err := p.quoteSummary(ctx, symbol,
		"incomeStatementHistory,balanceSheetHistory,cashflowStatementHistory")
	if err != nil {
		return nil, err
	}

	bundle := &contracts.StatementBundle{Symbol: symbol, Source: p.Name()}
	var income, balance, cashflow statementAccumulator
	seenYears := make(map[string]bool)
	addYear := func(year string) {
		if year != "" && !seenYears[year] {
			seenYears[year] = true
			bundle.Years = append(bundle.Years, year)
		}
	}

	if h := result.IncomeHistory; h != nil {
		for _, stmt := range h.Statements {
			year := fiscalYear(stmt.EndDate)
			if year == "" {
				continue
			}
			addYear(year)
			income.add("Total Revenue", year, stmt.TotalRevenue.Raw)
			income.add("Cost Of Revenue", year, stmt.CostOfRevenue.Raw)
			income.add("Gross Profit", year, stmt.GrossProfit.Raw)
			income.add("Operating Income", year, stmt.OperatingIncome.Raw)
			income.add("EBIT", year, stmt.EBIT.Raw)
			income.add("Interest Expense", year, stmt.InterestExpense.Raw)
			income.add("Net Income", year, stmt.NetIncome.Raw)
		}
	}
	if h := result.BalanceHistory; h != nil {
		for _, stmt := range h.Statements {
			year := fiscalYear(stmt.EndDate)
			if year == "" {
				continue
			}
			addYear(year)
			balance.add("Total Assets", year, stmt.TotalAssets.Raw)
			balance.add("Total Current Assets", year, stmt.TotalCurrentAssets.Raw)
			balance.add("Total Current Liabilities", year, stmt.TotalCurrentLiabilities.Raw)
			balance.add("Cash", year, stmt.Cash.Raw)
			balance.add("Inventory", year, stmt.Inventory.Raw)
			balance.add("Net Receivables", year, stmt.NetReceivables.Raw)
			balance.add("Property Plant Equipment Net", year, stmt.PropertyPlantEquipment.Raw)
			balance.add("Total Liabilities", year, stmt.TotalLiab.Raw)
			balance.add("Long Term Debt", year, stmt.LongTermDebt.Raw)
			balance.add("Stockholders Equity", year, stmt.TotalStockholderEquity.Raw)
			balance.add("Retained Earnings", year, stmt.RetainedEarnings.Raw)
		}
	}
	if h := result.CashflowHistory; h != nil {
		for _, stmt := range h.Statements {
			year := fiscalYear(stmt.EndDate)
			if year == "" {
				continue
			}
			addYear(year)
			cashflow.add("Operating Cash Flow", year, stmt.TotalCashFromOperatingActivities.Raw)
			cashflow.add("Capital Expenditure", year, stmt.CapitalExpenditures.Raw)
			cashflow.add("Depreciation", year, stmt.Depreciation.Raw)
		}
	}

	if len(bundle.Years) == 0 {
		return nil, fmt.Errorf("yahoo financials %s: no annual statements", symbol)
	}
	bundle.Income = income.rows()
	bundle.Balance = balance.rows()
	bundle.CashFlow = cashflow.rows()
	return bundle, nil
}

// InsiderActivity reads the net share purchase module.
func (p *Provider) InsiderActivity(ctx context.Context, symbol string) (*contracts.InsiderActivity, error) {
	result, err := p.quoteSummary(ctx, symbol, "netSharePurchaseActivity")
	if err != nil {
		return nil, err
	}
	activity := result.NetSharePurchase
	if activity == nil {
		return nil, fmt.Errorf("yahoo insider %s: module missing", symbol)
	}
	return &contracts.InsiderActivity{
		Symbol:    symbol,
		BuyCount:  intFromRaw(activity.BuyInfoCount),
		SellCount: intFromRaw(activity.SellInfoCount),
		NetShares: activity.NetInfoShares.ptr(),
	}, nil
}

// statementAccumulator collects line items label-by-label, preserving the
// order labels first appear.
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

// fiscalYear extracts the year label from an endDate like "2024-09-28".
func fiscalYear(endDate rawValue) string {
	if len(endDate.Fmt) >= 4 {
		return endDate.Fmt[:4]
	}
	return ""
}

func intFromRaw(v rawValue) int {
	if v.Raw == nil {
		return 0
	}
	return int(*v.Raw)
}

type summaryResponse struct {
	QuoteSummary struct {
		Result []summaryResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

type summaryResult struct {
	Price                *priceModule         `json:"price"`
	SummaryDetail        *summaryDetailModule `json:"summaryDetail"`
	AssetProfile         *assetProfileModule  `json:"assetProfile"`
	DefaultKeyStatistics *keyStatsModule      `json:"defaultKeyStatistics"`
	FinancialData        *financialDataModule `json:"financialData"`
	IncomeHistory        *incomeHistory       `json:"incomeStatementHistory"`
	BalanceHistory       *balanceHistory      `json:"balanceSheetHistory"`
	CashflowHistory      *cashflowHistory     `json:"cashflowStatementHistory"`
	NetSharePurchase     *netShareModule      `json:"netSharePurchaseActivity"`
}

type priceModule struct {
	LongName                   string   `json:"longName"`
	ShortName                  string   `json:"shortName"`
	Currency                   string   `json:"currency"`
	ExchangeName               string   `json:"exchangeName"`
	RegularMarketPrice         rawValue `json:"regularMarketPrice"`
	RegularMarketChange        rawValue `json:"regularMarketChange"`
	RegularMarketChangePercent rawValue `json:"regularMarketChangePercent"`
	RegularMarketDayHigh       rawValue `json:"regularMarketDayHigh"`
	RegularMarketDayLow        rawValue `json:"regularMarketDayLow"`
	RegularMarketVolume        rawValue `json:"regularMarketVolume"`
	AverageDailyVolume3Month   rawValue `json:"averageDailyVolume3Month"`
	MarketCap                  rawValue `json:"marketCap"`
}

type summaryDetailModule struct {
	PreviousClose    rawValue `json:"previousClose"`
	Open             rawValue `json:"open"`
	FiftyTwoWeekHigh rawValue `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow  rawValue `json:"fiftyTwoWeekLow"`
	TrailingPE       rawValue `json:"trailingPE"`
	DividendYield    rawValue `json:"dividendYield"`
	Beta             rawValue `json:"beta"`
}

type assetProfileModule struct {
	Sector              string   `json:"sector"`
	Industry            string   `json:"industry"`
	Website             string   `json:"website"`
	Country             string   `json:"country"`
	LongBusinessSummary string   `json:"longBusinessSummary"`
	FullTimeEmployees   *float64 `json:"fullTimeEmployees"`
}

type keyStatsModule struct {
	SharesOutstanding rawValue `json:"sharesOutstanding"`
	Beta              rawValue `json:"beta"`
	PriceToBook       rawValue `json:"priceToBook"`
	PegRatio          rawValue `json:"pegRatio"`
	TrailingEps       rawValue `json:"trailingEps"`
	BookValue         rawValue `json:"bookValue"`
}

type financialDataModule struct {
	ReturnOnEquity rawValue `json:"returnOnEquity"`
	DebtToEquity   rawValue `json:"debtToEquity"`
	ProfitMargins  rawValue `json:"profitMargins"`
	RevenueGrowth  rawValue `json:"revenueGrowth"`
}

type incomeHistory struct {
	Statements []struct {
		EndDate         rawValue `json:"endDate"`
		TotalRevenue    rawValue `json:"totalRevenue"`
		CostOfRevenue   rawValue `json:"costOfRevenue"`
		GrossProfit     rawValue `json:"grossProfit"`
		OperatingIncome rawValue `json:"operatingIncome"`
		EBIT            rawValue `json:"ebit"`
		InterestExpense rawValue `json:"interestExpense"`
		NetIncome       rawValue `json:"netIncome"`
	} `json:"incomeStatementHistory"`
}

type balanceHistory struct {
	Statements []struct {
		EndDate                 rawValue `json:"endDate"`
		TotalAssets             rawValue `json:"totalAssets"`
		TotalCurrentAssets      rawValue `json:"totalCurrentAssets"`
		TotalCurrentLiabilities rawValue `json:"totalCurrentLiabilities"`
		Cash                    rawValue `json:"cash"`
		Inventory               rawValue `json:"inventory"`
		NetReceivables          rawValue `json:"netReceivables"`
		PropertyPlantEquipment  rawValue `json:"propertyPlantEquipment"`
		TotalLiab               rawValue `json:"totalLiab"`
		LongTermDebt            rawValue `json:"longTermDebt"`
		TotalStockholderEquity  rawValue `json:"totalStockholderEquity"`
		RetainedEarnings        rawValue `json:"retainedEarnings"`
	} `json:"balanceSheetStatements"`
}

type cashflowHistory struct {
	Statements []struct {
		EndDate                          rawValue `json:"endDate"`
		TotalCashFromOperatingActivities rawValue `json:"totalCashFromOperatingActivities"`
		CapitalExpenditures              rawValue `json:"capitalExpenditures"`
		Depreciation                     rawValue `json:"depreciation"`
	} `json:"cashflowStatements"`
}

type netShareModule struct {
	BuyInfoCount  rawValue `json:"buyInfoCount"`
	SellInfoCount rawValue `json:"sellInfoCount"`
	NetInfoShares rawValue `json:"netInfoShares"`
}
