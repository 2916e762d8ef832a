package portfolio

import (
	"math"
	"sort"
	"time"
)

// Cashflow is one dated signed amount. Buys are negative (cost plus fee),
// sells positive (proceeds net of fee), and the terminal flow is the current
// market value.
type Cashflow struct {
	Date   time.Time
	Amount float64
}

// XIRR search parameters.
const (
	xirrRateFloor    = -0.9999
	xirrRateCeiling  = 4.0
	xirrBracketTries = 16
	xirrIterations   = 120
	xirrTolerance    = 1e-8
)

// XNPV discounts the cashflows to the earliest date at the given annual rate.
func XNPV(rate float64, flows []Cashflow) float64 {
	if len(flows) == 0 {
		return 0
	}
	anchor := flows[0].Date
	for _, f := range flows[1:] {
		if f.Date.Before(anchor) {
			anchor = f.Date
		}
	}

	sum := 0.0
	for _, f := range flows {
		years := f.Date.Sub(anchor).Hours() / 24 / 365
		sum += f.Amount / math.Pow(1+rate, years)
	}
	return sum
}

// XIRR solves XNPV(rate) = 0 by bisection. The bracket starts at the full
// rate window and the ceiling doubles a bounded number of times when the
// root is not bracketed. Nil without at least one positive and one negative
// flow, or when no bracket is found.
func XIRR(flows []Cashflow) *float64 {
	var hasPositive, hasNegative bool
	for _, f := range flows {
		if f.Amount > 0 {
			hasPositive = true
		}
		if f.Amount < 0 {
			hasNegative = true
		}
	}
	if !hasPositive || !hasNegative {
		return nil
	}

	sorted := make([]Cashflow, len(flows))
	copy(sorted, flows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	lo, hi := xirrRateFloor, xirrRateCeiling
	fLo := XNPV(lo, sorted)
	fHi := XNPV(hi, sorted)
	for i := 0; i < xirrBracketTries && fLo*fHi > 0; i++ {
		hi *= 2
		fHi = XNPV(hi, sorted)
	}
	if fLo*fHi > 0 {
		return nil
	}

	for i := 0; i < xirrIterations; i++ {
		mid := (lo + hi) / 2
		fMid := XNPV(mid, sorted)
		if math.Abs(fMid) < xirrTolerance || (hi-lo)/2 < xirrTolerance {
			return &mid
		}
		if fLo*fMid < 0 {
			hi = mid
		} else {
			lo = mid
			fLo = fMid
		}
	}

	v := (lo + hi) / 2
	return &v
}

// CashflowsFromLedger converts the transaction history plus the current
// market value into the signed flow list XIRR expects.
func CashflowsFromLedger(transactions []Transaction, marketValue float64, asOf time.Time) []Cashflow {
	flows := make([]Cashflow, 0, len(transactions)+1)
	for _, tx := range transactions {
		switch tx.Side {
		case SideBuy:
			flows = append(flows, Cashflow{Date: tx.TradeDate, Amount: -(tx.Quantity*tx.Price + tx.Fee)})
		case SideSell:
			flows = append(flows, Cashflow{Date: tx.TradeDate, Amount: tx.Quantity*tx.Price - tx.Fee})
		}
	}
	if marketValue > 0 {
		flows = append(flows, Cashflow{Date: asOf, Amount: marketValue})
	}
	return flows
}
