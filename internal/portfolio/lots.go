package portfolio

import (
	"sort"
	"time"
)

// Holding periods at or beyond a year qualify as long-term.
const longTermHoldingDays = 365

// TaxRates are the flat-bracket estimate rates. They come from
// configuration; the defaults are a simplified approximation, not tax
// advice.
type TaxRates struct {
	ShortTerm float64
	LongTerm  float64
}

// TaxSummary is the lot-matched realized and unrealized gain breakdown.
type TaxSummary struct {
	RealizedShortTerm   float64 `json:"realized_short_term"`
	RealizedLongTerm    float64 `json:"realized_long_term"`
	UnrealizedShortTerm float64 `json:"unrealized_short_term"`
	UnrealizedLongTerm  float64 `json:"unrealized_long_term"`
	EstimatedTax        float64 `json:"estimated_tax"`
	ShortTermRate       float64 `json:"short_term_rate"`
	LongTermRate        float64 `json:"long_term_rate"`
}

// lot is one open purchase tranche. Unit cost includes the buy fee.
type lot struct {
	quantity float64
	unitCost float64
	date     time.Time
}

// ComputeTaxSummary replays the transaction ledger in (trade_date,
// created_at) order, matching sells against a per-symbol FIFO queue of open
// buy lots. A sell that exceeds the tracked lots books the remainder's full
// proceeds as short-term gain, the conservative treatment for missing lot
// history. Open lots are then marked against the current price, split
// long/short by age as of asOf.
func ComputeTaxSummary(transactions []Transaction, currentPrices map[string]float64, asOf time.Time, rates TaxRates) TaxSummary {
	ordered := make([]Transaction, len(transactions))
	copy(ordered, transactions)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].TradeDate.Equal(ordered[j].TradeDate) {
			return ordered[i].TradeDate.Before(ordered[j].TradeDate)
		}
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	summary := TaxSummary{
		ShortTermRate: rates.ShortTerm,
		LongTermRate:  rates.LongTerm,
	}
	open := make(map[string][]lot)

	for _, tx := range ordered {
		switch tx.Side {
		case SideBuy:
			if tx.Quantity <= 0 {
				continue
			}
			open[tx.Symbol] = append(open[tx.Symbol], lot{
				quantity: tx.Quantity,
				unitCost: (tx.Quantity*tx.Price + tx.Fee) / tx.Quantity,
				date:     tx.TradeDate,
			})

		case SideSell:
			if tx.Quantity <= 0 {
				continue
			}
			unitProceeds := tx.Price
			if tx.Fee != 0 {
				unitProceeds = (tx.Quantity*tx.Price - tx.Fee) / tx.Quantity
			}

			remaining := tx.Quantity
			queue := open[tx.Symbol]
			for remaining > 0 && len(queue) > 0 {
				head := &queue[0]
				matched := head.quantity
				if matched > remaining {
					matched = remaining
				}

				gain := matched * (unitProceeds - head.unitCost)
				if isLongTerm(head.date, tx.TradeDate) {
					summary.RealizedLongTerm += gain
				} else {
					summary.RealizedShortTerm += gain
				}

				head.quantity -= matched
				remaining -= matched
				if head.quantity <= 0 {
					queue = queue[1:]
				}
			}
			if remaining > 0 {
				summary.RealizedShortTerm += remaining * unitProceeds
			}
			open[tx.Symbol] = queue
		}
	}

	for symbol, queue := range open {
		price, ok := currentPrices[symbol]
		if !ok {
			continue
		}
		for _, l := range queue {
			gain := l.quantity * (price - l.unitCost)
			if isLongTerm(l.date, asOf) {
				summary.UnrealizedLongTerm += gain
			} else {
				summary.UnrealizedShortTerm += gain
			}
		}
	}

	summary.EstimatedTax = rates.ShortTerm*max0(summary.RealizedShortTerm) +
		rates.LongTerm*max0(summary.RealizedLongTerm)

	return summary
}

func isLongTerm(acquired, disposed time.Time) bool {
	return disposed.Sub(acquired).Hours() >= longTermHoldingDays*24
}

func max0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
