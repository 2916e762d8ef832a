// Package portfolio owns portfolio persistence and the performance
// attribution engine: FIFO tax lots, XIRR, risk-adjusted ratios, and the
// diversification model.
package portfolio

import (
	"time"

	"github.com/google/uuid"

	"github.com/equitylens/backend/internal/contracts"
)

// Transaction sides.
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// Portfolio is a named collection of positions owned by one user.
type Portfolio struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Position is the running state of one symbol inside a portfolio. The
// average buy price is cost-basis weighted and maintained on buys only;
// sells reduce quantity at the existing average.
type Position struct {
	ID           uuid.UUID `json:"id"`
	PortfolioID  uuid.UUID `json:"portfolio_id"`
	Symbol       string    `json:"symbol"`
	Quantity     float64   `json:"quantity"`
	AvgBuyPrice  float64   `json:"avg_buy_price"`
	Sector       string    `json:"sector,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Transaction is one immutable ledger entry. The position state and the
// FIFO lot ledger are both derived from the ordered transaction history.
type Transaction struct {
	ID          uuid.UUID `json:"id"`
	PortfolioID uuid.UUID `json:"portfolio_id"`
	Symbol      string    `json:"symbol"`
	Side        string    `json:"side"`
	Quantity    float64   `json:"quantity"`
	Price       float64   `json:"price"`
	Fee         float64   `json:"fee"`
	TradeDate   time.Time `json:"trade_date"`
	Note        string    `json:"note,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Holding is a position joined with live market data for the insight
// computation. Price and history may be missing when every provider failed
// for the symbol; the engine degrades instead of aborting.
type Holding struct {
	Symbol      string
	Sector      string
	Quantity    float64
	AvgBuyPrice float64
	Price       *float64
	History     []contracts.PriceBar
}

// MarketValue is quantity times the live price, falling back to the average
// buy price when no quote resolved.
func (h Holding) MarketValue() float64 {
	if h.Price != nil && *h.Price > 0 {
		return h.Quantity * *h.Price
	}
	return h.Quantity * h.AvgBuyPrice
}

// CostBasis is quantity times the weighted-average buy price.
func (h Holding) CostBasis() float64 {
	return h.Quantity * h.AvgBuyPrice
}
