package portfolio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/equitylens/backend/internal/contracts"
	"github.com/equitylens/backend/pkg/logger"
)

// Positions below this quantity are treated as closed and deleted.
const quantityEpsilon = 1e-6

// Validation sentinels for transaction input.
var (
	ErrInvalidTransaction   = errors.New("portfolio: invalid transaction")
	ErrInsufficientQuantity = errors.New("portfolio: sell exceeds held quantity")
)

// Service applies transactions to portfolios and assembles insights.
type Service struct {
	repo            *Repository
	provider        contracts.MarketDataProvider
	logger          *logger.Logger
	rates           TaxRates
	benchmarkSymbol string
}

// NewService creates a new Service instance. provider supplies live quotes
// and history for the insight computation.
func NewService(repo *Repository, provider contracts.MarketDataProvider, log *logger.Logger, rates TaxRates, benchmarkSymbol string) *Service {
	if benchmarkSymbol == "" {
		benchmarkSymbol = "SPY"
	}
	return &Service{
		repo:            repo,
		provider:        provider,
		logger:          log.WithField("component", "portfolio"),
		rates:           rates,
		benchmarkSymbol: benchmarkSymbol,
	}
}

// Repo exposes the repository for plain CRUD handlers.
func (s *Service) Repo() *Repository {
	return s.repo
}

// TransactionInput is one buy or sell to record.
type TransactionInput struct {
	Symbol    string    `json:"symbol"`
	Side      string    `json:"side"`
	Quantity  float64   `json:"quantity"`
	Price     float64   `json:"price"`
	Fee       float64   `json:"fee"`
	TradeDate time.Time `json:"trade_date"`
	Note      string    `json:"note"`
}

func (in TransactionInput) validate() error {
	if strings.TrimSpace(in.Symbol) == "" {
		return fmt.Errorf("%w: symbol is required", ErrInvalidTransaction)
	}
	if in.Side != SideBuy && in.Side != SideSell {
		return fmt.Errorf("%w: side must be %q or %q", ErrInvalidTransaction, SideBuy, SideSell)
	}
	if in.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidTransaction)
	}
	if in.Price <= 0 {
		return fmt.Errorf("%w: price must be positive", ErrInvalidTransaction)
	}
	if in.Fee < 0 {
		return fmt.Errorf("%w: fee cannot be negative", ErrInvalidTransaction)
	}
	return nil
}

// RecordTransaction appends a ledger entry and rolls the position state
// forward. Buys update the weighted-average cost including the fee; sells
// reduce quantity at the existing average and close the position near zero.
func (s *Service) RecordTransaction(ctx context.Context, portfolioID uuid.UUID, in TransactionInput) (*Transaction, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	symbol := strings.ToUpper(strings.TrimSpace(in.Symbol))

	position, err := s.repo.GetPosition(ctx, portfolioID, symbol)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if in.Side == SideSell {
		if position == nil || position.Quantity+quantityEpsilon < in.Quantity {
			return nil, ErrInsufficientQuantity
		}
	}

	tradeDate := in.TradeDate
	if tradeDate.IsZero() {
		tradeDate = time.Now().UTC()
	}
	tx := &Transaction{
		ID:          uuid.New(),
		PortfolioID: portfolioID,
		Symbol:      symbol,
		Side:        in.Side,
		Quantity:    in.Quantity,
		Price:       in.Price,
		Fee:         in.Fee,
		TradeDate:   tradeDate,
		Note:        in.Note,
	}
	if err := s.repo.InsertTransaction(ctx, tx); err != nil {
		return nil, err
	}

	if in.Side == SideBuy {
		quantity := in.Quantity
		cost := in.Quantity*in.Price + in.Fee
		if position != nil {
			quantity += position.Quantity
			cost += position.Quantity * position.AvgBuyPrice
		}
		sector := s.lookupSector(ctx, symbol, position)
		if err := s.repo.UpsertPosition(ctx, portfolioID, symbol, quantity, cost/quantity, sector); err != nil {
			return nil, err
		}
	} else {
		remaining := position.Quantity - in.Quantity
		if remaining <= quantityEpsilon {
			if err := s.repo.DeletePosition(ctx, portfolioID, symbol); err != nil {
				return nil, err
			}
		} else if err := s.repo.UpsertPosition(ctx, portfolioID, symbol, remaining, position.AvgBuyPrice, position.Sector); err != nil {
			return nil, err
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"portfolio_id": portfolioID.String(),
		"symbol":       symbol,
		"side":         in.Side,
		"quantity":     in.Quantity,
	}).Info("transaction recorded")

	return tx, nil
}

// lookupSector fills the position's sector from the company profile on the
// first buy. Failures fall back to whatever was already stored.
func (s *Service) lookupSector(ctx context.Context, symbol string, position *Position) string {
	if position != nil && position.Sector != "" {
		return position.Sector
	}
	if s.provider == nil {
		return ""
	}
	profile, err := s.provider.Profile(ctx, symbol)
	if err != nil || profile == nil {
		return ""
	}
	return profile.Sector
}

// Insights loads the portfolio state, gathers live market data for every
// holding concurrently, and runs the attribution engine. A failed fetch for
// one symbol degrades that holding, never the whole computation.
func (s *Service) Insights(ctx context.Context, portfolioID uuid.UUID) (*PortfolioInsights, error) {
	positions, err := s.repo.ListPositions(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	transactions, err := s.repo.ListTransactions(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	holdings := make([]Holding, len(positions))
	var benchmark []contracts.PriceBar

	var wg sync.WaitGroup
	for i, pos := range positions {
		wg.Add(1)
		go func(i int, pos Position) {
			defer wg.Done()
			holdings[i] = s.fetchHolding(ctx, pos)
		}(i, pos)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		bars, err := s.provider.History(ctx, s.benchmarkSymbol, "1y", "1d")
		if err != nil {
			s.logger.WithError(err).WithField("symbol", s.benchmarkSymbol).Warn("benchmark history unavailable")
			return
		}
		benchmark = bars
	}()
	wg.Wait()

	insights := ComputeInsights(holdings, transactions, benchmark, s.rates, time.Now().UTC())
	return &insights, nil
}

func (s *Service) fetchHolding(ctx context.Context, pos Position) Holding {
	holding := Holding{
		Symbol:      pos.Symbol,
		Sector:      pos.Sector,
		Quantity:    pos.Quantity,
		AvgBuyPrice: pos.AvgBuyPrice,
	}

	quote, err := s.provider.Quote(ctx, pos.Symbol)
	if err != nil {
		s.logger.WithError(err).WithField("symbol", pos.Symbol).Warn("quote unavailable for holding")
	} else if quote != nil {
		holding.Price = quote.Price
	}

	bars, err := s.provider.History(ctx, pos.Symbol, "1y", "1d")
	if err != nil {
		s.logger.WithError(err).WithField("symbol", pos.Symbol).Warn("history unavailable for holding")
	} else {
		holding.History = bars
	}

	return holding
}
