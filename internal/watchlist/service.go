package watchlist

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/equitylens/backend/internal/contracts"
	"github.com/equitylens/backend/pkg/logger"
)

// QuoteSource is the slice of the market-data surface the service needs.
type QuoteSource interface {
	QuoteWithMeta(ctx context.Context, symbol string) (*contracts.Quote, contracts.SourceMeta, error)
}

// Service layers live quotes over the persisted watchlists.
type Service struct {
	repo   *Repository
	quotes QuoteSource
	logger *logger.Logger
}

// NewService creates a new Service instance.
func NewService(repo *Repository, quotes QuoteSource, log *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		quotes: quotes,
		logger: log.WithField("component", "watchlist"),
	}
}

// Quotes is the per-watchlist live view.
type Quotes struct {
	Watchlist   string            `json:"watchlist"`
	Items       []contracts.Quote `json:"items"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// Quotes fetches a live quote for every symbol on the watchlist
// concurrently. Failed quotes are dropped from the view, not fatal.
func (s *Service) Quotes(ctx context.Context, id uuid.UUID, userID string) (*Quotes, error) {
	w, err := s.repo.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	type slot struct {
		quote *contracts.Quote
	}
	slots := make([]slot, len(w.Items))

	var wg sync.WaitGroup
	for i, item := range w.Items {
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			quote, _, err := s.quotes.QuoteWithMeta(ctx, symbol)
			if err != nil {
				s.logger.WithError(err).WithField("symbol", symbol).Debug("watchlist quote unavailable")
				return
			}
			slots[i].quote = quote
		}(i, item.Symbol)
	}
	wg.Wait()

	out := &Quotes{
		Watchlist:   w.Name,
		Items:       make([]contracts.Quote, 0, len(w.Items)),
		GeneratedAt: time.Now().UTC(),
	}
	for _, slot := range slots {
		if slot.quote != nil {
			out.Items = append(out.Items, *slot.quote)
		}
	}
	return out, nil
}
