package alerts

import (
	"context"
	"sync"

	"github.com/equitylens/backend/internal/contracts"
	"github.com/equitylens/backend/pkg/logger"
)

// QuoteSource is the slice of the market-data surface the evaluator needs.
type QuoteSource interface {
	QuoteWithMeta(ctx context.Context, symbol string) (*contracts.Quote, contracts.SourceMeta, error)
}

// Notifier delivers a fired alert to the user. Delivery failures never undo
// the trigger; the alert stays fired and the failure is logged.
type Notifier interface {
	Notify(ctx context.Context, userID string, trigger Trigger) error
}

// LogNotifier is the default delivery hook. An email or push integration
// replaces it in deployments that configure one.
type LogNotifier struct {
	Logger *logger.Logger
}

func (n *LogNotifier) Notify(ctx context.Context, userID string, trigger Trigger) error {
	n.Logger.WithFields(map[string]interface{}{
		"user_id":       userID,
		"symbol":        trigger.Symbol,
		"target_price":  trigger.TargetPrice,
		"current_price": trigger.CurrentPrice,
		"above":         trigger.Above,
	}).Info("price alert triggered")
	return nil
}

// Service evaluates alerts against live quotes.
type Service struct {
	repo     *Repository
	quotes   QuoteSource
	notifier Notifier
	logger   *logger.Logger
}

// NewService creates a new Service instance. A nil notifier falls back to
// log-only delivery.
func NewService(repo *Repository, quotes QuoteSource, notifier Notifier, log *logger.Logger) *Service {
	componentLog := log.WithField("component", "alerts")
	if notifier == nil {
		notifier = &LogNotifier{Logger: componentLog}
	}
	return &Service{
		repo:     repo,
		quotes:   quotes,
		notifier: notifier,
		logger:   componentLog,
	}
}

// CheckResult reports one evaluation pass.
type CheckResult struct {
	Triggered []Trigger `json:"triggered"`
	Count     int       `json:"count"`
}

// Check evaluates the user's active alerts right now, marking and notifying
// any that fired.
func (s *Service) Check(ctx context.Context, userID string) (*CheckResult, error) {
	active, err := s.repo.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	triggered := s.evaluate(ctx, active)
	return &CheckResult{Triggered: triggered, Count: len(triggered)}, nil
}

// Sweep evaluates every active alert across users. The cron scheduler calls
// this periodically.
func (s *Service) Sweep(ctx context.Context) {
	active, err := s.repo.ListAllActive(ctx)
	if err != nil {
		s.logger.WithError(err).Error("alert sweep query failed")
		return
	}
	if len(active) == 0 {
		return
	}

	triggered := s.evaluate(ctx, active)
	s.logger.WithFields(map[string]interface{}{
		"active":    len(active),
		"triggered": len(triggered),
	}).Info("alert sweep complete")
}

// evaluate quotes each distinct symbol once, fires the alerts whose
// condition holds, and marks them triggered. Quote failures skip the
// symbol's alerts until the next pass.
func (s *Service) evaluate(ctx context.Context, active []Alert) []Trigger {
	symbols := make(map[string][]Alert)
	for _, a := range active {
		symbols[a.Symbol] = append(symbols[a.Symbol], a)
	}

	prices := make(map[string]float64, len(symbols))
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for symbol := range symbols {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			quote, _, err := s.quotes.QuoteWithMeta(ctx, symbol)
			if err != nil || quote == nil || quote.Price == nil {
				if err != nil {
					s.logger.WithError(err).WithField("symbol", symbol).Debug("alert quote unavailable")
				}
				return
			}
			mu.Lock()
			prices[symbol] = *quote.Price
			mu.Unlock()
		}(symbol)
	}
	wg.Wait()

	var triggered []Trigger
	for symbol, alerts := range symbols {
		price, ok := prices[symbol]
		if !ok {
			continue
		}
		for _, a := range alerts {
			if !conditionMet(a, price) {
				continue
			}
			if err := s.repo.MarkTriggered(ctx, a.ID); err != nil {
				s.logger.WithError(err).WithField("alert_id", a.ID).Error("mark triggered failed")
				continue
			}
			trigger := Trigger{
				AlertID:      a.ID,
				Symbol:       a.Symbol,
				TargetPrice:  a.TargetPrice,
				CurrentPrice: price,
				Above:        a.Above,
			}
			if err := s.notifier.Notify(ctx, a.UserID, trigger); err != nil {
				s.logger.WithError(err).WithField("alert_id", a.ID).Warn("alert notification failed")
			} else {
				trigger.Notified = true
			}
			triggered = append(triggered, trigger)
		}
	}
	return triggered
}

func conditionMet(a Alert, price float64) bool {
	if a.Above {
		return price >= a.TargetPrice
	}
	return price <= a.TargetPrice
}
