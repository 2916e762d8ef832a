package screener

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/equitylens/backend/internal/contracts"
	"github.com/equitylens/backend/internal/universe"
	"github.com/equitylens/backend/pkg/config"
	"github.com/equitylens/backend/pkg/logger"
)

// Default universe sizing. Statement-heavy filter combinations trim the
// batch to keep the enrichment fan-out inside the batch deadline.
const (
	defaultUniverseSize  = 60
	enrichedUniverseSize = 30
	benchmarkSymbol      = "SPY"
)

// Screener runs concurrent multi-filter evaluations over a symbol batch.
type Screener struct {
	provider contracts.MarketDataProvider
	logger   *logger.Logger
	cfg      config.ScreenerConfig
	eval     *evaluator
}

// New creates a new Screener instance. taxRate feeds the ROIC enrichment.
func New(provider contracts.MarketDataProvider, log *logger.Logger, cfg config.ScreenerConfig, taxRate float64) *Screener {
	componentLog := log.WithField("component", "screener")
	return &Screener{
		provider: provider,
		logger:   componentLog,
		cfg:      cfg,
		eval: &evaluator{
			provider: provider,
			logger:   componentLog,
			cfg:      cfg,
			taxRate:  taxRate,
		},
	}
}

// Run evaluates the requested symbols (or a default universe) under the
// batch deadline and returns ranked passing rows plus run metadata. A
// partial result on timeout is a valid result, not an error.
func (s *Screener) Run(ctx context.Context, req contracts.ScreenerRequest) (*contracts.ScreenerResult, error) {
	start := time.Now()

	symbols := normalizeSymbols(req.Symbols)
	customSymbols := len(symbols) > 0
	if !customSymbols {
		symbols = s.defaultUniverse(&req.Filters)
	}

	batchCtx, cancel := context.WithTimeout(ctx, s.batchTimeout(len(symbols), customSymbols))
	defer cancel()

	benchCloses := s.benchmarkCloses(batchCtx)

	var (
		mu           sync.Mutex
		rows         []contracts.ScreenerRow
		eliminations = make(map[string]int)
		evaluated    int
	)

	sem := semaphore.NewWeighted(s.cfg.MaxConcurrency)
	var wg sync.WaitGroup
	for _, symbol := range symbols {
		if err := sem.Acquire(batchCtx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			defer sem.Release(1)

			symbolCtx, cancelSymbol := context.WithTimeout(batchCtx, s.cfg.SymbolTimeout)
			defer cancelSymbol()

			row, reason, err := s.eval.evaluate(symbolCtx, symbol, &req.Filters, benchCloses)
			if err != nil {
				s.logger.WithError(err).WithField("symbol", symbol).Debug("symbol evaluation skipped")
				return
			}

			mu.Lock()
			defer mu.Unlock()
			evaluated++
			if reason != "" {
				eliminations[reason]++
				return
			}
			rows = append(rows, *row)
		}(symbol)
	}
	wg.Wait()

	timedOut := batchCtx.Err() != nil && ctx.Err() == nil

	rows = rankRows(rows, &req.Filters, eliminations)
	applySort(rows, req.SortBy, req.SortOrder)
	if req.Limit > 0 && len(rows) > req.Limit {
		rows = rows[:req.Limit]
	}
	if rows == nil {
		rows = []contracts.ScreenerRow{}
	}

	meta := contracts.ScreenerMeta{
		RequestedSymbols:      len(symbols),
		EvaluatedSymbols:      evaluated,
		PassedSymbols:         len(rows),
		TimedOut:              timedOut,
		Partial:               evaluated < len(symbols),
		DurationMS:            time.Since(start).Milliseconds(),
		EliminationCounts:     eliminations,
		RelaxationSuggestions: relaxationSuggestions(eliminations, evaluated),
	}

	s.logger.WithFields(map[string]interface{}{
		"requested": meta.RequestedSymbols,
		"evaluated": meta.EvaluatedSymbols,
		"passed":    meta.PassedSymbols,
		"timed_out": meta.TimedOut,
	}).Info("screener run finished")

	return &contracts.ScreenerResult{Items: rows, Meta: meta}, nil
}

// batchTimeout scales the wall-clock bound with batch size inside the
// configured window.
func (s *Screener) batchTimeout(batchSize int, customSymbols bool) time.Duration {
	minT, maxT := s.cfg.BatchTimeoutMin, s.cfg.BatchTimeoutMax
	if maxT <= minT {
		return minT
	}

	span := float64(maxT - minT)
	share := float64(batchSize) / 60.0
	if share > 1 {
		share = 1
	}
	timeout := minT + time.Duration(span*share)
	if customSymbols && timeout < minT+time.Duration(span*0.25) {
		// Explicit symbol lists get a little extra headroom; callers
		// expect every requested row back.
		timeout = minT + time.Duration(span*0.25)
	}
	return timeout
}

func (s *Screener) defaultUniverse(f *contracts.ScreenerFilters) []string {
	size := defaultUniverseSize
	if f.NeedsStatements() || f.NeedsInsider() {
		size = enrichedUniverseSize
	}
	if size > len(universe.HeatmapSymbols) {
		size = len(universe.HeatmapSymbols)
	}
	return universe.HeatmapSymbols[:size]
}

func (s *Screener) benchmarkCloses(ctx context.Context) []float64 {
	bars, err := s.provider.History(ctx, benchmarkSymbol, "1y", "1d")
	if err != nil {
		s.logger.WithError(err).Warn("benchmark history unavailable; skipping beta")
		return nil
	}
	return contracts.Closes(bars)
}

func normalizeSymbols(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		symbol := strings.ToUpper(strings.TrimSpace(s))
		if symbol == "" || seen[symbol] {
			continue
		}
		seen[symbol] = true
		out = append(out, symbol)
	}
	return out
}
