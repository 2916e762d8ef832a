package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/equitylens/backend/internal/alerts"
	"github.com/equitylens/backend/internal/api"
	"github.com/equitylens/backend/internal/api/handlers"
	"github.com/equitylens/backend/internal/external/alphavantage"
	"github.com/equitylens/backend/internal/external/fmp"
	"github.com/equitylens/backend/internal/external/yahoo"
	"github.com/equitylens/backend/internal/marketdata"
	"github.com/equitylens/backend/internal/portfolio"
	"github.com/equitylens/backend/internal/screener"
	"github.com/equitylens/backend/internal/stocks"
	"github.com/equitylens/backend/internal/universe"
	"github.com/equitylens/backend/internal/valuation"
	"github.com/equitylens/backend/internal/watchlist"
	"github.com/equitylens/backend/pkg/cache"
	"github.com/equitylens/backend/pkg/config"
	"github.com/equitylens/backend/pkg/database"
	"github.com/equitylens/backend/pkg/httputil"
	"github.com/equitylens/backend/pkg/logger"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the REST API server",
	Long: `Start the REST API server.

Serves the stock, screener, portfolio, watchlist, and alert endpoints and
runs the periodic alert sweep.

Example:
  go run ./cmd/equitylens api
  go run ./cmd/equitylens api --port 8080`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// 3. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	log.Info("Connected to database")

	// 4. Connect to cache
	cacheClient, err := cache.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to cache: %w", err)
	}
	defer cacheClient.Close()
	appCache := cache.NewCache(cacheClient, "equitylens")

	// 5. Build the provider fallback chain
	chain := marketdata.NewChain(log,
		yahoo.New(log, cfg.Providers),
		fmp.New(log, cfg.Providers),
		alphavantage.New(log, cfg.Providers),
	)
	cached := marketdata.NewCached(chain, appCache)

	// 6. Build services
	directory := universe.NewDirectory(httputil.NewWithTimeout(log, 30*time.Second), log)
	assumptions := valuation.Assumptions{
		RiskFreeRate:      cfg.Analytics.RiskFreeRate,
		MarketRiskPremium: cfg.Analytics.MarketRiskPremium,
		CorporateTaxRate:  cfg.Analytics.CorporateTaxRate,
		CostOfDebt:        cfg.Analytics.CostOfDebt,
		ProjectionYears:   cfg.Analytics.ProjectionYears,
	}
	stockService := stocks.NewService(cached, directory, appCache, log, assumptions)
	screenerService := screener.New(cached, log, cfg.Screener, cfg.Analytics.CorporateTaxRate)
	portfolioService := portfolio.NewService(
		portfolio.NewRepository(db.Pool),
		cached,
		log,
		portfolio.TaxRates{ShortTerm: cfg.Analytics.ShortTermTaxRate, LongTerm: cfg.Analytics.LongTermTaxRate},
		"SPY",
	)
	watchlistRepo := watchlist.NewRepository(db.Pool)
	watchlistService := watchlist.NewService(watchlistRepo, cached, log)
	alertRepo := alerts.NewRepository(db.Pool)
	alertService := alerts.NewService(alertRepo, cached, nil, log)

	// 7. Schedule the alert sweep
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.AlertSweepSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		alertService.Sweep(ctx)
	}); err != nil {
		return fmt.Errorf("schedule alert sweep: %w", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	log.WithField("schedule", cfg.AlertSweepSchedule).Info("Alert sweep scheduled")

	// 8. Create router and server
	router := api.NewRouter(api.Handlers{
		Stocks:     handlers.NewStockHandler(stockService, log),
		Screener:   handlers.NewScreenerHandler(screenerService, log),
		Portfolios: handlers.NewPortfolioHandler(portfolioService, log),
		Watchlists: handlers.NewWatchlistHandler(watchlistService, watchlistRepo, log),
		Alerts:     handlers.NewAlertHandler(alertService, alertRepo, log),
	}, log)
	server := api.New(cfg, log, router)

	// 9. Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
