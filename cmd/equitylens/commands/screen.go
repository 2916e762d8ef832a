package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/equitylens/backend/internal/contracts"
	"github.com/equitylens/backend/internal/external/alphavantage"
	"github.com/equitylens/backend/internal/external/fmp"
	"github.com/equitylens/backend/internal/external/yahoo"
	"github.com/equitylens/backend/internal/marketdata"
	"github.com/equitylens/backend/internal/screener"
	"github.com/equitylens/backend/pkg/config"
	"github.com/equitylens/backend/pkg/logger"
)

// screenCmd runs the stock screener from the command line.
var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Run the stock screener",
	Long: `Run the stock screener against live market data and print the
ranked results as JSON.

Example:
  go run ./cmd/equitylens screen --preset safe-compounders
  go run ./cmd/equitylens screen --symbols AAPL,MSFT,NVDA --min-roe 0.15`,
	RunE: runScreen,
}

var (
	screenPreset  string
	screenSymbols string
	screenMinROE  float64
	screenMaxPE   float64
	screenLimit   int
)

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().StringVar(&screenPreset, "preset", "", "preset name (safe-compounders, value-hunters, high-growth)")
	screenCmd.Flags().StringVar(&screenSymbols, "symbols", "", "comma-separated symbols (defaults to the liquid universe)")
	screenCmd.Flags().Float64Var(&screenMinROE, "min-roe", 0, "minimum return on equity (fraction)")
	screenCmd.Flags().Float64Var(&screenMaxPE, "max-pe", 0, "maximum trailing P/E")
	screenCmd.Flags().IntVar(&screenLimit, "limit", 25, "maximum rows to return")
}

func runScreen(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	req, err := buildScreenRequest()
	if err != nil {
		return err
	}

	chain := marketdata.NewChain(log,
		yahoo.New(log, cfg.Providers),
		fmp.New(log, cfg.Providers),
		alphavantage.New(log, cfg.Providers),
	)
	s := screener.New(chain, log, cfg.Screener, cfg.Analytics.CorporateTaxRate)

	result, err := s.Run(context.Background(), req)
	if err != nil {
		return fmt.Errorf("screener run: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func buildScreenRequest() (contracts.ScreenerRequest, error) {
	if screenPreset != "" {
		req, ok := screener.Presets()[screenPreset]
		if !ok {
			return contracts.ScreenerRequest{}, fmt.Errorf("unknown preset %q", screenPreset)
		}
		return req, nil
	}

	req := contracts.ScreenerRequest{Limit: screenLimit}
	if screenSymbols != "" {
		req.Symbols = strings.Split(screenSymbols, ",")
	}
	if screenMinROE > 0 {
		req.Filters.MinROE = &screenMinROE
	}
	if screenMaxPE > 0 {
		req.Filters.MaxPE = &screenMaxPE
	}
	return req, nil
}
