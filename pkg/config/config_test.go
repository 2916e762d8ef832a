package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/equitylens_test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %s, want 8080", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %s, want development", cfg.Env)
	}
	if cfg.Database.MaxConns != 25 {
		t.Errorf("Database.MaxConns = %d, want 25", cfg.Database.MaxConns)
	}
	if cfg.Screener.MaxConcurrency != 8 {
		t.Errorf("Screener.MaxConcurrency = %d, want 8", cfg.Screener.MaxConcurrency)
	}
	if cfg.Screener.SymbolTimeout != 5*time.Second {
		t.Errorf("Screener.SymbolTimeout = %v, want 5s", cfg.Screener.SymbolTimeout)
	}
	if cfg.Analytics.ShortTermTaxRate != 0.30 {
		t.Errorf("Analytics.ShortTermTaxRate = %v, want 0.30", cfg.Analytics.ShortTermTaxRate)
	}
	if cfg.Analytics.RiskFreeRate != 0.043 {
		t.Errorf("Analytics.RiskFreeRate = %v, want 0.043", cfg.Analytics.RiskFreeRate)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/equitylens_test")
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("SCREENER_SYMBOL_TIMEOUT", "3s")
	t.Setenv("TAX_RATE_LONG_TERM", "0.20")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Port = %s, want 9090", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Errorf("Env = %s, want production", cfg.Env)
	}
	if cfg.Screener.SymbolTimeout != 3*time.Second {
		t.Errorf("Screener.SymbolTimeout = %v, want 3s", cfg.Screener.SymbolTimeout)
	}
	if cfg.Analytics.LongTermTaxRate != 0.20 {
		t.Errorf("Analytics.LongTermTaxRate = %v, want 0.20", cfg.Analytics.LongTermTaxRate)
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "missing database url",
			env:  map[string]string{"DATABASE_URL": ""},
		},
		{
			name: "bad env name",
			env: map[string]string{
				"DATABASE_URL": "postgres://localhost:5432/x",
				"ENV":          "qa",
			},
		},
		{
			name: "zero concurrency",
			env: map[string]string{
				"DATABASE_URL":             "postgres://localhost:5432/x",
				"SCREENER_MAX_CONCURRENCY": "0",
			},
		},
		{
			name: "inverted batch window",
			env: map[string]string{
				"DATABASE_URL":               "postgres://localhost:5432/x",
				"SCREENER_BATCH_TIMEOUT_MIN": "30s",
				"SCREENER_BATCH_TIMEOUT_MAX": "10s",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("Load() succeeded, want validation error")
			}
		})
	}
}

func TestGetEnvAsDuration_BadValue(t *testing.T) {
	t.Setenv("SOME_DURATION", "not-a-duration")

	got := getEnvAsDuration("SOME_DURATION", "45s")
	if got != 45*time.Second {
		t.Errorf("getEnvAsDuration = %v, want fallback 45s", got)
	}
}
