package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// Every environment variable is read here and nowhere else.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Upstream market-data providers
	Providers ProvidersConfig

	// Screener pipeline tuning
	Screener ScreenerConfig

	// Analytics business assumptions (tax brackets, CAPM defaults)
	Analytics AnalyticsConfig

	// Background jobs
	AlertSweepSchedule string

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	URL string

	// Connection pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// ProvidersConfig holds upstream market-data API configuration.
// Providers without credentials report not-ready and are skipped by
// the fallback chain.
type ProvidersConfig struct {
	YahooBaseURL       string
	FMPAPIKey          string
	FMPBaseURL         string
	AlphaVantageAPIKey string
	AlphaVantageURL    string

	// Requests per second allowed against each upstream.
	RateLimitPerSecond float64
}

// ScreenerConfig bounds the screener's concurrent fan-out.
type ScreenerConfig struct {
	MaxConcurrency    int64
	SymbolTimeout     time.Duration
	InsiderTimeout    time.Duration
	StatementsTimeout time.Duration
	BatchTimeoutMin   time.Duration
	BatchTimeoutMax   time.Duration
}

// AnalyticsConfig carries business assumptions the analytics core treats as
// configuration rather than algorithm intrinsics.
type AnalyticsConfig struct {
	ShortTermTaxRate  float64 // flat bracket on net short-term realized gains
	LongTermTaxRate   float64 // flat bracket on net long-term realized gains
	RiskFreeRate      float64 // CAPM risk-free rate
	MarketRiskPremium float64 // CAPM equity risk premium
	CorporateTaxRate  float64 // after-tax cost-of-debt adjustment
	CostOfDebt        float64
	ProjectionYears   int
}

// Load reads configuration from environment variables.
// This is the only function that calls os.Getenv().
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		Providers: ProvidersConfig{
			YahooBaseURL:       getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			FMPAPIKey:          getEnv("FMP_API_KEY", ""),
			FMPBaseURL:         getEnv("FMP_BASE_URL", "https://financialmodelingprep.com/api/v3"),
			AlphaVantageAPIKey: getEnv("ALPHA_VANTAGE_API_KEY", ""),
			AlphaVantageURL:    getEnv("ALPHA_VANTAGE_BASE_URL", "https://www.alphavantage.co"),
			RateLimitPerSecond: getEnvAsFloat("PROVIDER_RATE_LIMIT_PER_SECOND", 5),
		},

		Screener: ScreenerConfig{
			MaxConcurrency:    int64(getEnvAsInt("SCREENER_MAX_CONCURRENCY", 8)),
			SymbolTimeout:     getEnvAsDuration("SCREENER_SYMBOL_TIMEOUT", "5s"),
			InsiderTimeout:    getEnvAsDuration("SCREENER_INSIDER_TIMEOUT", "2500ms"),
			StatementsTimeout: getEnvAsDuration("SCREENER_STATEMENTS_TIMEOUT", "2800ms"),
			BatchTimeoutMin:   getEnvAsDuration("SCREENER_BATCH_TIMEOUT_MIN", "8s"),
			BatchTimeoutMax:   getEnvAsDuration("SCREENER_BATCH_TIMEOUT_MAX", "22s"),
		},

		Analytics: AnalyticsConfig{
			ShortTermTaxRate:  getEnvAsFloat("TAX_RATE_SHORT_TERM", 0.30),
			LongTermTaxRate:   getEnvAsFloat("TAX_RATE_LONG_TERM", 0.15),
			RiskFreeRate:      getEnvAsFloat("CAPM_RISK_FREE_RATE", 0.043),
			MarketRiskPremium: getEnvAsFloat("CAPM_MARKET_RISK_PREMIUM", 0.055),
			CorporateTaxRate:  getEnvAsFloat("CORPORATE_TAX_RATE", 0.21),
			CostOfDebt:        getEnvAsFloat("COST_OF_DEBT", 0.05),
			ProjectionYears:   getEnvAsInt("DCF_PROJECTION_YEARS", 5),
		},

		AlertSweepSchedule: getEnv("ALERT_SWEEP_SCHEDULE", "@every 5m"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set.
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Screener.MaxConcurrency < 1 {
		return fmt.Errorf("SCREENER_MAX_CONCURRENCY must be at least 1")
	}

	if c.Screener.BatchTimeoutMax < c.Screener.BatchTimeoutMin {
		return fmt.Errorf("SCREENER_BATCH_TIMEOUT_MAX must be >= SCREENER_BATCH_TIMEOUT_MIN")
	}

	if c.Analytics.ProjectionYears < 1 || c.Analytics.ProjectionYears > 15 {
		return fmt.Errorf("DCF_PROJECTION_YEARS must be between 1 and 15")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations.
func loadEnvFile() {
	paths := []string{
		".env",
		"backend/.env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
