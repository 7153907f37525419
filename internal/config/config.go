package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Logging   LoggingConfig
	Sources   SourcesConfig
	Currency  CurrencyConfig
	Search    SearchConfig
	Optimizer OptimizerConfig
	Refresh   RefreshConfig
	Ledger    LedgerConfig
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	FrontendURL     string
	Environment     string
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Path string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string
	Format string // json or console
}

// SourcesConfig contains catalog source configuration. Enabled lists the
// source names in registry order; the order is the price tie-break order,
// so it must be stable across restarts.
type SourcesConfig struct {
	Enabled        []string
	RequestTimeout time.Duration
	MaxResults     int
	AlfatahURL     string
	DarazURL       string
	ImtiazURL      string
}

// CurrencyConfig contains the fixed exchange rate table. The local currency
// is what storefronts quote in; the reference currency is what rankings and
// savings are computed in.
type CurrencyConfig struct {
	Local     string
	Reference string
	// Rate converts one reference unit into local units (e.g. 280 PKR per USD)
	Rate float64
}

// SearchConfig contains fan-out search defaults
type SearchConfig struct {
	Deadline          time.Duration
	DefaultTopN       int
	Parallel          bool
	SortByPrice       bool
	EqualDistribution bool
}

// OptimizerConfig contains cart optimization settings
type OptimizerConfig struct {
	RecommendationsPerItem int
	ItemConcurrency        int
}

// RefreshConfig contains the scheduled stale-price refresh settings
type RefreshConfig struct {
	Enabled        bool
	Schedule       string
	StaleThreshold time.Duration
}

// LedgerConfig contains the outbound expense ledger settings. An empty
// WebhookURL means events are only logged.
type LedgerConfig struct {
	WebhookURL string
	Timeout    time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors as it's optional)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			FrontendURL:     getEnv("FRONTEND_URL", "http://localhost:5173"),
			Environment:     getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./pricewise.db"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Sources: SourcesConfig{
			Enabled:        getEnvAsSlice("SOURCES_ENABLED", []string{"alfatah", "daraz", "imtiaz"}),
			RequestTimeout: getEnvAsDuration("SOURCE_REQUEST_TIMEOUT", 10*time.Second),
			MaxResults:     getEnvAsInt("SOURCE_MAX_RESULTS", 20),
			AlfatahURL:     getEnv("SOURCE_ALFATAH_URL", "https://alfatah.pk"),
			DarazURL:       getEnv("SOURCE_DARAZ_URL", "https://www.daraz.pk"),
			ImtiazURL:      getEnv("SOURCE_IMTIAZ_URL", "https://shop.imtiaz.com.pk"),
		},
		Currency: CurrencyConfig{
			Local:     getEnv("CURRENCY_LOCAL", "PKR"),
			Reference: getEnv("CURRENCY_REFERENCE", "USD"),
			Rate:      getEnvAsFloat("CURRENCY_RATE", 280.0),
		},
		Search: SearchConfig{
			Deadline:          getEnvAsDuration("SEARCH_DEADLINE", 15*time.Second),
			DefaultTopN:       getEnvAsInt("SEARCH_DEFAULT_TOP_N", 5),
			Parallel:          getEnvAsBool("SEARCH_PARALLEL", true),
			SortByPrice:       getEnvAsBool("SEARCH_SORT_BY_PRICE", true),
			EqualDistribution: getEnvAsBool("SEARCH_EQUAL_DISTRIBUTION", false),
		},
		Optimizer: OptimizerConfig{
			RecommendationsPerItem: getEnvAsInt("OPTIMIZER_RECOMMENDATIONS_PER_ITEM", 3),
			ItemConcurrency:        getEnvAsInt("OPTIMIZER_ITEM_CONCURRENCY", 4),
		},
		Refresh: RefreshConfig{
			Enabled:        getEnvAsBool("REFRESH_ENABLED", true),
			Schedule:       getEnv("REFRESH_SCHEDULE", "0 */6 * * *"),
			StaleThreshold: getEnvAsDuration("REFRESH_STALE_THRESHOLD", 6*time.Hour),
		},
		Ledger: LedgerConfig{
			WebhookURL: getEnv("LEDGER_WEBHOOK_URL", ""),
			Timeout:    getEnvAsDuration("LEDGER_TIMEOUT", 5*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// knownSources are the source names adapters exist for
var knownSources = map[string]bool{
	"alfatah": true,
	"daraz":   true,
	"imtiaz":  true,
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database path must be set")
	}

	if len(c.Sources.Enabled) == 0 {
		return fmt.Errorf("at least one catalog source must be enabled")
	}
	for _, name := range c.Sources.Enabled {
		if !knownSources[name] {
			return fmt.Errorf("unknown catalog source: %s", name)
		}
	}

	if c.Currency.Rate <= 0 {
		return fmt.Errorf("exchange rate must be positive, got %f", c.Currency.Rate)
	}
	if c.Currency.Local == "" || c.Currency.Reference == "" {
		return fmt.Errorf("local and reference currencies must be set")
	}

	if c.Search.Deadline <= 0 {
		return fmt.Errorf("search deadline must be positive")
	}
	if c.Search.DefaultTopN < 1 {
		return fmt.Errorf("default top N must be at least 1")
	}

	if c.Optimizer.RecommendationsPerItem < 1 {
		return fmt.Errorf("recommendations per item must be at least 1")
	}
	if c.Optimizer.ItemConcurrency < 1 {
		return fmt.Errorf("item concurrency must be at least 1")
	}

	return nil
}

// Helper functions

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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
