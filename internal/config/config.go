package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// DefaultPortfolioKey is the fixed key the portfolio record is stored under
const DefaultPortfolioKey = "investment_navigator_data"

// Config holds every setting the server reads at startup
type Config struct {
	Port      string
	GinMode   string
	LogLevel  string
	LogFormat string

	Store StoreConfig
	Seed  SeedConfig

	NumWorkers int

	FinnhubAPIKey  string
	FinnhubBaseURL string
	RedisAddr      string
	QuoteCacheTTL  time.Duration

	GeminiAPIKey string
	GeminiModel  string

	PriceStreamInterval time.Duration
	ChatRatePerMinute   int
	CORSOrigins         []string
}

// StoreConfig selects and configures the persistence substrate
type StoreConfig struct {
	Driver       string // postgres, sqlite or memory
	PortfolioKey string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	SQLitePath string
}

// SeedConfig describes the state a fresh portfolio starts from
type SeedConfig struct {
	Cash      decimal.Decimal
	Watchlist []string
}

// fileOverlay is the optional YAML file referenced by CONFIG_FILE
type fileOverlay struct {
	Seed struct {
		Cash      string   `yaml:"cash"`
		Watchlist []string `yaml:"watchlist"`
	} `yaml:"seed"`
	Store struct {
		Driver       string `yaml:"driver"`
		PortfolioKey string `yaml:"portfolio_key"`
		SQLitePath   string `yaml:"sqlite_path"`
	} `yaml:"store"`
}

// Load reads .env (if any), the environment and the optional YAML overlay
func Load() (Config, error) {
	// A missing .env is fine, the environment is used as is.
	_ = godotenv.Load()

	cfg := Config{
		Port:      getEnv("PORT", "8080"),
		GinMode:   getEnv("GIN_MODE", "debug"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
		Store: StoreConfig{
			Driver:       getEnv("STORE_DRIVER", "sqlite"),
			PortfolioKey: getEnv("PORTFOLIO_KEY", DefaultPortfolioKey),
			DBHost:       getEnv("DB_HOST", "localhost"),
			DBPort:       getEnv("DB_PORT", "5433"),
			DBUser:       getEnv("DB_USER", "trader"),
			DBPassword:   getEnv("DB_PASSWORD", "trading123"),
			DBName:       getEnv("DB_NAME", "trading_db"),
			DBSSLMode:    getEnv("DB_SSLMODE", "disable"),
			SQLitePath:   getEnv("SQLITE_PATH", "navigator.db"),
		},
		Seed: SeedConfig{
			Cash:      decimal.NewFromInt(100000),
			Watchlist: []string{"AAPL", "NVDA", "TSLA", "BTC-USD"},
		},
		FinnhubAPIKey:  os.Getenv("FINNHUB_API_KEY"),
		FinnhubBaseURL: getEnv("FINNHUB_BASE_URL", "https://finnhub.io/api/v1"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", os.Getenv("API_KEY")),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "*")),
	}

	var err error
	if cfg.NumWorkers, err = getInt("NUM_WORKERS", 5); err != nil {
		return Config{}, err
	}
	if cfg.ChatRatePerMinute, err = getInt("CHAT_RATE_PER_MINUTE", 20); err != nil {
		return Config{}, err
	}
	if cfg.QuoteCacheTTL, err = getDuration("QUOTE_CACHE_TTL", 15*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.PriceStreamInterval, err = getDuration("PRICE_STREAM_INTERVAL", 5*time.Second); err != nil {
		return Config{}, err
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}

	return cfg, cfg.validate()
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	var o fileOverlay
	if err := yaml.Unmarshal(raw, &o); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if o.Seed.Cash != "" {
		cash, err := decimal.NewFromString(o.Seed.Cash)
		if err != nil {
			return fmt.Errorf("seed cash %q: %w", o.Seed.Cash, err)
		}
		c.Seed.Cash = cash
	}
	if len(o.Seed.Watchlist) > 0 {
		c.Seed.Watchlist = o.Seed.Watchlist
	}
	if o.Store.Driver != "" {
		c.Store.Driver = o.Store.Driver
	}
	if o.Store.PortfolioKey != "" {
		c.Store.PortfolioKey = o.Store.PortfolioKey
	}
	if o.Store.SQLitePath != "" {
		c.Store.SQLitePath = o.Store.SQLitePath
	}
	return nil
}

func (c Config) validate() error {
	switch c.Store.Driver {
	case "postgres", "sqlite", "memory":
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}
	if c.Seed.Cash.IsNegative() {
		return fmt.Errorf("seed cash must not be negative, got %s", c.Seed.Cash)
	}
	if c.NumWorkers < 1 {
		return fmt.Errorf("NUM_WORKERS must be at least 1, got %d", c.NumWorkers)
	}
	return nil
}

// PostgresDSN returns the lib/pq connection string
func (s StoreConfig) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		s.DBHost, s.DBPort, s.DBUser, s.DBPassword, s.DBName, s.DBSSLMode,
	)
}

// Helper function to get environment variable with default
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
