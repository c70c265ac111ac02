package utils

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	log "github.com/sirupsen/logrus"
)

type PostgresConfig struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     string `env:"PORT" envDefault:"5432"`
	User     string `env:"USER" envDefault:"postgres"`
	Password string `env:"PASSWORD" envDefault:"postgres"`
	DB       string `env:"DB" envDefault:"crypto_sim"`
}

type SimulatorConfig struct {
	// TickInterval is the period between price updates.
	TickInterval time.Duration `env:"TICK_INTERVAL" envDefault:"5s"`

	// Replay blends historical ticks with noise. When false every symbol
	// follows a pure random walk.
	Replay bool `env:"SIMULATOR_REPLAY" envDefault:"true"`

	SyntheticPoints int `env:"SYNTHETIC_POINTS" envDefault:"1000"`
	MinSeriesPoints int `env:"MIN_SERIES_POINTS" envDefault:"100"`

	HistoricalDataDir string `env:"HISTORICAL_DATA_DIR" envDefault:"historical_data"`
}

type RetentionConfig struct {
	Period        time.Duration `env:"PRICE_HISTORY_RETENTION" envDefault:"168h"`
	SweepInterval time.Duration `env:"RETENTION_SWEEP_INTERVAL" envDefault:"1h"`
}

type Config struct {
	GoEnv         string         `env:"GO_ENV" envDefault:"development"`
	Port          string         `env:"PORT" envDefault:"8080"`
	StorageDriver string         `env:"STORAGE_DRIVER" envDefault:"postgres"`
	DatabaseURL   string         `env:"DATABASE_URL"`
	Postgres      PostgresConfig `envPrefix:"POSTGRES_"`

	LogLevel         string        `env:"LOG_LEVEL" envDefault:"info"`
	LogSQL           bool          `env:"LOG_SQL" envDefault:"false"`
	SlowSQLThreshold time.Duration `env:"SLOW_SQL_THRESHOLD" envDefault:"200ms"`

	SymbolsFile string `env:"SYMBOLS_FILE" envDefault:"config/symbols.yaml"`

	Simulator SimulatorConfig
	Retention RetentionConfig

	StatsCacheTTL  time.Duration `env:"STATS_CACHE_TTL" envDefault:"5s"`
	TradeRateLimit float64       `env:"TRADE_RATE_LIMIT" envDefault:"5"`
	TradeRateBurst int           `env:"TRADE_RATE_BURST" envDefault:"10"`

	KafkaBrokers   []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic     string   `env:"KAFKA_TOPIC" envDefault:"crypto-sim.events"`
	RedisAddr      string   `env:"REDIS_ADDR"`
	RedisPricesKey string   `env:"REDIS_PRICES_KEY" envDefault:"crypto-sim:prices"`

	OtelEnabled     bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OtelServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"crypto-sim"`
}

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("LoadConfig: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("LoadConfig: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.StorageDriver != StorageDriverPostgres && c.StorageDriver != StorageDriverMemory {
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	if c.Simulator.TickInterval <= 0 {
		return fmt.Errorf("TICK_INTERVAL must be positive")
	}

	if c.Simulator.SyntheticPoints <= 0 {
		return fmt.Errorf("SYNTHETIC_POINTS must be positive")
	}

	if c.Retention.Period <= 0 || c.Retention.SweepInterval <= 0 {
		return fmt.Errorf("retention period and sweep interval must be positive")
	}

	if c.TradeRateLimit <= 0 || c.TradeRateBurst <= 0 {
		return fmt.Errorf("trade rate limit and burst must be positive")
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}

	return nil
}
