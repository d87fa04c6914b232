package config

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config captures all runtime configuration derived from environment variables.
type Config struct {
	Environment        string        `envconfig:"APP_ENV" default:"development"`
	LogLevel           string        `envconfig:"LOG_LEVEL" default:"info"`
	Port               string        `envconfig:"PORT" default:"8080"`
	DBURL              string        `envconfig:"DB_URL"`
	IdentityTokenKey   string        `envconfig:"IDENTITY_TOKEN_KEY"`
	IdentityTokenTTL   time.Duration `envconfig:"IDENTITY_TOKEN_TTL" default:"24h"`
	ReadTimeoutSecs    int           `envconfig:"SERVER_READ_TIMEOUT" default:"15"`
	WriteTimeoutSecs   int           `envconfig:"SERVER_WRITE_TIMEOUT" default:"15"`
	IdleTimeoutSecs    int           `envconfig:"SERVER_IDLE_TIMEOUT" default:"60"`
	DBMaxConns         int           `envconfig:"DB_MAX_CONNS" default:"20"`
	DBMinConns         int           `envconfig:"DB_MIN_CONNS" default:"2"`
	DBMaxIdleSecs      int           `envconfig:"DB_MAX_CONN_IDLE_SECS" default:"300"`
	DBMaxLifeSecs      int           `envconfig:"DB_MAX_CONN_LIFETIME_SECS" default:"3600"`
	DBConnTimeoutSecs  int           `envconfig:"DB_CONN_TIMEOUT_SECS" default:"10"`
	DBStatementCache   int           `envconfig:"DB_STATEMENT_CACHE_CAPACITY" default:"256"`
	DBTxMaxAttempts    int           `envconfig:"DB_TX_MAX_ATTEMPTS" default:"2"`
	DBAutoMigrate      bool          `envconfig:"DB_AUTO_MIGRATE" default:"true"`
	CORSAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	RateLimitRPS       float64       `envconfig:"RATE_LIMIT_RPS" default:"10"`
	RateLimitBurst     int           `envconfig:"RATE_LIMIT_BURST" default:"20"`
}

// Load reads configuration from environment variables (and a .env file when present),
// applying defaults and validation.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process env: %w", err)
	}

	if cfg.DBURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required")
	}
	if cfg.IdentityTokenKey == "" {
		return Config{}, fmt.Errorf("IDENTITY_TOKEN_KEY is required")
	}
	if key, err := hex.DecodeString(cfg.IdentityTokenKey); err != nil || len(key) != 32 {
		return Config{}, fmt.Errorf("IDENTITY_TOKEN_KEY must be 64 hex characters")
	}
	if cfg.IdentityTokenTTL <= 0 {
		return Config{}, fmt.Errorf("IDENTITY_TOKEN_TTL must be positive")
	}
	if cfg.DBMaxConns <= 0 {
		return Config{}, fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if cfg.DBMinConns < 0 {
		return Config{}, fmt.Errorf("DB_MIN_CONNS must be non-negative")
	}
	if cfg.DBMinConns > cfg.DBMaxConns {
		return Config{}, fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if cfg.DBStatementCache < 0 {
		return Config{}, fmt.Errorf("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
	}
	if cfg.DBTxMaxAttempts < 1 || cfg.DBTxMaxAttempts > 5 {
		return Config{}, fmt.Errorf("DB_TX_MAX_ATTEMPTS must be between 1 and 5")
	}
	if cfg.RateLimitRPS <= 0 {
		return Config{}, fmt.Errorf("RATE_LIMIT_RPS must be positive")
	}
	if cfg.RateLimitBurst <= 0 {
		return Config{}, fmt.Errorf("RATE_LIMIT_BURST must be positive")
	}

	return cfg, nil
}
