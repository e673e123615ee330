package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"plutus/pkg/errors"
)

type Config struct {
	App           AppConfig
	AI            AIConfig
	Agent         AgentConfig
	Postgres      PostgresConfig
	Redis         RedisConfig
	Portfolio     PortfolioConfig
	MarketData    MarketDataConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"plutus"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`

	// MetricsAddr enables the Prometheus endpoint when set, e.g. ":9090".
	MetricsAddr string `envconfig:"METRICS_ADDR"`
}

type AIConfig struct {
	ClaudeKey       string        `envconfig:"CLAUDE_API_KEY"`
	OpenAIKey       string        `envconfig:"OPENAI_API_KEY"`
	DefaultProvider string        `envconfig:"DEFAULT_AI_PROVIDER" default:"claude"`
	RequestTimeout  time.Duration `envconfig:"AI_REQUEST_TIMEOUT" default:"60s"`
	ReqPerMinute    float64       `envconfig:"AI_REQ_PER_MINUTE" default:"60"`
	Burst           int           `envconfig:"AI_RATE_BURST" default:"6"`
	EmbeddingModel  string        `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
}

type AgentConfig struct {
	Model       string        `envconfig:"AGENT_MODEL" default:"claude-sonnet-4-5-20250929"`
	MaxTurns    int           `envconfig:"AGENT_MAX_TURNS" default:"10"`
	MaxTokens   int           `envconfig:"AGENT_MAX_TOKENS" default:"4096"`
	Temperature float64       `envconfig:"AGENT_TEMPERATURE" default:"0.2"`
	ToolTimeout time.Duration `envconfig:"AGENT_TOOL_TIMEOUT" default:"30s"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" default:"plutus"`
	Password string `envconfig:"POSTGRES_PASSWORD"`
	Database string `envconfig:"POSTGRES_DB" default:"plutus"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"10"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type PortfolioConfig struct {
	FilePath string `envconfig:"PORTFOLIO_FILE" default:"portfolio.json"`
}

type MarketDataConfig struct {
	QuoteTTL        time.Duration `envconfig:"MARKET_QUOTE_TTL" default:"1m"`
	FundamentalsTTL time.Duration `envconfig:"MARKET_FUNDAMENTALS_TTL" default:"1h"`
	ReqPerMinute    float64       `envconfig:"MARKET_REQ_PER_MINUTE" default:"120"`
}

type ErrorTrackingConfig struct {
	SentryDSN string `envconfig:"SENTRY_DSN"`
	Enabled   bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"false"`
}

// Load reads configuration from the environment, loading .env first if present.
func Load() (*Config, error) {
	// .env is optional; real deployments configure the environment directly
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "process environment config")
	}

	return &cfg, nil
}

// Validate checks cross-field requirements that envconfig tags cannot express.
func (c *Config) Validate() error {
	if c.AI.ClaudeKey == "" && c.AI.OpenAIKey == "" {
		return errors.Wrap(errors.ErrInvalidInput, "at least one of CLAUDE_API_KEY or OPENAI_API_KEY must be set")
	}
	if c.Agent.MaxTurns <= 0 {
		return errors.Wrap(errors.ErrInvalidInput, "AGENT_MAX_TURNS must be positive")
	}
	return nil
}
