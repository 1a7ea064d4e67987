package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	// API-Football
	APIKey     string        `envconfig:"API_KEY" required:"true"`
	APIBaseURL string        `envconfig:"API_BASE_URL" default:"https://v3.football.api-sports.io"`
	APITimeout time.Duration `envconfig:"API_TIMEOUT" default:"30s"`

	// League selection
	LeagueID           int    `envconfig:"LEAGUE_ID" default:"39"` // Premier League
	Season             int    `envconfig:"SEASON" default:"2023"`
	ExpectedTeamCount  int    `envconfig:"EXPECTED_TEAM_COUNT" default:"20"`
	DefaultDescription string `envconfig:"DEFAULT_DESCRIPTION" default:"EPL: Next Season"`

	// Database
	DatabaseHost     string `envconfig:"DATABASE_HOST" default:"localhost"`
	DatabasePort     int    `envconfig:"DATABASE_PORT" default:"5432"`
	DatabaseName     string `envconfig:"DATABASE_NAME" default:"epl_standings"`
	DatabaseUser     string `envconfig:"DATABASE_USER" default:"epl_user"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD" required:"true"`
	DatabaseSSLMode  string `envconfig:"DATABASE_SSL_MODE" default:"disable"`

	// Load policy: delete season rows missing from the latest response
	PruneStaleRows bool `envconfig:"PRUNE_STALE_ROWS" default:"false"`

	// Redis payload cache (optional; pipeline runs without it)
	RedisHost       string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort       int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword   string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB         int    `envconfig:"REDIS_DB" default:"0"`
	CacheEnabled    bool   `envconfig:"CACHE_ENABLED" default:"false"`
	PayloadCacheTTL int    `envconfig:"PAYLOAD_CACHE_TTL" default:"300"` // 5 minutes

	// Scheduling: empty means run once and exit
	RunSchedule string `envconfig:"RUN_SCHEDULE" default:""`

	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Monitoring
	EnableMetrics bool `envconfig:"ENABLE_METRICS" default:"false"`
	MetricsPort   int  `envconfig:"METRICS_PORT" default:"9090"`
}

// Load loads configuration from environment variables
// It first attempts to load from .env file if present
func Load() (*Config, error) {
	// Try to load .env file (ignore error if doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("API_KEY is required")
	}

	if c.DatabasePassword == "" {
		return fmt.Errorf("DATABASE_PASSWORD is required")
	}

	if c.Season < 1000 || c.Season > 9999 {
		return fmt.Errorf("SEASON must be a 4-digit year, got %d", c.Season)
	}

	if c.ExpectedTeamCount <= 0 {
		return fmt.Errorf("EXPECTED_TEAM_COUNT must be positive, got %d", c.ExpectedTeamCount)
	}

	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DatabaseHost,
		c.DatabasePort,
		c.DatabaseUser,
		c.DatabasePassword,
		c.DatabaseName,
		c.DatabaseSSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// MustLoad loads configuration or panics on error
// Use this in main() where we want to fail fast
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
