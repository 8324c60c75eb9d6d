package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration
type Config struct {
	TelegramToken  string  `env:"TELEGRAM_BOT_TOKEN,required,notEmpty"`
	AllowedUserIDs []int64 `env:"ALLOWED_USER_IDS,required,notEmpty" envSeparator:","`

	ClickHouse ClickHouse

	UseMockDB bool `env:"USE_MOCK_DB"`

	// SeedFile replaces the built-in seed data when set
	SeedFile string `env:"SEED_FILE"`

	LogLevel       string `env:"LOG_LEVEL"       envDefault:"info"`
	LogDevelopment bool   `env:"LOG_DEVELOPMENT"`
}

// ClickHouse holds the connection settings of the activity journal
type ClickHouse struct {
	Host     string `env:"CLICKHOUSE_HOST"`
	Port     int    `env:"CLICKHOUSE_PORT"     envDefault:"9000"`
	Database string `env:"CLICKHOUSE_DATABASE" envDefault:"default"`
	User     string `env:"CLICKHOUSE_USER"     envDefault:"default"`
	Password string `env:"CLICKHOUSE_PASSWORD"`
	UseTLS   bool   `env:"CLICKHOUSE_USE_TLS"`
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	config := &Config{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if len(config.AllowedUserIDs) == 0 {
		return nil, fmt.Errorf("ALLOWED_USER_IDS is required (comma-separated list of Telegram user IDs)")
	}

	// ClickHouse configuration (required if not using mock)
	if !config.UseMockDB && config.ClickHouse.Host == "" {
		return nil, fmt.Errorf("CLICKHOUSE_HOST is required when USE_MOCK_DB is not set")
	}

	return config, nil
}

// LoadClickHouseFromEnv loads only the ClickHouse settings, for tools that
// do not talk to Telegram. The host defaults to localhost.
func LoadClickHouseFromEnv() (*ClickHouse, error) {
	config := &ClickHouse{}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if config.Host == "" {
		config.Host = "localhost"
	}
	return config, nil
}
