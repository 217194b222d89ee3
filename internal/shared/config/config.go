// Package config loads the service settings from the environment, an optional
// .env file is read first.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	AppEnv   string `env:"APP_ENV"   envDefault:"development" validate:"oneof=development production test"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"        validate:"oneof=debug info warn error"`
	HTTPPort uint16 `env:"HTTP_PORT" envDefault:"8080"        validate:"min=1"`

	DBHost     string `env:"DB_HOST"     envDefault:"localhost"`
	DBPort     uint16 `env:"DB_PORT"     envDefault:"5432" validate:"min=1"`
	DBUser     string `env:"DB_USER"     envDefault:"auction_user"`
	DBPassword string `env:"DB_PASSWORD" envDefault:"auction_password"`
	DBName     string `env:"DB_NAME"     envDefault:"auction_db"`
	DBSSLMode  string `env:"DB_SSLMODE"  envDefault:"disable" validate:"oneof=disable allow prefer require verify-ca verify-full"`
	DBMaxConns int32  `env:"DB_MAX_CONNS" envDefault:"10" validate:"min=1"`

	MigrationsPath string `env:"MIGRATIONS_PATH" envDefault:"internal/shared/db/migrations/sql"`

	RedisEnabled bool   `env:"REDIS_ENABLED" envDefault:"false"`
	RedisHost    string `env:"REDIS_HOST"    envDefault:"localhost"`
	RedisPort    uint16 `env:"REDIS_PORT"    envDefault:"6379" validate:"min=1"`

	LockTimeout             time.Duration `env:"LOCK_TIMEOUT"               envDefault:"2s"  validate:"gt=0"`
	SweepEndedInterval      time.Duration `env:"SWEEP_ENDED_INTERVAL"       envDefault:"1m"  validate:"gt=0"`
	SweepEndingSoonInterval time.Duration `env:"SWEEP_ENDING_SOON_INTERVAL" envDefault:"15m" validate:"gt=0"`
	EndingSoonWindow        time.Duration `env:"ENDING_SOON_WINDOW"         envDefault:"1h"  validate:"gt=0"`
	SweepBatchSize          int           `env:"SWEEP_BATCH_SIZE"           envDefault:"100" validate:"min=1"`
	SweepLockTTL            time.Duration `env:"SWEEP_LOCK_TTL"             envDefault:"50s" validate:"gt=0"`

	NotifierWorkers   int `env:"NOTIFIER_WORKERS"    envDefault:"4"    validate:"min=1"`
	NotifierQueueSize int `env:"NOTIFIER_QUEUE_SIZE" envDefault:"1024" validate:"min=1"`
}

// Load reads .env when present, parses the environment and validates it
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		zap.L().Debug(".env file not found", zap.Error(err))
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}

// PostgresDSN builds the connection url shared by pgx and golang-migrate
func (c *Config) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     fmt.Sprintf("%s:%d", c.DBHost, c.DBPort),
		Path:     c.DBName,
		RawQuery: "sslmode=" + c.DBSSLMode,
	}
	return u.String()
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}
