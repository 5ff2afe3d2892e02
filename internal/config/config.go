// internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"
)

// Config holds every environment-driven setting for the server and historian.
// Empty RedisAddr or DatabaseURL disables that backend.
type Config struct {
	Env            string   `env:"ENV"             envDefault:"development"`
	Port           int      `env:"PORT"            envDefault:"8080"`
	LogLevel       string   `env:"LOG_LEVEL"       envDefault:"info"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`

	RedisAddr      string `env:"REDIS_ADDR"`
	RedisDB        int    `env:"REDIS_DB"             envDefault:"0"`
	HistorianQueue string `env:"HISTORIAN_QUEUE_NAME" envDefault:"setgame_actions"`

	DatabaseURL string `env:"DATABASE_URL"`

	// 0 => tokens never expire
	TokenExpire time.Duration `env:"TOKEN_EXPIRE_TIME" envDefault:"0s"`

	HistorianBatchSize     int           `env:"HISTORIAN_BATCH_SIZE"        envDefault:"20"`
	HistorianFlushInterval time.Duration `env:"HISTORIAN_FLUSH_INTERVAL"    envDefault:"500ms"`
	GameInactivityTimeout  time.Duration `env:"GAME_INACTIVITY_TIMEOUT"     envDefault:"10m"`
}

// Load parses the process environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// IsProduction reports whether ENV is "production".
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Logger builds a logrus logger at the configured level, JSON-formatted in production.
func (c Config) Logger() (*logrus.Logger, error) {
	logger := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	logger.SetLevel(level)
	if c.IsProduction() {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}
