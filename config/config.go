package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var ErrNoSecret = errors.New("jwt secret is not set: use -k or JWT_SECRET")

// Config настройки сервера. Переменные окружения имеют приоритет над флагами.
type Config struct {
	ServerAddress   string        `env:"SERVER_ADDRESS"`
	DSN             string        `env:"DATABASE_DSN"`
	FileStoragePath string        `env:"FILE_STORAGE_PATH"`
	RedisAddr       string        `env:"REDIS_ADDR"`
	Secret          string        `env:"JWT_SECRET"`
	LogLevel        string        `env:"LOG_LEVEL"`
	TokenTTL        time.Duration `env:"TOKEN_TTL"`
	CodeMaxAttempts int           `env:"CODE_MAX_ATTEMPTS"`
	// StrictStatus GET /{id} отвечает 200 вместо 301
	StrictStatus bool `env:"STRICT_STATUS"`
}

func NewConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load разбирает флаги из args, затем .env (если есть) и переменные окружения.
func Load(args []string) (*Config, error) {
	config := &Config{}

	fs := flag.NewFlagSet("shortener", flag.ContinueOnError)
	fs.StringVar(&config.ServerAddress, "a", "localhost:8000", "HTTP server address")
	fs.StringVar(&config.DSN, "d", "", "PostgreSQL DSN")
	fs.StringVar(&config.FileStoragePath, "f", "", "journal file for in-memory storage")
	fs.StringVar(&config.RedisAddr, "r", "", "Redis address or redis:// URL")
	fs.StringVar(&config.Secret, "k", "", "HMAC secret for bearer tokens")
	fs.StringVar(&config.LogLevel, "l", "info", "log level")
	fs.DurationVar(&config.TokenTTL, "t", 0, "token lifetime, 0 disables expiry check")
	fs.IntVar(&config.CodeMaxAttempts, "m", 100, "max attempts to find a free short code")
	fs.BoolVar(&config.StrictStatus, "strict", false, "answer GET /{id} with 200 instead of 301")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if config.Secret == "" {
		return nil, ErrNoSecret
	}
	return config, nil
}

// String для логов, секрет не выводится.
func (c Config) String() string {
	return fmt.Sprintf(
		"address=%s dsn_set=%t file=%q redis=%q log_level=%s token_ttl=%s max_attempts=%d strict_status=%t",
		c.ServerAddress, c.DSN != "", c.FileStoragePath, c.RedisAddr, c.LogLevel, c.TokenTTL, c.CodeMaxAttempts, c.StrictStatus,
	)
}
