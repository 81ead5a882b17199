package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Telegram TelegramConfig
	Dispatch DispatchConfig
}

type ServerConfig struct {
	Address string
}

type DatabaseConfig struct {
	PostgresURL string
}

type RedisConfig struct {
	Enabled  bool
	Address  string
	Password string
	DB       int
	TTL      time.Duration
}

type TelegramConfig struct {
	Token       string
	ParseMode   string
	OperatorIDs []int64
	NotifyDelay time.Duration
}

type DispatchConfig struct {
	Interval  time.Duration
	BatchSize int
	Pacing    time.Duration
}

func LoadAll() (*Config, error) {
	postgresURL, err := mustEnv("POSTGRES_URL")
	if err != nil {
		return nil, err
	}
	token, err := mustEnv("TELEGRAM_BOT_TOKEN")
	if err != nil {
		return nil, err
	}

	operators, err := parseOperatorIDs(os.Getenv("OPERATOR_IDS"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Address: getEnv("SERVER_ADDRESS", ":8080"),
		},
		Database: DatabaseConfig{
			PostgresURL: postgresURL,
		},
		Telegram: TelegramConfig{
			Token:       token,
			ParseMode:   getEnv("TELEGRAM_PARSE_MODE", "Markdown"),
			OperatorIDs: operators,
			NotifyDelay: time.Duration(getEnvInt("NOTIFY_DELAY_MS", 500)) * time.Millisecond,
		},
		Dispatch: DispatchConfig{
			Interval:  time.Duration(getEnvInt("DISPATCH_INTERVAL_SECONDS", 5)) * time.Second,
			BatchSize: getEnvInt("DISPATCH_BATCH_SIZE", 5),
			Pacing:    time.Duration(getEnvInt("DISPATCH_PACING_MS", 1000)) * time.Millisecond,
		},
		Redis: loadRedisConfig(),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadRedisConfig() RedisConfig {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return RedisConfig{Enabled: false}
	}

	return RedisConfig{
		Enabled:  true,
		Address:  addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       getEnvInt("REDIS_DB", 0),
		TTL:      time.Duration(getEnvInt("REDIS_TTL_SECONDS", 86400)) * time.Second,
	}
}

func validate(cfg *Config) error {
	if cfg.Dispatch.BatchSize <= 0 {
		return fmt.Errorf("DISPATCH_BATCH_SIZE must be > 0")
	}
	if cfg.Dispatch.Interval <= 0 {
		return fmt.Errorf("DISPATCH_INTERVAL_SECONDS must be > 0")
	}
	if cfg.Dispatch.Pacing < 0 {
		return fmt.Errorf("DISPATCH_PACING_MS must be >= 0")
	}
	if cfg.Telegram.NotifyDelay < 0 {
		return fmt.Errorf("NOTIFY_DELAY_MS must be >= 0")
	}
	return nil
}

func parseOperatorIDs(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid operator id in OPERATOR_IDS: %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func mustEnv(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("missing required env var: %s", key)
	}
	return val, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}
