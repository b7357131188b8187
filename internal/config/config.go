package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type PostgresConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MigrationsPath string
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

type RateLimitConfig struct {
	Max    int
	Window time.Duration
}

type CrawlerConfig struct {
	BaseURL         string
	RequestDelay    time.Duration
	BatchSize       int
	RecheckInterval time.Duration
}

type Config struct {
	App struct {
		Port string
	}
	Postgres  PostgresConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Crawler   CrawlerConfig
}

// Load читает конфигурацию из окружения. Файл .env подхватывается, если он
// есть, но его отсутствие ошибкой не считается.
func Load(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	cfg := &Config{}

	cfg.App.Port = getEnv("APP_PORT", "8080")

	var err error
	if cfg.Postgres.Host, err = requireEnv("DB_HOST"); err != nil {
		return nil, err
	}
	if cfg.Postgres.Port, err = requireEnv("DB_PORT"); err != nil {
		return nil, err
	}
	if cfg.Postgres.User, err = requireEnv("DB_USER"); err != nil {
		return nil, err
	}
	if cfg.Postgres.Password, err = requireEnv("DB_PASSWORD"); err != nil {
		return nil, err
	}
	if cfg.Postgres.DBName, err = requireEnv("DB_NAME"); err != nil {
		return nil, err
	}
	cfg.Postgres.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Postgres.MigrationsPath = getEnv("DB_MIGRATIONS_PATH", "migrations")

	cfg.Redis.Enabled = getEnv("REDIS_ENABLED", "true") == "true"
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	if cfg.Redis.DB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}

	if cfg.JWT.Secret, err = requireEnv("JWT_SECRET"); err != nil {
		return nil, err
	}
	if cfg.JWT.TTL, err = getEnvDuration("JWT_TTL", 24*time.Hour); err != nil {
		return nil, err
	}

	if cfg.RateLimit.Max, err = getEnvInt("RATE_LIMIT_MAX", 100); err != nil {
		return nil, err
	}
	if cfg.RateLimit.Window, err = getEnvDuration("RATE_LIMIT_WINDOW", time.Minute); err != nil {
		return nil, err
	}

	cfg.Crawler.BaseURL = getEnv("CRAWLER_BASE_URL", "https://www.farniture.ru/catalog/vkhodnye")
	if cfg.Crawler.RequestDelay, err = getEnvDuration("CRAWLER_REQUEST_DELAY", 3*time.Second); err != nil {
		return nil, err
	}
	if cfg.Crawler.BatchSize, err = getEnvInt("CRAWLER_BATCH_SIZE", 10); err != nil {
		return nil, err
	}
	if cfg.Crawler.RecheckInterval, err = getEnvDuration("CRAWLER_RECHECK_INTERVAL", 24*time.Hour); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func requireEnv(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}
