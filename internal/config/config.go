package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Storage drivers
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Env        string
	ServerPort string
	SiteURL    string

	StoreDriver string
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	// JWTSecret may stay empty here; it is then resolved from the config table.
	JWTSecret string
	TokenTTL  time.Duration

	RequestTimeout time.Duration

	PasswordMinLength int
	PasswordMinScore  int

	RedisURL    string
	WorkerCount int

	S3Endpoint        string
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Bucket          string
	S3PublicURL       string

	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// Default returns the configuration used before any source is applied.
func Default() *Config {
	return &Config{
		Env:               "prod",
		ServerPort:        "8080",
		SiteURL:           "http://localhost:8080",
		StoreDriver:       StoreDriverPostgres,
		DBPort:            "5432",
		DBSSLMode:         "disable",
		TokenTTL:          7 * 24 * time.Hour,
		RequestTimeout:    10 * time.Second,
		PasswordMinLength: 6,
		PasswordMinScore:  2,
		WorkerCount:       2,
		S3Region:          "auto",
		RateLimitRPS:      5,
		RateLimitBurst:    10,
	}
}

// LoadConfig builds the configuration from defaults, then the JSON file
// (blognow.config.json or $BLOGNOW_CONFIG), then the environment. Later
// sources win.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("[Config] No .env file found, relying on environment variables")
	}

	cfg := Default()

	path := os.Getenv("BLOGNOW_CONFIG")
	if path == "" {
		path = DefaultJSONPath
	}
	if err := applyJSONFile(cfg, path); err != nil {
		return nil, err
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Env, "APP_ENV")
	setString(&cfg.ServerPort, "SERVER_PORT")
	setString(&cfg.SiteURL, "SITE_URL")

	setString(&cfg.StoreDriver, "STORE_DRIVER")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.DBHost, "DB_HOST")
	setString(&cfg.DBPort, "DB_PORT")
	setString(&cfg.DBUser, "DB_USER")
	setString(&cfg.DBPassword, "DB_PASSWORD")
	setString(&cfg.DBName, "DB_NAME")
	setString(&cfg.DBSSLMode, "DB_SSLMODE")

	setString(&cfg.JWTSecret, "JWT_SECRET")
	setString(&cfg.RedisURL, "REDIS_URL")

	setString(&cfg.S3Endpoint, "S3_ENDPOINT")
	setString(&cfg.S3Region, "S3_REGION")
	setString(&cfg.S3AccessKeyID, "S3_ACCESS_KEY_ID")
	setString(&cfg.S3SecretAccessKey, "S3_SECRET_ACCESS_KEY")
	setString(&cfg.S3Bucket, "S3_BUCKET")
	setString(&cfg.S3PublicURL, "S3_PUBLIC_URL")

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}

	if err := setDuration(&cfg.TokenTTL, "TOKEN_TTL"); err != nil {
		return err
	}
	if err := setDuration(&cfg.RequestTimeout, "REQUEST_TIMEOUT"); err != nil {
		return err
	}
	if err := setInt(&cfg.PasswordMinLength, "PASSWORD_MIN_LENGTH"); err != nil {
		return err
	}
	if err := setInt(&cfg.PasswordMinScore, "PASSWORD_MIN_SCORE"); err != nil {
		return err
	}
	if err := setInt(&cfg.WorkerCount, "WORKER_COUNT"); err != nil {
		return err
	}
	if err := setInt(&cfg.RateLimitBurst, "RATE_LIMIT_BURST"); err != nil {
		return err
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_RPS: %w", err)
		}
		cfg.RateLimitRPS = rps
	}
	return nil
}

// Validate rejects values the server cannot start with.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" && c.DBHost == "" {
			return fmt.Errorf("DATABASE_URL or DB_HOST is required for the postgres store")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if c.PasswordMinScore < 0 || c.PasswordMinScore > 4 {
		return fmt.Errorf("PASSWORD_MIN_SCORE must be between 0 and 4")
	}
	return nil
}

// DSN returns the Postgres connection string.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

// ObjectStoreEnabled reports whether presigned uploads can be served.
func (c *Config) ObjectStoreEnabled() bool {
	return c.S3AccessKeyID != "" && c.S3SecretAccessKey != "" && c.S3Bucket != "" && c.S3PublicURL != ""
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
