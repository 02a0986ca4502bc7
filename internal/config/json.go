package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// DefaultJSONPath is the optional local config file read on startup.
const DefaultJSONPath = "blognow.config.json"

// JSONConfig mirrors the subset of Config that may be set from the local
// config file. Durations are strings such as "168h".
type JSONConfig struct {
	Env            string   `json:"app_env"`
	ServerPort     string   `json:"server_port"`
	SiteURL        string   `json:"site_url"`
	StoreDriver    string   `json:"store_driver"`
	DatabaseURL    string   `json:"database_url"`
	Secret         string   `json:"secret"`
	TokenTTL       string   `json:"token_ttl"`
	RequestTimeout string   `json:"request_timeout"`
	RedisURL       string   `json:"redis_url"`
	S3Endpoint     string   `json:"s3_endpoint"`
	S3Region       string   `json:"s3_region"`
	S3Bucket       string   `json:"s3_bucket"`
	S3PublicURL    string   `json:"s3_public_url"`
	CORSOrigins    []string `json:"cors_origins"`
}

// applyJSONFile overlays non-empty values from path onto cfg. A missing
// file is not an error.
func applyJSONFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var c JSONConfig
	if err := json.Unmarshal(data, &c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	overlay(&cfg.Env, c.Env)
	overlay(&cfg.ServerPort, c.ServerPort)
	overlay(&cfg.SiteURL, c.SiteURL)
	overlay(&cfg.StoreDriver, c.StoreDriver)
	overlay(&cfg.DatabaseURL, c.DatabaseURL)
	overlay(&cfg.JWTSecret, c.Secret)
	overlay(&cfg.RedisURL, c.RedisURL)
	overlay(&cfg.S3Endpoint, c.S3Endpoint)
	overlay(&cfg.S3Region, c.S3Region)
	overlay(&cfg.S3Bucket, c.S3Bucket)
	overlay(&cfg.S3PublicURL, c.S3PublicURL)
	if len(c.CORSOrigins) > 0 {
		cfg.CORSOrigins = c.CORSOrigins
	}

	if c.TokenTTL != "" {
		d, err := time.ParseDuration(c.TokenTTL)
		if err != nil {
			return fmt.Errorf("token_ttl: %w", err)
		}
		cfg.TokenTTL = d
	}
	if c.RequestTimeout != "" {
		d, err := time.ParseDuration(c.RequestTimeout)
		if err != nil {
			return fmt.Errorf("request_timeout: %w", err)
		}
		cfg.RequestTimeout = d
	}
	return nil
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
