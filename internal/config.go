package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	LogLevel string
	Port     uint16
	API      APIConfig
	Storage  StorageConfig
	Session  SessionConfig
	Limits   RateLimitConfig
	Sentry   SentryConfig
	Domain   DomainConfig
}

// APIConfig points at the remote store API that owns products, discounts,
// favorites and orders.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// StorageConfig selects the backend used for cart persistence.
type StorageConfig struct {
	Provider      string // "local", "memory", "redis" or "r2"
	Namespace     string // key prefix, e.g. "esans" -> "esans:cart:<session>"
	LocalPath     string
	RedisURL      string
	CartTTLHours  uint16
	R2AccountID   string
	R2AccessKeyID string
	R2SecretKey   string
	R2BucketName  string
}

// SessionConfig controls the lifetime of per-visitor store bundles.
type SessionConfig struct {
	IdleTimeout time.Duration
	CookieName  string
}

// RateLimitConfig bounds requests per client IP.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// SentryConfig holds configuration for Sentry error tracking
type SentryConfig struct {
	DSN              string
	Enabled          bool
	Environment      string
	Release          string
	SampleRate       float64
	TracesSampleRate float64
	Debug            bool
}

// DomainConfig scopes cookies to the storefront domain.
type DomainConfig struct {
	// BaseDomain is used as the cookie domain (e.g. "esans.com.tr").
	// Empty means host-only cookies, which is what local development wants.
	BaseDomain string

	// Secure marks cookies Secure; on by default in prod.
	Secure bool

	// AllowedOrigins lists origins allowed to call the API cross-site.
	// Empty disables CORS headers.
	AllowedOrigins []string
}

func NewConfig() (*Config, error) {
	// Try to load .env from current directory, then walk up to find it (max 2 levels)
	err := godotenv.Load()
	if err != nil {
		dir, _ := os.Getwd()
		found := false
		for i := 0; i < 2; i++ {
			dir = filepath.Join(dir, "..")
			if err := godotenv.Load(filepath.Join(dir, ".env")); err == nil {
				found = true
				break
			}
		}
		if !found {
			slog.Default().Warn("Warning: .env file not found, using environment variables and defaults")
		}
	}

	return configFromEnv()
}

// configFromEnv builds and validates a Config from the process environment.
func configFromEnv() (*Config, error) {
	cfg := &Config{
		Env:      getEnv("ENV", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Port:     getEnvInt("PORT", 3000),
		API: APIConfig{
			BaseURL: strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8080/api"), "/"),
			Timeout: time.Duration(getEnvInt("API_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Storage: StorageConfig{
			Provider:      getEnv("STORAGE_PROVIDER", "local"),
			Namespace:     getEnv("STORAGE_NAMESPACE", "esans"),
			LocalPath:     getEnv("LOCAL_STORAGE_PATH", "./data"),
			RedisURL:      getEnv("REDIS_URL", "redis://localhost:6379/0"),
			CartTTLHours:  getEnvInt("CART_TTL_HOURS", 720),
			R2AccountID:   getEnv("R2_ACCOUNT_ID", ""),
			R2AccessKeyID: getEnv("R2_ACCESS_KEY_ID", ""),
			R2SecretKey:   getEnv("R2_SECRET_ACCESS_KEY", ""),
			R2BucketName:  getEnv("R2_BUCKET_NAME", ""),
		},
		Session: SessionConfig{
			IdleTimeout: time.Duration(getEnvInt("SESSION_IDLE_MINUTES", 60)) * time.Minute,
			CookieName:  getEnv("SESSION_COOKIE_NAME", "esans_session"),
		},
		Limits: RateLimitConfig{
			RPS:   getEnvFloat("RATE_LIMIT_RPS", 10),
			Burst: int(getEnvInt("RATE_LIMIT_BURST", 20)),
		},
		Sentry: SentryConfig{
			DSN:              getEnv("SENTRY_DSN", ""),
			Enabled:          getEnvBool("SENTRY_ENABLED", false), // Disabled by default for development
			Environment:      getEnv("SENTRY_ENVIRONMENT", "development"),
			Release:          getEnv("SENTRY_RELEASE", ""),
			SampleRate:       getEnvFloat("SENTRY_SAMPLE_RATE", 1.0),
			TracesSampleRate: getEnvFloat("SENTRY_TRACES_SAMPLE_RATE", 0.0),
			Debug:            getEnvBool("SENTRY_DEBUG", false),
		},
		Domain: DomainConfig{
			BaseDomain:     getEnv("BASE_DOMAIN", ""),
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
		},
	}

	// Validate env
	validEnv := cfg.Env == "dev" || cfg.Env == "prod"
	if !validEnv {
		slog.Default().Warn("Invalid environment. Using default: prod", slog.String("env", cfg.Env))
		cfg.Env = "prod"
	}
	cfg.Domain.Secure = getEnvBool("COOKIE_SECURE", cfg.Env == "prod")

	// Validate log level
	validLevel := cfg.LogLevel == "info" || cfg.LogLevel == "debug" || cfg.LogLevel == "warn" || cfg.LogLevel == "error"
	if !validLevel {
		slog.Default().Warn("Invalid log level. Using default: info", slog.String("value", cfg.LogLevel))
		cfg.LogLevel = "info"
	}

	if cfg.API.BaseURL == "" {
		return nil, fmt.Errorf("API_BASE_URL must not be empty")
	}
	if cfg.Storage.Namespace == "" || strings.Contains(cfg.Storage.Namespace, ":") {
		return nil, fmt.Errorf("STORAGE_NAMESPACE must be non-empty and contain no colons")
	}
	if cfg.Limits.RPS <= 0 || cfg.Limits.Burst <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	// Validate R2 configuration in production
	if cfg.Env == "prod" && cfg.Storage.Provider == "r2" {
		if cfg.Storage.R2AccountID == "" {
			return nil, fmt.Errorf("R2_ACCOUNT_ID required when using R2 storage in production")
		}
		if cfg.Storage.R2AccessKeyID == "" || cfg.Storage.R2SecretKey == "" {
			return nil, fmt.Errorf("R2 credentials required when using R2 storage in production")
		}
		if cfg.Storage.R2BucketName == "" {
			return nil, fmt.Errorf("R2_BUCKET_NAME required when using R2 storage in production")
		}
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue uint16) uint16 {
	if value := os.Getenv(key); value != "" {
		var intValue uint16
		if _, err := fmt.Sscanf(value, "%d", &intValue); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var floatValue float64
		if _, err := fmt.Sscanf(value, "%f", &floatValue); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping empty entries.
func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
