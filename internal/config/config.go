package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	VerifierStorePostgres = "postgres"
	VerifierStoreRedis    = "redis"
	VerifierStoreMemory   = "memory"
)

type Config struct {
	ServerPort              string
	ServerReadHeaderTimeout time.Duration
	ServerWriteTimeout      time.Duration
	ServerIdleTimeout       time.Duration
	RequestTimeout          time.Duration
	LogFormat               string
	LogLevel                string

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	GoogleClientID     string
	GoogleClientSecret string
	RedirectURI        string
	GoogleAuthURL      string
	GoogleTokenURL     string
	GoogleScopes       []string
	GoogleFitBaseURL   string
	ProviderTimeout    time.Duration
	AppRedirectURI     string

	StateSecret          string
	VerifierStore        string
	VerifierTTL          time.Duration
	VerifierCleanupEvery time.Duration
	RedisURL             string

	CORSOrigins      []string
	RateLimitRPM     int
	AuthRateLimitRPM int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:              getEnv("SERVER_PORT", "8080"),
		ServerReadHeaderTimeout: getDuration("SERVER_READ_HEADER_TIMEOUT", 10*time.Second),
		ServerWriteTimeout:      getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		ServerIdleTimeout:       getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:          getDuration("REQUEST_TIMEOUT", 30*time.Second),
		LogFormat:               strings.ToLower(getEnv("LOG_FORMAT", "pretty")),
		LogLevel:                strings.ToLower(getEnv("LOG_LEVEL", "info")),
		DatabaseURL:             strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:              int32(getInt("DB_MAX_CONNS", 10)),
		DBMinConns:              int32(getInt("DB_MIN_CONNS", 1)),
		GoogleClientID:          strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_ID")),
		GoogleClientSecret:      strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_SECRET")),
		RedirectURI:             strings.TrimSpace(os.Getenv("REDIRECT_URI")),
		GoogleAuthURL:           getEnv("GOOGLE_AUTH_URL", "https://accounts.google.com/o/oauth2/auth"),
		GoogleTokenURL:          getEnv("GOOGLE_TOKEN_URL", "https://oauth2.googleapis.com/token"),
		GoogleScopes: splitCSV(getEnv("GOOGLE_SCOPES",
			"https://www.googleapis.com/auth/fitness.activity.read,https://www.googleapis.com/auth/fitness.heart_rate.read")),
		GoogleFitBaseURL:     getEnv("GOOGLE_FIT_BASE_URL", "https://www.googleapis.com/fitness/v1/users/me"),
		ProviderTimeout:      getDuration("PROVIDER_TIMEOUT", 15*time.Second),
		AppRedirectURI:       strings.TrimSpace(os.Getenv("APP_REDIRECT_URI")),
		StateSecret:          strings.TrimSpace(os.Getenv("STATE_SECRET")),
		VerifierStore:        strings.ToLower(getEnv("VERIFIER_STORE", VerifierStorePostgres)),
		VerifierTTL:          getDuration("VERIFIER_TTL", 10*time.Minute),
		VerifierCleanupEvery: getDuration("VERIFIER_CLEANUP_INTERVAL", 5*time.Minute),
		RedisURL:             strings.TrimSpace(os.Getenv("REDIS_URL")),
		CORSOrigins:          splitCSV(getEnv("CORS_ORIGINS", "*")),
		RateLimitRPM:         getInt("RATE_LIMIT_RPM", 100),
		AuthRateLimitRPM:     getInt("AUTH_RATE_LIMIT_RPM", 20),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.GoogleClientID == "" {
		return fmt.Errorf("GOOGLE_CLIENT_ID is required")
	}

	if c.GoogleClientSecret == "" {
		return fmt.Errorf("GOOGLE_CLIENT_SECRET is required")
	}

	if c.RedirectURI == "" {
		return fmt.Errorf("REDIRECT_URI is required")
	}

	if _, err := url.ParseRequestURI(c.RedirectURI); err != nil {
		return fmt.Errorf("REDIRECT_URI is not a valid URL: %w", err)
	}

	if c.AppRedirectURI != "" {
		if _, err := url.Parse(c.AppRedirectURI); err != nil {
			return fmt.Errorf("APP_REDIRECT_URI is not a valid URI: %w", err)
		}
	}

	if len(c.StateSecret) < 32 {
		return fmt.Errorf("STATE_SECRET is required and must be at least 32 characters")
	}

	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if c.VerifierTTL <= 0 {
		return fmt.Errorf("VERIFIER_TTL must be positive")
	}

	switch c.VerifierStore {
	case VerifierStorePostgres, VerifierStoreMemory:
	case VerifierStoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when VERIFIER_STORE=redis")
		}
	default:
		return fmt.Errorf("VERIFIER_STORE must be one of postgres, redis, memory (got %q)", c.VerifierStore)
	}

	if len(c.GoogleScopes) == 0 {
		return fmt.Errorf("GOOGLE_SCOPES cannot be empty")
	}

	return nil
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
