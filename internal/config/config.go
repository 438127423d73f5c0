package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config centralises runtime configuration. Loaded once at startup and
// passed by value; nothing mutates it afterwards.
type Config struct {
	Env         string
	HTTPPort    string
	DatabaseURL string

	JWTSecret      string
	JWTIssuer      string
	JWTExpiry      time.Duration
	CookieTTLDays  int
	ResetTokenTTL  time.Duration
	ResetURLBase   string
	HashCost       int

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	EmailFrom    string
	EmailTimeout time.Duration

	AllowedOrigins  []string
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
}

// IsProduction reports whether the process runs in production mode, which
// turns on secure cookies and generic 500 bodies.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables providing sane defaults.
// A .env file in the working directory is merged in first when present.
func Load() (Config, error) {
	// Missing .env is fine; real env vars win either way.
	_ = godotenv.Load()

	cfg := Config{
		Env:         getEnv("APP_ENV", "development"),
		HTTPPort:    getEnv("HTTP_PORT", getEnv("PORT", "8080")),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		JWTSecret:     getEnv("JWT_SECRET", ""),
		JWTIssuer:     getEnv("JWT_ISSUER", "tourbook"),
		JWTExpiry:     getDurationEnv("JWT_EXPIRY", 24*time.Hour),
		CookieTTLDays: getIntEnv("JWT_COOKIE_EXPIRES_DAYS", 7),
		ResetTokenTTL: getDurationEnv("RESET_TOKEN_TTL", 10*time.Minute),
		ResetURLBase:  getEnv("RESET_URL_BASE", "http://localhost:5173/resetPassword"),
		HashCost:      getIntEnv("PASSWORD_HASH_COST", 12),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getIntEnv("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		EmailFrom:    getEnv("EMAIL_FROM", "no-reply@tourbook.dev"),
		EmailTimeout: getDurationEnv("EMAIL_TIMEOUT", 10*time.Second),

		AllowedOrigins:  splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		ReadTimeoutSec:  getIntEnv("HTTP_READ_TIMEOUT", 15),
		WriteTimeoutSec: getIntEnv("HTTP_WRITE_TIMEOUT", 15),
		IdleTimeoutSec:  getIntEnv("HTTP_IDLE_TIMEOUT", 60),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func splitCSV(value string) []string {
	parts := []string{}
	for _, part := range strings.Split(value, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	if len(parts) == 0 {
		return []string{"*"}
	}
	return parts
}
