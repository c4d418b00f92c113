package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	PublicBaseURL string

	// Booking backend (catalog, availability, booking create/delete).
	BookingAPIBaseURL    string
	BookingAPIAdminToken string
	BookingAPITimeout    time.Duration

	// Payment gateway (checkout session creation).
	PaymentsBaseURL    string
	CheckoutSuccessURL string
	CheckoutCancelURL  string
	CheckoutDryRun     bool
	CheckoutTimeout    time.Duration

	// Wizard instance lifecycle.
	DraftTTL      time.Duration
	SweepInterval time.Duration

	AdminJWTSecret string

	RedisAddr     string
	RedisPassword string
	SessionRefTTL time.Duration

	CORSAllowedOrigins string
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),

		BookingAPIBaseURL:    getEnv("BOOKING_API_BASE_URL", ""),
		BookingAPIAdminToken: getEnv("BOOKING_API_ADMIN_TOKEN", ""),
		BookingAPITimeout:    getEnvAsDuration("BOOKING_API_TIMEOUT", 10*time.Second),

		PaymentsBaseURL:    getEnv("PAYMENTS_BASE_URL", ""),
		CheckoutSuccessURL: getEnv("CHECKOUT_SUCCESS_URL", ""),
		CheckoutCancelURL:  getEnv("CHECKOUT_CANCEL_URL", ""),
		CheckoutDryRun:     getEnvAsBool("CHECKOUT_DRY_RUN", false),
		CheckoutTimeout:    getEnvAsDuration("CHECKOUT_TIMEOUT", 10*time.Second),

		DraftTTL:      getEnvAsDuration("DRAFT_TTL", 30*time.Minute),
		SweepInterval: getEnvAsDuration("DRAFT_SWEEP_INTERVAL", 5*time.Minute),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SessionRefTTL: getEnvAsDuration("SESSION_REF_TTL", time.Hour),

		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
