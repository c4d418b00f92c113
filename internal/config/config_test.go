package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("BOOKING_API_BASE_URL", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.BookingAPIBaseURL != "" {
		t.Fatalf("expected empty booking api base url, got %s", cfg.BookingAPIBaseURL)
	}
	if cfg.CheckoutDryRun {
		t.Fatalf("expected checkout dry run disabled by default")
	}
	if cfg.DraftTTL != 30*time.Minute {
		t.Fatalf("expected default draft ttl, got %s", cfg.DraftTTL)
	}
	if cfg.SessionRefTTL != time.Hour {
		t.Fatalf("expected default session ref ttl, got %s", cfg.SessionRefTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("BOOKING_API_BASE_URL", "https://booking.example.com")
	t.Setenv("BOOKING_API_ADMIN_TOKEN", "tok-123")
	t.Setenv("PAYMENTS_BASE_URL", "https://pay.example.com")
	t.Setenv("CHECKOUT_DRY_RUN", "true")
	t.Setenv("DRAFT_TTL", "45m")
	t.Setenv("SESSION_REF_TTL", "15m")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.BookingAPIBaseURL != "https://booking.example.com" {
		t.Fatalf("expected booking api override, got %s", cfg.BookingAPIBaseURL)
	}
	if cfg.BookingAPIAdminToken != "tok-123" {
		t.Fatalf("expected admin token override, got %s", cfg.BookingAPIAdminToken)
	}
	if cfg.PaymentsBaseURL != "https://pay.example.com" {
		t.Fatalf("expected payments override, got %s", cfg.PaymentsBaseURL)
	}
	if !cfg.CheckoutDryRun {
		t.Fatalf("expected checkout dry run enabled")
	}
	if cfg.DraftTTL != 45*time.Minute {
		t.Fatalf("expected draft ttl override, got %s", cfg.DraftTTL)
	}
	if cfg.SessionRefTTL != 15*time.Minute {
		t.Fatalf("expected session ref ttl override, got %s", cfg.SessionRefTTL)
	}
}
