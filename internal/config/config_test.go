package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("JWT_TTL_HOURS", "nope")
	t.Setenv("DASHBOARD_CACHE_TTL_SECONDS", "")
	t.Setenv("DATABASE_URL", "")

	cfg := Load()
	if cfg.Port != "3000" {
		t.Fatalf("expected default port 3000, got %s", cfg.Port)
	}
	if cfg.JWTTTLHours != 24 {
		t.Fatalf("expected jwt ttl fallback 24, got %d", cfg.JWTTTLHours)
	}
	if cfg.DashboardCacheTTL != 60*time.Second {
		t.Fatalf("expected 60s cache ttl, got %s", cfg.DashboardCacheTTL)
	}
	if cfg.Address() != ":3000" {
		t.Fatalf("unexpected address %s", cfg.Address())
	}
}

func TestDSNPrefersDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/erp")
	cfg := Load()
	if cfg.DSN() != "postgres://u:p@db:5432/erp" {
		t.Fatalf("expected DATABASE_URL to win, got %s", cfg.DSN())
	}

	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "pg")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("DB_NAME", "")
	t.Setenv("DB_PORT", "")
	t.Setenv("DB_TIMEZONE", "")
	cfg = Load()
	want := "host=pg user=postgres password= dbname=erp port=5432 sslmode=disable TimeZone=UTC"
	if got := cfg.DSN(); got != want {
		t.Fatalf("dsn mismatch:\n got %s\nwant %s", got, want)
	}
}
