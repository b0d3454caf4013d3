package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "dev",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.Store.Driver != StoreDriverPostgres {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Auth.TokenTTL != 8*time.Hour {
		t.Fatalf("unexpected ttl: %v", cfg.Auth.TokenTTL)
	}
	if cfg.RateLimit.LoginWindow != time.Minute || cfg.RateLimit.LoginLimit != 10 {
		t.Fatalf("unexpected rate limit: %+v", cfg.RateLimit)
	}
	if cfg.Auth.AllowAdminSignup {
		t.Fatalf("admin signup must default to false")
	}
}

func TestLoadFrom_MissingSecret(t *testing.T) {
	if _, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{})); err == nil {
		t.Fatalf("expected error without JWT_SECRET")
	}
}

func TestLoadFrom_ShortSecretOutsideDevelopment(t *testing.T) {
	_, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "short",
		"ENV":        "production",
	}))
	if err == nil {
		t.Fatalf("expected error for short secret in production")
	}
}

func TestLoadFrom_UnknownDriver(t *testing.T) {
	_, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":   "dev",
		"STORE_DRIVER": "sqlite",
	}))
	if err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestLoadFrom_MemoryDriverOnlyInDevelopment(t *testing.T) {
	env := map[string]string{
		"JWT_SECRET":   "a-long-enough-production-secret",
		"STORE_DRIVER": StoreDriverMemory,
	}
	if _, err := LoadFrom(context.Background(), envconfig.MapLookuper(env)); err != nil {
		t.Fatalf("memory driver should load in development: %v", err)
	}

	env["ENV"] = "production"
	if _, err := LoadFrom(context.Background(), envconfig.MapLookuper(env)); err == nil {
		t.Fatalf("expected memory driver to be rejected in production")
	}
}

func TestLoadMigrate_NoSecretNeeded(t *testing.T) {
	cfg, err := LoadMigrate(context.Background(), envconfig.MapLookuper(map[string]string{
		"DATABASE_URL": "postgres://u:p@db:5432/clinic",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Postgres.URL != "postgres://u:p@db:5432/clinic" {
		t.Fatalf("unexpected url %q", cfg.Postgres.URL)
	}
	if cfg.Postgres.MaxConns != 10 {
		t.Fatalf("expected default max conns, got %d", cfg.Postgres.MaxConns)
	}
}
