package config

import (
	"os"
	"testing"
	"time"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("setenv %s failed: %v", key, err)
	}
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, old)
		} else {
			_ = os.Unsetenv(key)
		}
	})
}

func unsetEnv(t *testing.T, key string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	_ = os.Unsetenv(key)
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, old)
		}
	})
}

func TestLoadRequiresDSN(t *testing.T) {
	unsetEnv(t, "DB_DSN")
	setEnv(t, "JWT_SECRET", "secret")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing DB_DSN")
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	setEnv(t, "DB_DSN", "file:test.db")
	unsetEnv(t, "JWT_SECRET")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing JWT_SECRET")
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	setEnv(t, "DB_DSN", "postgres://localhost/reservations")
	setEnv(t, "JWT_SECRET", "secret")
	setEnv(t, "DB_DRIVER", "postgres")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestLoadDefaults(t *testing.T) {
	setEnv(t, "DB_DSN", "root:root@tcp(localhost:3306)/reservations?parseTime=true")
	setEnv(t, "JWT_SECRET", "secret")
	unsetEnv(t, "DB_DRIVER")
	unsetEnv(t, "PRIVATIZATION_BASE_CENTS")
	unsetEnv(t, "PRIVATIZATION_PER_PERSON_CENTS")
	unsetEnv(t, "PRIVATIZATION_MIN_PERSONS")
	unsetEnv(t, "PRIVATIZATION_MAX_PERSONS")
	unsetEnv(t, "STRIPE_SESSION_EXPIRY_MINUTES")
	unsetEnv(t, "RESERVATIONS_AUTO_CONFIRM")
	unsetEnv(t, "CORS_ALLOWED_ORIGINS")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.Database.Driver != "mysql" {
		t.Fatalf("unexpected driver: %s", cfg.Database.Driver)
	}
	if cfg.Pricing.BaseCents != 50000 || cfg.Pricing.PerPersonCents != 2000 {
		t.Fatalf("unexpected pricing: %+v", cfg.Pricing)
	}
	if cfg.Pricing.MinPersons != 10 || cfg.Pricing.MaxPersons != 50 {
		t.Fatalf("unexpected privatization bounds: %+v", cfg.Pricing)
	}
	if cfg.Payments.SessionExpiry != 30*time.Minute {
		t.Fatalf("unexpected session expiry: %v", cfg.Payments.SessionExpiry)
	}
	if !cfg.Reservations.AutoConfirm {
		t.Fatal("expected auto confirm by default")
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	setEnv(t, "DB_DSN", "file:reservations.db")
	setEnv(t, "DB_DRIVER", "SQLITE3")
	setEnv(t, "JWT_SECRET", "secret")
	setEnv(t, "HTTP_PORT", "8181")
	setEnv(t, "DB_MAX_OPEN_CONNS", "20")
	setEnv(t, "DB_CONN_MAX_LIFETIME_MINUTES", "40")
	setEnv(t, "JWT_TTL_MINUTES", "60")
	setEnv(t, "PRIVATIZATION_BASE_CENTS", "10000")
	setEnv(t, "PRIVATIZATION_CURRENCY", "EUR")
	setEnv(t, "STRIPE_SESSION_EXPIRY_MINUTES", "45")
	setEnv(t, "RESERVATIONS_AUTO_CONFIRM", "false")
	setEnv(t, "CORS_ALLOWED_ORIGINS", "https://lanoche.fr, https://www.lanoche.fr,")
	setEnv(t, "RATE_LIMIT_REFILL_INTERVAL_SECONDS", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.Database.Driver != "sqlite3" {
		t.Fatalf("unexpected driver: %s", cfg.Database.Driver)
	}
	if cfg.HTTP.Port != "8181" {
		t.Fatalf("unexpected port: %s", cfg.HTTP.Port)
	}
	if cfg.Database.MaxOpenConns != 20 || cfg.Database.ConnMaxLifetime != 40*time.Minute {
		t.Fatalf("unexpected pool config: %+v", cfg.Database)
	}
	if cfg.Auth.TokenTTL != time.Hour {
		t.Fatalf("unexpected token ttl: %v", cfg.Auth.TokenTTL)
	}
	if cfg.Pricing.BaseCents != 10000 || cfg.Pricing.Currency != "eur" {
		t.Fatalf("unexpected pricing: %+v", cfg.Pricing)
	}
	if cfg.Payments.SessionExpiry != 45*time.Minute {
		t.Fatalf("unexpected session expiry: %v", cfg.Payments.SessionExpiry)
	}
	if cfg.Reservations.AutoConfirm {
		t.Fatal("expected auto confirm disabled")
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "https://www.lanoche.fr" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.RateLimit.RefillInterval != 7*time.Second {
		t.Fatalf("unexpected refill interval: %v", cfg.RateLimit.RefillInterval)
	}
}
