package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MinCashOut != 2000 {
		t.Fatalf("expected min cash out 2000, got %d", cfg.MinCashOut)
	}
	if cfg.TransferTimeout != 10*time.Second {
		t.Fatalf("expected 10s transfer timeout, got %s", cfg.TransferTimeout)
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("unexpected address %q", cfg.Address())
	}
}

func TestLoadRequiresStoresOutsideDev(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected missing DATABASE_URL to fail in production")
	}
}

func TestLoadDurationOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("TRANSFER_TIMEOUT_SECONDS", "3")
	t.Setenv("RECOVERY_INTERVAL", "30s")
	t.Setenv("CASHOUT_MIN_SHEKELZ", "5000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.TransferTimeout != 3*time.Second {
		t.Fatalf("expected 3s, got %s", cfg.TransferTimeout)
	}
	if cfg.RecoveryInterval != 30*time.Second {
		t.Fatalf("expected 30s, got %s", cfg.RecoveryInterval)
	}
	if cfg.MinCashOut != 5000 {
		t.Fatalf("expected 5000, got %d", cfg.MinCashOut)
	}
}

func TestLoadRejectsInvalidMinCashOut(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("CASHOUT_MIN_SHEKELZ", "-5")

	if _, err := Load(); err == nil {
		t.Fatal("expected negative minimum to fail")
	}
}
