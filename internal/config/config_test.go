package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PRASAD_APP_ADDR", "")
	t.Setenv("PRASAD_KV_BACKEND", "")
	t.Setenv("PRASAD_PICKUP_LEAD_DAYS", "")

	cfg := Load()
	if cfg.Addr != ":8080" {
		t.Fatalf("expected default addr :8080, got %q", cfg.Addr)
	}
	if cfg.KVBackend != "memory" {
		t.Fatalf("expected memory backend, got %q", cfg.KVBackend)
	}
	if cfg.PickupLeadDays != 3 {
		t.Fatalf("expected 3 lead days, got %d", cfg.PickupLeadDays)
	}
	if cfg.TaxPercent != 18 {
		t.Fatalf("expected 18%% tax, got %d", cfg.TaxPercent)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PRASAD_APP_ADDR", ":9999")
	t.Setenv("PRASAD_API_TIMEOUT", "2s")
	t.Setenv("PRASAD_DELIVERY_FEE", "500")
	t.Setenv("PRASAD_PICKUP_LEAD_DAYS", "not-a-number")

	cfg := Load()
	if cfg.Addr != ":9999" {
		t.Fatalf("expected :9999, got %q", cfg.Addr)
	}
	if cfg.APITimeout != 2*time.Second {
		t.Fatalf("expected 2s timeout, got %v", cfg.APITimeout)
	}
	if cfg.DeliveryFee != 500 {
		t.Fatalf("expected delivery fee 500, got %d", cfg.DeliveryFee)
	}
	// unparsable values fall back to defaults
	if cfg.PickupLeadDays != 3 {
		t.Fatalf("expected fallback lead days 3, got %d", cfg.PickupLeadDays)
	}
}
