package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPERTRACK_PG_DSN", "postgres://localhost/opertrack_test")
	t.Setenv("OPERTRACK_CORS_ORIGINS", "https://painel.example.com, https://admin.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("unexpected addr: %s", cfg.Addr)
	}
	if cfg.RatePerMinute != 1200 {
		t.Fatalf("unexpected rate: %d", cfg.RatePerMinute)
	}
	if len(cfg.AllowOrigins) != 2 || cfg.AllowOrigins[0] != "https://painel.example.com" {
		t.Fatalf("unexpected origins: %v", cfg.AllowOrigins)
	}
	if cfg.SMTP.Enabled() {
		t.Fatal("smtp should be disabled without host")
	}
	if cfg.AI.Enabled() {
		t.Fatal("ai should be disabled without base url")
	}
}

func TestLoadRequiresDSN(t *testing.T) {
	t.Setenv("OPERTRACK_PG_DSN", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without DSN")
	}
}

func TestLoadBadIntFallsBack(t *testing.T) {
	t.Setenv("OPERTRACK_PG_DSN", "postgres://localhost/x")
	t.Setenv("OPERTRACK_RATE_PER_MINUTE", "not-a-number")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RatePerMinute != 1200 {
		t.Fatalf("expected default rate, got %d", cfg.RatePerMinute)
	}
}
