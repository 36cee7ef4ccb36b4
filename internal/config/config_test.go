package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("AUTH_SECRET", "")
	t.Setenv("SEED_ADMIN_PASSWORD", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
	if cfg.SeedAdminPassword != "" {
		t.Fatalf("expected empty seed password when unset, got %q", cfg.SeedAdminPassword)
	}
	if cfg.DBDriver != "sqlite" || cfg.Timezone != "Asia/Manila" || cfg.MaxDiscount != "20" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "port: \"9090\"\nmax_discount: \"25\"\ncache_ttl_seconds: 30\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("PORT", "7070")
	t.Setenv("REDIS_DB", "2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "7070" {
		t.Fatalf("expected env port, got %q", cfg.Port)
	}
	if cfg.MaxDiscount != "25" || cfg.CacheTTLSeconds != 30 {
		t.Fatalf("expected file values, got %+v", cfg)
	}
	if cfg.RedisDB != 2 {
		t.Fatalf("expected redis db 2, got %d", cfg.RedisDB)
	}
	if cfg.Address() != ":7070" {
		t.Fatalf("unexpected address %q", cfg.Address())
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := defaults()
	cfg.Timezone = "Mars/Olympus"
	cfg.MaxDiscount = "-5"
	cfg.DBDriver = "oracle"

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"timezone", "max_discount", "db_driver"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
}

func TestAllowedOriginsSplits(t *testing.T) {
	cfg := Config{AllowedOrigin: "http://a.test, ,http://b.test"}
	got := cfg.AllowedOrigins()
	if len(got) != 2 || got[0] != "http://a.test" || got[1] != "http://b.test" {
		t.Fatalf("unexpected origins %v", got)
	}
}
