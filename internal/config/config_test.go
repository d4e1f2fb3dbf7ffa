package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadServerConfig(t *testing.T) {
	path := writeConfig(t, `
node = "joshua-1"
addr = "127.0.0.1:8080"
admin_addr = "127.0.0.1:9090"
idle_timeout = "2s"
secret = "TEST_SECRET"
cors_origins = ["http://localhost:3000"]
`)
	cfg, err := LoadServerConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Node != "joshua-1" || cfg.Addr != "127.0.0.1:8080" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Secret != "TEST_SECRET" || cfg.IdleTimeout != "2s" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadServerConfigDefaults(t *testing.T) {
	cfg, err := LoadServerConfig(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Node != "joshua" || cfg.Addr != ":8080" {
		t.Fatalf("defaults: %+v", cfg)
	}
}

func TestLoadServerConfigRejectsBadDuration(t *testing.T) {
	if _, err := LoadServerConfig(writeConfig(t, `idle_timeout = "two seconds"`)); err == nil {
		t.Fatal("expected error for bad idle_timeout")
	}
}

func TestLoadServerConfigRejectsBadToml(t *testing.T) {
	if _, err := LoadServerConfig(writeConfig(t, `addr = [not toml`)); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadServerConfigMissingFile(t *testing.T) {
	if _, err := LoadServerConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
