package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mission.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissionConfigOverrides(t *testing.T) {
	cfg, err := loadMissionConfig(writeTempConfig(t, `
addr = "10.0.0.5:8080"
connect_timeout = "3s"
max_attempts = 5
recordings_dir = "captures"
compress = true
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Client.Address != "10.0.0.5:8080" {
		t.Fatalf("address: %q", cfg.Client.Address)
	}
	if cfg.Client.ConnectTimeout != 3*time.Second {
		t.Fatalf("connect timeout: %v", cfg.Client.ConnectTimeout)
	}
	if cfg.Client.MaxAttempts != 5 {
		t.Fatalf("max attempts: %d", cfg.Client.MaxAttempts)
	}
	if cfg.RecordingsDir != "captures" || !cfg.Compress {
		t.Fatalf("recording config: %+v", cfg)
	}
}

func TestLoadMissionConfigKeepsDefaultsForUnsetKeys(t *testing.T) {
	cfg, err := loadMissionConfig(writeTempConfig(t, `addr = "1.2.3.4:8080"`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	def := defaultMissionConfig()
	if cfg.Client.ReadTimeout != def.Client.ReadTimeout {
		t.Fatalf("read timeout changed: %v", cfg.Client.ReadTimeout)
	}
	if cfg.RecordingsDir != def.RecordingsDir {
		t.Fatalf("recordings dir changed: %q", cfg.RecordingsDir)
	}
}

func TestLoadMissionConfigRejectsBadValues(t *testing.T) {
	cases := []string{
		`max_attempts = 0`,
		`connect_timeout = "soon"`,
		`read_timeout = 5`,
	}
	for _, content := range cases {
		if _, err := loadMissionConfig(writeTempConfig(t, content)); err == nil {
			t.Fatalf("expected error for %q", content)
		}
	}
}
