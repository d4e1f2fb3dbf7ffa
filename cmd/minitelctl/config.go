package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/minitelctl/internal/client"
)

type fileConfig struct {
	Addr           string `toml:"addr"`
	ConnectTimeout string `toml:"connect_timeout"`
	ReadTimeout    string `toml:"read_timeout"`
	WriteTimeout   string `toml:"write_timeout"`
	MaxAttempts    int    `toml:"max_attempts"`
	RecordingsDir  string `toml:"recordings_dir"`
	Compress       bool   `toml:"compress"`
}

type missionConfig struct {
	Client        client.Config
	RecordingsDir string
	Compress      bool
}

func defaultMissionConfig() missionConfig {
	return missionConfig{
		Client:        client.DefaultConfig(),
		RecordingsDir: "recordings",
	}
}

func loadMissionConfig(path string) (missionConfig, error) {
	cfg := defaultMissionConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return missionConfig{}, fmt.Errorf("load mission config: %w", err)
	}

	if meta.IsDefined("addr") {
		cfg.Client.Address = strings.TrimSpace(raw.Addr)
	}
	if meta.IsDefined("max_attempts") {
		if raw.MaxAttempts <= 0 {
			return missionConfig{}, fmt.Errorf("max_attempts must be positive")
		}
		cfg.Client.MaxAttempts = raw.MaxAttempts
	}
	if meta.IsDefined("recordings_dir") {
		dir := strings.TrimSpace(raw.RecordingsDir)
		if dir != "" {
			cfg.RecordingsDir = dir
		}
	}
	if meta.IsDefined("compress") {
		cfg.Compress = raw.Compress
	}

	for name, field := range map[string]struct {
		raw string
		dst *time.Duration
	}{
		"connect_timeout": {raw.ConnectTimeout, &cfg.Client.ConnectTimeout},
		"read_timeout":    {raw.ReadTimeout, &cfg.Client.ReadTimeout},
		"write_timeout":   {raw.WriteTimeout, &cfg.Client.WriteTimeout},
	} {
		if !meta.IsDefined(name) {
			continue
		}
		d, err := time.ParseDuration(strings.TrimSpace(field.raw))
		if err != nil {
			return missionConfig{}, fmt.Errorf("parse %s: %w", name, err)
		}
		*field.dst = d
	}

	return cfg, nil
}
