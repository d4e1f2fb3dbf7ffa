package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// ServerConfig is the joshuad file configuration shape.
type ServerConfig struct {
	Node        string   `toml:"node"`
	Addr        string   `toml:"addr"`
	AdminAddr   string   `toml:"admin_addr"`
	CorsOrigins []string `toml:"cors_origins"`
	IdleTimeout string   `toml:"idle_timeout"`
	Secret      string   `toml:"secret"`
}

func LoadServerConfig(path string) (ServerConfig, error) {
	var cfg ServerConfig
	if err := loadToml(path, &cfg); err != nil {
		return ServerConfig{}, err
	}
	if cfg.Node == "" {
		cfg.Node = "joshua"
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if err := ValidateServerConfig(cfg); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateServerConfig(cfg ServerConfig) error {
	if strings.TrimSpace(cfg.Node) == "" {
		return fmt.Errorf("server config missing node")
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("server config missing addr")
	}
	if cfg.IdleTimeout != "" {
		if _, err := time.ParseDuration(cfg.IdleTimeout); err != nil {
			return fmt.Errorf("server config idle_timeout: %w", err)
		}
	}
	return nil
}
