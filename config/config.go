package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config carries the service-level settings for the settlement daemon.
type Config struct {
	DataDir          string   `toml:"DataDir"`
	Env              string   `toml:"Env"`
	APIAddress       string   `toml:"APIAddress"`
	MetricsAddress   string   `toml:"MetricsAddress"`
	PausedModules    []string `toml:"PausedModules"`
	KeepAliveBalance uint64   `toml:"KeepAliveBalance"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config file %s has unknown field %s", path, undecoded[0])
	}

	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./amm-data"
	}
	if strings.TrimSpace(cfg.APIAddress) == "" {
		cfg.APIAddress = ":8080"
	}
	if strings.TrimSpace(cfg.MetricsAddress) == "" {
		cfg.MetricsAddress = ":9090"
	}
	if cfg.PausedModules == nil {
		cfg.PausedModules = []string{}
	}

	return cfg, nil
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		DataDir:        "./amm-data",
		Env:            "",
		APIAddress:     ":8080",
		MetricsAddress: ":9090",
		PausedModules:  []string{},
	}
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return toml.NewEncoder(file).Encode(cfg)
}
