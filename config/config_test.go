package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "./amm-data", cfg.DataDir)
	require.Equal(t, ":8080", cfg.APIAddress)
	require.Equal(t, ":9090", cfg.MetricsAddress)
	require.Empty(t, cfg.PausedModules)

	_, err = os.Stat(path)
	require.NoError(t, err, "default config must be persisted")

	// Reloading reads the persisted file.
	reloaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, reloaded)
}

func TestLoadExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `DataDir = "/var/lib/ammd"
Env = "staging"
APIAddress = ":7000"
MetricsAddress = ":7001"
PausedModules = ["amm"]
KeepAliveBalance = 500000
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/var/lib/ammd", cfg.DataDir)
	require.Equal(t, "staging", cfg.Env)
	require.Equal(t, ":7000", cfg.APIAddress)
	require.Equal(t, ":7001", cfg.MetricsAddress)
	require.Equal(t, []string{"amm"}, cfg.PausedModules)
	require.Equal(t, uint64(500_000), cfg.KeepAliveBalance)
}

func TestLoadRejectsUnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("Bogus = true\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown field")
}

func TestLoadFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("Env = \"dev\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "./amm-data", cfg.DataDir)
	require.Equal(t, ":8080", cfg.APIAddress)
	require.Equal(t, ":9090", cfg.MetricsAddress)
	require.NotNil(t, cfg.PausedModules)
}
