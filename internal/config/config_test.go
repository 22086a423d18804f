package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
server:
  host: "127.0.0.1"
  port: 9090
simulator_interval_ms: 1000
liquidation_scan_ms: 3000
log_level: "debug"
pairs:
  - id: 1
    name: "BTC/USD"
    base_asset: "BTC"
    quote_asset: "USD"
    price: 50000.0
    category_id: 1
users:
  - id: 1
    username: "demo"
    balance: 10000.0
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, testConfig))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, time.Second, cfg.GetSimulatorInterval())
	assert.Equal(t, 3*time.Second, cfg.GetLiquidationScanInterval())

	require.Len(t, cfg.Pairs, 1)
	assert.Equal(t, "BTC/USD", cfg.Pairs[0].Name)
	assert.Equal(t, 50000.0, cfg.Pairs[0].Price)

	require.Len(t, cfg.Users, 1)
	assert.Equal(t, 10000.0, cfg.Users[0].Balance)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "server:\n  port: 8080\n"))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 2*time.Second, cfg.GetSimulatorInterval())
	assert.Equal(t, 5*time.Second, cfg.GetLiquidationScanInterval())
	assert.Equal(t, 256, cfg.GetClientSendBufferSize())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
