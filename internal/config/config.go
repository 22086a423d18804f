package config

import (
	"os"
	"time"

	"go-tradesim/internal/common"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// PairConfig seeds one trading pair into the market registry.
type PairConfig struct {
	ID         int     `yaml:"id"`
	Name       string  `yaml:"name"`
	BaseAsset  string  `yaml:"base_asset"`
	QuoteAsset string  `yaml:"quote_asset"`
	Price      float64 `yaml:"price"`
	CategoryID int     `yaml:"category_id"`
}

// UserConfig seeds one demo account into the ledger.
type UserConfig struct {
	ID       int     `yaml:"id"`
	Username string  `yaml:"username"`
	Balance  float64 `yaml:"balance"`
}

type Config struct {
	Server               ServerConfig `yaml:"server"`
	Pairs                []PairConfig `yaml:"pairs"`
	Users                []UserConfig `yaml:"users"`
	SimulatorIntervalMs  int          `yaml:"simulator_interval_ms"`
	LiquidationScanMs    int          `yaml:"liquidation_scan_ms"`
	ClientSendBufferSize int          `yaml:"client_send_buffer_size"`
	LogLevel             string       `yaml:"log_level"`
}

func LoadConfig(path string) (*Config, error) {
	config := &Config{
		LogLevel: "info",
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	d := yaml.NewDecoder(file)
	if err := d.Decode(&config); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) GetSimulatorInterval() time.Duration {
	if c.SimulatorIntervalMs <= 0 {
		return time.Duration(common.DefaultSimulatorIntervalMs) * time.Millisecond
	}
	return time.Duration(c.SimulatorIntervalMs) * time.Millisecond
}

func (c *Config) GetLiquidationScanInterval() time.Duration {
	if c.LiquidationScanMs <= 0 {
		return time.Duration(common.DefaultLiquidationScanMs) * time.Millisecond
	}
	return time.Duration(c.LiquidationScanMs) * time.Millisecond
}

func (c *Config) GetClientSendBufferSize() int {
	if c.ClientSendBufferSize <= 0 {
		return common.DefaultClientSendBufferSize
	}
	return c.ClientSendBufferSize
}
