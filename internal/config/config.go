package config

import (
	"fmt"
	"net/url"
	"time"
)

// Default configuration values
const (
	DefaultCSVPath        = "mainnet_shielded_pool.csv"
	DefaultRPCURL         = "http://127.0.0.1:8231/"
	DefaultRPCTimeout     = 10 * time.Second
	DefaultAPIHost        = "0.0.0.0"
	DefaultAPIPort        = 8080
	DefaultMetricsPath    = "/metrics"
	DefaultTimeFormatLogs = "kitchen"
	DefaultProgressEvery  = 10000
)

// Config holds all configuration for shieldscan.
type Config struct {
	// Store settings
	CSVPath string `mapstructure:"csv_path"`

	// Remote node settings
	RPCURL      string        `mapstructure:"rpc_url"`
	RPCUser     string        `mapstructure:"rpc_user"`
	RPCPassword string        `mapstructure:"rpc_password"`
	RPCTimeout  time.Duration `mapstructure:"rpc_timeout"`

	// Sync settings
	NoUpdate      bool  `mapstructure:"no_update"`
	ProgressEvery int64 `mapstructure:"progress_every"`

	// Render settings
	FromHeight int64 `mapstructure:"from_height"`

	// API server settings
	APIHost     string `mapstructure:"api_host"`
	APIPort     int    `mapstructure:"api_port"`
	MetricsPath string `mapstructure:"metrics_path"`

	// Logging
	Debug          bool   `mapstructure:"debug"`
	DisableLogs    bool   `mapstructure:"disable_logs"`
	ColorLogs      bool   `mapstructure:"color_logs"`
	TimeFormatLogs string `mapstructure:"timeformat_logs"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		CSVPath:        DefaultCSVPath,
		RPCURL:         DefaultRPCURL,
		RPCTimeout:     DefaultRPCTimeout,
		ProgressEvery:  DefaultProgressEvery,
		APIHost:        DefaultAPIHost,
		APIPort:        DefaultAPIPort,
		MetricsPath:    DefaultMetricsPath,
		ColorLogs:      true,
		TimeFormatLogs: DefaultTimeFormatLogs,
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.CSVPath == "" {
		return fmt.Errorf("csv path must not be empty")
	}

	if c.RPCURL == "" {
		return fmt.Errorf("rpc url must not be empty")
	}
	u, err := url.Parse(c.RPCURL)
	if err != nil {
		return fmt.Errorf("invalid rpc url %q: %w", c.RPCURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("rpc url %q must use http or https", c.RPCURL)
	}

	if c.RPCTimeout <= 0 {
		return fmt.Errorf("rpc timeout must be positive, got %s", c.RPCTimeout)
	}

	if c.FromHeight < 0 {
		return fmt.Errorf("from height must be non-negative, got %d", c.FromHeight)
	}

	if c.APIPort < 0 || c.APIPort > 65535 {
		return fmt.Errorf("invalid api port %d", c.APIPort)
	}

	return nil
}
