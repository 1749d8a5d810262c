package cli

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/zenops/shieldscan/internal/config"
)

// envKeys are the configuration keys that may be overridden through
// SHIELDSCAN_* environment variables (flags still take precedence because
// cobra writes them into cfg after this runs).
var envKeys = []string{
	"csv_path",
	"rpc_url",
	"rpc_user",
	"rpc_password",
	"rpc_timeout",
	"progress_every",
	"from_height",
	"api_host",
	"api_port",
	"metrics_path",
	"debug",
	"disable_logs",
	"color_logs",
	"timeformat_logs",
}

// ApplyEnv overlays SHIELDSCAN_* environment variables onto cfg.
func ApplyEnv(cfg *config.Config) error {
	v := viper.New()
	v.SetEnvPrefix("SHIELDSCAN")
	v.AllowEmptyEnv(false)

	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("failed to bind env key %s: %w", key, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to apply environment config: %w", err)
	}
	return nil
}
