package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the application configuration, resolved from defaults, the
// config file, environment variables (STILLPOINT_*) and flags, in
// increasing precedence.
type Config struct {
	DataDir           string `mapstructure:"data_dir"`
	LogFile           string `mapstructure:"log_file"`
	CatalogFile       string `mapstructure:"catalog_file"`
	MinSessionSeconds int    `mapstructure:"min_session_seconds"`
	TickIntervalMS    int    `mapstructure:"tick_interval_ms"`
	PlayerCommand     string `mapstructure:"player_command"`
	LogMaxSizeMB      int    `mapstructure:"log_max_size_mb"`
	LogMaxBackups     int    `mapstructure:"log_max_backups"`
}

// MinSession returns the eligibility threshold as a duration.
func (c Config) MinSession() time.Duration {
	return time.Duration(c.MinSessionSeconds) * time.Second
}

// TickInterval returns the display refresh cadence as a duration.
func (c Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

// RegisterFlags declares the command-line flags on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (default: <data-dir>/config.yaml)")
	fs.String("data-dir", "", "data directory (default: ~/.stillpoint)")
	fs.String("log-file", "", "log file path (default: <data-dir>/stillpoint.log)")
	fs.String("catalog-file", "", "extra exercise catalog YAML file")
	fs.Int("min-session-seconds", 0, "minimum elapsed seconds for a session to count")
	fs.Int("tick-interval-ms", 0, "display refresh interval in milliseconds")
	fs.String("player-command", "", "external audio player command for ambient sound")
}

// Load resolves the configuration. fs must already be parsed.
func Load(fs *pflag.FlagSet, defaultDataDir string) (Config, error) {
	v := viper.New()

	v.SetDefault("data_dir", defaultDataDir)
	v.SetDefault("log_file", "")
	v.SetDefault("catalog_file", "")
	v.SetDefault("min_session_seconds", 60)
	v.SetDefault("tick_interval_ms", 500)
	v.SetDefault("player_command", "")
	v.SetDefault("log_max_size_mb", 5)
	v.SetDefault("log_max_backups", 3)

	v.SetEnvPrefix("STILLPOINT")
	v.AutomaticEnv()

	bind := map[string]string{
		"data_dir":            "data-dir",
		"log_file":            "log-file",
		"catalog_file":        "catalog-file",
		"min_session_seconds": "min-session-seconds",
		"tick_interval_ms":    "tick-interval-ms",
		"player_command":      "player-command",
	}
	for key, flag := range bind {
		f := fs.Lookup(flag)
		if f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return Config{}, fmt.Errorf("bind flag %s: %w", flag, err)
			}
		}
	}

	configFile, _ := fs.GetString("config")
	if configFile == "" {
		configFile = filepath.Join(v.GetString("data_dir"), "config.yaml")
	}
	if _, err := os.Stat(configFile); err == nil {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.DataDir, "stillpoint.log")
	}
	return cfg, nil
}
