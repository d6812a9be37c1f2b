package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// GoogleConfig holds the OAuth client used to connect accounts.
type GoogleConfig struct {
	ClientID     string `mapstructure:"client_id" yaml:"client_id"`
	ClientSecret string `mapstructure:"client_secret" yaml:"client_secret"`
}

// SyncConfig holds scheduling intervals, in seconds.
type SyncConfig struct {
	VisibleIntervalSec int `mapstructure:"visible_interval_sec" yaml:"visible_interval_sec"`
	HiddenIntervalSec  int `mapstructure:"hidden_interval_sec" yaml:"hidden_interval_sec"`
	DebounceSec        int `mapstructure:"debounce_sec" yaml:"debounce_sec"`
}

// MetricsConfig holds the metrics/health HTTP listener settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Address string `mapstructure:"address" yaml:"address"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Google  GoogleConfig  `mapstructure:"google" yaml:"google"`
	Sync    SyncConfig    `mapstructure:"sync" yaml:"sync"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// DBPath is the SQLite database holding accounts and the cached
	// task snapshot.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`
}

// DefaultConfigPath returns ~/.config/gtaskall/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "gtaskall", "config.yaml")
}

// DefaultDBPath returns ~/.local/share/gtaskall/gtaskall.db.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "gtaskall.db")
	}
	return filepath.Join(home, ".local", "share", "gtaskall", "gtaskall.db")
}

func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Sync: SyncConfig{
			VisibleIntervalSec: 15,
			HiddenIntervalSec:  60,
			DebounceSec:        2,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Address: "localhost:9090",
		},
		DBPath: DefaultDBPath(),
	}
}

// Load reads the configuration from a YAML file using Viper. A missing
// file yields the defaults. Environment variables with the GTASKALL_
// prefix override file values (GTASKALL_GOOGLE_CLIENT_ID and so on).
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("GTASKALL")
	v.AutomaticEnv()

	v.SetDefault("sync.visible_interval_sec", 15)
	v.SetDefault("sync.hidden_interval_sec", 60)
	v.SetDefault("sync.debounce_sec", 2)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.address", "localhost:9090")
	v.SetDefault("db_path", DefaultDBPath())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file at path, creating parent
// directories as needed.
func Save(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("google", cfg.Google)
	v.Set("sync", cfg.Sync)
	v.Set("metrics", cfg.Metrics)
	v.Set("db_path", cfg.DBPath)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}
