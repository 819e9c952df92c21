package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Server      ServerConfig
	Snapshot    SnapshotConfig
	Remote      RemoteConfig
	Log         LogConfig
	DefaultBang string `mapstructure:"default_bang"`
}

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Addr string
}

// SnapshotConfig locates the local bang snapshot.
type SnapshotConfig struct {
	Path  string
	Watch bool
}

// RemoteConfig holds sync store settings. An empty DSN disables sync.
type RemoteConfig struct {
	DSN          string
	SyncInterval time.Duration `mapstructure:"sync_interval"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level       string
	Development bool
}

// Load reads configuration from file and env. Env var overrides use prefix
// BANGD_. path, when non-empty, names the config file explicitly; otherwise
// BANGD_CONFIG or ~/.config/bangd/config.yaml is used if present.
func Load(path string) (Config, error) {
	v := viper.New()

	home, _ := os.UserHomeDir()
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("snapshot.path", filepath.Join(home, ".local", "share", "bangd", "bangs.json"))
	v.SetDefault("snapshot.watch", true)
	v.SetDefault("remote.dsn", "")
	v.SetDefault("remote.sync_interval", 5*time.Minute)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("default_bang", "g")

	v.SetConfigType("yaml")
	if path == "" {
		path = os.Getenv("BANGD_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(filepath.Join(home, ".config", "bangd"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("BANGD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		// An explicitly named file must exist; the default location is optional.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
