// Package config loads skelly's settings with viper.
//
// Sources, lowest to highest priority: defaults, an optional config file,
// SKELLY_* environment variables, and flags bound by the caller.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/maloquacious/skelly/internal/store"
)

const (
	KeyStoreEnabled = "store.enabled"
	KeyStorePath    = "store.path"
	KeyLogDebug     = "log.debug"

	EnvPrefix = "SKELLY"
)

// Config is the resolved application configuration.
type Config struct {
	Store StoreConfig `mapstructure:"store"`
	Log   LogConfig   `mapstructure:"log"`
}

// StoreConfig selects whether the application has a store and where it lives.
type StoreConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LogConfig struct {
	Debug bool `mapstructure:"debug"`
}

// Location parses the configured store path.
func (c Config) Location() (store.Location, error) {
	return store.ParseLocation(c.Store.Path)
}

// SetDefaults registers the default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyStoreEnabled, true)
	v.SetDefault(KeyStorePath, store.DefaultDBFile)
	v.SetDefault(KeyLogDebug, false)
}

// Load resolves the configuration from v. If file is not empty it is read
// first; its format is taken from the extension.
// A nil v uses a fresh viper instance.
func Load(v *viper.Viper, file string) (Config, error) {
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Store.Enabled {
		if _, err := cfg.Location(); err != nil {
			return Config{}, fmt.Errorf("%s: %w", KeyStorePath, err)
		}
	}
	return cfg, nil
}
