// Package config loads process-level settings from coinlit.yaml, an optional
// .env file and COINLIT_* environment variables. Per-user preferences live in
// the settings document instead.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/julianstephens/coinlit/internal/constants"
	"github.com/julianstephens/coinlit/internal/storage/backend"
)

type Config struct {
	Storage      string `mapstructure:"storage"`
	MaxCoinLimit int    `mapstructure:"max_coin_limit"`
	Debug        bool   `mapstructure:"debug"`
	User         string `mapstructure:"user"`
	ConfigDir    string `mapstructure:"config_dir"`
}

// Load reads configuration. envFile may be empty to skip .env loading; a
// missing .env or config file is not an error.
func Load(configDir, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configDir == "" {
		configDir = v.GetString(constants.ConfigDir)
	}
	if configDir == "" {
		configDir = constants.DefaultConfigDir
	}
	dir, err := backend.ExpandPath(configDir)
	if err != nil {
		return nil, err
	}

	v.SetDefault(constants.ConfigDir, dir)
	v.SetDefault(constants.ConfigStorage, filepath.Join(dir, constants.AppName+".db"))
	v.SetDefault(constants.ConfigMaxCoinLimit, constants.MaxCoinLimit)
	v.SetDefault(constants.ConfigDebug, false)
	v.SetDefault(constants.ConfigUser, "")

	v.SetConfigName(constants.ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.ConfigDir = dir
	if cfg.MaxCoinLimit <= 0 {
		cfg.MaxCoinLimit = constants.MaxCoinLimit
	}
	return &cfg, nil
}

// Path returns where Load looks for the config file first.
func (c *Config) Path() string {
	return filepath.Join(c.ConfigDir, constants.ConfigFileName+".yaml")
}
