package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

type APIConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type Config struct {
	Server   ServerConfig  `mapstructure:"server"`
	Storage  StorageConfig `mapstructure:"storage"`
	API      APIConfig     `mapstructure:"api"`
	Document string        `mapstructure:"document"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("switchboard")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.switchboard")

	v.SetDefault("server.port", 8080)
	v.SetDefault("storage.db_path", filepath.Join(os.Getenv("HOME"), ".switchboard", "switchboard.db"))
	v.SetDefault("api.base_url", "http://localhost:8080")
	v.SetDefault("document", "mcpserver")

	if err := v.ReadInConfig(); err != nil {
		// Defaults cover a missing file; anything else is a real error.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &cfg, nil
}
