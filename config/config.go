// Package config loads the daemon configuration from a YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"
)

// Config is the hub20d daemon configuration.
type Config struct {
	Server struct {
		URL string `yaml:"url" env:"HUB20_SERVER_URL"`
	} `yaml:"server"`
	Storage struct {
		Path string `yaml:"path" env:"HUB20_STORAGE_PATH"`
	} `yaml:"storage"`
	Refresh struct {
		Schedule string `yaml:"schedule" env:"HUB20_REFRESH_SCHEDULE"`
	} `yaml:"refresh"`
	Log struct {
		Level  string `yaml:"level" env:"HUB20_LOG_LEVEL"`
		Pretty bool   `yaml:"pretty" env:"HUB20_LOG_PRETTY"`
	} `yaml:"log"`
}

// Load reads the config file at path, applies environment overrides and
// fills in defaults. A missing file is not an error; environment variables
// alone can carry the whole configuration.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("HUB20_CONFIG_PATH")
	}
	if path == "" {
		path = "configs/hub20d.yaml"
	}

	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Env-only configuration.
	case err != nil:
		return nil, fmt.Errorf("read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("apply env overrides: %w", err)
	}

	if cfg.Storage.Path == "" {
		cfg.Storage.Path = defaultStoragePath()
	}
	if cfg.Refresh.Schedule == "" {
		cfg.Refresh.Schedule = "@every 1m"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	if cfg.Server.URL == "" {
		return nil, errors.New("server.url is required")
	}
	return &cfg, nil
}

func defaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "hub20-session.json"
	}
	return home + "/.hub20/session.json"
}
