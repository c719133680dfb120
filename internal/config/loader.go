package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// Load loads and validates the widget configuration from:
// 1. Default values
// 2. the YAML file at path (optional; a missing file is not an error)
// 3. WIDGET_* environment variables
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := load(path, "WIDGET", defaults, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return cfg, nil
}

// LoadBackend loads the development backend configuration the same way,
// reading CHATBACKEND_* environment variables.
func LoadBackend(path string) (*BackendConfig, error) {
	cfg := &BackendConfig{}
	if err := load(path, "CHATBACKEND", backendDefaults, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return cfg, nil
}

func load(path, envPrefix string, defaults map[string]any, target any) error {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("%w: failed to read config file %s: %v", ErrConfiguration, path, err)
			}
		}
	}

	if err := v.Unmarshal(target); err != nil {
		return fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}
	return nil
}
