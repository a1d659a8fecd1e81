package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all settings.
const envPrefix = "SPENDMAP"

// newViper builds a Viper instance with YAML file type, SPENDMAP_ env prefix
// and a key replacer that maps "." → "_" so that nested keys like
// "som.iterations" resolve to "SPENDMAP_SOM_ITERATIONS". Every known key is
// registered so that env-only configuration reaches Unmarshal.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for key, value := range defaults() {
		if value == nil {
			_ = v.BindEnv(key)
			continue
		}
		v.SetDefault(key, value)
	}
	return v
}

// Load reads the YAML file at configPath, merges any SPENDMAP_* environment
// variable overrides and validates the result.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config from SPENDMAP_* environment variables and
// defaults, with no config file.
//
//	SPENDMAP_<SECTION>_<FIELD>   e.g.  SPENDMAP_SOM_ITERATIONS, SPENDMAP_SOURCE_KIND
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

// LoadOptional loads configPath when it is non-empty and falls back to
// LoadFromEnv otherwise.
func LoadOptional(configPath string) (*Config, error) {
	if configPath == "" {
		return LoadFromEnv()
	}
	return Load(configPath)
}

// Read is LoadOptional without validation, for callers that override
// values (command-line flags) before validating once themselves.
func Read(configPath string) (*Config, error) {
	v := newViper()
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
		}
	}
	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)
	return cfg, nil
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg, err := unmarshal(v)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}
