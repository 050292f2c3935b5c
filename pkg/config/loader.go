package config

import (
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load reads, expands, and validates a YAML config file. A missing file
// is not an error: the defaults then stand alone, which keeps local
// development running on environment variables only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
		if k, err = expandEnvVarsInKoanf(k); err != nil {
			return nil, fmt.Errorf("failed to expand environment variables: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// expandEnvVarsInKoanf rebuilds the koanf tree with every string value
// env-expanded.
func expandEnvVarsInKoanf(k *koanf.Koanf) (*koanf.Koanf, error) {
	expanded, ok := ExpandEnvVarsInData(k.Raw()).(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected type after env var expansion")
	}

	fresh := koanf.New(".")
	if err := fresh.Load(confmap.Provider(expanded, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load expanded config: %w", err)
	}
	return fresh, nil
}
