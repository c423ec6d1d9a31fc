package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvConfigFile names the variable holding an optional YAML config path.
const EnvConfigFile = "ATDIFF_CONFIG"

const (
	envPrefix = "ATDIFF_"
	// legacyPrefix matches the plain ubisoft_email / ubisoft_password variables.
	legacyPrefix = "ubisoft_"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if ATDIFF_CONFIG is set
//  3. legacy credential env (ubisoft_email, ubisoft_password)
//  4. env (prefix ATDIFF_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	legacy := env.Provider(legacyPrefix, ".", strings.ToLower)
	if err := k.Load(legacy, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// ATDIFF_DATA_PATH -> data_path. Underscores are kept to match the koanf tags.
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings shared by every process.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.DataPath) == "":
		return fmt.Errorf("%w: data_path must not be empty", ErrInvalidConfig)
	}
	return nil
}

// ValidateFetch checks the settings the fetch job needs on top of Validate.
func (c *Config) ValidateFetch() error {
	if err := c.Validate(); err != nil {
		return err
	}
	switch {
	case c.UbisoftEmail == "":
		return fmt.Errorf("%w: ubisoft_email must be set", ErrInvalidConfig)
	case c.UbisoftPassword == "":
		return fmt.Errorf("%w: ubisoft_password must be set", ErrInvalidConfig)
	case c.CatalogLength < 1:
		return fmt.Errorf("%w: catalog_length must be positive", ErrInvalidConfig)
	case c.CatalogOffset < 0 || c.TopOffset < 0 || c.TenKOffset < 0:
		return fmt.Errorf("%w: offsets must not be negative", ErrInvalidConfig)
	}
	return nil
}
