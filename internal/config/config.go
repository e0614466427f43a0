// Package config loads camlq settings from defaults, an optional camlq.yaml,
// CAMLQ_* environment variables and command-line flags.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Defaults.
const (
	DefaultDB       = "camlq.db"
	DefaultFormat   = "text"
	DefaultLogLevel = "info"
	EnvPrefix       = "CAMLQ_"
)

// ConfigFileNames are searched in the working directory when no --config
// path is given.
var ConfigFileNames = []string{"camlq.yaml", "camlq.yml"}

// Config holds all CLI configuration options.
type Config struct {
	DB       string `koanf:"db"`
	Format   string `koanf:"format"`
	Verbose  bool   `koanf:"verbose"`
	LogLevel string `koanf:"log_level"`
	RowLimit uint32 `koanf:"row_limit"` // 0 = no limit

	// File is the config file that was read, or "" if none.
	File string `koanf:"-"`
}

// Level returns the slog level selected by LogLevel, forced to Debug by Verbose.
func (c *Config) Level() slog.Level {
	if c.Verbose {
		return slog.LevelDebug
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// Validate checks option values.
func (c *Config) Validate() error {
	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid format %q: must be one of [text json]", c.Format)
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}

	if strings.TrimSpace(c.DB) == "" {
		return fmt.Errorf("db path must not be empty")
	}
	return nil
}

// findConfigFile returns explicit if set, otherwise the first of
// ConfigFileNames that exists in the working directory.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range ConfigFileNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load loads configuration from defaults, file, environment and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
//
// Only flags the user actually set are applied, so an unset flag never
// masks a value from the file or environment. Flag names map to keys by
// replacing "-" with "_" (--log-level → log_level).
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"db":        DefaultDB,
		"format":    DefaultFormat,
		"verbose":   false,
		"log_level": DefaultLogLevel,
		"row_limit": 0,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	// 3. Environment: CAMLQ_LOG_LEVEL -> log_level
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			// --config selects the file; it is not a setting.
			if f.Name == "config" {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = used

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
