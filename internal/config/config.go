// Package config loads the CLI configuration from defaults, an optional YAML
// file, SQLCX_ environment variables and explicitly set flags, in increasing
// order of precedence.
package config

import (
	"os"
	"runtime"
	"strings"

	"sql-complexity/internal/logger"
	"sql-complexity/internal/model"
	"sql-complexity/internal/reporter"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

const (
	// DefaultFile is looked up in the working directory when no file is given.
	DefaultFile = "sql-complexity.yaml"
	EnvPrefix   = "SQLCX_"
)

// flagKeys maps flag names that differ from their config key.
var flagKeys = map[string]string{
	"format": "formats",
	"top":    "top_rules",
}

type Config struct {
	Dialect  string   `koanf:"dialect"`
	Rules    string   `koanf:"rules"`
	Formats  []string `koanf:"formats"`
	Output   string   `koanf:"output"`
	Workers  int      `koanf:"workers"`
	TopRules int      `koanf:"top_rules"`
	History  string   `koanf:"history"`
	LogLevel string   `koanf:"log_level"`
	NoColor  bool     `koanf:"no_color"`
	Verbose  bool     `koanf:"verbose"`

	// File is the configuration file that was read, if any.
	File string `koanf:"-"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"dialect":   "",
		"rules":     "",
		"formats":   []string{"console"},
		"output":    "sql-complexity-report",
		"workers":   runtime.NumCPU(),
		"top_rules": 20,
		"history":   "",
		"log_level": "info",
		"no_color":  false,
		"verbose":   false,
	}
}

// Load builds the configuration. cfgFile may be empty, in which case
// DefaultFile is used if it exists. flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load defaults")
	}

	if cfgFile == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			cfgFile = DefaultFile
		}
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "error reading config file %s", cfgFile)
		}
	}

	// SQLCX_TOP_RULES -> top_rules
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load env vars")
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if mapped, ok := flagKeys[f.Name]; ok {
				key = mapped
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, errors.Wrap(err, "failed to load flags")
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, "unable to decode config")
	}
	cfg.File = cfgFile
	cfg.Formats = splitList(cfg.Formats)
	if cfg.Verbose {
		cfg.LogLevel = "debug"
	}
	return &cfg, nil
}

// Validate checks the values every command relies on. It does not require
// a dialect; commands that need one call ParseDialect.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return errors.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.TopRules < 1 {
		return errors.Errorf("top_rules must be at least 1, got %d", c.TopRules)
	}
	for _, f := range c.Formats {
		if _, err := reporter.New(f, nil); err != nil {
			return err
		}
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Dialect != "" {
		if _, err := model.ParseDialect(c.Dialect); err != nil {
			return err
		}
	}
	return nil
}

// ParseDialect returns the configured dialect, which must be set.
func (c *Config) ParseDialect() (model.Dialect, error) {
	if c.Dialect == "" {
		return "", errors.Errorf("a dialect is required (one of %s)", dialectTags())
	}
	return model.ParseDialect(c.Dialect)
}

// splitList accepts both list values and comma separated strings, as
// environment variables arrive.
func splitList(in []string) []string {
	var out []string
	for _, v := range in {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, strings.ToLower(part))
			}
		}
	}
	return out
}

func dialectTags() string {
	tags := make([]string, len(model.SupportedDialects))
	for i, d := range model.SupportedDialects {
		tags[i] = string(d)
	}
	return strings.Join(tags, ", ")
}
