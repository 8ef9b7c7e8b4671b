package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
	"github.com/tinyalpaca/alpacagen/internal/model"
	"github.com/tinyalpaca/alpacagen/internal/specsource"
)

const defaultConfigFile = "alpacagen.yaml"

// Default operation dumped by the diagnostic run.
const (
	DefaultOperationPath   = "/{device_type}/{device_number}/action"
	DefaultOperationMethod = "put"
)

type Config struct {
	SpecURL   string          `koanf:"spec-url"`
	CacheFile string          `koanf:"cache-file"`
	LogLevel  string          `koanf:"log-level"`
	Templates TemplateConfig  `koanf:"templates"`
	Operation OperationConfig `koanf:"operation"`
}

type TemplateConfig struct {
	Dir string `koanf:"dir"`
}

// OperationConfig selects the operation printed by the diagnostic run.
type OperationConfig struct {
	Path   string `koanf:"path"`
	Method string `koanf:"method"`
}

// BindCommonFlags binds the flags every command understands.
func BindCommonFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	flags.StringP("config", "c", "", "Config file path (default: alpacagen.yaml)")
	flags.String("spec-url", "", "URL of the Alpaca device API spec")
	flags.String("cache-file", "", "Local cache of the spec (default: ~/AlpacaDeviceAPI_v1.yaml)")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("templates", "", "Custom report templates directory")
}

func defaults() map[string]any {
	return map[string]any{
		"spec-url":         specsource.DefaultURL,
		"cache-file":       specsource.DefaultCacheFile(),
		"log-level":        "info",
		"operation.path":   DefaultOperationPath,
		"operation.method": DefaultOperationMethod,
	}
}

func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	configFile, _ := cmd.Flags().GetString("config")
	if configFile == "" {
		configFile, _ = cmd.PersistentFlags().GetString("config")
	}
	if configFile == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			configFile = defaultConfigFile
		}
	}

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	flagsMap := buildFlagsMap(cmd)
	if len(flagsMap) > 0 {
		if err := k.Load(confmap.Provider(flagsMap, "."), nil); err != nil {
			return nil, fmt.Errorf("loading flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func buildFlagsMap(cmd *cobra.Command) map[string]any {
	m := make(map[string]any)

	getString := func(name string) string {
		if v, err := cmd.Flags().GetString(name); err == nil && v != "" {
			return v
		}
		if v, err := cmd.PersistentFlags().GetString(name); err == nil && v != "" {
			return v
		}
		return ""
	}

	if v := getString("spec-url"); v != "" {
		m["spec-url"] = v
	}
	if v := getString("cache-file"); v != "" {
		m["cache-file"] = v
	}
	if v := getString("log-level"); v != "" {
		m["log-level"] = v
	}
	if v := getString("templates"); v != "" {
		m["templates.dir"] = v
	}

	// Operation selection (diagnostic run only)
	if v := getString("operation-path"); v != "" {
		m["operation.path"] = v
	}
	if v := getString("operation-method"); v != "" {
		m["operation.method"] = v
	}

	return m
}

func (c *Config) Validate() error {
	if c.SpecURL == "" {
		return fmt.Errorf("spec URL is required")
	}
	u, err := url.Parse(c.SpecURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid spec URL: %s (must be an http or https URL)", c.SpecURL)
	}

	if c.CacheFile == "" {
		return fmt.Errorf("cache file is required")
	}

	if _, err := c.SlogLevel(); err != nil {
		return err
	}

	if c.Operation.Path == "" {
		return fmt.Errorf("operation path is required")
	}
	if _, ok := model.ParseMethod(c.Operation.Method); !ok {
		return fmt.Errorf("invalid operation method: %s (valid: get, put, post, delete, patch, head, options, trace)", c.Operation.Method)
	}

	return nil
}

// SlogLevel maps LogLevel to a slog.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.LogLevel)
}

// Method returns the configured operation method.
func (c *Config) Method() model.Method {
	m, _ := model.ParseMethod(c.Operation.Method)
	return m
}
