package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"github.com/tinyalpaca/alpacagen/internal/model"
	"github.com/tinyalpaca/alpacagen/internal/specsource"
)

func validConfig() Config {
	return Config{
		SpecURL:   specsource.DefaultURL,
		CacheFile: "/tmp/AlpacaDeviceAPI_v1.yaml",
		LogLevel:  "info",
		Operation: OperationConfig{Path: DefaultOperationPath, Method: "put"},
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(c *Config)
		wantErr     bool
		errContains string
	}{
		{
			name:   "valid config",
			modify: func(c *Config) {},
		},
		{
			name:        "missing spec url",
			modify:      func(c *Config) { c.SpecURL = "" },
			wantErr:     true,
			errContains: "spec URL is required",
		},
		{
			name:        "spec url without scheme",
			modify:      func(c *Config) { c.SpecURL = "www.ascom-standards.org/api/AlpacaDeviceAPI_v1.yaml" },
			wantErr:     true,
			errContains: "invalid spec URL",
		},
		{
			name:        "ftp spec url",
			modify:      func(c *Config) { c.SpecURL = "ftp://example.com/spec.yaml" },
			wantErr:     true,
			errContains: "invalid spec URL",
		},
		{
			name:   "http spec url",
			modify: func(c *Config) { c.SpecURL = "http://localhost:8080/spec.yaml" },
		},
		{
			name:        "missing cache file",
			modify:      func(c *Config) { c.CacheFile = "" },
			wantErr:     true,
			errContains: "cache file is required",
		},
		{
			name:        "invalid log level",
			modify:      func(c *Config) { c.LogLevel = "verbose" },
			wantErr:     true,
			errContains: "invalid log level",
		},
		{
			name:   "empty log level is valid",
			modify: func(c *Config) { c.LogLevel = "" },
		},
		{
			name:        "missing operation path",
			modify:      func(c *Config) { c.Operation.Path = "" },
			wantErr:     true,
			errContains: "operation path is required",
		},
		{
			name:        "invalid operation method",
			modify:      func(c *Config) { c.Operation.Method = "fetch" },
			wantErr:     true,
			errContains: "invalid operation method",
		},
		{
			name:   "upper case method",
			modify: func(c *Config) { c.Operation.Method = "GET" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				if tt.errContains != "" {
					require.Contains(t, err.Error(), tt.errContains)
				}
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", "/home/observer")

	cmd := &cobra.Command{}
	BindCommonFlags(cmd)

	cfg, err := Load(cmd)
	require.NoError(t, err)

	require.Equal(t, specsource.DefaultURL, cfg.SpecURL)
	require.Equal(t, "/home/observer/AlpacaDeviceAPI_v1.yaml", cfg.CacheFile)
	require.Equal(t, DefaultOperationPath, cfg.Operation.Path)
	require.Equal(t, model.MethodPut, cfg.Method())

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	require.Equal(t, slog.LevelInfo, level)
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()

	configContent := `
spec-url: http://localhost:11111/api/AlpacaDeviceAPI_v1.yaml
cache-file: /var/cache/alpaca.yaml
log-level: debug
operation:
  path: /camera/{device_number}/gain
  method: get
`
	configPath := filepath.Join(tmpDir, "alpacagen.yaml")
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	// Change to temp dir so alpacagen.yaml is found
	t.Chdir(tmpDir)

	cmd := &cobra.Command{}
	BindCommonFlags(cmd)
	bindOperationFlags(cmd)

	cfg, err := Load(cmd)
	require.NoError(t, err)

	require.Equal(t, "http://localhost:11111/api/AlpacaDeviceAPI_v1.yaml", cfg.SpecURL)
	require.Equal(t, "/var/cache/alpaca.yaml", cfg.CacheFile)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "/camera/{device_number}/gain", cfg.Operation.Path)
	require.Equal(t, model.MethodGet, cfg.Method())
}

func TestLoadFlagsOverrideFile(t *testing.T) {
	tmpDir := t.TempDir()

	configContent := `
cache-file: /var/cache/alpaca.yaml
operation:
  method: get
`
	configPath := filepath.Join(tmpDir, "alpacagen.yaml")
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	t.Chdir(tmpDir)

	cmd := &cobra.Command{}
	BindCommonFlags(cmd)
	bindOperationFlags(cmd)

	// Set flags that should override file config
	require.NoError(t, cmd.PersistentFlags().Set("cache-file", "/tmp/override.yaml"))
	require.NoError(t, cmd.Flags().Set("operation-method", "post"))

	cfg, err := Load(cmd)
	require.NoError(t, err)

	require.Equal(t, "/tmp/override.yaml", cfg.CacheFile)
	require.Equal(t, model.MethodPost, cfg.Method())
	require.Equal(t, DefaultOperationPath, cfg.Operation.Path)
}

func TestLoadWithExplicitConfigPath(t *testing.T) {
	tmpDir := t.TempDir()

	configContent := `
spec-url: https://example.org/custom.yaml
templates:
  dir: ./my-templates
`
	configPath := filepath.Join(tmpDir, "custom-config.yaml")
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cmd := &cobra.Command{}
	BindCommonFlags(cmd)
	require.NoError(t, cmd.PersistentFlags().Set("config", configPath))

	cfg, err := Load(cmd)
	require.NoError(t, err)

	require.Equal(t, "https://example.org/custom.yaml", cfg.SpecURL)
	require.Equal(t, "./my-templates", cfg.Templates.Dir)
}

func TestLoadInvalidFile(t *testing.T) {
	cmd := &cobra.Command{}
	BindCommonFlags(cmd)
	require.NoError(t, cmd.PersistentFlags().Set("config", filepath.Join(t.TempDir(), "missing.yaml")))

	_, err := Load(cmd)
	require.Error(t, err)
	require.Contains(t, err.Error(), "reading config file")
}

func TestBuildFlagsMap(t *testing.T) {
	cmd := &cobra.Command{}
	BindCommonFlags(cmd)
	bindOperationFlags(cmd)

	require.NoError(t, cmd.PersistentFlags().Set("spec-url", "http://localhost/spec.yaml"))
	require.NoError(t, cmd.PersistentFlags().Set("templates", "./tmpl"))
	require.NoError(t, cmd.Flags().Set("operation-path", "/dome/{device_number}/slewing"))

	m := buildFlagsMap(cmd)

	require.Equal(t, "http://localhost/spec.yaml", m["spec-url"])
	require.Equal(t, "./tmpl", m["templates.dir"])
	require.Equal(t, "/dome/{device_number}/slewing", m["operation.path"])
	require.NotContains(t, m, "cache-file")
}

// Helper to bind the diagnostic run's operation flags for testing
func bindOperationFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("operation-path", "", "Path of the operation to dump")
	flags.String("operation-method", "", "Method of the operation to dump")
}
