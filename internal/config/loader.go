package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// DirName is the per-project configuration and data directory.
const DirName = ".codesearch"

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir    string
	configFile string
}

// LoaderOption configures a Loader.
type LoaderOption func(*loader)

// WithConfigFile reads an explicit file instead of searching the root.
// A missing explicit file is an error.
func WithConfigFile(path string) LoaderOption {
	return func(l *loader) { l.configFile = path }
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string, opts ...LoaderOption) Loader {
	l := &loader{rootDir: rootDir}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (CODESEARCH_*)
// 2. Config file (.codesearch/config.yml or .codesearch/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(l.rootDir, DirName))
	}

	// Replace . with _ in env var names (e.g., CODESEARCH_CACHE_TTL)
	v.SetEnvPrefix("CODESEARCH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindEnvVars(v)

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - we'll use defaults + env vars
		var notFound viper.ConfigFileNotFoundError
		if l.configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// bindEnvVars binds scalar keys so AutomaticEnv sees them during Unmarshal.
func bindEnvVars(v *viper.Viper) {
	for _, key := range []string{
		"parsing.exclusions",
		"parsing.max_file_size",
		"indexing.workers",
		"indexing.index_path",
		"indexing.skip_dirs",
		"cache.enabled",
		"cache.capacity",
		"cache.ttl",
		"logging.level",
		"logging.format",
		"metrics.enabled",
		"tracing.enabled",
		"server.addr",
		"server.root",
	} {
		_ = v.BindEnv(key)
	}
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("parsing.exclusions", defaults.Parsing.Exclusions)
	v.SetDefault("parsing.max_file_size", defaults.Parsing.MaxFileSize)

	v.SetDefault("indexing.workers", defaults.Indexing.Workers)
	v.SetDefault("indexing.index_path", defaults.Indexing.IndexPath)
	v.SetDefault("indexing.skip_dirs", defaults.Indexing.SkipDirs)

	v.SetDefault("cache.enabled", defaults.Cache.Enabled)
	v.SetDefault("cache.capacity", defaults.Cache.Capacity)
	v.SetDefault("cache.ttl", defaults.Cache.TTL)

	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.format", defaults.Logging.Format)

	v.SetDefault("metrics.enabled", defaults.Metrics.Enabled)
	v.SetDefault("tracing.enabled", defaults.Tracing.Enabled)

	v.SetDefault("server.addr", defaults.Server.Addr)
	v.SetDefault("server.root", defaults.Server.Root)
}

// LoadConfig is a convenience function that creates a loader and loads config.
// It uses the current working directory as the root.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration from a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}

// IndexPath resolves the configured index path against rootDir.
func (c *Config) IndexPath(rootDir string) string {
	if filepath.IsAbs(c.Indexing.IndexPath) {
		return c.Indexing.IndexPath
	}
	return filepath.Join(rootDir, c.Indexing.IndexPath)
}
