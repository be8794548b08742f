// Package config loads codesearch configuration.
//
// Configuration is read from .codesearch/config.yml (or .yaml) under the
// project root, or from an explicit file, with CODESEARCH_* environment
// overrides. Priority, highest first:
//
//  1. Environment variables (CODESEARCH_INDEXING_WORKERS, ...)
//  2. Config file
//  3. Built-in defaults
package config

import (
	"time"
)

// Config represents the complete codesearch configuration.
type Config struct {
	Parsing  ParsingConfig  `yaml:"parsing" mapstructure:"parsing"`
	Indexing IndexingConfig `yaml:"indexing" mapstructure:"indexing"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Logging  LoggingConfig  `yaml:"logging" mapstructure:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics" mapstructure:"metrics"`
	Tracing  TracingConfig  `yaml:"tracing" mapstructure:"tracing"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
}

// ParsingConfig controls which files are parsed and how.
type ParsingConfig struct {
	Exclusions  []string      `yaml:"exclusions" mapstructure:"exclusions"`       // glob patterns skipped before any I/O
	Aliases     []AliasConfig `yaml:"aliases" mapstructure:"aliases"`             // extra extension/name bindings
	MaxFileSize int64         `yaml:"max_file_size" mapstructure:"max_file_size"` // bytes; larger files are unreadable
}

// AliasConfig binds an extension (".cshtml") or base name ("Jenkinsfile")
// to a registered analyzer.
type AliasConfig struct {
	Key      string `yaml:"key" mapstructure:"key"`
	Analyzer string `yaml:"analyzer" mapstructure:"analyzer"`
}

// IndexingConfig controls batch indexing.
type IndexingConfig struct {
	Workers   int      `yaml:"workers" mapstructure:"workers"`       // 0 means GOMAXPROCS
	IndexPath string   `yaml:"index_path" mapstructure:"index_path"` // relative to the project root
	SkipDirs  []string `yaml:"skip_dirs" mapstructure:"skip_dirs"`   // directory name globs never walked
}

// CacheConfig controls the parse cache. It only pays off when one process
// parses the same unchanged file repeatedly, so it is off by default.
type CacheConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Capacity int           `yaml:"capacity" mapstructure:"capacity"`
	TTL      time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // text or json
}

// MetricsConfig controls Prometheus collectors.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// TracingConfig controls OpenTelemetry spans.
type TracingConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"` // export spans to stderr
}

// ServerConfig controls the file server.
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
	Root string `yaml:"root" mapstructure:"root"` // when set, /file only serves paths under it
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Parsing: ParsingConfig{
			Exclusions: []string{
				"*.dll",
				"*.exe",
				"*.so",
				"*.dylib",
				"*.o",
				"*.a",
				"*.class",
				"*.jar",
				"*.pyc",
				"*.min.js",
				"*.lock",
			},
			MaxFileSize: 1 << 20,
		},
		Indexing: IndexingConfig{
			Workers:   0,
			IndexPath: ".codesearch/index",
			SkipDirs: []string{
				"node_modules",
				"vendor",
				"dist",
				"build",
				"target",
				"__pycache__",
			},
		},
		Cache: CacheConfig{
			Enabled:  false,
			Capacity: 10000,
			TTL:      10 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Tracing: TracingConfig{
			Enabled: false,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
			Root: "",
		},
	}
}
