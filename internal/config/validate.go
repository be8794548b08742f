package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidMaxFileSize indicates a non-positive file size ceiling
	ErrInvalidMaxFileSize = errors.New("invalid max file size")

	// ErrInvalidAlias indicates an alias without a key or analyzer
	ErrInvalidAlias = errors.New("invalid analyzer alias")

	// ErrInvalidWorkers indicates a negative worker count
	ErrInvalidWorkers = errors.New("invalid worker count")

	// ErrEmptyIndexPath indicates a missing index path
	ErrEmptyIndexPath = errors.New("empty index path")

	// ErrInvalidCacheSettings indicates invalid cache configuration
	ErrInvalidCacheSettings = errors.New("invalid cache settings")

	// ErrInvalidLogLevel indicates an unknown log level
	ErrInvalidLogLevel = errors.New("invalid log level")

	// ErrInvalidLogFormat indicates an unknown log format
	ErrInvalidLogFormat = errors.New("invalid log format")

	// ErrEmptyServerAddr indicates a missing listen address
	ErrEmptyServerAddr = errors.New("empty server address")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateParsing(&cfg.Parsing)...)
	errs = append(errs, validateIndexing(&cfg.Indexing)...)
	errs = append(errs, validateCache(&cfg.Cache)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		errs = append(errs, fmt.Errorf("%w: server.addr is required", ErrEmptyServerAddr))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %w", errors.Join(errs...))
	}
	return nil
}

func validateParsing(cfg *ParsingConfig) []error {
	var errs []error

	// Exclusions are lenient: any string is a pattern.
	if cfg.MaxFileSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: max_file_size must be positive, got %d", ErrInvalidMaxFileSize, cfg.MaxFileSize))
	}
	for i, a := range cfg.Aliases {
		if strings.TrimSpace(a.Key) == "" || strings.TrimSpace(a.Analyzer) == "" {
			errs = append(errs, fmt.Errorf("%w: aliases[%d] needs both key and analyzer", ErrInvalidAlias, i))
		}
	}
	return errs
}

func validateIndexing(cfg *IndexingConfig) []error {
	var errs []error

	if cfg.Workers < 0 {
		errs = append(errs, fmt.Errorf("%w: workers cannot be negative, got %d", ErrInvalidWorkers, cfg.Workers))
	}
	if strings.TrimSpace(cfg.IndexPath) == "" {
		errs = append(errs, fmt.Errorf("%w: index_path is required", ErrEmptyIndexPath))
	}
	return errs
}

func validateCache(cfg *CacheConfig) []error {
	var errs []error

	// Only an enabled cache needs a usable size.
	if cfg.Enabled && cfg.Capacity <= 0 {
		errs = append(errs, fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidCacheSettings, cfg.Capacity))
	}
	if cfg.TTL < 0 {
		errs = append(errs, fmt.Errorf("%w: ttl cannot be negative, got %s", ErrInvalidCacheSettings, cfg.TTL))
	}
	return errs
}

func validateLogging(cfg *LoggingConfig) []error {
	var errs []error

	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("%w: must be debug, info, warn or error, got '%s'", ErrInvalidLogLevel, cfg.Level))
	}
	switch strings.ToLower(cfg.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("%w: must be 'text' or 'json', got '%s'", ErrInvalidLogFormat, cfg.Format))
	}
	return errs
}
