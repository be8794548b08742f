package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel/trace"

	"github.com/mvp-joe/cortex-codesearch/internal/analysis"
	"github.com/mvp-joe/cortex-codesearch/internal/config"
	"github.com/mvp-joe/cortex-codesearch/internal/logging"
	"github.com/mvp-joe/cortex-codesearch/internal/parsing"
	"github.com/mvp-joe/cortex-codesearch/internal/storage"
	"github.com/mvp-joe/cortex-codesearch/internal/telemetry"
)

// app holds the collaborators shared by every command.
type app struct {
	rootDir  string
	cfg      *config.Config
	logger   *slog.Logger
	registry *analysis.Registry
	storage  *storage.FS
	metrics  *prometheus.Registry
	tracer   trace.TracerProvider
	shutdown telemetry.Shutdown
	cache    *parsing.DocumentCache
	base     *parsing.BaseService
}

// appOptions are the command-line inputs to newApp.
type appOptions struct {
	rootDir    string
	configFile string
	verbose    bool
	stderr     io.Writer
}

// newApp loads configuration for rootDir and builds the logger, analyzer
// registry, storage, metrics registry, tracer and parse cache.
func newApp(opts appOptions) (*app, error) {
	var loaderOpts []config.LoaderOption
	if opts.configFile != "" {
		loaderOpts = append(loaderOpts, config.WithConfigFile(opts.configFile))
	}
	cfg, err := config.NewLoader(opts.rootDir, loaderOpts...).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.verbose {
		cfg.Logging.Level = "debug"
	}

	logger, err := logging.New(cfg.Logging, opts.stderr)
	if err != nil {
		return nil, err
	}

	registry := analysis.NewDefaultRegistry()
	for _, alias := range cfg.Parsing.Aliases {
		if err := registry.Alias(alias.Key, alias.Analyzer); err != nil {
			return nil, fmt.Errorf("invalid alias %s: %w", alias.Key, err)
		}
	}

	tp, shutdown, err := telemetry.NewTracerProvider(cfg.Tracing.Enabled, opts.stderr)
	if err != nil {
		return nil, err
	}

	a := &app{
		rootDir:  opts.rootDir,
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		storage:  storage.NewFS(cfg.Parsing.MaxFileSize),
		tracer:   tp,
		shutdown: shutdown,
	}

	if cfg.Metrics.Enabled {
		a.metrics = prometheus.NewRegistry()
		a.metrics.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	if cfg.Cache.Enabled {
		a.cache, err = parsing.NewDocumentCache(cfg.Cache.Capacity, cfg.Cache.TTL)
		if err != nil {
			return nil, errors.Join(err, shutdown(context.Background()))
		}
	}

	a.base = parsing.NewService(registry, a.storage,
		parsing.WithExclusions(cfg.Parsing.Exclusions),
		parsing.WithLogger(logger))
	return a, nil
}

// service returns the decorated parsing service:
// Logged(Traced(Metered(Cached(base)))). Cached is only present when
// cache.enabled is set.
func (a *app) service() (parsing.Service, error) {
	var decorators []parsing.Decorator

	if a.cache != nil {
		decorators = append(decorators, parsing.WithCache(a.storage, a.cache))
	}
	if a.metrics != nil {
		m, err := parsing.NewMetrics(a.metrics)
		if err != nil {
			return nil, err
		}
		decorators = append(decorators, parsing.WithMetrics(m))
	}
	decorators = append(decorators,
		parsing.WithTracing(a.tracer),
		parsing.WithLogging(a.logger),
	)
	return parsing.Chain(a.base, decorators...), nil
}

// gatherer returns the metrics registry, or nil when metrics are disabled.
func (a *app) gatherer() prometheus.Gatherer {
	if a.metrics == nil {
		return nil
	}
	return a.metrics
}

// Close flushes spans and stops the cache.
func (a *app) Close() error {
	if a.cache != nil {
		a.cache.Close()
	}
	return a.shutdown(context.Background())
}
