// Package indexer runs the parsing service over a directory tree and feeds
// the resulting documents to an index sink.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mvp-joe/cortex-codesearch/internal/index"
	"github.com/mvp-joe/cortex-codesearch/internal/parsing"
)

// Stats summarizes one run.
type Stats struct {
	Discovered int
	Parsed     int
	Failed     int
	Indexed    int
	SinkErrors int
	Duration   time.Duration
}

// Runner parses files with a bounded worker pool. Per-file parse failures
// and sink errors are counted, never fatal; only cancellation and discovery
// or flush errors abort a run. Documents dropped by a failed batch write
// move from Indexed to SinkErrors.
type Runner struct {
	service  parsing.Service
	sink     index.Sink
	workers  int
	logger   *slog.Logger
	progress ProgressReporter
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithWorkers sets the number of concurrent parses. Values below 1 mean
// GOMAXPROCS.
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) { r.workers = n }
}

// WithLogger sets the run logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithProgress sets the progress reporter.
func WithProgress(p ProgressReporter) RunnerOption {
	return func(r *Runner) {
		if p != nil {
			r.progress = p
		}
	}
}

// NewRunner creates a runner that parses with svc and indexes into sink.
func NewRunner(svc parsing.Service, sink index.Sink, opts ...RunnerOption) *Runner {
	r := &Runner{
		service:  svc,
		sink:     sink,
		logger:   slog.New(slog.DiscardHandler),
		progress: &NoOpProgressReporter{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.workers < 1 {
		r.workers = runtime.GOMAXPROCS(0)
	}
	return r
}

// Run discovers files under discovery's root and processes them.
func (r *Runner) Run(ctx context.Context, discovery *FileDiscovery) (*Stats, error) {
	r.progress.OnDiscoveryStart()
	paths, err := discovery.DiscoverFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}
	r.progress.OnDiscoveryComplete(len(paths))
	r.logger.Info("discovered files",
		slog.String("root", discovery.Root()),
		slog.Int("files", len(paths)))

	return r.RunFiles(ctx, paths)
}

// RunFiles processes the given paths. Submission stops when ctx is
// cancelled; files already in flight finish.
func (r *Runner) RunFiles(ctx context.Context, paths []string) (*Stats, error) {
	start := time.Now()
	r.progress.OnFileProcessingStart(len(paths))

	var parsed, failed, indexed, sinkErrors atomic.Int64

	g := new(errgroup.Group)
	g.SetLimit(r.workers)

	var cancelled error
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		g.Go(func() error {
			ok, indexErr := r.process(ctx, path)
			switch {
			case !ok:
				failed.Add(1)
			case indexErr != nil:
				parsed.Add(1)
				lost := int64(1)
				var batchErr *index.BatchError
				if errors.As(indexErr, &batchErr) && batchErr.Lost > 0 {
					// Earlier documents in the batch were counted as indexed.
					lost = int64(batchErr.Lost)
					indexed.Add(1 - lost)
				}
				sinkErrors.Add(lost)
				r.logger.Warn("failed to index document",
					slog.String("path", path),
					slog.Int64("lost", lost),
					slog.String("error", indexErr.Error()))
			default:
				parsed.Add(1)
				indexed.Add(1)
			}
			r.progress.OnFileProcessed(path, ok)
			return nil
		})
	}
	// Workers never return errors; Wait only joins them.
	_ = g.Wait()

	stats := &Stats{
		Discovered: len(paths),
		Parsed:     int(parsed.Load()),
		Failed:     int(failed.Load()),
		Indexed:    int(indexed.Load()),
		SinkErrors: int(sinkErrors.Load()),
	}

	if cancelled != nil {
		stats.Duration = time.Since(start)
		return stats, cancelled
	}
	if err := r.sink.Flush(ctx); err != nil {
		var batchErr *index.BatchError
		if errors.As(err, &batchErr) {
			stats.Indexed -= batchErr.Lost
			stats.SinkErrors += batchErr.Lost
		}
		stats.Duration = time.Since(start)
		return stats, fmt.Errorf("failed to flush index: %w", err)
	}

	stats.Duration = time.Since(start)
	r.logger.Info("indexing complete",
		slog.Int("parsed", stats.Parsed),
		slog.Int("failed", stats.Failed),
		slog.Int("indexed", stats.Indexed),
		slog.Duration("duration", stats.Duration))
	r.progress.OnComplete(stats)
	return stats, nil
}

// process parses one path and indexes a successful result.
func (r *Runner) process(ctx context.Context, path string) (bool, error) {
	file, err := parsing.NewFile(path)
	if err != nil {
		return false, nil
	}
	doc, ok := r.service.TryParse(ctx, file)
	if !ok {
		return false, nil
	}
	return true, r.sink.Index(ctx, doc)
}
