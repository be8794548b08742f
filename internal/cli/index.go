package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/cortex-codesearch/internal/index"
	"github.com/mvp-joe/cortex-codesearch/internal/indexer"
	"github.com/mvp-joe/cortex-codesearch/internal/parsing"
)

var (
	quietFlag   bool
	memoryFlag  bool
	workersFlag int
)

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index [dir]",
	Short: "Parse a directory tree into the search index",
	Long: `Index walks a directory, parses every eligible file into a document and
writes the documents to a bleve index (default .codesearch/index).

Files matching parsing.exclusions, files with no registered analyzer and
unreadable files are counted as skipped; the run always completes.

Examples:
  # Index the current directory
  codesearch index

  # Index another directory with 8 workers, without progress bars
  codesearch index ~/src/project --workers 8 --quiet

  # Parse everything into a throwaway in-memory index
  codesearch index --memory
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Disable progress bars and non-error output")
	indexCmd.Flags().BoolVar(&memoryFlag, "memory", false, "Use an in-memory index (nothing is written to disk)")
	indexCmd.Flags().IntVarP(&workersFlag, "workers", "w", 0, "Concurrent parses (default from config, 0 = GOMAXPROCS)")
}

func runIndex(cmd *cobra.Command, args []string) error {
	// Set up context with cancellation for Ctrl+C
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootDir, err := targetDir(args)
	if err != nil {
		return err
	}

	opts := indexOptions{
		rootDir: rootDir,
		quiet:   quietFlag,
		memory:  memoryFlag,
	}
	if cmd.Flags().Changed("workers") {
		opts.workers = &workersFlag
	}

	_, err = executeIndex(ctx, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	return err
}

type indexOptions struct {
	rootDir string
	quiet   bool
	memory  bool
	workers *int
}

// executeIndex runs one indexing pass and returns its stats.
func executeIndex(ctx context.Context, opts indexOptions, stdout, stderr io.Writer) (stats *indexer.Stats, err error) {
	a, err := newApp(appOptions{
		rootDir:    opts.rootDir,
		configFile: cfgFile,
		verbose:    verbose,
		stderr:     stderr,
	})
	if err != nil {
		return nil, err
	}
	defer joinClose(&err, "runtime", a.Close)

	svc, err := a.service()
	if err != nil {
		return nil, err
	}

	var sink *index.Bleve
	if opts.memory {
		sink, err = index.NewMemOnly()
	} else {
		sink, err = index.Open(a.cfg.IndexPath(opts.rootDir))
	}
	if err != nil {
		return nil, err
	}
	// Close performs the final flush; its error is the run's error.
	defer joinClose(&err, "index", sink.Close)

	discovery, err := indexer.NewFileDiscovery(opts.rootDir, a.cfg.Indexing.SkipDirs)
	if err != nil {
		return nil, err
	}

	workers := a.cfg.Indexing.Workers
	if opts.workers != nil {
		workers = *opts.workers
	}

	runner := indexer.NewRunner(svc, sink,
		indexer.WithWorkers(workers),
		indexer.WithLogger(a.logger),
		indexer.WithProgress(NewCLIProgressReporter(stdout, opts.quiet)))

	stats, err = runner.Run(ctx, discovery)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return stats, fmt.Errorf("indexing cancelled")
		}
		return stats, fmt.Errorf("indexing failed: %w", err)
	}

	if opts.quiet {
		fmt.Fprintf(stdout, "Indexing complete: %d documents in %.2fs\n",
			stats.Indexed, stats.Duration.Seconds())
		return stats, nil
	}
	if g := a.gatherer(); g != nil {
		outcomes, gatherErr := parsing.GatherOutcomes(g)
		if gatherErr != nil {
			return stats, gatherErr
		}
		fmt.Fprintf(stdout, "  Parse attempts: %s succeeded, %s failed\n",
			formatNumber(int(outcomes["success"])), formatNumber(int(outcomes["failure"])))
	}
	return stats, nil
}

// joinClose calls closeFn and joins a failure into *errp. Use it deferred
// with a named error result.
func joinClose(errp *error, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		*errp = errors.Join(*errp, fmt.Errorf("failed to close %s: %w", what, err))
	}
}

// targetDir returns the directory argument or the working directory.
func targetDir(args []string) (string, error) {
	if len(args) > 0 {
		info, err := os.Stat(args[0])
		if err != nil {
			return "", fmt.Errorf("failed to access %s: %w", args[0], err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("%s is not a directory", args[0])
		}
		return args[0], nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return wd, nil
}
