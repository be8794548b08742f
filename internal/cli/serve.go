package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/cortex-codesearch/internal/fileserver"
)

var addrFlag string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve raw file contents over HTTP",
	Long: `Serve starts an HTTP server with:

  GET /file?f=<path>   raw file bytes as text/plain
  GET /metrics         Prometheus metrics (when metrics.enabled)
  GET /healthz         liveness

Requested paths are not validated unless server.root is set, in which case
requests outside it are refused with 403.
`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&addrFlag, "addr", "", "Listen address (default from server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootDir, err := targetDir(nil)
	if err != nil {
		return err
	}
	return executeServe(ctx, rootDir, addrFlag, cmd.ErrOrStderr())
}

func executeServe(ctx context.Context, rootDir, addr string, stderr io.Writer) error {
	a, err := newApp(appOptions{
		rootDir:    rootDir,
		configFile: cfgFile,
		verbose:    verbose,
		stderr:     stderr,
	})
	if err != nil {
		return err
	}
	defer a.Close()

	if addr == "" {
		addr = a.cfg.Server.Addr
	}
	if a.cfg.Server.Root == "" {
		a.logger.Warn("serving files without path validation; set server.root to confine requests")
	}

	handlers := fileserver.NewHandlers(a.storage,
		fileserver.WithRoot(a.cfg.Server.Root),
		fileserver.WithLogger(a.logger))
	router := fileserver.NewRouter(handlers, a.gatherer())

	a.logger.Info("starting file server", slog.String("addr", addr))
	return fileserver.Serve(ctx, addr, router, a.logger)
}
