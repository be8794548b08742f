// Package fileserver serves raw file bytes over HTTP.
//
// GET /file?f=<path> returns the file as text/plain with no parsing or
// indexing. Paths are not validated unless a root is configured, in which
// case requests outside it are refused.
package fileserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mvp-joe/cortex-codesearch/internal/storage"
)

// ContentType is the response type for served files.
const ContentType = "text/plain; charset=utf-8"

// Handlers serves files from storage.
type Handlers struct {
	storage storage.Storage
	root    string
	logger  *slog.Logger
}

// Option configures Handlers.
type Option func(*Handlers)

// WithRoot confines served files to root. An empty root disables the check.
func WithRoot(root string) Option {
	return func(h *Handlers) {
		if root == "" {
			h.root = ""
			return
		}
		if abs, err := filepath.Abs(root); err == nil {
			h.root = abs
		} else {
			h.root = filepath.Clean(root)
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handlers) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHandlers creates file handlers backed by store.
func NewHandlers(store storage.Storage, opts ...Option) *Handlers {
	h := &Handlers{
		storage: store,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes adds /file and /healthz to r.
func RegisterRoutes(r gin.IRouter, h *Handlers) {
	r.GET("/file", h.HandleFile)
	r.GET("/healthz", h.HandleHealth)
}

// NewRouter builds the server engine. A non-nil gatherer is exposed at
// /metrics.
func NewRouter(h *Handlers, gatherer prometheus.Gatherer) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	RegisterRoutes(router, h)
	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
	return router
}

// HandleFile writes the bytes of the file named by the f query parameter.
func (h *Handlers) HandleFile(c *gin.Context) {
	name := c.Query("f")
	if name == "" {
		c.String(http.StatusBadRequest, "missing query parameter f")
		return
	}

	path, err := filepath.Abs(name)
	if err != nil {
		c.String(http.StatusBadRequest, "invalid path")
		return
	}
	if !h.allowed(path) {
		h.logger.Warn("file request outside root",
			slog.String("path", path),
			slog.String("root", h.root))
		c.String(http.StatusForbidden, "path outside served root")
		return
	}

	data, err := h.storage.Read(c.Request.Context(), path)
	if err != nil {
		h.logger.Debug("file request failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		if errors.Is(err, storage.ErrTooLarge) {
			c.String(http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		c.String(http.StatusNotFound, "file not found")
		return
	}

	c.Data(http.StatusOK, ContentType, data)
}

// HandleHealth reports liveness.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handlers) allowed(path string) bool {
	if h.root == "" {
		return true
	}
	rel, err := filepath.Rel(h.root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Serve runs handler on addr until ctx is cancelled, then shuts down
// gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("file server listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("file server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down file server: %w", err)
	}
	logger.Info("file server stopped")
	return nil
}
