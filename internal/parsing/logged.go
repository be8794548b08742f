package parsing

import (
	"context"
	"log/slog"

	"github.com/mvp-joe/cortex-codesearch/internal/analysis"
	"github.com/mvp-joe/cortex-codesearch/internal/document"
)

// Logged records one Info entry per TryParse call, after the inner service
// returns: "parse succeeded for <path>" or "parse failed for <path>".
// Exclusion skips are failures and are logged as such. Handler errors are
// dropped by slog and never affect the result.
type Logged struct {
	inner  Service
	logger *slog.Logger
}

// NewLogged wraps inner. A nil logger discards all records.
func NewLogged(inner Service, logger *slog.Logger) *Logged {
	mustInner("logging", inner)
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Logged{inner: inner, logger: logger}
}

// WithLogging returns a Decorator that adds a Logged layer.
func WithLogging(logger *slog.Logger) Decorator {
	return func(inner Service) Service { return NewLogged(inner, logger) }
}

// Exclusions forwards to the inner service.
func (l *Logged) Exclusions() []string { return l.inner.Exclusions() }

// SetExclusions forwards to the inner service.
func (l *Logged) SetExclusions(patterns []string) { l.inner.SetExclusions(patterns) }

// Analyzer forwards to the inner service.
func (l *Logged) Analyzer() analysis.Analyzer { return l.inner.Analyzer() }

// Unwrap returns the inner service.
func (l *Logged) Unwrap() Service { return l.inner }

// TryParse delegates, then logs the outcome.
func (l *Logged) TryParse(ctx context.Context, file File) (*document.Document, bool) {
	doc, ok := l.inner.TryParse(ctx, file)

	path := file.Path()
	msg := "parse failed for " + path
	if ok {
		msg = "parse succeeded for " + path
	}
	l.logger.LogAttrs(ctx, slog.LevelInfo, msg,
		slog.String("path", path),
		slog.Bool("success", ok))

	return doc, ok
}
