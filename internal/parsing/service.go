// Package parsing turns file references into search documents.
//
// Service is the core contract: exclusion check, analyzer selection, content
// read and document assembly, reported as a (document, ok) pair. Expected
// per-file conditions (exclusion, unsupported type, unreadable file, analysis
// failure) never surface as errors from TryParse, so a batch of files always
// runs to completion.
//
// Cross-cutting behavior is added by decorators (Logged, Cached, Metered,
// Traced) that implement Service, hold exactly one inner Service and forward
// configuration to it verbatim. Compose them with Chain:
//
//	svc := parsing.Chain(base,
//	    parsing.WithCache(store, cache),
//	    parsing.WithLogging(logger),
//	)
//	// svc == Logged(Cached(base))
package parsing

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mvp-joe/cortex-codesearch/internal/analysis"
	"github.com/mvp-joe/cortex-codesearch/internal/document"
	"github.com/mvp-joe/cortex-codesearch/internal/storage"
)

// Service converts one file into one document.
//
// Implementations must be safe for concurrent use.
type Service interface {
	// Exclusions returns a copy of the active exclusion patterns.
	Exclusions() []string

	// SetExclusions replaces the active exclusion patterns as a whole.
	// Any strings are accepted; an empty set excludes nothing.
	SetExclusions(patterns []string)

	// Analyzer returns the active analyzer.
	Analyzer() analysis.Analyzer

	// TryParse returns the document for file and true, or nil and false if
	// the file is excluded, unsupported, unreadable or rejected by its
	// analyzer. It panics with ErrContractViolation for an absent file.
	TryParse(ctx context.Context, file File) (*document.Document, bool)
}

// BaseService is the undecorated Service.
type BaseService struct {
	analyzer   analysis.Analyzer
	storage    storage.Storage
	exclusions atomic.Pointer[exclusionSet]
	logger     *slog.Logger
}

// Option configures a BaseService.
type Option func(*BaseService)

// WithExclusions sets the initial exclusion patterns.
func WithExclusions(patterns []string) Option {
	return func(s *BaseService) {
		s.exclusions.Store(compileExclusions(patterns))
	}
}

// WithLogger sets the logger used for debug-level outcome reasons.
func WithLogger(logger *slog.Logger) Option {
	return func(s *BaseService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a base service. If analyzer implements
// analysis.Resolver the analyzer is resolved per file; otherwise it is used
// for every file.
func NewService(analyzer analysis.Analyzer, store storage.Storage, opts ...Option) *BaseService {
	if analyzer == nil {
		panic(fmt.Errorf("%w: nil analyzer", ErrContractViolation))
	}
	if store == nil {
		panic(fmt.Errorf("%w: nil storage", ErrContractViolation))
	}

	s := &BaseService{
		analyzer: analyzer,
		storage:  store,
		logger:   slog.New(slog.DiscardHandler),
	}
	s.exclusions.Store(emptyExclusions)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Exclusions returns a copy of the active patterns.
func (s *BaseService) Exclusions() []string {
	return s.exclusions.Load().Patterns()
}

// SetExclusions compiles and atomically swaps in a new pattern set.
// In-flight parses keep the snapshot they started with.
func (s *BaseService) SetExclusions(patterns []string) {
	s.exclusions.Store(compileExclusions(patterns))
}

// Analyzer returns the configured analyzer.
func (s *BaseService) Analyzer() analysis.Analyzer {
	return s.analyzer
}

// TryParse implements Service.
func (s *BaseService) TryParse(ctx context.Context, file File) (*document.Document, bool) {
	mustBeValid("TryParse", file)

	doc, err := s.parse(ctx, file)
	if err != nil {
		s.logger.LogAttrs(ctx, slog.LevelDebug, "parse skipped",
			slog.String("path", file.Path()),
			slog.String("reason", Reason(err)),
			slog.String("error", err.Error()))
		return nil, false
	}
	return doc, true
}

// Explain runs the same steps as TryParse and returns the classified
// outcome: nil on success, otherwise an error wrapping one of ErrExcluded,
// ErrUnsupportedType, ErrUnreadable or ErrAnalysisFailed.
func (s *BaseService) Explain(ctx context.Context, file File) error {
	mustBeValid("Explain", file)
	_, err := s.parse(ctx, file)
	return err
}

func (s *BaseService) parse(ctx context.Context, file File) (*document.Document, error) {
	path := file.Path()

	if pattern, ok := s.exclusions.Load().Match(path); ok {
		return nil, fmt.Errorf("%w: %s matches %q", ErrExcluded, path, pattern)
	}

	analyzer, ok := s.resolve(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, path)
	}

	info, err := s.storage.Stat(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	content, err := s.storage.Read(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}

	fields, err := analyzer.Analyze(ctx, path, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrAnalysisFailed, analyzer.Name(), err)
	}

	doc := document.New(path)
	doc.Add(document.FieldPath, path)
	doc.Add(document.FieldName, filepath.Base(path))
	doc.Add(document.FieldExtension, strings.ToLower(filepath.Ext(path)))
	doc.Add(document.FieldLanguage, analyzer.Name())
	doc.Add(document.FieldSize, strconv.Itoa(len(content)))
	doc.Add(document.FieldModified, info.ModTime.UTC().Format(time.RFC3339))
	doc.AddFields(fields...)
	return doc, nil
}

// resolve picks the analyzer for path.
func (s *BaseService) resolve(path string) (analysis.Analyzer, bool) {
	if r, ok := s.analyzer.(analysis.Resolver); ok {
		return r.Resolve(path)
	}
	return s.analyzer, true
}
