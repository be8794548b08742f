// Package analysis converts raw file content into indexable document fields.
//
// An Analyzer is a stateless capability: given a path and its content it
// returns fields. Analyzers are selected per file by a Resolver, usually the
// Registry, which maps file extensions (and a few well-known base names) to
// analyzers. The Registry is itself an Analyzer so a parsing service can hold a
// single analyzer reference and still route per file.
package analysis

import (
	"context"
	"errors"

	"github.com/mvp-joe/cortex-codesearch/internal/document"
)

var (
	// ErrNoAnalyzer indicates no analyzer is registered for a file's type.
	ErrNoAnalyzer = errors.New("no analyzer registered")

	// ErrBinaryContent indicates content that looks binary rather than text.
	ErrBinaryContent = errors.New("binary content")

	// ErrSyntax indicates the analyzer could not parse the content.
	ErrSyntax = errors.New("syntax error")
)

// Analyzer produces index fields from file content.
type Analyzer interface {
	// Name identifies the analyzer; for language analyzers it is the language tag.
	Name() string

	// Analyze converts content into fields. The path is informational (error
	// messages, language detection); implementations must not read it.
	Analyze(ctx context.Context, path string, content []byte) ([]document.Field, error)
}

// Resolver selects the analyzer for a file.
type Resolver interface {
	// Resolve returns the analyzer for path, or false if none applies.
	Resolve(path string) (Analyzer, bool)
}

// Func adapts a function to the Analyzer interface.
type Func struct {
	ID string
	Fn func(ctx context.Context, path string, content []byte) ([]document.Field, error)
}

// Name returns the configured ID.
func (f Func) Name() string { return f.ID }

// Analyze calls Fn.
func (f Func) Analyze(ctx context.Context, path string, content []byte) ([]document.Field, error) {
	return f.Fn(ctx, path, content)
}
