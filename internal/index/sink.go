// Package index stores parsed documents in a full-text index.
package index

import (
	"context"
	"fmt"

	"github.com/mvp-joe/cortex-codesearch/internal/document"
)

// Sink accepts one document per successful parse.
type Sink interface {
	// Index adds or replaces doc. Implementations may buffer; Flush makes
	// buffered documents visible. A *BatchError from Index or Flush means
	// previously accepted documents were dropped as well.
	Index(ctx context.Context, doc *document.Document) error

	// Flush writes any buffered documents.
	Flush(ctx context.Context) error

	// Close flushes and releases resources.
	Close() error
}

// BatchError reports buffered documents dropped by a failed write. Lost
// includes the document whose Index call triggered the write, if any.
type BatchError struct {
	Lost int
	Err  error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("failed to write batch of %d documents: %v", e.Lost, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }
