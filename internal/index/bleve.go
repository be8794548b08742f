package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/mvp-joe/cortex-codesearch/internal/document"
)

// DefaultBatchSize is the number of documents buffered before a write.
const DefaultBatchSize = 500

// Bleve is a Sink backed by a bleve index. Documents are buffered and
// written in batches keyed by document ID, so re-indexing a path replaces
// its previous document.
type Bleve struct {
	index     bleve.Index
	batchSize int

	mu    sync.Mutex
	batch *bleve.Batch
}

// NewMemOnly creates an in-memory index.
func NewMemOnly() (*Bleve, error) {
	idx, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create bleve index: %w", err)
	}
	return newBleve(idx), nil
}

// Open opens the index at path, creating it if it does not exist.
func Open(path string) (*Bleve, error) {
	idx, err := bleve.Open(path)
	if err == nil {
		return newBleve(idx), nil
	}
	if !errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		return nil, fmt.Errorf("failed to open index %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}
	idx, err = bleve.New(path, buildMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create index %s: %w", path, err)
	}
	return newBleve(idx), nil
}

func newBleve(idx bleve.Index) *Bleve {
	return &Bleve{
		index:     idx,
		batchSize: DefaultBatchSize,
		batch:     idx.NewBatch(),
	}
}

// SetBatchSize changes how many documents are buffered before a write.
// Values below 1 write every document immediately.
func (b *Bleve) SetBatchSize(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n < 1 {
		n = 1
	}
	b.batchSize = n
}

// buildMapping creates the document mapping for parsed files.
// Standard fields are keywords for exact filtering; content and symbol
// fields are analyzed for search.
func buildMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()

	keyword := func() *mapping.FieldMapping {
		m := bleve.NewTextFieldMapping()
		m.Analyzer = "keyword"
		m.Store = true
		m.Index = true
		return m
	}
	text := func() *mapping.FieldMapping {
		m := bleve.NewTextFieldMapping()
		m.Analyzer = "standard"
		m.Store = true
		m.Index = true
		return m
	}

	// Content carries term vectors for phrase search and highlighting.
	content := text()
	content.IncludeTermVectors = true

	modified := bleve.NewDateTimeFieldMapping()
	modified.Store = true

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt(document.FieldPath, keyword())
	docMapping.AddFieldMappingsAt(document.FieldName, keyword())
	docMapping.AddFieldMappingsAt(document.FieldExtension, keyword())
	docMapping.AddFieldMappingsAt(document.FieldLanguage, keyword())
	docMapping.AddFieldMappingsAt(document.FieldSize, keyword())
	docMapping.AddFieldMappingsAt(document.FieldModified, modified)
	docMapping.AddFieldMappingsAt(document.FieldContent, content)
	docMapping.AddFieldMappingsAt(document.FieldTitle, text())
	docMapping.AddFieldMappingsAt(document.FieldTokens, keyword())
	docMapping.AddFieldMappingsAt(document.FieldSymbols, text())
	docMapping.AddFieldMappingsAt(document.FieldTypes, keyword())
	docMapping.AddFieldMappingsAt(document.FieldFunctions, keyword())
	docMapping.AddFieldMappingsAt(document.FieldPackage, keyword())
	docMapping.AddFieldMappingsAt(document.FieldImportsCount, keyword())
	docMapping.AddFieldMappingsAt(document.FieldLines, keyword())

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// Index buffers doc and writes the batch once it is full.
func (b *Bleve) Index(ctx context.Context, doc *document.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc == nil || doc.ID == "" {
		return errors.New("cannot index a document without an ID")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.batch.Index(doc.ID, doc.Map()); err != nil {
		return fmt.Errorf("failed to add %s to batch: %w", doc.Value(document.FieldPath), err)
	}
	if b.batch.Size() >= b.batchSize {
		return b.flushLocked()
	}
	return nil
}

// Flush writes buffered documents.
func (b *Bleve) Flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flushLocked()
}

func (b *Bleve) flushLocked() error {
	if b.batch.Size() == 0 {
		return nil
	}
	// Reset even on failure; Lost reports what was dropped.
	lost := b.batch.Size()
	err := b.index.Batch(b.batch)
	b.batch.Reset()
	if err != nil {
		return &BatchError{Lost: lost, Err: err}
	}
	return nil
}

// Delete removes the document for path.
func (b *Bleve) Delete(path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.flushLocked(); err != nil {
		return err
	}
	return b.index.Delete(document.IDFor(path))
}

// Count returns the number of written documents.
func (b *Bleve) Count() (uint64, error) {
	return b.index.DocCount()
}

// Close flushes and closes the index.
func (b *Bleve) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	flushErr := b.flushLocked()
	return errors.Join(flushErr, b.index.Close())
}
