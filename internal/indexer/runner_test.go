package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/cortex-codesearch/internal/analysis"
	"github.com/mvp-joe/cortex-codesearch/internal/document"
	"github.com/mvp-joe/cortex-codesearch/internal/index"
	"github.com/mvp-joe/cortex-codesearch/internal/parsing"
	"github.com/mvp-joe/cortex-codesearch/internal/storage"
)

// Test Plan for the runner:
// - Discovery lists regular files, sorted, and prunes skip directories
// - A mixed tree yields per-file successes and failures without aborting
// - Sink errors are counted and do not stop the run
// - Documents dropped by a failed batch are not counted as indexed
// - Cancellation before submission stops the run and reports ctx.Err
// - Progress callbacks fire once per file
// - Documents land in a real bleve index

type recordingSink struct {
	mu       sync.Mutex
	docs     []*document.Document
	failPath string
	flushes  int
}

func (s *recordingSink) Index(_ context.Context, doc *document.Document) error {
	if s.failPath != "" && doc.Value(document.FieldName) == s.failPath {
		return errors.New("sink rejected document")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, doc)
	return nil
}

func (s *recordingSink) Flush(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushes++
	return nil
}

func (s *recordingSink) Close() error { return nil }

func (s *recordingSink) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for _, d := range s.docs {
		names = append(names, d.Value(document.FieldName))
	}
	sort.Strings(names)
	return names
}

type countingProgress struct {
	NoOpProgressReporter
	mu        sync.Mutex
	processed int
	succeeded int
	completed *Stats
}

func (p *countingProgress) OnFileProcessed(_ string, parsed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.processed++
	if parsed {
		p.succeeded++
	}
}

func (p *countingProgress) OnComplete(stats *Stats) { p.completed = stats }

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func mixedTree(t *testing.T) string {
	return writeTree(t, map[string]string{
		"main.go":             "package main\n\nfunc main() {}\n",
		"README.md":           "# Demo\n",
		"src/Program.cs":      "namespace Demo { class Program { static void Main() {} } }",
		"src/util.py":         "def helper():\n    return 1\n",
		"bin/Helper.dll":      "MZ\x00\x00",
		"assets/logo.png":     "\x89PNG",
		"broken.go":           "package broken\nfunc {",
		".git/config":         "[core]",
		"node_modules/x/a.js": "module.exports = 1",
	})
}

func newTestService() parsing.Service {
	return parsing.NewService(analysis.NewDefaultRegistry(), storage.NewFS(0),
		parsing.WithExclusions([]string{"*.dll"}))
}

func TestFileDiscovery(t *testing.T) {
	t.Parallel()

	root := mixedTree(t)
	fd, err := NewFileDiscovery(root, []string{"node_*"})
	require.NoError(t, err)

	files, err := fd.DiscoverFiles(context.Background())
	require.NoError(t, err)

	var rel []string
	for _, f := range files {
		r, err := filepath.Rel(root, f)
		require.NoError(t, err)
		rel = append(rel, filepath.ToSlash(r))
	}
	assert.Equal(t, []string{
		"README.md",
		"assets/logo.png",
		"bin/Helper.dll",
		"broken.go",
		"main.go",
		"src/Program.cs",
		"src/util.py",
	}, rel)
}

func TestFileDiscovery_MissingRoot(t *testing.T) {
	t.Parallel()

	fd, err := NewFileDiscovery(filepath.Join(t.TempDir(), "missing"), nil)
	require.NoError(t, err)
	_, err = fd.DiscoverFiles(context.Background())
	assert.Error(t, err)
}

func TestRunner_MixedTree(t *testing.T) {
	t.Parallel()

	root := mixedTree(t)
	fd, err := NewFileDiscovery(root, []string{"node_modules"})
	require.NoError(t, err)

	sink := &recordingSink{}
	progress := &countingProgress{}
	r := NewRunner(newTestService(), sink, WithWorkers(3), WithProgress(progress))

	stats, err := r.Run(context.Background(), fd)
	require.NoError(t, err)

	assert.Equal(t, 7, stats.Discovered)
	// Helper.dll excluded, logo.png unsupported, broken.go syntax error.
	assert.Equal(t, 4, stats.Parsed)
	assert.Equal(t, 3, stats.Failed)
	assert.Equal(t, 4, stats.Indexed)
	assert.Zero(t, stats.SinkErrors)
	assert.Equal(t, []string{"Program.cs", "README.md", "main.go", "util.py"}, sink.names())
	assert.Equal(t, 1, sink.flushes)

	assert.Equal(t, 7, progress.processed)
	assert.Equal(t, 4, progress.succeeded)
	assert.Same(t, stats, progress.completed)
}

func TestRunner_SinkErrorsAreCounted(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"a.go": "package a\n",
		"b.go": "package b\n",
	})
	sink := &recordingSink{failPath: "a.go"}
	r := NewRunner(newTestService(), sink)

	fd, err := NewFileDiscovery(root, nil)
	require.NoError(t, err)
	stats, err := r.Run(context.Background(), fd)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Parsed)
	assert.Equal(t, 1, stats.Indexed)
	assert.Equal(t, 1, stats.SinkErrors)
}

func TestRunner_Cancelled(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{"a.go": "package a\n"})
	sink := &recordingSink{}
	r := NewRunner(newTestService(), sink)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats, err := r.RunFiles(ctx, []string{filepath.Join(root, "a.go")})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, stats)
	assert.Zero(t, stats.Parsed)
	assert.Empty(t, sink.names())
}

func TestRunner_BleveSink(t *testing.T) {
	t.Parallel()

	root := mixedTree(t)
	sink, err := index.NewMemOnly()
	require.NoError(t, err)
	defer sink.Close()

	fd, err := NewFileDiscovery(root, []string{"node_modules"})
	require.NoError(t, err)
	stats, err := NewRunner(newTestService(), sink).Run(context.Background(), fd)
	require.NoError(t, err)

	count, err := sink.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(stats.Indexed), count)
}

// batchingSink buffers documents and fails every write of a full batch.
type batchingSink struct {
	mu       sync.Mutex
	size     int
	buffered int
}

func (s *batchingSink) Index(context.Context, *document.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffered++
	if s.buffered < s.size {
		return nil
	}
	return s.dropLocked()
}

func (s *batchingSink) Flush(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buffered == 0 {
		return nil
	}
	return s.dropLocked()
}

func (s *batchingSink) dropLocked() error {
	lost := s.buffered
	s.buffered = 0
	return &index.BatchError{Lost: lost, Err: errors.New("disk full")}
}

func (s *batchingSink) Close() error { return nil }

func TestRunner_FailedBatchesAreNotIndexed(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"a.go": "package a\n",
		"b.go": "package b\n",
		"c.go": "package c\n",
	})
	fd, err := NewFileDiscovery(root, nil)
	require.NoError(t, err)

	r := NewRunner(newTestService(), &batchingSink{size: 2}, WithWorkers(1))
	stats, err := r.Run(context.Background(), fd)

	// a and b are lost in the first batch, c in the final flush.
	require.Error(t, err)
	var batchErr *index.BatchError
	assert.ErrorAs(t, err, &batchErr)
	assert.Equal(t, 3, stats.Parsed)
	assert.Zero(t, stats.Indexed)
	assert.Equal(t, 3, stats.SinkErrors)
}
