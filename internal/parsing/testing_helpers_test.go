package parsing

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mvp-joe/cortex-codesearch/internal/analysis"
	"github.com/mvp-joe/cortex-codesearch/internal/document"
	"github.com/mvp-joe/cortex-codesearch/internal/storage"
)

var testModTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// memStorage is an in-memory storage.Storage that counts calls.
type memStorage struct {
	mu      sync.RWMutex
	files   map[string][]byte
	modTime map[string]time.Time
	stats   atomic.Int64
	reads   atomic.Int64
}

func newMemStorage() *memStorage {
	return &memStorage{
		files:   make(map[string][]byte),
		modTime: make(map[string]time.Time),
	}
}

// put stores content under the absolute form of path and returns the File.
func (m *memStorage) put(path, content string) File {
	f := MustFile(path)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[f.Path()] = []byte(content)
	m.modTime[f.Path()] = testModTime
	return f
}

func (m *memStorage) touch(f File, t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modTime[f.Path()] = t
}

func (m *memStorage) Stat(_ context.Context, path string) (storage.Info, error) {
	m.stats.Add(1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[path]
	if !ok {
		return storage.Info{}, &fs.PathError{Op: "stat", Path: path, Err: fs.ErrNotExist}
	}
	return storage.Info{Size: int64(len(data)), ModTime: m.modTime[path]}, nil
}

func (m *memStorage) Read(_ context.Context, path string) ([]byte, error) {
	m.reads.Add(1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[path]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return append([]byte(nil), data...), nil
}

// countingAnalyzer emits content and tokens fields and counts calls.
type countingAnalyzer struct {
	name  string
	calls atomic.Int64
	fail  bool
}

func (a *countingAnalyzer) Name() string { return a.name }

func (a *countingAnalyzer) Analyze(_ context.Context, _ string, content []byte) ([]document.Field, error) {
	a.calls.Add(1)
	if a.fail {
		return nil, errors.New("rejected")
	}
	return []document.Field{
		document.NewField(document.FieldContent, string(content)),
		document.NewField(document.FieldTokens, analysis.Tokenize(string(content))...),
	}, nil
}

// newCSharpRegistry returns a registry with a counting "csharp" analyzer
// bound to .cs.
func newCSharpRegistry() (*analysis.Registry, *countingAnalyzer) {
	a := &countingAnalyzer{name: "csharp"}
	r := analysis.NewRegistry()
	r.Register(a, ".cs")
	return r, a
}

// captureHandler records every slog record it handles.
type captureHandler struct {
	mu      *sync.Mutex
	records *[]slog.Record
	level   slog.Level
}

func newCaptureHandler(level slog.Level) *captureHandler {
	return &captureHandler{mu: &sync.Mutex{}, records: &[]slog.Record{}, level: level}
}

func (h *captureHandler) Enabled(_ context.Context, l slog.Level) bool { return l >= h.level }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	*h.records = append(*h.records, r.Clone())
	return nil
}

func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *captureHandler) WithGroup(string) slog.Handler      { return h }

func (h *captureHandler) all() []slog.Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]slog.Record(nil), *h.records...)
}

func (h *captureHandler) messages() []string {
	var out []string
	for _, r := range h.all() {
		out = append(out, r.Message)
	}
	return out
}

// failingHandler rejects every record.
type failingHandler struct{}

func (failingHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("sink unavailable") }
func (h failingHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h failingHandler) WithGroup(string) slog.Handler           { return h }

func attrValue(r slog.Record, key string) (slog.Value, bool) {
	var (
		v     slog.Value
		found bool
	)
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == key {
			v, found = a.Value, true
			return false
		}
		return true
	})
	return v, found
}
