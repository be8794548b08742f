package parsing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/cortex-codesearch/internal/analysis"
	"github.com/mvp-joe/cortex-codesearch/internal/document"
)

func newTestCache(t *testing.T) *DocumentCache {
	t.Helper()
	cache, err := NewDocumentCache(100, time.Minute)
	require.NoError(t, err)
	t.Cleanup(cache.Close)
	return cache
}

func TestNewDocumentCache_RejectsNonPositiveCapacity(t *testing.T) {
	t.Parallel()

	_, err := NewDocumentCache(0, time.Minute)
	assert.Error(t, err)
}

func TestCached_HitSkipsAnalysis(t *testing.T) {
	t.Parallel()

	store := newMemStorage()
	reg, a := newCSharpRegistry()
	f := store.put("/src/Main.cs", "class A {}")
	cache := newTestCache(t)

	svc := NewCached(NewService(reg, store), store, cache)
	ctx := context.Background()

	first, ok := svc.TryParse(ctx, f)
	require.True(t, ok)
	second, ok := svc.TryParse(ctx, f)
	require.True(t, ok)

	assert.Equal(t, int64(1), a.calls.Load())
	assert.Equal(t, int64(1), store.reads.Load())
	assert.Equal(t, first, second)

	hits, misses := cache.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestCached_HitsAreIndependentCopies(t *testing.T) {
	t.Parallel()

	store := newMemStorage()
	reg, _ := newCSharpRegistry()
	f := store.put("/src/Main.cs", "class A {}")
	svc := NewCached(NewService(reg, store), store, newTestCache(t))
	ctx := context.Background()

	first, _ := svc.TryParse(ctx, f)
	first.Set(document.FieldContent, "mutated")

	second, ok := svc.TryParse(ctx, f)
	require.True(t, ok)
	assert.Equal(t, "class A {}", second.Value(document.FieldContent))
	second.Set(document.FieldContent, "mutated again")

	third, _ := svc.TryParse(ctx, f)
	assert.Equal(t, "class A {}", third.Value(document.FieldContent))
}

func TestCached_ModifiedFileMisses(t *testing.T) {
	t.Parallel()

	store := newMemStorage()
	reg, a := newCSharpRegistry()
	f := store.put("/src/Main.cs", "class A {}")
	svc := NewCached(NewService(reg, store), store, newTestCache(t))
	ctx := context.Background()

	svc.TryParse(ctx, f)
	store.touch(f, testModTime.Add(time.Second))
	svc.TryParse(ctx, f)

	assert.Equal(t, int64(2), a.calls.Load())
}

func TestCached_ReconfigurationMisses(t *testing.T) {
	t.Parallel()

	store := newMemStorage()
	reg, a := newCSharpRegistry()
	f := store.put("/src/Main.cs", "class A {}")
	svc := NewCached(NewService(reg, store), store, newTestCache(t))
	ctx := context.Background()

	_, ok := svc.TryParse(ctx, f)
	require.True(t, ok)

	svc.SetExclusions([]string{"*.cs"})
	_, ok = svc.TryParse(ctx, f)
	assert.False(t, ok, "a cached success must not outlive a new exclusion")

	svc.SetExclusions(nil)
	_, ok = svc.TryParse(ctx, f)
	assert.True(t, ok)
	assert.Equal(t, int64(1), a.calls.Load())
}

func TestCached_FailuresAreNotCached(t *testing.T) {
	t.Parallel()

	store := newMemStorage()
	a := &countingAnalyzer{name: "strict", fail: true}
	f := store.put("/src/Broken.cs", "class {")
	cache := newTestCache(t)
	svc := NewCached(NewService(a, store), store, cache)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, ok := svc.TryParse(ctx, f)
		assert.False(t, ok)
	}
	assert.Equal(t, int64(3), a.calls.Load())
	assert.Zero(t, cache.Len())
}

func TestCached_SharedCacheSeparatesAnalyzers(t *testing.T) {
	t.Parallel()

	store := newMemStorage()
	f := store.put("/src/Main.cs", "class A {}")
	cache := newTestCache(t)

	first := NewCached(NewService(&countingAnalyzer{name: "one"}, store), store, cache)
	second := NewCached(NewService(&countingAnalyzer{name: "two"}, store), store, cache)

	doc, ok := first.TryParse(context.Background(), f)
	require.True(t, ok)
	assert.Equal(t, "one", doc.Value(document.FieldLanguage))

	doc, ok = second.TryParse(context.Background(), f)
	require.True(t, ok)
	assert.Equal(t, "two", doc.Value(document.FieldLanguage))
}

func TestNewCached_RequiresCollaborators(t *testing.T) {
	t.Parallel()

	base := NewService(analysis.NewRegistry(), newMemStorage())
	assert.Panics(t, func() { NewCached(base, nil, newTestCache(t)) })
	assert.Panics(t, func() { NewCached(base, newMemStorage(), nil) })
}

// swapDuringParse replaces the inner exclusions once, while the first
// TryParse is in flight.
type swapDuringParse struct {
	Service
	swap    []string
	swapped bool
}

func (s *swapDuringParse) TryParse(ctx context.Context, file File) (*document.Document, bool) {
	if !s.swapped {
		s.swapped = true
		s.Service.SetExclusions(s.swap)
	}
	return s.Service.TryParse(ctx, file)
}

func TestCached_ReconfigurationDuringParseIsNotCached(t *testing.T) {
	t.Parallel()

	store := newMemStorage()
	reg, _ := newCSharpRegistry()
	f := store.put("/src/Main.cs", "class A {}")
	base := NewService(reg, store, WithExclusions([]string{"*.cs"}))
	cache := newTestCache(t)
	svc := NewCached(&swapDuringParse{Service: base, swap: []string{}}, store, cache)
	ctx := context.Background()

	// Parsed under the swapped-in exclusions, keyed under the old ones.
	_, ok := svc.TryParse(ctx, f)
	require.True(t, ok)
	assert.Zero(t, cache.Len())

	svc.SetExclusions([]string{"*.cs"})
	_, wantOK := base.TryParse(ctx, f)
	_, gotOK := svc.TryParse(ctx, f)
	assert.False(t, wantOK)
	assert.Equal(t, wantOK, gotOK)
}
