package parsing

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/mvp-joe/cortex-codesearch/internal/analysis"
)

// Test Plan for decorator composition:
// - Configuration reads and writes through any stack reach the base service
// - Every stack returns exactly what the base service returns
// - Chain applies decorators inner to outer and skips nil entries
// - Post-delegation side effects run innermost first
// - Innermost unwraps to the base service
// - Decorators reject a nil inner service

// fullStack wraps base in every decorator type, twice over for logging.
func fullStack(t *testing.T, base Service, store *memStorage, h slog.Handler) Service {
	t.Helper()

	cache, err := NewDocumentCache(100, time.Minute)
	require.NoError(t, err)
	t.Cleanup(cache.Close)

	metrics, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	tp := trace.NewTracerProvider(trace.WithSpanProcessor(tracetest.NewSpanRecorder()))

	return Chain(base,
		WithTracing(tp),
		WithLogging(slog.New(h)),
		WithCache(store, cache),
		WithMetrics(metrics),
		WithLogging(slog.New(h)),
	)
}

func TestChain_Transparency(t *testing.T) {
	t.Parallel()

	store := newMemStorage()
	reg, _ := newCSharpRegistry()
	base := NewService(reg, store)
	svc := fullStack(t, base, store, slog.DiscardHandler)

	svc.SetExclusions([]string{"*.dll"})
	assert.Equal(t, []string{"*.dll"}, base.Exclusions())
	assert.Equal(t, []string{"*.dll"}, svc.Exclusions())

	base.SetExclusions([]string{"bin", "obj"})
	assert.Equal(t, []string{"bin", "obj"}, svc.Exclusions())

	// Every intermediate layer sees the same state.
	for layer := svc; ; {
		assert.Equal(t, []string{"bin", "obj"}, layer.Exclusions())
		assert.Same(t, reg, layer.Analyzer())
		w, ok := layer.(Wrapper)
		if !ok {
			break
		}
		layer = w.Unwrap()
	}
}

func TestChain_ResultPreservation(t *testing.T) {
	t.Parallel()

	store := newMemStorage()
	reg, _ := newCSharpRegistry()
	files := []File{
		store.put("/src/Main.cs", "class Program {}"),
		store.put("/src/lib/Util.cs", "static class Util {}"),
		store.put("/src/bin/Helper.dll", "MZ"),
		store.put("/src/README.unknown", "hello"),
		MustFile("/src/Missing.cs"),
	}

	base := NewService(reg, store, WithExclusions([]string{"*.dll"}))
	stacks := map[string]Service{
		"bare":    Chain(base),
		"logging": Chain(base, WithLogging(nil)),
		"full":    fullStack(t, base, store, slog.DiscardHandler),
	}

	ctx := context.Background()
	for name, svc := range stacks {
		for _, f := range files {
			want, wantOK := base.TryParse(ctx, f)
			// Twice, so cached layers answer the second call.
			for i := 0; i < 2; i++ {
				got, gotOK := svc.TryParse(ctx, f)
				assert.Equal(t, wantOK, gotOK, "%s %s", name, f.Path())
				assert.Equal(t, want, got, "%s %s", name, f.Path())
			}
		}
	}
}

func TestChain_Order(t *testing.T) {
	t.Parallel()

	store := newMemStorage()
	base := NewService(&countingAnalyzer{name: "plain"}, store)

	svc := Chain(base, WithLogging(nil), nil, WithMetrics(mustMetrics(t)))
	outer, ok := svc.(*Metered)
	require.True(t, ok)
	inner, ok := outer.Unwrap().(*Logged)
	require.True(t, ok)
	assert.Same(t, base, inner.Unwrap())
	assert.Same(t, base, Innermost(svc))
	assert.Same(t, base, Chain(base))
}

func TestChain_SideEffectsInnerToOuter(t *testing.T) {
	t.Parallel()

	store := newMemStorage()
	reg, _ := newCSharpRegistry()
	f := store.put("/src/Main.cs", "class Program {}")

	h := newCaptureHandler(slog.LevelInfo)
	innerH := &taggedHandler{capture: h, tag: "inner"}
	outerH := &taggedHandler{capture: h, tag: "outer"}

	svc := Chain(NewService(reg, store),
		WithLogging(slog.New(innerH)),
		WithLogging(slog.New(outerH)),
	)
	_, ok := svc.TryParse(context.Background(), f)
	require.True(t, ok)

	records := h.all()
	require.Len(t, records, 2)
	tag, _ := attrValue(records[0], "layer")
	assert.Equal(t, "inner", tag.String())
	tag, _ = attrValue(records[1], "layer")
	assert.Equal(t, "outer", tag.String())
}

func TestDecorators_NilInnerPanics(t *testing.T) {
	t.Parallel()

	cache, err := NewDocumentCache(10, 0)
	require.NoError(t, err)
	defer cache.Close()

	assert.Panics(t, func() { NewLogged(nil, nil) })
	assert.Panics(t, func() { NewCached(nil, newMemStorage(), cache) })
	assert.Panics(t, func() { NewMetered(nil, mustMetrics(t)) })
	assert.Panics(t, func() { NewTraced(nil, nil) })
}

func TestDecorators_AbsentFilePanics(t *testing.T) {
	t.Parallel()

	store := newMemStorage()
	svc := fullStack(t, NewService(analysis.NewRegistry(), store), store, slog.DiscardHandler)
	assert.Panics(t, func() { svc.TryParse(context.Background(), File{}) })
}

func mustMetrics(t *testing.T) *Metrics {
	t.Helper()
	m, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	return m
}

// taggedHandler stamps a "layer" attribute on records before capturing them.
type taggedHandler struct {
	capture *captureHandler
	tag     string
}

func (h *taggedHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.capture.Enabled(ctx, l)
}

func (h *taggedHandler) Handle(ctx context.Context, r slog.Record) error {
	r = r.Clone()
	r.AddAttrs(slog.String("layer", h.tag))
	return h.capture.Handle(ctx, r)
}

func (h *taggedHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *taggedHandler) WithGroup(string) slog.Handler      { return h }
