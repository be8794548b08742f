package parsing

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogged_SuccessRecord(t *testing.T) {
	t.Parallel()

	store := newMemStorage()
	reg, _ := newCSharpRegistry()
	f := store.put("/src/Main.cs", "class Program { static void Main() {} }")

	h := newCaptureHandler(slog.LevelDebug)
	svc := NewLogged(NewService(reg, store, WithExclusions(nil)), slog.New(h))

	doc, ok := svc.TryParse(context.Background(), f)
	require.True(t, ok)
	require.NotNil(t, doc)

	records := h.all()
	require.Len(t, records, 1)
	assert.Equal(t, slog.LevelInfo, records[0].Level)
	assert.Contains(t, records[0].Message, "Main.cs")
	assert.True(t, strings.HasPrefix(records[0].Message, "parse succeeded for "))

	success, found := attrValue(records[0], "success")
	require.True(t, found)
	assert.True(t, success.Bool())
}

func TestLogged_FailureRecordForMissingFile(t *testing.T) {
	t.Parallel()

	store := newMemStorage()
	reg, _ := newCSharpRegistry()
	f := MustFile("/src/DoesNotExist.cs")

	h := newCaptureHandler(slog.LevelInfo)
	svc := NewLogged(NewService(reg, store), slog.New(h))

	doc, ok := svc.TryParse(context.Background(), f)
	assert.False(t, ok)
	assert.Nil(t, doc)

	assert.Equal(t, []string{"parse failed for " + f.Path()}, h.messages())
}

func TestLogged_ExactlyOncePerCall(t *testing.T) {
	t.Parallel()

	store := newMemStorage()
	reg, _ := newCSharpRegistry()
	good := store.put("/src/Main.cs", "class A {}")
	excluded := store.put("/src/Helper.dll", "MZ")
	unsupported := store.put("/src/logo.png", "png")

	h := newCaptureHandler(slog.LevelInfo)
	svc := NewLogged(NewService(reg, store, WithExclusions([]string{"*.dll"})), slog.New(h))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		svc.TryParse(ctx, good)
		svc.TryParse(ctx, excluded)
		svc.TryParse(ctx, unsupported)
	}

	var succeeded, failed int
	for _, msg := range h.messages() {
		switch {
		case strings.HasPrefix(msg, "parse succeeded for "):
			succeeded++
		case strings.HasPrefix(msg, "parse failed for "):
			failed++
		}
	}
	assert.Equal(t, 3, succeeded)
	// Exclusion skips are logged as failures.
	assert.Equal(t, 6, failed)
}

func TestLogged_NilLoggerIsSilent(t *testing.T) {
	t.Parallel()

	store := newMemStorage()
	reg, _ := newCSharpRegistry()
	f := store.put("/src/Main.cs", "class A {}")

	svc := NewLogged(NewService(reg, store), nil)
	doc, ok := svc.TryParse(context.Background(), f)
	assert.True(t, ok)
	assert.NotNil(t, doc)
}

func TestLogged_SinkFailureDoesNotChangeResult(t *testing.T) {
	t.Parallel()

	store := newMemStorage()
	reg, _ := newCSharpRegistry()
	f := store.put("/src/Main.cs", "class A {}")
	base := NewService(reg, store)

	svc := NewLogged(base, slog.New(failingHandler{}))
	want, wantOK := base.TryParse(context.Background(), f)
	got, gotOK := svc.TryParse(context.Background(), f)
	assert.Equal(t, wantOK, gotOK)
	assert.Equal(t, want, got)
}
