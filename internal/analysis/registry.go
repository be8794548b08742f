package analysis

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/mvp-joe/cortex-codesearch/internal/document"
)

// Registry maps file types to analyzers.
//
// Lookup order is exact base name (e.g. "Makefile"), then lower-cased
// extension. Registration is expected at startup; Resolve is safe for
// concurrent use with late registration.
type Registry struct {
	mu        sync.RWMutex
	analyzers map[string]Analyzer // name -> analyzer
	byExt     map[string]string   // ".ext" -> analyzer name
	byBase    map[string]string   // base name -> analyzer name
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		analyzers: make(map[string]Analyzer),
		byExt:     make(map[string]string),
		byBase:    make(map[string]string),
	}
}

// Register adds an analyzer and associates it with the given extensions or
// base names. Entries starting with "." are extensions; anything else is an
// exact base name. A later registration for the same key wins.
func (r *Registry) Register(a Analyzer, keys ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.analyzers[a.Name()] = a
	for _, key := range keys {
		r.bindLocked(key, a.Name())
	}
}

// Alias associates an extension or base name with an already registered
// analyzer.
func (r *Registry) Alias(key, analyzerName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.analyzers[analyzerName]; !ok {
		return fmt.Errorf("%w: %q", ErrNoAnalyzer, analyzerName)
	}
	r.bindLocked(key, analyzerName)
	return nil
}

func (r *Registry) bindLocked(key, name string) {
	if strings.HasPrefix(key, ".") {
		r.byExt[strings.ToLower(key)] = name
		return
	}
	r.byBase[key] = name
}

// Resolve returns the analyzer registered for path.
func (r *Registry) Resolve(path string) (Analyzer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	base := filepath.Base(path)
	if name, ok := r.byBase[base]; ok {
		return r.analyzers[name], true
	}

	ext := strings.ToLower(filepath.Ext(base))
	if ext == "" {
		return nil, false
	}
	name, ok := r.byExt[ext]
	if !ok {
		return nil, false
	}
	return r.analyzers[name], true
}

// Name identifies the registry when it is used as an analyzer.
func (r *Registry) Name() string { return "registry" }

// Analyze routes to the analyzer resolved for path.
func (r *Registry) Analyze(ctx context.Context, path string, content []byte) ([]document.Field, error) {
	a, ok := r.Resolve(path)
	if !ok {
		return nil, fmt.Errorf("%w for %s", ErrNoAnalyzer, path)
	}
	return a.Analyze(ctx, path, content)
}

// Names returns registered analyzer names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.analyzers))
	for name := range r.analyzers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Keys returns the extensions and base names bound to an analyzer, sorted.
func (r *Registry) Keys(analyzerName string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var keys []string
	for ext, name := range r.byExt {
		if name == analyzerName {
			keys = append(keys, ext)
		}
	}
	for base, name := range r.byBase {
		if name == analyzerName {
			keys = append(keys, base)
		}
	}
	sort.Strings(keys)
	return keys
}

// NewDefaultRegistry returns a registry with every built-in analyzer.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewTextAnalyzer(), ".txt", ".md", ".markdown", ".rst", ".adoc", "README", "LICENSE", "CHANGELOG")
	r.Register(NewGoAnalyzer(), ".go")
	for _, spec := range builtinLanguages() {
		r.Register(NewTreeSitterAnalyzer(spec), spec.Extensions...)
	}
	return r
}
