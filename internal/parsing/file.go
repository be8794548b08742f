package parsing

import (
	"fmt"
	"path/filepath"
)

// File is an immutable reference to a file on durable storage. Existence
// and readability are checked lazily at parse time. The zero File is the
// absent reference and is rejected by every Service.
type File struct {
	path string
}

// NewFile creates a reference to path, made absolute and cleaned.
func NewFile(path string) (File, error) {
	if path == "" {
		return File{}, fmt.Errorf("%w: empty file path", ErrContractViolation)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return File{path: abs}, nil
}

// MustFile is NewFile that panics on error, for tests and literals.
func MustFile(path string) File {
	f, err := NewFile(path)
	if err != nil {
		panic(err)
	}
	return f
}

// Path returns the full path.
func (f File) Path() string { return f.path }

// Name returns the base name.
func (f File) Name() string { return filepath.Base(f.path) }

// IsZero reports whether f is the absent reference.
func (f File) IsZero() bool { return f.path == "" }

// String returns the full path.
func (f File) String() string { return f.path }

// mustBeValid panics when f is absent.
func mustBeValid(op string, f File) {
	if f.IsZero() {
		panic(fmt.Errorf("%w: %s called with an absent file reference", ErrContractViolation, op))
	}
}
