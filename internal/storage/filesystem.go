// Package storage provides read access to source files for the parsing service.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// DefaultMaxFileSize is the largest file FS will read (1 MiB).
const DefaultMaxFileSize int64 = 1 << 20

var (
	// ErrTooLarge indicates a file above the configured size ceiling.
	ErrTooLarge = errors.New("file too large")

	// ErrNotRegular indicates a directory, device, socket or other non-regular file.
	ErrNotRegular = errors.New("not a regular file")
)

// Info is file metadata returned by Stat.
type Info struct {
	Size    int64
	ModTime time.Time
}

// Storage reads file metadata and content. Any error is a per-file failure;
// retry policy, if any, belongs to the implementation.
type Storage interface {
	Stat(ctx context.Context, path string) (Info, error)
	Read(ctx context.Context, path string) ([]byte, error)
}

// FS reads from the local filesystem.
type FS struct {
	// MaxFileSize caps reads; zero or negative means DefaultMaxFileSize.
	MaxFileSize int64
}

// NewFS creates a filesystem storage with the given size ceiling.
func NewFS(maxFileSize int64) *FS {
	return &FS{MaxFileSize: maxFileSize}
}

func (s *FS) limit() int64 {
	if s.MaxFileSize <= 0 {
		return DefaultMaxFileSize
	}
	return s.MaxFileSize
}

// Stat returns size and modification time for a regular file.
func (s *FS) Stat(ctx context.Context, path string) (Info, error) {
	if err := ctx.Err(); err != nil {
		return Info{}, err
	}
	fi, err := os.Stat(path)
	if err != nil {
		return Info{}, err
	}
	if !fi.Mode().IsRegular() {
		return Info{}, fmt.Errorf("%w: %s", ErrNotRegular, path)
	}
	return Info{Size: fi.Size(), ModTime: fi.ModTime()}, nil
}

// Read returns the content of a regular file no larger than MaxFileSize.
func (s *FS) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotRegular, path)
	}

	max := s.limit()
	if fi.Size() > max {
		return nil, fmt.Errorf("%w: %s is %d bytes (max %d)", ErrTooLarge, path, fi.Size(), max)
	}

	// The file may grow between Stat and Read; read at most max+1 to detect it.
	data, err := io.ReadAll(io.LimitReader(f, max+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if int64(len(data)) > max {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, path, max)
	}
	return data, nil
}
