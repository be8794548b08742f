package indexer

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/gobwas/glob"
)

// DefaultSkipDirs are directory names never descended into.
var DefaultSkipDirs = []string{".git", ".hg", ".svn", ".codesearch"}

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// FileDiscovery walks a directory tree and lists regular files.
//
// Directory pruning is a cost optimization only; exclusion of individual
// files is the parsing service's job, so discovered files that the service
// excludes are counted as failed attempts.
type FileDiscovery struct {
	rootDir  string
	skipDirs []compiledPattern
}

// NewFileDiscovery creates a discovery rooted at rootDir. skipDirs are glob
// patterns matched against directory base names, in addition to
// DefaultSkipDirs.
func NewFileDiscovery(rootDir string, skipDirs []string) (*FileDiscovery, error) {
	abs, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", rootDir, err)
	}
	fd := &FileDiscovery{rootDir: abs}

	patterns := append(append([]string(nil), DefaultSkipDirs...), skipDirs...)
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid skip pattern %q: %w", pattern, err)
		}
		fd.skipDirs = append(fd.skipDirs, compiledPattern{pattern: pattern, glob: g})
	}
	return fd, nil
}

// Root returns the absolute root directory.
func (fd *FileDiscovery) Root() string { return fd.rootDir }

// DiscoverFiles returns absolute paths of regular files under the root,
// sorted. Unreadable subdirectories are skipped.
func (fd *FileDiscovery) DiscoverFiles(ctx context.Context) ([]string, error) {
	var files []string

	err := filepath.WalkDir(fd.rootDir, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == fd.rootDir {
				return err
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != fd.rootDir && fd.shouldSkipDir(d.Name()) {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

func (fd *FileDiscovery) shouldSkipDir(name string) bool {
	for _, cp := range fd.skipDirs {
		if cp.glob.Match(name) {
			return true
		}
	}
	return false
}
