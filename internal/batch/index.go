// Package batch discovers Python sources and analyzes them in parallel.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
)

// FileRecord describes a discovered source file.
type FileRecord struct {
	AbsPath string
	RelPath string
	Size    int64
	IsStub  bool
	IsTest  bool
}

// FileIndex is a deterministic snapshot of source files under a root.
type FileIndex struct {
	Root  string
	Files []FileRecord
}

// IndexOptions selects which files and directories are indexed.
type IndexOptions struct {
	Extensions  []string
	ExcludeDirs []string
}

// DefaultIndexOptions indexes .py and .pyi files.
func DefaultIndexOptions() IndexOptions {
	return IndexOptions{
		Extensions:  []string{".py", ".pyi"},
		ExcludeDirs: []string{"__pycache__", "venv", "env", "site-packages", "node_modules", "vendor"},
	}
}

// BuildFileIndex walks root once and captures every matching file. A root
// that is a regular file is indexed as itself regardless of extension.
func BuildFileIndex(ctx context.Context, root string, opts IndexOptions) (*FileIndex, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return &FileIndex{
			Root:  filepath.Dir(absRoot),
			Files: []FileRecord{newFileRecord(absRoot, filepath.Base(absRoot), info)},
		}, nil
	}

	idx := &FileIndex{Root: absRoot}
	err = filepath.Walk(absRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if info.IsDir() {
			if path != absRoot && isExcludedDir(info.Name(), opts.ExcludeDirs) {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() || !hasAnySuffix(info.Name(), opts.Extensions) {
			return nil
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil {
			relPath = path
		}
		idx.Files = append(idx.Files, newFileRecord(path, filepath.ToSlash(relPath), info))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	sort.Slice(idx.Files, func(i, j int) bool {
		return idx.Files[i].RelPath < idx.Files[j].RelPath
	})
	return idx, nil
}

func newFileRecord(absPath, relPath string, info os.FileInfo) FileRecord {
	name := strings.ToLower(info.Name())
	return FileRecord{
		AbsPath: absPath,
		RelPath: relPath,
		Size:    info.Size(),
		IsStub:  strings.HasSuffix(name, ".pyi"),
		IsTest:  isTestFile(name),
	}
}

func isTestFile(name string) bool {
	if name == "conftest.py" {
		return true
	}
	stem := strings.TrimSuffix(strings.TrimSuffix(name, ".pyi"), ".py")
	return strings.HasPrefix(stem, "test_") || strings.HasSuffix(stem, "_test")
}

func isExcludedDir(name string, excluded []string) bool {
	return strings.HasPrefix(name, ".") || slices.Contains(excluded, name)
}

func hasAnySuffix(value string, suffixes []string) bool {
	value = strings.ToLower(value)
	for _, suffix := range suffixes {
		if suffix != "" && strings.HasSuffix(value, strings.ToLower(suffix)) {
			return true
		}
	}
	return false
}
