// Package fileset holds the in-memory form of a directory tree used for
// case inputs and outputs.
//
// Keys are slash-separated paths relative to the tree root. Directories are
// implied by the files they contain; empty directories are not represented.
package fileset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// ErrInvalidPath is returned when a FileSet key would escape its root.
var ErrInvalidPath = errors.New("invalid file path")

// FileSet maps relative file paths to their contents.
type FileSet map[string][]byte

// Paths returns the keys of fs in sorted order.
func (fs FileSet) Paths() []string {
	paths := make([]string, 0, len(fs))
	for p := range fs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Clone returns a deep copy of fs.
func (fs FileSet) Clone() FileSet {
	if fs == nil {
		return nil
	}
	out := make(FileSet, len(fs))
	for p, data := range fs {
		cp := make([]byte, len(data))
		copy(cp, data)
		out[p] = cp
	}
	return out
}

// Ext returns the lower-cased extension of p without the leading dot.
func Ext(p string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(p), "."))
}

// ValidatePath checks that p is a clean, relative, slash-separated path
// that stays inside the tree root.
func ValidatePath(p string) error {
	if p == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if strings.Contains(p, "\\") || path.IsAbs(p) || filepath.IsAbs(p) {
		return fmt.Errorf("%w: %q must be relative and slash-separated", ErrInvalidPath, p)
	}
	if path.Clean(p) != p || p == "." || p == ".." || strings.HasPrefix(p, "../") {
		return fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return nil
}

// Read loads every regular file under dir into a FileSet.
// A missing dir is reported as an error satisfying errors.Is(err, fs.ErrNotExist).
func Read(dir string) (FileSet, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	out := make(FileSet)
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = data
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	return out, nil
}

// Write creates dir and writes every file of fs beneath it.
// Existing files not in fs are left untouched.
func Write(dir string, fs FileSet) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for _, p := range fs.Paths() {
		if err := ValidatePath(p); err != nil {
			return err
		}
		target := filepath.Join(dir, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(target, fs[p], 0644); err != nil {
			return fmt.Errorf("writing %s: %w", p, err)
		}
	}
	return nil
}
