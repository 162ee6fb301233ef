// Package filesystem implements the casestore.Store interface using the local filesystem.
// Each case is a directory <root>/CaseNN holding Inputs/ and ExpectedOutputs/.
//
// Cross-process coordination uses flock on the directories themselves. The
// root is locked exclusively for case allocation and recovery and shared
// while listing. Each case directory guards its baseline (shared for
// readers, exclusive for writers).
package filesystem

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"snapkit/internal/casestore"
	"snapkit/internal/fileset"
)

const (
	tmpMarker    = ".tmp-"
	backupSuffix = ".backup"
)

// FilesystemStorage implements casestore.Store on a directory tree.
type FilesystemStorage struct {
	root string // path to the snapshot root, e.g. tests/snapshots
}

// New creates a new FilesystemStorage rooted at the given directory.
func New(root string) *FilesystemStorage {
	return &FilesystemStorage{root: root}
}

// Root returns the snapshot root directory.
func (fs *FilesystemStorage) Root() string {
	return fs.root
}

// Init creates the root directory and repairs state left by crashed writers.
func (fs *FilesystemStorage) Init(ctx context.Context) error {
	if err := os.MkdirAll(fs.root, 0755); err != nil {
		return err
	}
	lock, err := lockDir(fs.root, syscall.LOCK_EX)
	if err != nil {
		return fmt.Errorf("locking case store: %w", err)
	}
	defer lock.release()

	cases, err := fs.list()
	if err != nil {
		return err
	}
	for _, c := range cases {
		if err := fs.recoverCase(c); err != nil {
			return fmt.Errorf("recovering %s: %w", c.Name, err)
		}
	}
	return nil
}

// recoverCase restores an ExpectedOutputs backup left by a WriteExpectedOutputs
// that crashed between moving the old baseline aside and renaming the new one
// into place, then removes leftover temp directories. The caller holds the
// root lock, so no case is being created.
func (fs *FilesystemStorage) recoverCase(c casestore.Case) error {
	lock, err := lockDir(c.Dir, syscall.LOCK_EX)
	if err != nil {
		return err
	}
	defer lock.release()

	target := filepath.Join(c.Dir, casestore.DirExpectedOutputs)
	backup := backupPath(c.Dir)

	if _, err := os.Stat(backup); err == nil {
		if _, err := os.Stat(target); os.IsNotExist(err) {
			if err := os.Rename(backup, target); err != nil {
				return err
			}
		} else if err := os.RemoveAll(backup); err != nil {
			// The swap completed; the backup is just garbage.
			return err
		}
	}

	entries, err := os.ReadDir(c.Dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") && strings.Contains(entry.Name(), tmpMarker) {
			os.RemoveAll(filepath.Join(c.Dir, entry.Name()))
		}
	}
	return nil
}

// List returns all cases under the root sorted by numeric suffix. It waits
// for any in-progress Create, so a listed case always has its inputs.
func (fs *FilesystemStorage) List(ctx context.Context) ([]casestore.Case, error) {
	lock, err := lockDir(fs.root, syscall.LOCK_SH)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []casestore.Case{}, nil
		}
		return nil, fmt.Errorf("locking case store: %w", err)
	}
	defer lock.release()
	return fs.list()
}

// list scans the root. The caller holds the root lock.
func (fs *FilesystemStorage) list() ([]casestore.Case, error) {
	entries, err := os.ReadDir(fs.root)
	if err != nil {
		if os.IsNotExist(err) {
			return []casestore.Case{}, nil
		}
		return nil, err
	}

	cases := make([]casestore.Case, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		n, ok := casestore.ParseName(entry.Name())
		if !ok {
			continue
		}
		cases = append(cases, fs.caseFor(n))
	}
	sort.Slice(cases, func(i, j int) bool { return cases[i].Number < cases[j].Number })
	return cases, nil
}

// Get returns the case with the given name.
func (fs *FilesystemStorage) Get(ctx context.Context, name string) (casestore.Case, error) {
	n, ok := casestore.ParseName(name)
	if !ok {
		return casestore.Case{}, fmt.Errorf("%s: %w", name, casestore.ErrCaseNotFound)
	}
	c := fs.caseFor(n)
	info, err := os.Stat(c.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return casestore.Case{}, fmt.Errorf("%s: %w", name, casestore.ErrCaseNotFound)
		}
		return casestore.Case{}, err
	}
	if !info.IsDir() {
		return casestore.Case{}, fmt.Errorf("%s: %w", name, casestore.ErrCaseNotFound)
	}
	return c, nil
}

// Create allocates the next free case and copies staging into its inputs.
// Allocation is serialized across processes by an flock on the root.
func (fs *FilesystemStorage) Create(ctx context.Context, staging fileset.FileSet) (casestore.Case, error) {
	if len(staging) == 0 {
		return casestore.Case{}, casestore.ErrNoStagingInputs
	}
	if err := ctx.Err(); err != nil {
		return casestore.Case{}, err
	}
	if err := os.MkdirAll(fs.root, 0755); err != nil {
		return casestore.Case{}, err
	}

	lock, err := lockDir(fs.root, syscall.LOCK_EX)
	if err != nil {
		return casestore.Case{}, fmt.Errorf("locking case store: %w", err)
	}
	defer lock.release()

	cases, err := fs.list()
	if err != nil {
		return casestore.Case{}, err
	}
	return fs.createAt(casestore.NextNumber(cases), staging)
}

// createAt reserves case n with an exclusive mkdir and writes its inputs.
// If the directory already exists it returns ErrDuplicateCase and leaves it alone.
func (fs *FilesystemStorage) createAt(n int, staging fileset.FileSet) (casestore.Case, error) {
	c := fs.caseFor(n)
	if err := os.Mkdir(c.Dir, 0755); err != nil {
		if errors.Is(err, os.ErrExist) {
			return c, fmt.Errorf("%s: %w", c.Name, casestore.ErrDuplicateCase)
		}
		return casestore.Case{}, err
	}

	tmp, err := tempPath(c.Dir, casestore.DirInputs)
	if err != nil {
		os.RemoveAll(c.Dir)
		return casestore.Case{}, err
	}
	if err := fileset.Write(tmp, staging); err != nil {
		os.RemoveAll(c.Dir)
		return casestore.Case{}, fmt.Errorf("writing inputs for %s: %w", c.Name, err)
	}
	if err := os.Rename(tmp, filepath.Join(c.Dir, casestore.DirInputs)); err != nil {
		os.RemoveAll(c.Dir)
		return casestore.Case{}, err
	}
	return c, nil
}

// ReadInputs returns the case's input set.
func (fs *FilesystemStorage) ReadInputs(ctx context.Context, c casestore.Case) (fileset.FileSet, error) {
	set, err := fileset.Read(filepath.Join(c.Dir, casestore.DirInputs))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileset.FileSet{}, nil
		}
		return nil, fmt.Errorf("reading inputs for %s: %w", c.Name, err)
	}
	return set, nil
}

// ReadExpectedOutputs returns the case's baseline, or ErrBaselineAbsent.
// It holds a shared lock on the case so a concurrent write is seen either
// before or after its swap.
func (fs *FilesystemStorage) ReadExpectedOutputs(ctx context.Context, c casestore.Case) (fileset.FileSet, error) {
	lock, err := lockDir(c.Dir, syscall.LOCK_SH)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", c.Name, casestore.ErrBaselineAbsent)
		}
		return nil, fmt.Errorf("locking %s: %w", c.Name, err)
	}
	defer lock.release()

	set, err := fileset.Read(filepath.Join(c.Dir, casestore.DirExpectedOutputs))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", c.Name, casestore.ErrBaselineAbsent)
		}
		return nil, fmt.Errorf("reading expected outputs for %s: %w", c.Name, err)
	}
	return set, nil
}

// WriteExpectedOutputs replaces the case's baseline.
//
// The new set is written to a hidden temp directory, the old baseline is
// moved to a hidden backup, the temp directory is renamed into place and the
// backup removed. Init restores the backup if a crash interrupts the swap.
func (fs *FilesystemStorage) WriteExpectedOutputs(ctx context.Context, c casestore.Case, outputs fileset.FileSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	lock, err := lockDir(c.Dir, syscall.LOCK_EX)
	if err != nil {
		return fmt.Errorf("locking %s: %w", c.Name, err)
	}
	defer lock.release()

	tmp, err := tempPath(c.Dir, casestore.DirExpectedOutputs)
	if err != nil {
		return err
	}
	if err := fileset.Write(tmp, outputs); err != nil {
		os.RemoveAll(tmp)
		return fmt.Errorf("writing expected outputs for %s: %w", c.Name, err)
	}

	target := filepath.Join(c.Dir, casestore.DirExpectedOutputs)
	backup := backupPath(c.Dir)
	hadBaseline := false
	if _, err := os.Stat(target); err == nil {
		hadBaseline = true
		os.RemoveAll(backup)
		if err := os.Rename(target, backup); err != nil {
			os.RemoveAll(tmp)
			return err
		}
	}

	if err := os.Rename(tmp, target); err != nil {
		if hadBaseline {
			os.Rename(backup, target)
		}
		os.RemoveAll(tmp)
		return err
	}

	if hadBaseline {
		os.RemoveAll(backup)
	}
	return nil
}

func (fs *FilesystemStorage) caseFor(n int) casestore.Case {
	name := casestore.FormatName(n)
	return casestore.Case{
		Name:   name,
		Number: n,
		Dir:    filepath.Join(fs.root, name),
	}
}

func backupPath(caseDir string) string {
	return filepath.Join(caseDir, "."+casestore.DirExpectedOutputs+backupSuffix)
}

// tempPath returns a unique hidden sibling path for staging a directory.
func tempPath(dir, base string) (string, error) {
	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return "", fmt.Errorf("generating random suffix: %w", err)
	}
	return filepath.Join(dir, "."+base+tmpMarker+hex.EncodeToString(randBytes)), nil
}

// dirLock holds a flock on an open directory.
type dirLock struct {
	file *os.File
}

// release closes the directory, which drops the flock.
func (l *dirLock) release() {
	l.file.Close()
}

// lockDir takes a flock on dir. how is syscall.LOCK_EX or syscall.LOCK_SH.
func lockDir(dir string, how int) (*dirLock, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	if err := syscall.Flock(int(f.Fd()), how); err != nil {
		f.Close()
		return nil, err
	}
	return &dirLock{file: f}, nil
}

// Compile-time check that FilesystemStorage implements casestore.Store.
var _ casestore.Store = (*FilesystemStorage)(nil)
