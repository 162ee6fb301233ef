// Package configservice locates a snapkit project and opens its
// configuration with defaults, environment overrides and validation applied.
package configservice

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"snapkit/internal/config"
	"snapkit/internal/config/yamlstore"
)

// ResolvePaths finds the project directory, trying in order: explicit,
// SNAPKIT_ROOT, the nearest directory above the working directory holding
// snapkit.yaml (never leaving the enclosing git checkout), and finally the
// working directory itself. A project without snapkit.yaml runs on defaults.
func ResolvePaths(explicit string) (config.Paths, error) {
	if explicit != "" {
		return fromRoot(explicit)
	}
	if envDir := os.Getenv(config.EnvRoot); envDir != "" {
		return fromRoot(envDir)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return config.Paths{}, fmt.Errorf("cannot get current directory: %w", err)
	}
	root, found, err := findConfigUpward(cwd)
	if err != nil {
		return config.Paths{}, err
	}
	if !found {
		root = cwd
	}
	return buildPaths(root), nil
}

// Open loads the project's config store, applies environment overrides and
// validates the result.
func Open(paths config.Paths) (*yamlstore.YAMLStore, config.Settings, error) {
	store, err := yamlstore.New(paths.ConfigFile)
	if err != nil {
		return nil, config.Settings{}, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}
	config.ApplyEnvOverrides(store)
	settings, err := config.Load(store, paths.Root)
	if err != nil {
		return nil, config.Settings{}, err
	}
	return store, settings, nil
}

func fromRoot(dir string) (config.Paths, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return config.Paths{}, fmt.Errorf("resolving path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config.Paths{}, fmt.Errorf("project directory does not exist: %s", abs)
		}
		return config.Paths{}, fmt.Errorf("cannot access project directory %s: %w", abs, err)
	}
	if !info.IsDir() {
		return config.Paths{}, fmt.Errorf("project path is not a directory: %s", abs)
	}
	return buildPaths(abs), nil
}

// buildPaths constructs Paths for a project directory.
func buildPaths(root string) config.Paths {
	return config.Paths{
		Root:       root,
		ConfigFile: filepath.Join(root, config.FileName),
	}
}

// findConfigUpward returns the nearest directory at or above start that
// holds snapkit.yaml. The search ends at the checkout root, so a project
// never picks up the config of an enclosing repository.
func findConfigUpward(start string) (string, bool, error) {
	stop, err := FindGitRoot(start)
	if err != nil {
		return "", false, err
	}
	for dir := start; ; {
		info, err := os.Stat(filepath.Join(dir, config.FileName))
		switch {
		case err == nil && !info.IsDir():
			return dir, true, nil
		case err != nil && !errors.Is(err, os.ErrNotExist):
			return "", false, fmt.Errorf("checking config: %w", err)
		}
		parent := filepath.Dir(dir)
		if dir == stop || parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// FindGitRoot returns the nearest directory at or above dir containing a
// .git entry, or "" outside a checkout. A worktree's .git is a file and
// counts the same as a repository's .git directory. Unreadable directories
// are passed over.
func FindGitRoot(dir string) (string, error) {
	for {
		info, err := os.Stat(filepath.Join(dir, ".git"))
		if err == nil && (info.IsDir() || info.Mode().IsRegular()) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}
