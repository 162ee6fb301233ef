package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"snapkit/internal/config"
	"snapkit/internal/config/yamlstore"
	"snapkit/internal/fileset"
	"snapkit/internal/logging"
	"snapkit/internal/model"
)

// clearEnv unsets every SNAPKIT_* variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		config.EnvRoot, config.EnvSnapshotsDir, config.EnvStagingDir,
		config.EnvEvaluator, config.EnvJobs, config.EnvJSON,
	} {
		t.Setenv(name, "")
	}
}

// newTestApp creates an App over an empty project in a temp directory.
func newTestApp(t *testing.T) (*App, *bytes.Buffer) {
	t.Helper()
	clearEnv(t)
	root := t.TempDir()
	paths := config.Paths{Root: root, ConfigFile: filepath.Join(root, config.FileName)}
	store, err := yamlstore.New(paths.ConfigFile)
	if err != nil {
		t.Fatalf("creating config store: %v", err)
	}
	settings, err := config.Load(store, root)
	if err != nil {
		t.Fatalf("loading settings: %v", err)
	}

	var out bytes.Buffer
	app := newApp(paths, store, settings)
	app.Logger = logging.Discard()
	app.Out = &out
	app.Err = &bytes.Buffer{}
	return app, &out
}

// newProject creates a project directory with sample staging inputs.
func newProject(t *testing.T) string {
	t.Helper()
	clearEnv(t)
	dir := t.TempDir()
	if err := fileset.Write(filepath.Join(dir, "Inputs"), model.SampleInputs()); err != nil {
		t.Fatal(err)
	}
	return dir
}

// execRoot runs the root command against dir with the given arguments.
func execRoot(t *testing.T, dir string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	provider := &AppProvider{Out: &out, Err: &errOut}
	rootCmd := newRootCmd(provider)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--root", dir}, args...))
	err = rootCmd.Execute()
	return out.String(), errOut.String(), err
}

// writeCaseFile overwrites one file of a stored case.
func writeCaseFile(t *testing.T, dir, caseName, rel, content string) {
	t.Helper()
	p := filepath.Join(dir, "tests", "snapshots", caseName, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
