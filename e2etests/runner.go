package e2etests

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"snapkit/internal/config"
	"snapkit/internal/fileset"
)

// Runner executes snapkit commands against sandbox project directories.
type Runner struct {
	Cmd string // path to snapkit binary
}

// SetupSandbox creates a fresh project directory, runs "snapkit init" in it
// and writes seed on top (slash-separated paths relative to the project
// root). Returns the sandbox path.
func (r *Runner) SetupSandbox(seed fileset.FileSet) (string, error) {
	dir, err := os.MkdirTemp("", "snapkit-e2e-*")
	if err != nil {
		return "", err
	}
	if res := r.Run(dir, "init"); res.ExitCode != 0 {
		os.RemoveAll(dir)
		return "", fmt.Errorf("init sandbox failed (exit %d): %s", res.ExitCode, res.Stderr)
	}
	if err := fileset.Write(dir, seed); err != nil {
		os.RemoveAll(dir)
		return "", fmt.Errorf("seeding sandbox: %w", err)
	}
	return dir, nil
}

// TeardownSandbox removes a sandbox directory.
func (r *Runner) TeardownSandbox(path string) error {
	return os.RemoveAll(path)
}

// RunResult holds the output of a command execution.
type RunResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Run executes a snapkit command inside the sandbox. Inherited SNAPKIT_*
// variables are dropped and SNAPKIT_ROOT points at the sandbox.
func (r *Runner) Run(sandbox string, args ...string) RunResult {
	cmd := exec.Command(r.Cmd, args...)
	cmd.Dir = sandbox
	cmd.Env = append(cleanEnv(), config.EnvRoot+"="+sandbox)
	return run(cmd)
}

// RunRaw executes the snapkit binary with the given arguments outside any
// sandbox. Useful for --help and other global commands.
func (r *Runner) RunRaw(args ...string) RunResult {
	cmd := exec.Command(r.Cmd, args...)
	cmd.Env = cleanEnv()
	return run(cmd)
}

func run(cmd *exec.Cmd) RunResult {
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}

	return RunResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
	}
}

func cleanEnv() []string {
	var env []string
	for _, kv := range os.Environ() {
		if !strings.HasPrefix(kv, "SNAPKIT_") {
			env = append(env, kv)
		}
	}
	return env
}
