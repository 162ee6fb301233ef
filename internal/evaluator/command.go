package evaluator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"snapkit/internal/fileset"
)

// Environment variables passed to an external evaluator command.
const (
	EnvInputsDir  = "SNAPKIT_INPUTS_DIR"
	EnvOutputsDir = "SNAPKIT_OUTPUTS_DIR"
)

// Command evaluates inputs by running an external program.
//
// Inputs are written to a fresh temporary directory and the program is run
// with SNAPKIT_INPUTS_DIR and SNAPKIT_OUTPUTS_DIR pointing at it. Every
// file the program leaves under the outputs directory becomes part of the
// output set. A non-zero exit status is an error.
type Command struct {
	Name    string
	Args    []string
	Dir     string        // working directory; empty means the current one
	Timeout time.Duration // zero means no timeout
	Runner  CommandRunner // nil means ExecRunner
}

// ShellCommand returns a Command that runs line through sh -c, so the
// configured evaluator may use quoting, pipes and environment expansion.
func ShellCommand(line, dir string, timeout time.Duration) *Command {
	return &Command{
		Name:    "sh",
		Args:    []string{"-c", line},
		Dir:     dir,
		Timeout: timeout,
	}
}

// String returns the command line for display.
func (c *Command) String() string {
	if c.Name == "sh" && len(c.Args) == 2 && c.Args[0] == "-c" {
		return c.Args[1]
	}
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Evaluate runs the command against inputs and collects its outputs.
func (c *Command) Evaluate(ctx context.Context, inputs fileset.FileSet) (fileset.FileSet, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	work, err := os.MkdirTemp("", "snapkit-eval-")
	if err != nil {
		return nil, fmt.Errorf("creating work directory: %w", err)
	}
	defer os.RemoveAll(work)

	inputsDir := filepath.Join(work, "Inputs")
	outputsDir := filepath.Join(work, "Outputs")
	if err := fileset.Write(inputsDir, inputs); err != nil {
		return nil, fmt.Errorf("materializing inputs: %w", err)
	}
	if err := os.MkdirAll(outputsDir, 0755); err != nil {
		return nil, fmt.Errorf("creating outputs directory: %w", err)
	}

	runner := c.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	result, err := runner.Run(ctx, c.Name, c.Args, RunOpts{
		Dir: c.Dir,
		Env: map[string]string{
			EnvInputsDir:  inputsDir,
			EnvOutputsDir: outputsDir,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("running %s: %w", c, err)
	}
	if result.ExitCode != 0 {
		msg := strings.TrimSpace(result.Stderr)
		if msg == "" {
			msg = strings.TrimSpace(result.Stdout)
		}
		return nil, fmt.Errorf("%s exited with status %d: %s", c, result.ExitCode, msg)
	}

	outputs, err := fileset.Read(outputsDir)
	if err != nil {
		return nil, fmt.Errorf("collecting outputs: %w", err)
	}
	return outputs, nil
}

var _ Evaluator = (*Command)(nil)
