package cmd

import (
	"errors"
	"fmt"

	"snapkit/internal/config"

	"github.com/spf13/cobra"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1 // a case failed, or the command could not complete
	ExitUsage   = 2 // bad flags, arguments or configuration
)

// UsageError marks errors caused by how snapkit was invoked.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }

func (e *UsageError) Unwrap() error { return e.Err }

func usageErrorf(format string, args ...interface{}) error {
	return &UsageError{Err: fmt.Errorf(format, args...)}
}

// usageArgs wraps a cobra argument validator so its errors map to ExitUsage.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return &UsageError{Err: err}
		}
		return nil
	}
}

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ue *UsageError
	if errors.As(err, &ue) || errors.Is(err, config.ErrInvalidConfig) {
		return ExitUsage
	}
	return ExitFailure
}
