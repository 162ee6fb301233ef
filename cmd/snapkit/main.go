// snapkit runs snapshot tests for deterministic models.
package main

import (
	"fmt"
	"os"

	"snapkit/internal/cmd"
)

var (
	run    = func() error { return cmd.Execute() }
	osExit = os.Exit
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		osExit(cmd.ExitCode(err))
	}
}
