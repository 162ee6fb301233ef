package cmd

import (
	"context"
	"fmt"

	"snapkit/internal/snapshot"

	"github.com/spf13/cobra"
)

var modeHelp = map[snapshot.Mode]struct{ short, long string }{
	snapshot.ModeRun: {
		"Compare every case with its expected outputs",
		`Evaluate every case and compare the outputs with its ExpectedOutputs.

All cases are checked; every mismatch, missing baseline and evaluation
error is reported. Exits 1 if any case failed.

Examples:
  snapkit run
  snapkit run --jobs 4 --json`,
	},
	snapshot.ModeUpdate: {
		"Overwrite every case's expected outputs",
		`Evaluate every case and store the outputs as its new ExpectedOutputs.

Review the resulting changes before committing them. Stops at the first
evaluation error and exits 1.

Examples:
  snapkit update`,
	},
	snapshot.ModeCreate: {
		"Create a new case from the staging inputs",
		`Copy the staging inputs (staging.dir, default Inputs/) into the next free
case and record its first ExpectedOutputs.

Fails if the staging directory is missing or empty.

Examples:
  snapkit create`,
	},
}

// newModeCmd creates the run, update or create command.
func newModeCmd(provider *AppProvider, mode snapshot.Mode) *cobra.Command {
	help := modeHelp[mode]
	return &cobra.Command{
		Use:   string(mode),
		Short: help.short,
		Long:  help.long,
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMode(cmd.Context(), provider, mode)
		},
	}
}

// runMode executes one runner mode and renders its report. The returned
// error carries the runner's failure so the process exits non-zero.
func runMode(ctx context.Context, provider *AppProvider, mode snapshot.Mode) error {
	app, err := provider.Get()
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := app.prepareStorage(ctx, mode != snapshot.ModeRun); err != nil {
		return fmt.Errorf("opening case store: %w", err)
	}

	runner := app.Runner()
	var (
		report *snapshot.Report
		runErr error
	)
	switch mode {
	case snapshot.ModeRun:
		report, runErr = runner.Run(ctx)
	case snapshot.ModeUpdate:
		report, runErr = runner.Update(ctx)
	case snapshot.ModeCreate:
		staging, err := snapshot.ReadStaging(app.Settings.StagingDir)
		if err != nil {
			return err
		}
		report, runErr = runner.Create(ctx, staging)
	default:
		return usageErrorf("unknown mode %q", mode)
	}

	// A create that failed before reserving a case has nothing to render.
	if report == nil || (len(report.Results) == 0 && runErr != nil) {
		return runErr
	}
	if err := renderReport(app, report); err != nil {
		return err
	}
	if runErr != nil {
		return &reportedError{err: runErr, report: report}
	}
	return nil
}

// reportedError is a runner failure whose details were already rendered.
// Its message is a one-line summary for stderr.
type reportedError struct {
	err    error
	report *snapshot.Report
}

func (e *reportedError) Error() string {
	failed := e.report.Failed()
	switch {
	case len(failed) == 1:
		return failed[0].Err.Error()
	case len(failed) > 1:
		return fmt.Sprintf("%d of %d cases failed", len(failed), len(e.report.Results))
	}
	return e.err.Error()
}

func (e *reportedError) Unwrap() error { return e.err }
