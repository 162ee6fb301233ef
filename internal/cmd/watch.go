package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"snapkit/internal/casestore"
	"snapkit/internal/snapshot"
	"snapkit/internal/watch"

	"github.com/spf13/cobra"
)

// newWatchCmd creates the watch command.
func newWatchCmd(provider *AppProvider) *cobra.Command {
	var (
		paths []string
		delay time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run the snapshot tests whenever files change",
		Long: `Run every case once, then watch the snapshot directory (and any --path)
and run them again after each burst of changes. Changes to expected
outputs, dot files and lock files are ignored.

Stops on interrupt. Failing runs are reported but do not stop watching.

Examples:
  snapkit watch
  snapkit watch --path src --delay 500ms`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			if delay <= 0 {
				return usageErrorf("--delay must be positive, got %s", delay)
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			w, err := watch.New(delay, app.Logger)
			if err != nil {
				return err
			}
			defer w.Close()
			w.SetFilter(watchFilter)

			roots := append([]string{app.Settings.SnapshotsDir}, paths...)
			for _, root := range roots {
				if !filepath.IsAbs(root) {
					root = filepath.Join(app.Paths.Root, root)
				}
				if err := w.AddRecursive(root); err != nil {
					return fmt.Errorf("watching %s: %w", root, err)
				}
			}

			watchRun(ctx, provider)
			fmt.Fprintln(app.Out, "Watching for changes (Ctrl-C to stop)")
			return w.Run(ctx, func(ctx context.Context, changed []string) error {
				app.Logger.Info("files changed", "count", len(changed), "first", changed[0])
				watchRun(ctx, provider)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&paths, "path", nil, "Additional directories to watch (repeatable)")
	cmd.Flags().DurationVar(&delay, "delay", watch.DefaultDelay, "Quiet period before re-running")

	return cmd
}

// watchRun runs every case once. Failures are already in the rendered
// report, so only errors that prevented a report are printed.
func watchRun(ctx context.Context, provider *AppProvider) {
	err := runMode(ctx, provider, snapshot.ModeRun)
	if err == nil || ctx.Err() != nil {
		return
	}
	if _, ok := err.(*reportedError); ok {
		return
	}
	fmt.Fprintf(provider.errOut(), "Error: %v\n", err)
}

// watchFilter drops baseline writes and lock files.
func watchFilter(path string) bool {
	if strings.HasSuffix(path, ".lock") {
		return false
	}
	sep := string(filepath.Separator)
	return !strings.Contains(path, sep+casestore.DirExpectedOutputs+sep) &&
		!strings.HasSuffix(path, sep+casestore.DirExpectedOutputs)
}
