package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"snapkit/internal/config"
	"snapkit/internal/configservice"
	"snapkit/internal/logging"
	"snapkit/internal/snapshot"

	"github.com/spf13/cobra"
)

// AppProvider lazily initializes the App on first use.
type AppProvider struct {
	once sync.Once
	app  *App
	err  error

	// Config captured from flags before Execute()
	RootPath   string
	JSONOutput bool
	Jobs       int
	Verbose    bool
	Out        io.Writer
	Err        io.Writer
}

// Get returns the App, initializing it on first call.
func (p *AppProvider) Get() (*App, error) {
	p.once.Do(func() {
		if p.app == nil {
			p.app, p.err = p.init()
		}
	})
	return p.app, p.err
}

// NewTestProvider creates a provider pre-initialized with the given App.
// Used for testing commands with a test App.
func NewTestProvider(app *App) *AppProvider {
	return &AppProvider{
		app: app,
		Out: app.Out,
		Err: app.Err,
	}
}

func (p *AppProvider) init() (*App, error) {
	if p.Jobs < 0 {
		return nil, usageErrorf("--jobs must be positive, got %d", p.Jobs)
	}
	paths, err := configservice.ResolvePaths(p.RootPath)
	if err != nil {
		return nil, &UsageError{Err: err}
	}
	store, settings, err := configservice.Open(paths)
	if err != nil {
		return nil, err
	}
	if p.Jobs > 0 {
		settings.Jobs = p.Jobs
	}

	out := p.Out
	if out == nil {
		out = os.Stdout
	}
	errOut := p.errOut()

	app := newApp(paths, store, settings)
	app.Logger = logging.New(errOut, p.Verbose)
	app.Out = out
	app.Err = errOut
	app.JSON = p.JSONOutput || envBool(os.Getenv(config.EnvJSON))
	app.Logger.Debug("resolved project", "root", paths.Root, "snapshots", settings.SnapshotsDir, "jobs", settings.Jobs)
	return app, nil
}

func (p *AppProvider) errOut() io.Writer {
	if p.Err != nil {
		return p.Err
	}
	return os.Stderr
}

func envBool(v string) bool {
	return v == "1" || v == "true"
}

// Execute runs the CLI. Interrupts cancel the running command's context.
func Execute() error {
	provider := &AppProvider{
		Out: os.Stdout,
		Err: os.Stderr,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCmd(provider)
	return rootCmd.ExecuteContext(ctx)
}

// newRootCmd creates the root command with all subcommands.
func newRootCmd(provider *AppProvider) *cobra.Command {
	var mode string

	rootCmd := &cobra.Command{
		Use:   "snapkit",
		Short: "Snapshot tests for deterministic models",
		Long: `snapkit runs a deterministic system under test against numbered test cases
and compares what it produces with committed expected outputs.

Cases live in tests/snapshots/Case01, Case02, ... each holding Inputs/ and
ExpectedOutputs/. Without a subcommand, snapkit runs in the mode given by
--mode (run by default):

  run     evaluate every case and compare with its expected outputs
  update  evaluate every case and overwrite its expected outputs
  create  copy the staging inputs into a new case and record its outputs`,
		Args:          usageArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := snapshot.ParseMode(mode)
			if err != nil {
				return &UsageError{Err: err}
			}
			return runMode(cmd.Context(), provider, m)
		},
	}

	rootCmd.Flags().StringVar(&mode, "mode", string(snapshot.ModeRun), "Mode: run, update or create")

	// Global flags - these populate the provider config
	rootCmd.PersistentFlags().BoolVar(&provider.JSONOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&provider.RootPath, "root", "", "Project directory (default: search for snapkit.yaml from cwd)")
	rootCmd.PersistentFlags().IntVarP(&provider.Jobs, "jobs", "j", 0, "Cases to evaluate concurrently (default: run.jobs)")
	rootCmd.PersistentFlags().BoolVarP(&provider.Verbose, "verbose", "v", false, "Log diagnostics to stderr")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})

	// Register all commands
	rootCmd.AddCommand(newModeCmd(provider, snapshot.ModeRun))
	rootCmd.AddCommand(newModeCmd(provider, snapshot.ModeUpdate))
	rootCmd.AddCommand(newModeCmd(provider, snapshot.ModeCreate))
	rootCmd.AddCommand(newListCmd(provider))
	rootCmd.AddCommand(newInitCmd(provider))
	rootCmd.AddCommand(newExportCmd(provider))
	rootCmd.AddCommand(newImportCmd(provider))
	rootCmd.AddCommand(newWatchCmd(provider))
	rootCmd.AddCommand(newConfigCmd(provider))
	rootCmd.AddCommand(newVersionCmd(provider))

	return rootCmd
}
