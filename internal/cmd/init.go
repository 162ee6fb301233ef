package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"snapkit/internal/casestore/filesystem"
	"snapkit/internal/config"
	"snapkit/internal/config/yamlstore"
	"snapkit/internal/fileset"
	"snapkit/internal/model"

	"github.com/spf13/cobra"
)

// newInitCmd creates the init command.
// Note: init doesn't use the provider's App since it creates the config.
func newInitCmd(provider *AppProvider) *cobra.Command {
	var (
		force   bool
		noInput bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a snapkit project",
		Long: `Initialize a snapkit project in the current directory (or --root).

Writes snapkit.yaml with the default settings, creates the snapshot
directory, and seeds the staging directory with a sample settings.json for
the built-in model unless --no-sample is given.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := provider.Out
			if out == nil {
				out = os.Stdout
			}
			root := provider.RootPath
			if root == "" {
				root = os.Getenv(config.EnvRoot)
			}
			if root == "" {
				cwd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("getting current directory: %w", err)
				}
				root = cwd
			}
			return runInit(cmd.Context(), out, root, force, !noInput)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Reinitialize even if snapkit.yaml exists")
	cmd.Flags().BoolVar(&noInput, "no-sample", false, "Do not write sample staging inputs")

	return cmd
}

func runInit(ctx context.Context, out io.Writer, root string, force, sample bool) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}
	if err := os.MkdirAll(absRoot, 0755); err != nil {
		return fmt.Errorf("creating project directory: %w", err)
	}

	configPath := filepath.Join(absRoot, config.FileName)
	if _, err := os.Stat(configPath); err == nil {
		if !force {
			return usageErrorf("snapkit project already exists at %s (use --force to reinitialize)", absRoot)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking %s: %w", config.FileName, err)
	}

	store, err := yamlstore.New(configPath)
	if err != nil {
		return fmt.Errorf("creating config store: %w", err)
	}
	if err := config.ApplyDefaults(store); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	settings, err := config.Load(store, absRoot)
	if err != nil {
		return err
	}

	if err := filesystem.New(settings.SnapshotsDir).Init(ctx); err != nil {
		return fmt.Errorf("initializing case store: %w", err)
	}

	if sample {
		if err := writeSample(settings.StagingDir); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "Initialized snapkit project in %s\n", absRoot)
	fmt.Fprintf(out, "  config:    %s\n", configPath)
	fmt.Fprintf(out, "  snapshots: %s\n", settings.SnapshotsDir)
	fmt.Fprintf(out, "  staging:   %s\n", settings.StagingDir)
	return nil
}

// writeSample seeds an empty staging directory with the built-in model's
// sample inputs. Existing staging files are left untouched.
func writeSample(dir string) error {
	existing, err := fileset.Read(dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("reading staging inputs: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	if err := fileset.Write(dir, model.SampleInputs()); err != nil {
		return fmt.Errorf("writing sample inputs: %w", err)
	}
	return nil
}
