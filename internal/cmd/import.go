package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"snapkit/internal/archive"
	"snapkit/internal/fileset"

	"github.com/spf13/cobra"
)

// newImportCmd creates the import command.
func newImportCmd(provider *AppProvider) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "import <archive>",
		Short: "Stage the inputs of a case archive",
		Long: `Unpack the inputs of a txtar case archive (as written by export) into the
staging directory. Run "snapkit create" afterwards to record it as a new
case with freshly computed expected outputs.

The archive's expected outputs are not imported. Use "-" to read stdin.
Refuses to overwrite a non-empty staging directory unless --force is given.

Examples:
  snapkit import case03.txtar && snapkit create`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}

			var data []byte
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("reading archive: %w", err)
			}

			c, err := archive.Unmarshal(data)
			if err != nil {
				return err
			}
			if len(c.Inputs) == 0 {
				return fmt.Errorf("%s: %w: no inputs", args[0], archive.ErrMalformed)
			}

			dir := app.Settings.StagingDir
			existing, err := fileset.Read(dir)
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("reading staging inputs: %w", err)
			}
			if len(existing) > 0 {
				if !force {
					return usageErrorf("staging directory %s is not empty (use --force to replace it)", dir)
				}
				if err := os.RemoveAll(dir); err != nil {
					return fmt.Errorf("clearing staging inputs: %w", err)
				}
			}
			if err := fileset.Write(dir, c.Inputs); err != nil {
				return fmt.Errorf("writing staging inputs: %w", err)
			}

			if app.JSON {
				return json.NewEncoder(app.Out).Encode(map[string]interface{}{
					"case":    c.Name,
					"staging": dir,
					"files":   c.Inputs.Paths(),
				})
			}
			from := c.Name
			if from == "" {
				from = args[0]
			}
			fmt.Fprintf(app.Out, "Staged %d input files from %s in %s\n", len(c.Inputs), from, dir)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Replace existing staging inputs")

	return cmd
}
