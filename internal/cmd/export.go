package cmd

import (
	"errors"
	"fmt"
	"os"

	"snapkit/internal/archive"
	"snapkit/internal/casestore"

	"github.com/spf13/cobra"
)

// newExportCmd creates the export command.
func newExportCmd(provider *AppProvider) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <case>",
		Short: "Write a case as a text archive",
		Long: `Write a case's inputs and expected outputs as a single txtar archive.

Binary files and files without a trailing newline are base64-encoded.
The archive goes to stdout unless -o is given.

Examples:
  snapkit export Case03
  snapkit export Case03 -o case03.txtar`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			c, err := app.Storage.Get(ctx, args[0])
			if err != nil {
				return err
			}
			inputs, err := app.Storage.ReadInputs(ctx, c)
			if err != nil {
				return err
			}
			expected, err := app.Storage.ReadExpectedOutputs(ctx, c)
			if err != nil && !errors.Is(err, casestore.ErrBaselineAbsent) {
				return err
			}

			data := archive.Marshal(c.Name, inputs, expected)
			if output == "" || output == "-" {
				_, err := app.Out.Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0644); err != nil {
				return fmt.Errorf("writing archive: %w", err)
			}
			fmt.Fprintf(app.Out, "Exported %s to %s\n", c.Name, output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Archive file (default: stdout)")

	return cmd
}
