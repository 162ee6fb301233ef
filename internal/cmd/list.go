package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"snapkit/internal/casestore"

	"github.com/spf13/cobra"
)

type caseSummary struct {
	Name        string `json:"name"`
	Dir         string `json:"dir"`
	Inputs      int    `json:"inputs"`
	HasBaseline bool   `json:"has_baseline"`
	Outputs     int    `json:"outputs"`
}

// newListCmd creates the list command.
func newListCmd(provider *AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List test cases",
		Long: `List the stored test cases in order, with their file counts and whether
each has expected outputs yet.

Examples:
  snapkit list
  snapkit list --json`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := provider.Get()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			cases, err := app.Storage.List(ctx)
			if err != nil {
				return fmt.Errorf("listing cases: %w", err)
			}

			summaries := make([]caseSummary, 0, len(cases))
			for _, c := range cases {
				s := caseSummary{Name: c.Name, Dir: c.Dir}
				inputs, err := app.Storage.ReadInputs(ctx, c)
				if err != nil {
					return err
				}
				s.Inputs = len(inputs)
				outputs, err := app.Storage.ReadExpectedOutputs(ctx, c)
				switch {
				case err == nil:
					s.HasBaseline = true
					s.Outputs = len(outputs)
				case !errors.Is(err, casestore.ErrBaselineAbsent):
					return err
				}
				summaries = append(summaries, s)
			}

			if app.JSON {
				return json.NewEncoder(app.Out).Encode(summaries)
			}

			if len(summaries) == 0 {
				fmt.Fprintln(app.Out, "No cases found")
				return nil
			}
			for _, s := range summaries {
				baseline := app.SuccessColor(fmt.Sprintf("%d expected", s.Outputs))
				if !s.HasBaseline {
					baseline = app.WarnColor("no baseline")
				}
				fmt.Fprintf(app.Out, "%s  %d inputs, %s\n", s.Name, s.Inputs, baseline)
			}
			return nil
		},
	}

	return cmd
}
