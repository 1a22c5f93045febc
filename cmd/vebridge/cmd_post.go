package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nvandessel/vebridge/internal/model"
)

func newPostProcessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post-process",
		Short: "Derive performance measures from the run outputs",
		Long: `Compute the scalar performance measures from the model's output
tables and write ComputedMeasures.json into the output directory.

Requires a completed 'vebridge run', unless --output points at an
existing output directory (for example one unpacked from an archive),
in which case measures are re-derived there without touching the
experiment state.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, _ := cmd.Flags().GetStringSlice("measure")
			outputPath, _ := cmd.Flags().GetString("output")

			m, cleanup, err := openModel(cmd, true, model.Options{})
			if err != nil {
				return err
			}
			defer cleanup()

			computed, err := m.PostProcess(names, outputPath)
			if err != nil {
				return fmt.Errorf("post-process failed: %w", err)
			}

			// Keep the measures queryable per experiment.
			if outputPath == "" {
				id, err := m.DB().ExperimentID(cmd.Context(), m.Scope().Name, m.Params())
				if err != nil {
					return fmt.Errorf("failed to resolve experiment: %w", err)
				}
				if err := m.DB().SaveMeasures(cmd.Context(), id, computed); err != nil {
					return fmt.Errorf("failed to save measures: %w", err)
				}
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				json.NewEncoder(os.Stdout).Encode(computed)
			} else {
				printMeasures(computed)
			}
			return nil
		},
	}

	cmd.Flags().StringSlice("measure", nil, "Restrict to the named measures (repeatable)")
	cmd.Flags().String("output", "", "Post-process this output directory instead of the model's")

	return cmd
}
