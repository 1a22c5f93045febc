package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/nvandessel/vebridge/internal/model"
)

func newMeasuresCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "measures",
		Short: "Print the computed performance measures",
		Long: `Print the performance measures computed by 'vebridge post-process'.

By default the measures are read from the model's output directory.
With --from-zip they are read out of an archive produced by
'vebridge archive' instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fromZip, _ := cmd.Flags().GetString("from-zip")
			outputPath, _ := cmd.Flags().GetString("output")

			m, cleanup, err := openModel(cmd, false, model.Options{})
			if err != nil {
				return err
			}
			defer cleanup()

			var measures map[string]float64
			if fromZip != "" {
				measures, err = m.LoadArchivedMeasures(fromZip)
			} else {
				measures, err = m.LoadMeasures(outputPath)
			}
			if err != nil {
				return fmt.Errorf("failed to load measures: %w", err)
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				json.NewEncoder(os.Stdout).Encode(measures)
			} else {
				printMeasures(measures)
			}
			return nil
		},
	}

	cmd.Flags().String("from-zip", "", "Read measures out of this archive")
	cmd.Flags().String("output", "", "Read measures from this output directory")

	return cmd
}

// printMeasures writes a name-sorted measure table to stdout.
func printMeasures(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%-24s %g\n", name, m[name])
	}
}
