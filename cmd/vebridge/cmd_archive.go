package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nvandessel/vebridge/internal/model"
)

func newArchiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Package the experiment's outputs into a zip archive",
		Long: `Package the model's output subtree into a zip archive.

Requires a completed 'vebridge post-process'. Without --results the
destination is derived from the experiment database as
<archive_path>/scope_<name>/experiment_<id>.zip.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			resultsPath, _ := cmd.Flags().GetString("results")
			experimentID, _ := cmd.Flags().GetInt64("experiment-id")

			m, cleanup, err := openModel(cmd, resultsPath == "", model.Options{})
			if err != nil {
				return err
			}
			defer cleanup()

			zipPath, err := m.Archive(cmd.Context(), resultsPath, experimentID)
			if err != nil {
				return fmt.Errorf("archive failed: %w", err)
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				json.NewEncoder(os.Stdout).Encode(map[string]string{
					"status":  m.State(),
					"archive": zipPath,
				})
			} else {
				fmt.Printf("Archived results to %s\n", zipPath)
			}
			return nil
		},
	}

	cmd.Flags().String("results", "", "Archive destination path (without .zip)")
	cmd.Flags().Int64("experiment-id", 0, "Experiment id for the derived destination")

	return cmd
}
