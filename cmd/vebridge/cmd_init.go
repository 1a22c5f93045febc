package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nvandessel/vebridge/internal/model"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Stage a working directory from a model checkout",
		Long: `Stage a fresh working directory from a source checkout.

The source directory must contain the model-config and scope YAML
files, the runnable model tree, and (optionally) the scenario_inputs
endpoint directories. Re-initializing an existing working directory
overwrites the staged files and resets any experiment in progress.

Example:
  vebridge init --from ~/src/VERSPM-checkout --dir ./work`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			from, _ := cmd.Flags().GetString("from")
			if from == "" {
				return fmt.Errorf("--from is required")
			}

			cfg, err := model.InitWorkspace(from, dir)
			if err != nil {
				return fmt.Errorf("failed to stage working directory: %w", err)
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				json.NewEncoder(os.Stdout).Encode(map[string]string{
					"status":     "initialized",
					"dir":        dir,
					"model_path": cfg.ModelPath,
				})
			} else {
				fmt.Printf("Initialized working directory %s (model %s)\n", dir, cfg.ModelPath)
			}
			return nil
		},
	}

	cmd.Flags().String("from", "", "Source checkout to stage from")

	return cmd
}
