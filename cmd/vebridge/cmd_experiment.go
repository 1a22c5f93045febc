package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nvandessel/vebridge/internal/model"
)

func newExperimentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "experiment",
		Short: "Run one full experiment cycle",
		Long: `Run one experiment end to end: setup, model run, post-process and
archive, recording the measures in the experiment database.

This is the single-command equivalent of running setup, run,
post-process and archive in sequence.

Example:
  vebridge experiment --params experiment.yml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			workerDir, _ := cmd.Flags().GetString("worker-dir")
			rscript, _ := cmd.Flags().GetString("rscript")

			params, err := loadParams(cmd)
			if err != nil {
				return err
			}

			m, cleanup, err := openModel(cmd, true, model.Options{
				WorkerDir: workerDir,
				Rscript:   rscript,
			})
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := signalContext(cmd)
			defer cancel()

			if err := m.Setup(params); err != nil {
				return fmt.Errorf("setup failed: %w", err)
			}
			if err := recordScope(cmd, m); err != nil {
				return err
			}
			if err := m.Run(ctx); err != nil {
				return err
			}
			computed, err := m.PostProcess(nil, "")
			if err != nil {
				return fmt.Errorf("post-process failed: %w", err)
			}

			id, err := m.DB().ExperimentID(ctx, m.Scope().Name, m.Params())
			if err != nil {
				return fmt.Errorf("failed to resolve experiment: %w", err)
			}
			if err := m.DB().SaveMeasures(ctx, id, computed); err != nil {
				return fmt.Errorf("failed to save measures: %w", err)
			}

			zipPath, err := m.Archive(ctx, "", id)
			if err != nil {
				return fmt.Errorf("archive failed: %w", err)
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				json.NewEncoder(os.Stdout).Encode(map[string]any{
					"experiment_id": id,
					"run_id":        m.RunID(),
					"archive":       zipPath,
					"measures":      computed,
				})
			} else {
				fmt.Printf("Experiment %d complete (run %s)\n", id, m.RunID())
				printMeasures(computed)
				fmt.Printf("Archived to %s\n", zipPath)
			}
			return nil
		},
	}

	addParamFlags(cmd)
	cmd.Flags().String("rscript", "", "R runtime executable (default Rscript)")

	cmd.AddCommand(
		newExperimentScopesCmd(),
		newExperimentIDCmd(),
		newExperimentMeasuresCmd(),
	)

	return cmd
}

func newExperimentScopesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scopes",
		Short: "List the scopes recorded in the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, cleanup, err := openModel(cmd, true, model.Options{})
			if err != nil {
				return err
			}
			defer cleanup()

			names, err := m.DB().ScopeNames(cmd.Context())
			if err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				json.NewEncoder(os.Stdout).Encode(names)
			} else {
				for _, name := range names {
					fmt.Println(name)
				}
			}
			return nil
		},
	}
}

func newExperimentIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "id",
		Short: "Print the current experiment's database id",
		Long: `Resolve the current experiment's parameter set to its database id,
creating the experiment record if this parameter set has not been seen
before. The same parameters always resolve to the same id.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, cleanup, err := openModel(cmd, true, model.Options{})
			if err != nil {
				return err
			}
			defer cleanup()

			if m.State() == model.StateUnconfigured {
				return fmt.Errorf("no experiment configured; run 'vebridge setup' first")
			}
			id, err := m.DB().ExperimentID(cmd.Context(), m.Scope().Name, m.Params())
			if err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				json.NewEncoder(os.Stdout).Encode(map[string]int64{"experiment_id": id})
			} else {
				fmt.Println(id)
			}
			return nil
		},
	}
}

func newExperimentMeasuresCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "measures <id>",
		Short: "Print the stored measures of an experiment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid experiment id %q", args[0])
			}

			m, cleanup, err := openModel(cmd, true, model.Options{})
			if err != nil {
				return err
			}
			defer cleanup()

			measures, err := m.DB().Measures(cmd.Context(), id)
			if err != nil {
				return err
			}
			if len(measures) == 0 {
				return fmt.Errorf("no measures stored for experiment %d", id)
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
}
