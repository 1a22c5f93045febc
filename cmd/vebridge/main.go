package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nvandessel/vebridge/internal/config"
	"github.com/nvandessel/vebridge/internal/logging"
	"github.com/nvandessel/vebridge/internal/model"
	"github.com/nvandessel/vebridge/internal/rundb"
	"github.com/nvandessel/vebridge/internal/scope"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "vebridge",
		Short: "Experiment bridge for the VisionEval RSPM model",
		Long: `vebridge drives the VisionEval RSPM core model through parametric
experiments. It prepares the model's input files from experiment
parameters, runs the model under the external R runtime, derives
scalar performance measures from the outputs, and archives results
per experiment.

A working directory holds one experiment at a time, moving through
setup, run, post-process and archive.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("dir", ".", "Working directory")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (info, debug, trace)")

	// Add subcommands
	rootCmd.AddCommand(
		newVersionCmd(),
		newInitCmd(),
		newStatusCmd(),
		newSetupCmd(),
		newRunCmd(),
		newPostProcessCmd(),
		newArchiveCmd(),
		newMeasuresCmd(),
		newExperimentCmd(),
		newLogsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openModel loads the working directory's configuration, scope and
// persisted experiment state. The returned cleanup closes the trace
// and the experiment database; callers must invoke it. extra carries
// per-command options (worker directory, R runtime override).
func openModel(cmd *cobra.Command, withDB bool, extra model.Options) (*model.Model, func(), error) {
	dir, _ := cmd.Flags().GetString("dir")
	level, _ := cmd.Flags().GetString("log-level")

	cfg, err := config.Load(filepath.Join(dir, model.ConfigFile))
	if err != nil {
		return nil, nil, err
	}
	sc, err := scope.Load(filepath.Join(dir, cfg.ScopeFile))
	if err != nil {
		return nil, nil, err
	}

	trace := logging.NewRunTrace(filepath.Join(dir, model.StateDir), level)

	extra.WorkDir = dir
	extra.Logger = logging.NewLogger(level, os.Stderr)
	extra.Trace = trace

	var db *rundb.DB
	if withDB {
		db, err = rundb.Open(filepath.Join(dir, cfg.Database))
		if err != nil {
			trace.Close()
			return nil, nil, fmt.Errorf("failed to open experiment database: %w", err)
		}
		extra.DB = db
	}

	m, err := model.New(cfg, sc, extra)
	if err != nil {
		trace.Close()
		if db != nil {
			db.Close()
		}
		return nil, nil, err
	}

	cleanup := func() {
		trace.Close()
		if db != nil {
			db.Close()
		}
	}
	return m, cleanup, nil
}
