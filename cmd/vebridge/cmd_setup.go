package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nvandessel/vebridge/internal/model"
)

func newSetupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Prepare the model inputs for one experiment",
		Long: `Configure the core model for one experiment.

Parameters come from a YAML file (--params) and/or individual --set
flags; --set wins on conflict. Parameters not given fall back to their
scope defaults. Setup validates the parameter set, applies every input
manipulation (template substitution, categorical drop-ins, scenario
blending), and records the prepared experiment so a later 'vebridge
run' can execute it.

Example:
  vebridge setup --params experiment.yml --set Income=52000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			workerDir, _ := cmd.Flags().GetString("worker-dir")

			params, err := loadParams(cmd)
			if err != nil {
				return err
			}

			m, cleanup, err := openModel(cmd, true, model.Options{WorkerDir: workerDir})
			if err != nil {
				return err
			}
			defer cleanup()

			if err := m.Setup(params); err != nil {
				return fmt.Errorf("setup failed: %w", err)
			}
			if err := recordScope(cmd, m); err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				json.NewEncoder(os.Stdout).Encode(map[string]any{
					"status": m.State(),
					"run_id": m.RunID(),
					"params": m.Params(),
				})
			} else {
				fmt.Printf("Setup complete (run %s)\n", m.RunID())
			}
			return nil
		},
	}

	addParamFlags(cmd)

	return cmd
}

// addParamFlags registers the experiment-parameter flags shared by
// setup and experiment.
func addParamFlags(cmd *cobra.Command) {
	cmd.Flags().String("params", "", "YAML file of experiment parameters")
	cmd.Flags().StringArray("set", nil, "Set one parameter as name=value (repeatable)")
	cmd.Flags().String("worker-dir", "", "Worker directory for distributed runs")
}

// loadParams assembles the experiment parameters from the --params
// YAML file and the --set flags; --set wins on conflict.
func loadParams(cmd *cobra.Command) (map[string]any, error) {
	paramsFile, _ := cmd.Flags().GetString("params")
	sets, _ := cmd.Flags().GetStringArray("set")

	params := map[string]any{}
	if paramsFile != "" {
		data, err := os.ReadFile(paramsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read params file: %w", err)
		}
		if err := yaml.Unmarshal(data, &params); err != nil {
			return nil, fmt.Errorf("failed to parse params file %s: %w", paramsFile, err)
		}
	}
	for _, s := range sets {
		name, value, err := parseSetFlag(s)
		if err != nil {
			return nil, err
		}
		params[name] = value
	}
	return params, nil
}

// recordScope stores the working directory's scope YAML in the
// experiment database so archives can be grouped per scope later.
func recordScope(cmd *cobra.Command, m *model.Model) error {
	dir, _ := cmd.Flags().GetString("dir")
	content, err := os.ReadFile(filepath.Join(dir, m.Config().ScopeFile))
	if err != nil {
		return nil
	}
	if err := m.DB().StoreScope(cmd.Context(), m.Scope().Name, string(content)); err != nil {
		return fmt.Errorf("failed to record scope: %w", err)
	}
	return nil
}

// parseSetFlag splits a name=value flag, converting the value to a
// number when it parses as one.
func parseSetFlag(s string) (string, any, error) {
	name, value, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return "", nil, fmt.Errorf("invalid --set %q, want name=value", s)
	}
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return name, int(n), nil
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return name, f, nil
	}
	return name, value, nil
}
