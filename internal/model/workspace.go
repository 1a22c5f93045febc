package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nvandessel/vebridge/internal/config"
	"github.com/nvandessel/vebridge/internal/fsutil"
)

// Well-known filenames inside a working directory.
const (
	ConfigFile       = "verspm-model-config.yml"
	ScopeFile        = "verspm-scope.yml"
	ScenarioInputDir = "scenario_inputs"
)

// InitWorkspace stages a fresh working directory from a source
// checkout: the model-config and scope YAML files, the runnable model
// tree, and the scenario inputs. Returns the loaded configuration.
// Staging an already-initialized directory overwrites the staged
// files, which resets any experiment in progress.
func InitWorkspace(srcDir, workDir string) (*config.ModelConfig, error) {
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return nil, err
	}
	for _, name := range []string{ConfigFile, ScopeFile} {
		if err := fsutil.CopyFile(filepath.Join(srcDir, name), filepath.Join(workDir, name)); err != nil {
			return nil, fmt.Errorf("staging %s: %w", name, err)
		}
	}
	cfg, err := config.Load(filepath.Join(workDir, ConfigFile))
	if err != nil {
		return nil, err
	}

	if err := fsutil.CopyTree(
		filepath.Join(srcDir, cfg.ModelPath),
		filepath.Join(workDir, cfg.ModelPath),
	); err != nil {
		return nil, fmt.Errorf("staging model tree: %w", err)
	}

	srcScenarios := filepath.Join(srcDir, ScenarioInputDir)
	if _, err := os.Stat(srcScenarios); err == nil {
		if err := fsutil.CopyTree(srcScenarios, filepath.Join(workDir, ScenarioInputDir)); err != nil {
			return nil, fmt.Errorf("staging scenario inputs: %w", err)
		}
	}
	return cfg, nil
}
