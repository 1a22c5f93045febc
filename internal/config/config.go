// Package config loads the model configuration YAML that describes
// where the core model lives and how to reach the external R runtime.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ModelConfig contains the file-based model settings. The
// configuration file is the same YAML the model uses outside this
// tool, so it carries paths rather than behavior.
type ModelConfig struct {
	// ModelPath is the model subdirectory, relative to the working
	// directory, holding the runnable model tree (defs/, inputs/, ...).
	ModelPath string `yaml:"model_path"`

	// RelOutputPath is the output subdirectory relative to ModelPath.
	RelOutputPath string `yaml:"rel_output_path"`

	// ScopeFile is the scope definition YAML, relative to the working
	// directory.
	ScopeFile string `yaml:"scope_file"`

	// RRuntimePath is the directory containing VisionEval.R.
	RRuntimePath string `yaml:"r_runtime_path"`

	// RLibraryPath is written into .Rprofile as the R library path.
	RLibraryPath string `yaml:"r_library_path"`

	// ArchivePath is the base directory for experiment archives.
	ArchivePath string `yaml:"archive_path"`

	// Database is the experiment database filename, relative to the
	// working directory.
	Database string `yaml:"database"`
}

// Default returns a ModelConfig with the defaults applied.
func Default() *ModelConfig {
	return &ModelConfig{
		ModelPath:     "VERSPM",
		RelOutputPath: "output",
		ScopeFile:     "verspm-scope.yml",
		ArchivePath:   "archive",
		Database:      "verspm.db",
	}
}

// Load reads a model configuration YAML file and applies defaults for
// any omitted fields.
func Load(path string) (*ModelConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing model config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("model config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that required fields are present.
func (c *ModelConfig) Validate() error {
	if c.ModelPath == "" {
		return fmt.Errorf("model_path must be set")
	}
	if c.RelOutputPath == "" {
		return fmt.Errorf("rel_output_path must be set")
	}
	return nil
}
