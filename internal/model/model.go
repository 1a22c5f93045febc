// Package model orchestrates one experiment of the file-based VERSPM
// core model: preparing input files from experiment parameters,
// running the external R runtime, post-processing outputs into scalar
// measures, and archiving results.
//
// An experiment moves through a fixed sequence of states:
//
//	unconfigured → setup-complete → run-complete → post-processed → archived
//
// The state (together with the resolved parameter set and a run id) is
// persisted to <workdir>/.vebridge/state.json so the sequence can be
// driven by separate CLI invocations.
package model

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/nvandessel/vebridge/internal/config"
	"github.com/nvandessel/vebridge/internal/logging"
	"github.com/nvandessel/vebridge/internal/rundb"
	"github.com/nvandessel/vebridge/internal/scope"
)

// Experiment states.
const (
	StateUnconfigured  = "unconfigured"
	StateSetupComplete = "setup-complete"
	StateRunComplete   = "run-complete"
	StatePostProcessed = "post-processed"
	StateArchived      = "archived"
)

// StateDir is the bookkeeping directory inside the working directory.
const StateDir = ".vebridge"

// Model drives the core model through one experiment at a time. All
// paths are explicit; nothing changes the process working directory.
type Model struct {
	cfg   *config.ModelConfig
	scope *scope.Scope

	// workDir is the master working directory holding the model tree,
	// the config and scope files, and the .vebridge state.
	workDir string

	// localDir is where the model actually runs. It equals workDir
	// unless a distributed worker directory was configured, in which
	// case Setup copies the model tree there.
	localDir string

	// scenarioDir holds the endpoint scenario inputs (subdirectories
	// B, C, D, E, F, G, I, L, P, T, V).
	scenarioDir string

	workerDir string
	rscript   string

	db    *rundb.DB
	log   *slog.Logger
	trace *logging.RunTrace

	state *runState
}

// Options configures a Model.
type Options struct {
	// WorkDir is the master working directory. Required.
	WorkDir string

	// ScenarioDir overrides the scenario-inputs directory.
	// Defaults to <WorkDir>/scenario_inputs.
	ScenarioDir string

	// WorkerDir, when set and different from WorkDir, marks this
	// invocation as running on a distributed worker: Setup copies the
	// model tree into WorkerDir and the run happens there.
	WorkerDir string

	// Rscript is the R runtime executable. Defaults to "Rscript".
	Rscript string

	// DB is the optional experiment database.
	DB *rundb.DB

	Logger *slog.Logger
	Trace  *logging.RunTrace
}

// New creates a Model over an existing working directory. Previously
// persisted experiment state is loaded if present.
func New(cfg *config.ModelConfig, sc *scope.Scope, opts Options) (*Model, error) {
	if opts.WorkDir == "" {
		return nil, fmt.Errorf("working directory must be set")
	}
	workDir, err := filepath.Abs(opts.WorkDir)
	if err != nil {
		return nil, err
	}
	scenarioDir := opts.ScenarioDir
	if scenarioDir == "" {
		scenarioDir = filepath.Join(workDir, "scenario_inputs")
	}
	rscript := opts.Rscript
	if rscript == "" {
		rscript = "Rscript"
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	m := &Model{
		cfg:         cfg,
		scope:       sc,
		workDir:     workDir,
		localDir:    workDir,
		scenarioDir: scenarioDir,
		workerDir:   opts.WorkerDir,
		rscript:     rscript,
		db:          opts.DB,
		log:         log,
		trace:       opts.Trace,
	}
	if err := m.loadState(); err != nil {
		return nil, err
	}
	return m, nil
}

// State returns the current experiment state.
func (m *Model) State() string { return m.state.State }

// RunID returns the identifier of the current experiment, assigned at
// Setup.
func (m *Model) RunID() string { return m.state.RunID }

// Params returns the resolved parameter set of the current experiment.
func (m *Model) Params() map[string]any { return m.state.Params }

// LocalDir returns the directory the model runs from.
func (m *Model) LocalDir() string { return m.localDir }

// Scope returns the parameter catalog the model was opened with.
func (m *Model) Scope() *scope.Scope { return m.scope }

// Config returns the model configuration.
func (m *Model) Config() *config.ModelConfig { return m.cfg }

// DB returns the experiment database, or nil when none is configured.
func (m *Model) DB() *rundb.DB { return m.db }

// modelDir is the model tree inside the local directory.
func (m *Model) modelDir() string {
	return filepath.Join(m.localDir, m.cfg.ModelPath)
}

// outputDir is the model's output directory.
func (m *Model) outputDir() string {
	return filepath.Join(m.modelDir(), m.cfg.RelOutputPath)
}

// inputsDir is the model's inputs directory, the destination of all
// manipulations.
func (m *Model) inputsDir() string {
	return filepath.Join(m.modelDir(), "inputs")
}

// archiveBase resolves the archive base directory against the master
// working directory, so archives land in the master tree even when the
// run happened in a worker workspace.
func (m *Model) archiveBase() string {
	if filepath.IsAbs(m.cfg.ArchivePath) {
		return m.cfg.ArchivePath
	}
	return filepath.Join(m.workDir, m.cfg.ArchivePath)
}

// scenarioInput joins path elements under the scenario-inputs
// directory.
func (m *Model) scenarioInput(elem ...string) string {
	return filepath.Join(append([]string{m.scenarioDir}, elem...)...)
}

// runState is the persisted experiment state.
type runState struct {
	RunID     string         `json:"run_id,omitempty"`
	State     string         `json:"state"`
	Params    map[string]any `json:"params,omitempty"`
	LocalDir  string         `json:"local_dir,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (m *Model) statePath() string {
	return filepath.Join(m.workDir, StateDir, "state.json")
}

func (m *Model) loadState() error {
	data, err := os.ReadFile(m.statePath())
	if os.IsNotExist(err) {
		m.state = &runState{State: StateUnconfigured}
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading state: %w", err)
	}
	var st runState
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("parsing state %s: %w", m.statePath(), err)
	}
	m.state = &st
	if st.LocalDir != "" {
		m.localDir = st.LocalDir
	}
	return nil
}

func (m *Model) saveState(state string) error {
	m.state.State = state
	m.state.LocalDir = m.localDir
	m.state.UpdatedAt = time.Now().UTC()
	if err := os.MkdirAll(filepath.Join(m.workDir, StateDir), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(m.state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.statePath(), data, 0644)
}

// requireState fails unless the current state is one of the given
// states.
func (m *Model) requireState(op string, allowed ...string) error {
	for _, s := range allowed {
		if m.state.State == s {
			return nil
		}
	}
	return fmt.Errorf("%s requires state %v, current state is %s", op, allowed, m.state.State)
}

// newExperiment resets the experiment bookkeeping for a fresh Setup.
func (m *Model) newExperiment(params map[string]any) {
	m.state.RunID = uuid.NewString()
	m.state.Params = params
}
