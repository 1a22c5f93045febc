package model

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/nvandessel/vebridge/internal/logging"
)

// runnerScript is the generated R script handed to the external
// runtime as its sole argument.
const runnerScript = "verspm_runner.R"

// timestampedOutput matches the timestamp suffix the runtime appends
// to its extract files, e.g. Marea_2038-5-17_42.csv.
var timestampedOutput = regexp.MustCompile(`^(.*)_\d{4}-\d{1,2}-\d{1,2}_\d+(\.csv)$`)

// RunError reports a non-zero exit of the external model runtime,
// carrying everything captured for diagnostics.
type RunError struct {
	ExitCode int
	Args     []string
	Stdout   []byte
	Stderr   []byte
}

func (e *RunError) Error() string {
	return fmt.Sprintf("model run %v exited with code %d", e.Args, e.ExitCode)
}

// Run executes the core model as a subprocess of the external R
// runtime, blocking until it finishes. All experiment inputs were
// delivered in Setup; Run takes none. Captured stdout and stderr are
// persisted for LastRunLogs regardless of outcome. A hung subprocess
// is only interrupted by ctx.
func (m *Model) Run(ctx context.Context) error {
	if err := m.requireState("run", StateSetupComplete); err != nil {
		return err
	}
	m.log.Info("model run starting", "run_id", m.state.RunID)

	if err := m.writeRunnerScript(); err != nil {
		return err
	}
	if err := m.writeRprofile(m.localDir); err != nil {
		return err
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, m.rscript, runnerScript)
	cmd.Dir = m.localDir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	m.saveRunCapture(stdout.Bytes(), stderr.Bytes())

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			err := &RunError{
				ExitCode: exitErr.ExitCode(),
				Args:     cmd.Args,
				Stdout:   stdout.Bytes(),
				Stderr:   stderr.Bytes(),
			}
			m.trace.Event("run_failed", map[string]any{"exit_code": err.ExitCode})
			return err
		}
		return fmt.Errorf("starting model run: %w", runErr)
	}

	// Keep the runtime's stdout with the rest of the model outputs.
	if err := os.MkdirAll(m.outputDir(), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(m.outputDir(), "stdout.log"), stdout.Bytes(), 0644); err != nil {
		return err
	}

	if err := m.renameTimestampedOutputs(); err != nil {
		return err
	}

	if err := m.saveState(StateRunComplete); err != nil {
		return err
	}
	m.trace.Event("run_complete", map[string]any{"run_id": m.state.RunID})
	m.log.Info("model run complete", "run_id", m.state.RunID)
	return nil
}

// writeRunnerScript generates the R script that opens, runs, extracts
// and queries the model under the external runtime.
func (m *Model) writeRunnerScript() error {
	script := fmt.Sprintf(`require(visioneval)
source(%q, chdir = TRUE)
thismodel <- openModel(%q)
thismodel$run()
thismodel$extract()
thismodel$query(Geography=c(Type='Marea',Value='RVMPO'))
`,
		filepath.Join(m.cfg.RRuntimePath, "VisionEval.R"),
		m.modelDir(),
	)
	m.log.Log(context.Background(), logging.LevelTrace, "generated runner script", "script", script)
	return os.WriteFile(filepath.Join(m.localDir, runnerScript), []byte(script), 0644)
}

// renameTimestampedOutputs strips the run timestamps the runtime
// embeds in its extract filenames, so downstream steps can use fixed
// names. The listing is sorted first: when several timestamped
// variants of the same output exist, the lexicographically last one
// deterministically wins.
func (m *Model) renameTimestampedOutputs() error {
	entries, err := os.ReadDir(m.outputDir())
	if err != nil {
		return err
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		sub := timestampedOutput.FindStringSubmatch(name)
		if sub == nil {
			continue
		}
		oldPath := filepath.Join(m.outputDir(), name)
		newPath := filepath.Join(m.outputDir(), sub[1]+sub[2])
		m.log.Debug("renaming output", "from", name, "to", sub[1]+sub[2])
		if err := os.Rename(oldPath, newPath); err != nil {
			return err
		}
	}
	return nil
}

// saveRunCapture persists the captured subprocess output for
// LastRunLogs. Failures here are logged, not fatal: the capture is a
// diagnostic aid.
func (m *Model) saveRunCapture(stdout, stderr []byte) {
	dir := filepath.Join(m.workDir, StateDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		m.log.Warn("cannot persist run capture", "error", err)
		return
	}
	if err := os.WriteFile(filepath.Join(dir, "last-run-stdout.log"), stdout, 0644); err != nil {
		m.log.Warn("cannot persist run stdout", "error", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "last-run-stderr.log"), stderr, 0644); err != nil {
		m.log.Warn("cannot persist run stderr", "error", err)
	}
}

// LastRunLogs writes the captured stdout and stderr of the most recent
// run to w. If no run has been captured, it says so.
func (m *Model) LastRunLogs(w io.Writer) error {
	dir := filepath.Join(m.workDir, StateDir)
	stdout, outErr := os.ReadFile(filepath.Join(dir, "last-run-stdout.log"))
	stderr, errErr := os.ReadFile(filepath.Join(dir, "last-run-stderr.log"))
	if outErr != nil && errErr != nil {
		_, err := fmt.Fprintln(w, "no run stored")
		return err
	}
	if len(stdout) > 0 {
		fmt.Fprintln(w, "=== STDOUT ===")
		w.Write(stdout)
	}
	if len(stderr) > 0 {
		fmt.Fprintln(w, "=== STDERR ===")
		w.Write(stderr)
	}
	_, err := fmt.Fprintln(w, "=== END OF LOG ===")
	return err
}
