package model

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/nvandessel/vebridge/internal/archive"
	"github.com/nvandessel/vebridge/internal/measures"
	"github.com/nvandessel/vebridge/internal/rundb"
)

// PostProcess computes the derived performance measures from the run's
// output tables and writes ComputedMeasures.json into the output
// directory. measureNames optionally restricts which measures are
// written; empty means all. outputPath overrides the model's own
// output directory, which allows re-deriving measures from archived
// results without re-running the model (in that case the state machine
// is not consulted or advanced).
func (m *Model) PostProcess(measureNames []string, outputPath string) (map[string]float64, error) {
	external := outputPath != ""
	if !external {
		if err := m.requireState("post-process", StateRunComplete); err != nil {
			return nil, err
		}
		outputPath = m.outputDir()
	}

	defl, err := measures.LoadDeflators(filepath.Join(m.modelDir(), "defs", "deflators.csv"))
	if err != nil {
		return nil, err
	}
	computed, err := measures.Compute(outputPath, defl)
	if err != nil {
		return nil, err
	}
	computed = measures.Filter(computed, measureNames)

	if err := measures.Write(outputPath, computed); err != nil {
		return nil, err
	}
	m.trace.Event("post_process", map[string]any{"measures": len(computed), "output": outputPath})

	if !external {
		if err := m.saveState(StatePostProcessed); err != nil {
			return nil, err
		}
	}
	m.log.Info("post-process complete", "measures", len(computed))
	return computed, nil
}

// LoadMeasures reads the ComputedMeasures.json artifact produced by
// PostProcess. It reads from but never writes to the output directory.
func (m *Model) LoadMeasures(outputPath string) (map[string]float64, error) {
	if outputPath == "" {
		outputPath = m.outputDir()
	}
	return measures.Read(filepath.Join(outputPath, measures.ComputedMeasuresFile))
}

// Archive packages the model's output subtree into a zip archive.
// The destination is resultsPath when given; otherwise it is derived
// from the experiment id (resolved through the experiment database
// from the current parameter set when experimentID is zero).
func (m *Model) Archive(ctx context.Context, resultsPath string, experimentID int64) (string, error) {
	if err := m.requireState("archive", StatePostProcessed); err != nil {
		return "", err
	}

	if resultsPath == "" {
		id := experimentID
		if id == 0 {
			if m.db == nil {
				return "", fmt.Errorf("archive: no experiment id given and no database configured")
			}
			var err error
			id, err = m.db.ExperimentID(ctx, m.scope.Name, m.state.Params)
			if err != nil {
				return "", err
			}
		}
		resultsPath = rundb.ArchivePath(m.archiveBase(), m.scope.Name, id)
	}
	zipPath := resultsPath + ".zip"

	m.log.Info("archiving results",
		"from", filepath.Join(m.modelDir(), m.cfg.RelOutputPath),
		"to", zipPath)
	if err := archive.Zip(zipPath, m.modelDir(), m.cfg.RelOutputPath); err != nil {
		return "", err
	}

	if err := m.saveState(StateArchived); err != nil {
		return "", err
	}
	m.trace.Event("archived", map[string]any{"zip": zipPath})
	return zipPath, nil
}

// LoadArchivedMeasures reads ComputedMeasures.json out of an archive
// produced by Archive.
func (m *Model) LoadArchivedMeasures(zipPath string) (map[string]float64, error) {
	entry := filepath.ToSlash(filepath.Join(m.cfg.RelOutputPath, measures.ComputedMeasuresFile))
	data, err := archive.ReadFile(zipPath, entry)
	if err != nil {
		return nil, err
	}
	return measures.Parse(data)
}
