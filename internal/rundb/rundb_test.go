package rundb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(filepath.Join(t.TempDir(), "verspm.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestStoreScope_FirstDefinitionWins(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()

	if err := d.StoreScope(ctx, "VERSPM", "original"); err != nil {
		t.Fatalf("StoreScope() error = %v", err)
	}
	if err := d.StoreScope(ctx, "VERSPM", "changed"); err != nil {
		t.Fatalf("StoreScope() second call error = %v", err)
	}

	names, err := d.ScopeNames(ctx)
	if err != nil {
		t.Fatalf("ScopeNames() error = %v", err)
	}
	if diff := cmp.Diff([]string{"VERSPM"}, names); diff != "" {
		t.Errorf("ScopeNames() mismatch (-want +got):\n%s", diff)
	}
}

func TestExperimentID_FindOrCreate(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	if err := d.StoreScope(ctx, "VERSPM", "scope"); err != nil {
		t.Fatal(err)
	}

	params := map[string]any{"ValueOfTime": 13.0, "LandUse": "base"}
	id1, err := d.ExperimentID(ctx, "VERSPM", params)
	if err != nil {
		t.Fatalf("ExperimentID() error = %v", err)
	}

	// Same params again resolve to the same id.
	id2, err := d.ExperimentID(ctx, "VERSPM", map[string]any{"LandUse": "base", "ValueOfTime": 13.0})
	if err != nil {
		t.Fatalf("ExperimentID() error = %v", err)
	}
	if id1 != id2 {
		t.Errorf("same params: ids %d and %d, want equal", id1, id2)
	}

	// Different params get a new id.
	id3, err := d.ExperimentID(ctx, "VERSPM", map[string]any{"ValueOfTime": 21.0, "LandUse": "growth"})
	if err != nil {
		t.Fatalf("ExperimentID() error = %v", err)
	}
	if id3 == id1 {
		t.Errorf("different params resolved to the same id %d", id1)
	}
}

func TestSaveMeasures_RoundTripAndUpsert(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	if err := d.StoreScope(ctx, "VERSPM", "scope"); err != nil {
		t.Fatal(err)
	}
	id, err := d.ExperimentID(ctx, "VERSPM", map[string]any{"x": 1.0})
	if err != nil {
		t.Fatal(err)
	}

	if err := d.SaveMeasures(ctx, id, map[string]float64{"DVMTPerCapita": 16.2, "FuelUse": 9.9}); err != nil {
		t.Fatalf("SaveMeasures() error = %v", err)
	}
	if err := d.SaveMeasures(ctx, id, map[string]float64{"FuelUse": 10.1}); err != nil {
		t.Fatalf("SaveMeasures() upsert error = %v", err)
	}

	got, err := d.Measures(ctx, id)
	if err != nil {
		t.Fatalf("Measures() error = %v", err)
	}
	want := map[string]float64{"DVMTPerCapita": 16.2, "FuelUse": 10.1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Measures() mismatch (-want +got):\n%s", diff)
	}
}

func TestArchivePath(t *testing.T) {
	got := ArchivePath("archive", "VERSPM", 7)
	want := filepath.Join("archive", "scope_VERSPM", "experiment_007")
	if got != want {
		t.Errorf("ArchivePath() = %q, want %q", got, want)
	}
}
