package scenario

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestDropIn(t *testing.T) {
	scenarioDir := t.TempDir()
	destDir := t.TempDir()
	writeFiles(t, scenarioDir, map[string]string{
		"1/land_use.csv": "base",
		"2/land_use.csv": "growth",
		"2/extra.csv":    "extra",
	})
	writeFiles(t, destDir, map[string]string{
		"land_use.csv": "stale",
	})

	mapping := map[string]string{"base": "1", "growth": "2"}
	if err := DropIn("growth", mapping, scenarioDir, destDir); err != nil {
		t.Fatalf("DropIn() error = %v", err)
	}

	got, err := os.ReadFile(filepath.Join(destDir, "land_use.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "growth" {
		t.Errorf("land_use.csv = %q, want %q", got, "growth")
	}
	if _, err := os.Stat(filepath.Join(destDir, "extra.csv")); err != nil {
		t.Errorf("extra.csv not copied: %v", err)
	}
}

func TestDropIn_UnknownCategory(t *testing.T) {
	err := DropIn("bogus", map[string]string{"base": "1"}, t.TempDir(), t.TempDir())
	if err == nil {
		t.Fatal("DropIn() error = nil, want lookup error")
	}
	if !strings.Contains(err.Error(), "bogus") {
		t.Errorf("error = %v, want it to name the category", err)
	}
}

func TestDropIn_MissingSourceDir(t *testing.T) {
	err := DropIn("base", map[string]string{"base": "nope"}, t.TempDir(), t.TempDir())
	if err == nil {
		t.Fatal("DropIn() error = nil, want filesystem error")
	}
}

func TestMixture(t *testing.T) {
	scenarioDir := t.TempDir()
	destDir := t.TempDir()
	writeFiles(t, scenarioDir, map[string]string{
		"1/shares.csv": "Geo,Year,Share\na,2010,0.0\nb,2038,1.0\n",
		"2/shares.csv": "Geo,Year,Share\na,2010,1.0\nb,2038,0.0\n",
	})

	files, err := Mixture(scenarioDir, 0.3, destDir, []string{"Year", "Geo"})
	if err != nil {
		t.Fatalf("Mixture() error = %v", err)
	}
	if len(files) != 1 || files[0] != "shares.csv" {
		t.Errorf("files = %v, want [shares.csv]", files)
	}

	got, err := os.ReadFile(filepath.Join(destDir, "shares.csv"))
	if err != nil {
		t.Fatal(err)
	}
	want := "Geo,Year,Share\na,2010,0.30000\nb,2038,0.70000\n"
	if string(got) != want {
		t.Errorf("shares.csv = %q, want %q", got, want)
	}
}

func TestMixture_MissingCounterpartFailsBeforeOutput(t *testing.T) {
	scenarioDir := t.TempDir()
	destDir := t.TempDir()
	writeFiles(t, scenarioDir, map[string]string{
		"1/a.csv": "Share\n0.5\n",
		"1/b.csv": "Share\n0.9\n",
		"2/a.csv": "Share\n0.1\n",
	})

	_, err := Mixture(scenarioDir, 0.5, destDir, nil)
	if err == nil {
		t.Fatal("Mixture() error = nil, want not-exist error")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("errors.Is(err, fs.ErrNotExist) = false, err = %v", err)
	}
	if !strings.Contains(err.Error(), "b.csv") {
		t.Errorf("error = %v, want it to name the missing path", err)
	}

	// No partial output: even a.csv (whose counterpart exists) must
	// not have been written.
	entries, readErr := os.ReadDir(destDir)
	if readErr != nil {
		t.Fatal(readErr)
	}
	if len(entries) != 0 {
		t.Errorf("destDir has %d entries, want 0", len(entries))
	}
}
