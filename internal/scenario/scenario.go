// Package scenario applies endpoint scenario directories to a model's
// input directory, either by copying a categorical variant in wholesale
// or by blending a pair of endpoint directories with a weight.
package scenario

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/nvandessel/vebridge/internal/blend"
	"github.com/nvandessel/vebridge/internal/fsutil"
)

// DropIn copies every file from the scenario subdirectory mapped to
// the categorical value into destDir, overwriting files of the same
// name. The mapping translates a category label (e.g. "growth") to a
// subdirectory name under scenarioDir (e.g. "2").
func DropIn(value string, mapping map[string]string, scenarioDir, destDir string) error {
	sub, ok := mapping[value]
	if !ok {
		return fmt.Errorf("no scenario directory mapped for category %q in %s", value, scenarioDir)
	}
	srcDir := filepath.Join(scenarioDir, sub)
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if err := fsutil.CopyFile(filepath.Join(srcDir, e.Name()), filepath.Join(destDir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// Mixture blends every file under <scenarioDir>/1 with its counterpart
// under <scenarioDir>/2 using weight (the contribution of endpoint 2)
// and writes the results into destDir under the original filenames.
// Columns named in exclude are never blended. All endpoint-2
// counterparts are verified to exist before any output is written; a
// missing counterpart fails with an error satisfying
// errors.Is(err, fs.ErrNotExist) that names the missing path.
// Returns the blended filenames in sorted order.
func Mixture(scenarioDir string, weight float64, destDir string, exclude []string) ([]string, error) {
	dir1 := filepath.Join(scenarioDir, "1")
	dir2 := filepath.Join(scenarioDir, "2")

	entries, err := os.ReadDir(dir1)
	if err != nil {
		return nil, err
	}
	var filenames []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		counterpart := filepath.Join(dir2, e.Name())
		if _, err := os.Stat(counterpart); err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%s: %w", counterpart, fs.ErrNotExist)
			}
			return nil, err
		}
		filenames = append(filenames, e.Name())
	}
	sort.Strings(filenames)

	for _, name := range filenames {
		t1, err := blend.ReadTable(filepath.Join(dir1, name))
		if err != nil {
			return nil, err
		}
		t2, err := blend.ReadTable(filepath.Join(dir2, name))
		if err != nil {
			return nil, err
		}
		mixed, err := blend.Mix(t1, t2, weight, exclude)
		if err != nil {
			return nil, fmt.Errorf("blending %s: %w", name, err)
		}
		if err := mixed.WriteFile(filepath.Join(destDir, name)); err != nil {
			return nil, err
		}
	}
	return filenames, nil
}
