// Package archive packages model results into zip archives and reads
// measures back out of archived runs.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Zip writes a zip archive of the subtree rooted at
// <rootDir>/<baseDir>. Entry names are relative to rootDir, so the
// archive unpacks to the same layout the model directory had
// (matching a zip of baseDir made from inside rootDir).
func Zip(zipPath, rootDir, baseDir string) error {
	if err := os.MkdirAll(filepath.Dir(zipPath), 0755); err != nil {
		return err
	}
	f, err := os.Create(zipPath)
	if err != nil {
		return err
	}
	zw := zip.NewWriter(f)

	srcRoot := filepath.Join(rootDir, baseDir)
	walkErr := filepath.WalkDir(srcRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(rootDir, path)
		if err != nil {
			return err
		}
		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		_, err = io.Copy(w, in)
		in.Close()
		return err
	})
	if walkErr != nil {
		zw.Close()
		f.Close()
		return fmt.Errorf("archiving %s: %w", srcRoot, walkErr)
	}
	if err := zw.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile extracts a single file from a zip archive by its
// slash-separated entry name.
func ReadFile(zipPath, name string) ([]byte, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	for _, zf := range zr.File {
		if zf.Name != name {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%s: no entry %q", zipPath, name)
}
