// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package drive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// BatchResult holds the outcome of a download or upload batch.
type BatchResult struct {
	Done    int
	Skipped int
	Failed  int
	Paths   []string
}

// Total returns the number of files processed.
func (r BatchResult) Total() int {
	return r.Done + r.Skipped + r.Failed
}

// HasFailures reports whether any file failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Downloaded pairs a fetched file with where it landed.
type Downloaded struct {
	Found
	Path string
}

// Fetch downloads files into destDir, naming each with name (or keeping its
// own name when name is nil). Names already taken in this batch get a
// " (2)", " (3)" suffix. It continues after individual failures.
func Fetch(ctx context.Context, t Tree, files []Found, destDir string, name func(Found) string, w io.Writer) ([]Downloaded, BatchResult) {
	var result BatchResult
	var out []Downloaded
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", destDir, err)
		result.Failed = len(files)
		return nil, result
	}

	taken := make(map[string]bool)
	for _, f := range files {
		if ctx.Err() != nil {
			result.Failed++
			continue
		}
		target := f.Name
		if name != nil {
			target = name(f)
		}
		target = unique(taken, target)
		dest := filepath.Join(destDir, target)

		fmt.Fprintf(w, "downloading: %s -> %s\n", f.Name, target)
		if err := downloadFile(ctx, t, f.ID, dest); err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", f.Name, err)
			result.Failed++
			continue
		}
		result.Done++
		result.Paths = append(result.Paths, dest)
		out = append(out, Downloaded{Found: f, Path: dest})
	}
	fmt.Fprintf(w, "\nBatch summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		result.Done, result.Skipped, result.Failed, result.Total())
	return out, result
}

// downloadFile fetches id to destPath using a temporary file.
func downloadFile(ctx context.Context, t Tree, id, destPath string) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".download-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	dlErr := t.Download(ctx, id, tmpFile)
	closeErr := tmpFile.Close()
	if dlErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("downloading: %w", dlErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

func unique(taken map[string]bool, name string) string {
	candidate := name
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 2; taken[candidate]; i++ {
		candidate = base + " (" + strconv.Itoa(i) + ")" + ext
	}
	taken[candidate] = true
	return candidate
}

// CleanDir removes everything inside dir, creating it when absent.
func CleanDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("removing %s: %w", e.Name(), err)
		}
	}
	return nil
}
