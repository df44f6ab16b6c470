// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package drive

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"sort"
)

// LocalTree is a Tree over the local filesystem. Ids are paths.
type LocalTree struct{}

// Folder returns the directory at id.
func (LocalTree) Folder(_ context.Context, id string) (Entry, error) {
	info, err := os.Stat(id)
	if err != nil {
		return Entry{}, err
	}
	if !info.IsDir() {
		return Entry{}, fmt.Errorf("%s: %w", id, ErrNotFolder)
	}
	return localEntry(id, info), nil
}

// List returns the directory's entries sorted by name.
func (LocalTree) List(_ context.Context, folderID string) ([]Entry, error) {
	des, err := os.ReadDir(folderID)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(des))
	for _, de := range des {
		info, err := de.Info()
		if err != nil {
			return nil, err
		}
		out = append(out, localEntry(filepath.Join(folderID, de.Name()), info))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Download copies the file at id to w.
func (LocalTree) Download(_ context.Context, id string, w io.Writer) error {
	f, err := os.Open(id)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}

// Upload writes name into the directory through a temp file.
func (LocalTree) Upload(_ context.Context, folderID, name string, r io.Reader) (Entry, error) {
	if err := os.MkdirAll(folderID, 0o755); err != nil {
		return Entry{}, fmt.Errorf("creating directory %s: %w", folderID, err)
	}
	dest := filepath.Join(folderID, name)
	if err := writeFileAtomic(dest, ".upload-*.tmp", r); err != nil {
		return Entry{}, err
	}
	info, err := os.Stat(dest)
	if err != nil {
		return Entry{}, err
	}
	return localEntry(dest, info), nil
}

func localEntry(path string, info os.FileInfo) Entry {
	e := Entry{ID: path, Name: info.Name(), Size: info.Size()}
	if info.IsDir() {
		e.MimeType = MimeFolder
	} else {
		e.MimeType = mime.TypeByExtension(filepath.Ext(path))
	}
	if abs, err := filepath.Abs(path); err == nil {
		e.WebViewLink = "file://" + filepath.ToSlash(abs)
	}
	return e
}

// writeFileAtomic copies r to a temp file next to dest and renames it into
// place, removing the temp file on every failure.
func writeFileAtomic(dest, pattern string, r io.Reader) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(dest), pattern)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, r)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", filepath.Base(dest), copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
