// Package notes lists and serves the static PDF study material directory.
// There is no logic here beyond file listing and byte passthrough.
package notes

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotFound covers missing files and names that are not servable notes.
var ErrNotFound = errors.New("note not found")

// File describes one PDF available for viewing or download.
type File struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Dir is the notes directory.
type Dir struct {
	path string
}

// NewDir ensures the directory exists and returns it. A fresh install simply
// starts with an empty notes list.
func NewDir(path string) (*Dir, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("creating notes directory: %w", err)
	}
	return &Dir{path: path}, nil
}

// Path returns the directory the notes are served from.
func (d *Dir) Path() string {
	return d.path
}

// List returns the .pdf files in the directory, sorted by name.
func (d *Dir) List() ([]File, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	var files []File
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat note %s: %w", e.Name(), err)
		}
		files = append(files, File{Name: e.Name(), Size: info.Size()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Open returns the named note for reading. The name is reduced to its base
// so nothing outside the directory is reachable, and only .pdf files serve.
func (d *Dir) Open(name string) (*os.File, error) {
	base := filepath.Base(name)
	if base != name || !strings.EqualFold(filepath.Ext(base), ".pdf") {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	f, err := os.Open(filepath.Join(d.path, base))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, base)
		}
		return nil, fmt.Errorf("opening note %s: %w", base, err)
	}
	return f, nil
}
