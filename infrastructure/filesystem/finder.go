package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Finder lists files by extension for batch processing.
type Finder struct{}

// NewFinder creates a new file finder
func NewFinder() *Finder {
	return &Finder{}
}

// List returns the files in dir whose name ends with ext (case-insensitive),
// sorted by name for a deterministic batch order. Subdirectories are not
// descended into.
func (f *Finder) List(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
