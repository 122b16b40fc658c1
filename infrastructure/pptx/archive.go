// Package pptx implements the container port for ZIP-based presentation
// archives: validation, full extraction to a scratch tree, audio entry
// discovery, and byte-complete repacking.
package pptx

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"narration-tuner/domain/audio"
	"narration-tuner/domain/container"
)

// Archiver implements container.Archiver for ZIP archives.
type Archiver struct{}

// NewArchiver creates the ZIP archiver.
func NewArchiver() *Archiver {
	return &Archiver{}
}

// Validate checks that the path exists, is a regular file, and is a
// readable ZIP archive.
func (a *Archiver) Validate(containerPath string) error {
	info, err := os.Stat(containerPath)
	if err != nil {
		return &container.IntegrityError{Path: containerPath, Reason: "file not found"}
	}
	if info.IsDir() {
		return &container.IntegrityError{Path: containerPath, Reason: "not a file"}
	}
	r, err := zip.OpenReader(containerPath)
	if err != nil {
		return &container.IntegrityError{Path: containerPath, Reason: "not a valid ZIP archive"}
	}
	return r.Close()
}

// Extract unpacks every entry of the archive into a subdirectory of
// scratchRoot, then scans the media directory for recognized audio files.
// Extraction is complete, not selective: an entry present in the archive
// always appears in the scratch tree.
func (a *Archiver) Extract(containerPath, scratchRoot string) (string, *container.Manifest, error) {
	r, err := zip.OpenReader(containerPath)
	if err != nil {
		return "", nil, &container.IntegrityError{Path: containerPath, Reason: "not a valid ZIP archive"}
	}
	defer r.Close()

	treePath := filepath.Join(scratchRoot, "contents")
	if err := os.MkdirAll(treePath, 0o755); err != nil {
		return "", nil, fmt.Errorf("failed to create extraction directory: %w", err)
	}

	manifest := &container.Manifest{}
	for _, entry := range r.File {
		manifest.Entries = append(manifest.Entries, entry.Name)
		if err := extractEntry(entry, treePath); err != nil {
			return "", nil, fmt.Errorf("failed to extract %s: %w", entry.Name, err)
		}
	}

	audioPaths, err := findAudioFiles(treePath)
	if err != nil {
		return "", nil, err
	}
	manifest.AudioPaths = audioPaths

	return treePath, manifest, nil
}

func extractEntry(entry *zip.File, treePath string) error {
	// Guard against zip-slip: the entry must stay inside the tree.
	dest := filepath.Join(treePath, filepath.FromSlash(entry.Name))
	if !strings.HasPrefix(dest, filepath.Clean(treePath)+string(os.PathSeparator)) {
		return fmt.Errorf("entry path escapes extraction directory")
	}

	if entry.FileInfo().IsDir() {
		return os.MkdirAll(dest, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	src, err := entry.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

// findAudioFiles scans the media directory for files with a recognized
// audio extension, sorted by name for deterministic processing order.
func findAudioFiles(treePath string) ([]string, error) {
	mediaDir := filepath.Join(treePath, filepath.FromSlash(container.MediaDir))
	entries, err := os.ReadDir(mediaDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan media directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if audio.FamilyForPath(entry.Name()).Recognized() {
			paths = append(paths, filepath.Join(mediaDir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// Repack writes a new deflate-compressed archive at outputPath containing
// the manifest's entries in their original source order, with bytes read
// from the scratch tree. Modified entries carry their new content; every
// other entry round-trips unchanged.
func (a *Archiver) Repack(treePath string, manifest *container.Manifest, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output archive: %w", err)
	}
	zw := zip.NewWriter(out)

	for _, name := range manifest.Entries {
		if strings.HasSuffix(name, "/") {
			continue
		}
		src := filepath.Join(treePath, filepath.FromSlash(name))
		if err := writeArchiveEntry(zw, name, src); err != nil {
			zw.Close()
			out.Close()
			return fmt.Errorf("failed to repack %s: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		out.Close()
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return out.Close()
}

func writeArchiveEntry(zw *zip.Writer, name, src string) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}

// Ensure Archiver implements container.Archiver
var _ container.Archiver = (*Archiver)(nil)
