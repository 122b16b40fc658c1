package container

import "fmt"

// MediaDir is the archive subdirectory that holds embedded media parts.
const MediaDir = "ppt/media"

// Manifest describes the contents of an unpacked container: every entry
// path as found in the source archive, plus the subset of media entries
// eligible for audio replacement.
//
// Repacking must preserve every entry's relative path, byte content
// (except those explicitly replaced), and source order.
type Manifest struct {
	// Entries lists archive-relative paths in source order. Repack writes
	// the output archive in exactly this order.
	Entries []string

	// AudioPaths lists absolute scratch-tree paths of recognized audio
	// entries under MediaDir, sorted by name for deterministic processing.
	AudioPaths []string
}

// IntegrityError reports a container that is unreadable or not a valid
// archive. It aborts the job before any extraction.
type IntegrityError struct {
	Path   string
	Reason string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("invalid container %s: %s", e.Path, e.Reason)
}
