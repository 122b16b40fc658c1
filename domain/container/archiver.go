package container

// Archiver defines the port for container extraction and reconstruction.
// This is implemented by the ZIP infrastructure adapter.
type Archiver interface {
	// Validate checks that the path is a readable container archive.
	// Returns *IntegrityError when it is not.
	Validate(containerPath string) error

	// Extract unpacks all entries of the archive into a directory under
	// scratchRoot and returns the tree path plus the manifest.
	Extract(containerPath, scratchRoot string) (treePath string, manifest *Manifest, err error)

	// Repack writes a new deflate-compressed archive at outputPath with
	// the manifest's entries in their original source order, reading each
	// entry's bytes from the scratch tree.
	Repack(treePath string, manifest *Manifest, outputPath string) error
}
