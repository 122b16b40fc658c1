package filesystem

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Copier performs byte-for-byte file copies. Used when a container has no
// audio entries and the output must equal the input exactly.
type Copier struct{}

// NewCopier creates a new file copier
func NewCopier() *Copier {
	return &Copier{}
}

// Copy writes an exact copy of src at dst, preserving the file mode.
func (c *Copier) Copy(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat source: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode())
	if err != nil {
		return fmt.Errorf("failed to create destination: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy file: %w", err)
	}
	return out.Close()
}
