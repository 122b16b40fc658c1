package filesystem

import (
	"fmt"
	"os"
)

// Scratch is a temporary working directory with guaranteed release.
// Acquire it at job start and defer Release; it is removed on every exit
// path, success, failure, or cancellation.
type Scratch struct {
	root string
}

// NewScratch creates a fresh scratch directory with the given prefix.
func NewScratch(prefix string) (*Scratch, error) {
	root, err := os.MkdirTemp("", prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	return &Scratch{root: root}, nil
}

// Root returns the scratch directory path.
func (s *Scratch) Root() string {
	return s.root
}

// Release removes the scratch directory and everything in it.
func (s *Scratch) Release() error {
	if s.root == "" {
		return nil
	}
	err := os.RemoveAll(s.root)
	s.root = ""
	return err
}
