package filesystem

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestCopy_PreservesContentAndMode(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "deck.pptx")
	// Binary content, not valid UTF-8.
	content := []byte{0x50, 0x4b, 0x03, 0x04, 0x00, 0xff, 0xfe, 0x7f}
	if err := os.WriteFile(src, content, 0o600); err != nil {
		t.Fatal(err)
	}

	dst := filepath.Join(dir, "out", "deck.pptx")
	if err := NewCopier().Copy(src, dst); err != nil {
		t.Fatalf("copy: %v", err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read copy: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("content: got %x, want %x", got, content)
	}
	info, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode: got %v, want 0600", info.Mode().Perm())
	}
}

func TestCopy_MissingSource(t *testing.T) {
	dir := t.TempDir()
	err := NewCopier().Copy(filepath.Join(dir, "absent.pptx"), filepath.Join(dir, "out.pptx"))
	if err == nil {
		t.Fatal("expected an error for a missing source")
	}
}

func TestFinder_List(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.pptx", "a.PPTX", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	// Subdirectories are not descended into.
	sub := filepath.Join(dir, "nested")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "c.pptx"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := NewFinder().List(dir, ".pptx")
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	want := []string{filepath.Join(dir, "a.PPTX"), filepath.Join(dir, "b.pptx")}
	if len(got) != len(want) {
		t.Fatalf("files: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("file %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestFinder_MissingDirectory(t *testing.T) {
	if _, err := NewFinder().List(filepath.Join(t.TempDir(), "absent"), ".pptx"); err == nil {
		t.Fatal("expected an error for a missing directory")
	}
}

func TestChecker(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "deck.pptx")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := NewChecker()
	if !c.Exists(file) {
		t.Error("Exists must report the file")
	}
	if c.Exists(filepath.Join(dir, "absent")) {
		t.Error("Exists must not report a missing path")
	}
	if !c.IsDir(dir) {
		t.Error("IsDir must report the directory")
	}
	if c.IsDir(file) {
		t.Error("IsDir must not report a regular file")
	}
}

func TestScratch_ReleaseRemovesEverything(t *testing.T) {
	s, err := NewScratch("narration-tuner-test-")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	root := s.Root()
	if err := os.WriteFile(filepath.Join(root, "audio.wav"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := s.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Errorf("scratch directory still present: %v", err)
	}
	// A second release is a no-op.
	if err := s.Release(); err != nil {
		t.Errorf("second release: %v", err)
	}
}
