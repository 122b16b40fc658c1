package pptx

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"narration-tuner/domain/audio"
	"narration-tuner/domain/container"
	"narration-tuner/pkg/logger"
)

// --- Mock implementations for testing ---

// mockArchiver implements container.Archiver for testing
type mockArchiver struct {
	validateErrs     map[string]error
	manifest         *container.Manifest
	extractErr       error
	repackErr        error
	repackCalls      int
	repackedManifest *container.Manifest
	repackedTo       string
}

func (m *mockArchiver) Validate(containerPath string) error {
	if err, ok := m.validateErrs[containerPath]; ok {
		return err
	}
	return nil
}

func (m *mockArchiver) Extract(containerPath, scratchRoot string) (string, *container.Manifest, error) {
	if m.extractErr != nil {
		return "", nil, m.extractErr
	}
	return filepath.Join(scratchRoot, "contents"), m.manifest, nil
}

func (m *mockArchiver) Repack(treePath string, manifest *container.Manifest, outputPath string) error {
	m.repackCalls++
	m.repackedManifest = manifest
	m.repackedTo = outputPath
	return m.repackErr
}

// mockNormalizer returns preset outcomes
type mockNormalizer struct {
	outcomes []audio.Outcome
	paths    []string
}

func (m *mockNormalizer) NormalizeAll(ctx context.Context, paths []string) []audio.Outcome {
	m.paths = paths
	return m.outcomes
}

// mockCopier records copies without touching the filesystem
type mockCopier struct {
	copies map[string]string // src -> dst
	err    error
}

func newMockCopier() *mockCopier {
	return &mockCopier{copies: make(map[string]string)}
}

func (m *mockCopier) Copy(src, dst string) error {
	if m.err != nil {
		return m.err
	}
	m.copies[src] = dst
	return nil
}

// mockFileChecker simulates file existence
type mockFileChecker struct {
	existingFiles map[string]bool
}

func (m *mockFileChecker) Exists(path string) bool {
	return m.existingFiles[path]
}

// mockFinder returns a fixed file list
type mockFinder struct {
	files []string
	err   error
}

func (m *mockFinder) List(dir, ext string) ([]string, error) {
	return m.files, m.err
}

// mockPrompter answers every confirmation the same way
type mockPrompter struct {
	answer bool
	called bool
}

func (m *mockPrompter) Confirm(message string) (bool, error) {
	m.called = true
	return m.answer, nil
}

// mockWorkspace tracks acquisition and release
type mockWorkspace struct {
	root     string
	released bool
}

func (m *mockWorkspace) Root() string { return m.root }

func (m *mockWorkspace) Release() error {
	m.released = true
	return nil
}

// --- Helper functions ---

type serviceFixture struct {
	archiver   *mockArchiver
	normalizer *mockNormalizer
	copier     *mockCopier
	checker    *mockFileChecker
	finder     *mockFinder
	prompter   *mockPrompter
	workspace  *mockWorkspace
	acquired   int
	output     *bytes.Buffer
}

func newFixture() *serviceFixture {
	return &serviceFixture{
		archiver:   &mockArchiver{manifest: &container.Manifest{}},
		normalizer: &mockNormalizer{},
		copier:     newMockCopier(),
		checker:    &mockFileChecker{existingFiles: map[string]bool{}},
		finder:     &mockFinder{},
		prompter:   &mockPrompter{},
		workspace:  &mockWorkspace{root: "/scratch"},
		output:     &bytes.Buffer{},
	}
}

func (f *serviceFixture) service(force bool) *Service {
	return NewService(
		f.archiver,
		f.normalizer,
		f.copier,
		f.checker,
		f.finder,
		f.prompter,
		func(prefix string) (Workspace, error) {
			f.acquired++
			return f.workspace, nil
		},
		force,
		logger.Nop(),
		f.output,
	)
}

// --- Tests ---

func TestProcessOne_NoAudioCopiesVerbatim(t *testing.T) {
	f := newFixture()
	f.archiver.manifest = &container.Manifest{
		Entries: []string{"[Content_Types].xml", "ppt/slides/slide1.xml"},
	}

	report, err := f.service(false).ProcessOne(context.Background(), "deck.pptx", "out.pptx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !report.Copied {
		t.Error("report must mark the verbatim copy")
	}
	if dst, ok := f.copier.copies["deck.pptx"]; !ok || dst != "out.pptx" {
		t.Errorf("copy: got %v, want deck.pptx -> out.pptx", f.copier.copies)
	}
	if f.archiver.repackCalls != 0 {
		t.Error("nothing to repack for an audio-free container")
	}
	if !f.workspace.released {
		t.Error("workspace must be released")
	}
}

func TestProcessOne_OutcomesAndRepack(t *testing.T) {
	f := newFixture()
	f.archiver.manifest = &container.Manifest{
		Entries:    []string{"ppt/media/a.wav", "ppt/media/b.mp3", "ppt/media/c.wav"},
		AudioPaths: []string{"/scratch/contents/ppt/media/a.wav", "/scratch/contents/ppt/media/b.mp3", "/scratch/contents/ppt/media/c.wav"},
	}
	f.normalizer.outcomes = []audio.Outcome{
		audio.Succeeded("a.wav", -23, -16, 7, 2.0),
		audio.Skipped("b.mp3", audio.SkipTooShort),
		audio.Failed("c.wav", errors.New("decode failed")),
	}

	report, err := f.service(false).ProcessOne(context.Background(), "deck.pptx", "out.pptx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	succeeded, skipped, failed := report.Counts()
	if succeeded != 1 || skipped != 1 || failed != 1 {
		t.Errorf("counts: got %d/%d/%d, want 1/1/1", succeeded, skipped, failed)
	}
	if len(f.normalizer.paths) != 3 {
		t.Errorf("normalizer received %d paths, want 3", len(f.normalizer.paths))
	}
	if f.archiver.repackCalls != 1 {
		t.Fatalf("repack calls: got %d, want 1", f.archiver.repackCalls)
	}
	// The extracted manifest drives the repack so entry order survives.
	if f.archiver.repackedManifest != f.archiver.manifest {
		t.Error("repack must receive the extracted manifest")
	}
	// The repacked archive is staged in the workspace, then copied out.
	if !strings.HasPrefix(f.archiver.repackedTo, "/scratch") {
		t.Errorf("staging path: got %s, want under /scratch", f.archiver.repackedTo)
	}
	if dst := f.copier.copies[f.archiver.repackedTo]; dst != "out.pptx" {
		t.Errorf("final copy: got %q, want out.pptx", dst)
	}
	if !f.workspace.released {
		t.Error("workspace must be released")
	}
}

func TestProcessOne_ValidationFailure(t *testing.T) {
	f := newFixture()
	f.archiver.validateErrs = map[string]error{
		"bad.pptx": &container.IntegrityError{Path: "bad.pptx", Reason: "not a valid ZIP archive"},
	}

	_, err := f.service(false).ProcessOne(context.Background(), "bad.pptx", "out.pptx")

	var integrityErr *container.IntegrityError
	if !errors.As(err, &integrityErr) {
		t.Fatalf("expected IntegrityError, got %v", err)
	}
	if f.acquired != 0 {
		t.Error("no scratch space may be created for a rejected input")
	}
}

func TestProcessOne_OverwriteDeclined(t *testing.T) {
	f := newFixture()
	f.checker.existingFiles["out.pptx"] = true
	f.prompter.answer = false

	report, err := f.service(false).ProcessOne(context.Background(), "deck.pptx", "out.pptx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !report.Declined {
		t.Error("report must mark the declined overwrite")
	}
	if f.acquired != 0 {
		t.Error("no work may start after a declined overwrite")
	}
}

func TestProcessOne_ForceSkipsPrompt(t *testing.T) {
	f := newFixture()
	f.checker.existingFiles["out.pptx"] = true

	_, err := f.service(true).ProcessOne(context.Background(), "deck.pptx", "out.pptx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.prompter.called {
		t.Error("force must bypass the overwrite prompt")
	}
}

func TestProcessOne_RepackFailureReleasesWorkspace(t *testing.T) {
	f := newFixture()
	f.archiver.manifest = &container.Manifest{
		AudioPaths: []string{"/scratch/contents/ppt/media/a.wav"},
	}
	f.normalizer.outcomes = []audio.Outcome{audio.Succeeded("a.wav", -23, -16, 7, 2.0)}
	f.archiver.repackErr = errors.New("disk full")

	_, err := f.service(false).ProcessOne(context.Background(), "deck.pptx", "out.pptx")

	if err == nil {
		t.Fatal("expected repack error to fail the job")
	}
	if !f.workspace.released {
		t.Error("workspace must be released on failure")
	}
}

func TestProcessDirectory_ContinuesAfterFailure(t *testing.T) {
	f := newFixture()
	f.finder.files = []string{"decks/bad.pptx", "decks/good.pptx"}
	f.archiver.validateErrs = map[string]error{
		"decks/bad.pptx": &container.IntegrityError{Path: "decks/bad.pptx", Reason: "not a valid ZIP archive"},
	}
	f.archiver.manifest = &container.Manifest{Entries: []string{"[Content_Types].xml"}}

	batch, err := f.service(true).ProcessDirectory(context.Background(), "decks", "out")

	if err == nil {
		t.Fatal("a failed job must fail the batch")
	}
	if batch.Total != 2 || batch.Succeeded != 1 || batch.Failed != 1 {
		t.Errorf("batch: got %d/%d/%d, want total 2, succeeded 1, failed 1", batch.Total, batch.Succeeded, batch.Failed)
	}
	// The good deck still produced its output.
	if dst := f.copier.copies["decks/good.pptx"]; dst != filepath.Join("out", "good.pptx") {
		t.Errorf("good deck output: got %q", dst)
	}
}

func TestProcessDirectory_EmptyDirectory(t *testing.T) {
	f := newFixture()
	f.finder.files = nil

	batch, err := f.service(true).ProcessDirectory(context.Background(), "decks", "out")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if batch.Total != 0 {
		t.Errorf("total: got %d, want 0", batch.Total)
	}
	if !strings.Contains(f.output.String(), "No PPTX files found") {
		t.Errorf("output: %q", f.output.String())
	}
}
