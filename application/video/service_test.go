package video

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"narration-tuner/domain/audio"
	"narration-tuner/domain/video"
	"narration-tuner/pkg/logger"
)

// --- Mock implementations for testing ---

// mockProber implements video.Prober for testing
type mockProber struct {
	info  *video.Info
	err   error
	calls int
}

func (m *mockProber) Probe(ctx context.Context, path string) (*video.Info, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.info, nil
}

// mockExtractor implements video.AudioExtractor for testing
type mockExtractor struct {
	err     error
	wavPath string
}

func (m *mockExtractor) ExtractAudio(ctx context.Context, videoPath, wavPath string) error {
	m.wavPath = wavPath
	return m.err
}

// mockRemuxer implements video.Remuxer for testing
type mockRemuxer struct {
	err        error
	calls      int
	outputPath string
}

func (m *mockRemuxer) ReplaceAudio(ctx context.Context, videoPath, wavPath, outputPath string) error {
	m.calls++
	m.outputPath = outputPath
	return m.err
}

// mockNormalizer returns a preset outcome
type mockNormalizer struct {
	outcome audio.Outcome
	path    string
}

func (m *mockNormalizer) NormalizeFile(ctx context.Context, path string) audio.Outcome {
	m.path = path
	return m.outcome
}

// mockCopier records copies without touching the filesystem
type mockCopier struct {
	copies map[string]string
}

func (m *mockCopier) Copy(src, dst string) error {
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
}

func (m *mockFinder) List(dir, ext string) ([]string, error) {
	return m.files, nil
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
	prober     *mockProber
	extractor  *mockExtractor
	remuxer    *mockRemuxer
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
		prober: &mockProber{info: &video.Info{
			Duration:   120,
			HasVideo:   true,
			HasAudio:   true,
			VideoCodec: "h264",
			AudioCodec: "aac",
		}},
		extractor:  &mockExtractor{},
		remuxer:    &mockRemuxer{},
		normalizer: &mockNormalizer{outcome: audio.Succeeded("audio.wav", -23, -16, 7, 120)},
		copier:     &mockCopier{copies: map[string]string{}},
		checker:    &mockFileChecker{existingFiles: map[string]bool{"lecture.mp4": true}},
		finder:     &mockFinder{},
		prompter:   &mockPrompter{},
		workspace:  &mockWorkspace{root: "/scratch"},
		output:     &bytes.Buffer{},
	}
}

func (f *serviceFixture) service(force bool) *Service {
	return NewService(
		f.prober,
		f.extractor,
		f.remuxer,
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

func TestProcessOne_Success(t *testing.T) {
	f := newFixture()

	report, err := f.service(false).ProcessOne(context.Background(), "lecture.mp4", "out.mp4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Outcome.Kind != audio.OutcomeSuccess {
		t.Errorf("outcome: got %v, want success", report.Outcome.Kind)
	}
	// The normalizer works on the extracted scratch WAV, not the video.
	if f.normalizer.path != f.extractor.wavPath {
		t.Errorf("normalized %s, extracted to %s", f.normalizer.path, f.extractor.wavPath)
	}
	if f.remuxer.calls != 1 {
		t.Errorf("remux calls: got %d, want 1", f.remuxer.calls)
	}
	// The remuxed file is staged in the workspace, then copied out.
	if !strings.HasPrefix(f.remuxer.outputPath, "/scratch") {
		t.Errorf("staging path: got %s, want under /scratch", f.remuxer.outputPath)
	}
	if dst := f.copier.copies[f.remuxer.outputPath]; dst != "out.mp4" {
		t.Errorf("final copy: got %q, want out.mp4", dst)
	}
	if !f.workspace.released {
		t.Error("workspace must be released")
	}
}

func TestProcessOne_MissingInput(t *testing.T) {
	f := newFixture()
	f.checker.existingFiles = map[string]bool{}

	_, err := f.service(false).ProcessOne(context.Background(), "lecture.mp4", "out.mp4")

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if f.prober.calls != 0 {
		t.Error("a missing file must not be probed")
	}
}

func TestProcessOne_WrongExtension(t *testing.T) {
	f := newFixture()
	f.checker.existingFiles["lecture.avi"] = true

	_, err := f.service(false).ProcessOne(context.Background(), "lecture.avi", "out.mp4")

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestProcessOne_MissingStreams(t *testing.T) {
	tests := []struct {
		name string
		info *video.Info
	}{
		{"no audio stream", &video.Info{HasVideo: true, HasAudio: false}},
		{"no video stream", &video.Info{HasVideo: false, HasAudio: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.prober.info = tt.info

			_, err := f.service(false).ProcessOne(context.Background(), "lecture.mp4", "out.mp4")

			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			// Validation happens before any staging, so a rejected input
			// leaves nothing behind.
			if f.acquired != 0 {
				t.Error("no scratch space may be created for a rejected input")
			}
		})
	}
}

func TestProcessOne_NormalizationSkipFailsJob(t *testing.T) {
	f := newFixture()
	f.normalizer.outcome = audio.Skipped("audio.wav", audio.SkipUnmeasurable)

	_, err := f.service(false).ProcessOne(context.Background(), "lecture.mp4", "out.mp4")

	if err == nil {
		t.Fatal("a skipped normalization must fail a video job")
	}
	if f.remuxer.calls != 0 {
		t.Error("no remux may happen without normalized audio")
	}
	if !f.workspace.released {
		t.Error("workspace must be released on failure")
	}
}

func TestProcessOne_ExtractionFailure(t *testing.T) {
	f := newFixture()
	f.extractor.err = errors.New("ffmpeg exited with status 1")

	_, err := f.service(false).ProcessOne(context.Background(), "lecture.mp4", "out.mp4")

	if err == nil {
		t.Fatal("expected extraction error to fail the job")
	}
	if f.remuxer.calls != 0 {
		t.Error("no remux may happen after a failed extraction")
	}
}

func TestProcessOne_OverwriteDeclined(t *testing.T) {
	f := newFixture()
	f.checker.existingFiles["out.mp4"] = true
	f.prompter.answer = false

	report, err := f.service(false).ProcessOne(context.Background(), "lecture.mp4", "out.mp4")
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

func TestProcessDirectory_ContinuesAfterFailure(t *testing.T) {
	f := newFixture()
	f.finder.files = []string{"in/bad.mp4", "in/good.mp4"}
	f.checker.existingFiles = map[string]bool{
		"in/bad.mp4":  false,
		"in/good.mp4": true,
	}

	batch, err := f.service(true).ProcessDirectory(context.Background(), "in", "out")

	if err == nil {
		t.Fatal("a failed job must fail the batch")
	}
	if batch.Total != 2 || batch.Succeeded != 1 || batch.Failed != 1 {
		t.Errorf("batch: got %d/%d/%d, want total 2, succeeded 1, failed 1", batch.Total, batch.Succeeded, batch.Failed)
	}
}
