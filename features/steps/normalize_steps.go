//go:build integration

package steps

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"narration-tuner/cmd"
	"narration-tuner/domain/audio"
	"narration-tuner/domain/container"
	"narration-tuner/pkg/logger"

	"github.com/cucumber/godog"
)

// mockArchiver serves a preset manifest instead of reading a real archive
type mockArchiver struct {
	corruptPaths map[string]bool
	audioNames   []string
}

func (m *mockArchiver) Validate(containerPath string) error {
	if m.corruptPaths[containerPath] {
		return &container.IntegrityError{Path: containerPath, Reason: "not a valid ZIP archive"}
	}
	return nil
}

func (m *mockArchiver) Extract(containerPath, scratchRoot string) (string, *container.Manifest, error) {
	treePath := filepath.Join(scratchRoot, "contents")
	mediaDir := filepath.Join(treePath, "ppt", "media")
	if err := os.MkdirAll(mediaDir, 0o755); err != nil {
		return "", nil, err
	}

	manifest := &container.Manifest{Entries: []string{"[Content_Types].xml"}}
	for _, name := range m.audioNames {
		path := filepath.Join(mediaDir, name)
		if err := os.WriteFile(path, []byte("audio-bytes"), 0o644); err != nil {
			return "", nil, err
		}
		manifest.Entries = append(manifest.Entries, "ppt/media/"+name)
		manifest.AudioPaths = append(manifest.AudioPaths, path)
	}
	return treePath, manifest, nil
}

func (m *mockArchiver) Repack(treePath string, manifest *container.Manifest, outputPath string) error {
	return os.WriteFile(outputPath, []byte("repacked-archive"), 0o644)
}

// mockMeter reads every file at a fixed loudness
type mockMeter struct {
	value float64
}

func (m *mockMeter) Measure(buf *audio.Buffer) float64 {
	return m.value
}

// mockDenoiser passes audio through untouched
type mockDenoiser struct{}

func (m *mockDenoiser) Reduce(buf *audio.Buffer, strength float64) (*audio.Buffer, error) {
	return buf.Clone(), nil
}

// mockCodec decodes any path to a fixed one-second stereo buffer
type mockCodec struct{}

func (m *mockCodec) Decode(path string) (*audio.Buffer, error) {
	buf := audio.NewBuffer(48000, 2, 48000)
	for ch := range buf.Samples {
		for i := range buf.Samples[ch] {
			buf.Samples[ch][i] = 0.1
		}
	}
	return buf, nil
}

func (m *mockCodec) Encode(path string, buf *audio.Buffer) error {
	return nil
}

// mockTranscoder pretends every ffmpeg round trip succeeds
type mockTranscoder struct{}

func (m *mockTranscoder) ToWAV(ctx context.Context, inputPath, wavPath string) error {
	return nil
}

func (m *mockTranscoder) FromWAV(ctx context.Context, wavPath, outputPath string, family audio.CodecFamily) error {
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

// mockPrompter answers every confirmation the same way and accepts the
// default for free-form input
type mockPrompter struct {
	answer bool
}

func (m *mockPrompter) Input(message string, defaultValue string) (string, error) {
	return defaultValue, nil
}

func (m *mockPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	return m.answer, nil
}

// Ensure mockPrompter implements cmd.Prompter
var _ cmd.Prompter = (*mockPrompter)(nil)

// normalizeContext holds test state for normalization scenarios
type normalizeContext struct {
	dir        string
	inputPath  string
	outputPath string
	archiver   *mockArchiver
	checker    *mockFileChecker
	output     *bytes.Buffer
	err        error
}

// SharedNormalizeContext is reset before each scenario via Before hook
var SharedNormalizeContext *normalizeContext

func getNormalizeContext() *normalizeContext {
	return SharedNormalizeContext
}

func InitializeNormalizeScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		dir, err := os.MkdirTemp("", "normalize-feature-")
		if err != nil {
			return c, err
		}
		SharedNormalizeContext = &normalizeContext{
			dir:      dir,
			archiver: &mockArchiver{corruptPaths: make(map[string]bool)},
			checker:  &mockFileChecker{existingFiles: make(map[string]bool)},
			output:   &bytes.Buffer{},
		}
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if SharedNormalizeContext != nil {
			os.RemoveAll(SharedNormalizeContext.dir)
		}
		SharedNormalizeContext = nil
		return c, nil
	})

	ctx.Step(`^a presentation "([^"]*)" containing audio entries "([^"]*)" and "([^"]*)"$`, aPresentationContainingAudioEntries)
	ctx.Step(`^a presentation "([^"]*)" containing no audio entries$`, aPresentationContainingNoAudioEntries)
	ctx.Step(`^a corrupt presentation "([^"]*)"$`, aCorruptPresentation)
	ctx.Step(`^I normalize the presentation to (-?\d+) LUFS$`, iNormalizeThePresentationTo)
	ctx.Step(`^the command succeeds$`, theCommandSucceeds)
	ctx.Step(`^the command fails with an invalid container error$`, theCommandFailsWithAnInvalidContainerError)
	ctx.Step(`^the report lists (\d+) normalized audio files$`, theReportListsNormalizedAudioFiles)
	ctx.Step(`^the output reports a verbatim copy$`, theOutputReportsAVerbatimCopy)
	ctx.Step(`^the output presentation is written$`, theOutputPresentationIsWritten)
}

func (n *normalizeContext) createInput(name string) error {
	n.inputPath = filepath.Join(n.dir, name)
	n.outputPath = filepath.Join(n.dir, "out", name)
	return os.WriteFile(n.inputPath, []byte("original-archive"), 0o644)
}

func aPresentationContainingAudioEntries(name, first, second string) error {
	n := getNormalizeContext()
	n.archiver.audioNames = []string{first, second}
	return n.createInput(name)
}

func aPresentationContainingNoAudioEntries(name string) error {
	n := getNormalizeContext()
	n.archiver.audioNames = nil
	return n.createInput(name)
}

func aCorruptPresentation(name string) error {
	n := getNormalizeContext()
	if err := n.createInput(name); err != nil {
		return err
	}
	n.archiver.corruptPaths[n.inputPath] = true
	return nil
}

func iNormalizeThePresentationTo(target int) error {
	n := getNormalizeContext()

	n.err = cmd.RunPptxWithDependencies(
		context.Background(),
		n.archiver,
		&mockMeter{value: -23},
		&mockDenoiser{},
		&mockCodec{},
		&mockTranscoder{},
		n.checker,
		&mockFinder{},
		&mockPrompter{answer: true},
		cmd.PptxInput{
			InputPath:  n.inputPath,
			OutputPath: n.outputPath,
			TargetLUFS: float64(target),
		},
		logger.Nop(),
		n.output,
	)
	return nil
}

func theCommandSucceeds() error {
	n := getNormalizeContext()
	if n.err != nil {
		return fmt.Errorf("unexpected error: %v\noutput:\n%s", n.err, n.output.String())
	}
	return nil
}

func theCommandFailsWithAnInvalidContainerError() error {
	n := getNormalizeContext()
	var integrityErr *container.IntegrityError
	if !errors.As(n.err, &integrityErr) {
		return fmt.Errorf("expected IntegrityError, got %v", n.err)
	}
	return nil
}

func theReportListsNormalizedAudioFiles(count int) error {
	n := getNormalizeContext()
	want := fmt.Sprintf("Normalized %d of %d audio file(s)", count, count)
	if !strings.Contains(n.output.String(), want) {
		return fmt.Errorf("output missing %q:\n%s", want, n.output.String())
	}
	return nil
}

func theOutputReportsAVerbatimCopy() error {
	n := getNormalizeContext()
	if !strings.Contains(n.output.String(), "No audio files found") {
		return fmt.Errorf("output missing verbatim copy notice:\n%s", n.output.String())
	}
	return nil
}

func theOutputPresentationIsWritten() error {
	n := getNormalizeContext()
	if _, err := os.Stat(n.outputPath); err != nil {
		return fmt.Errorf("output presentation missing: %v", err)
	}
	return nil
}
