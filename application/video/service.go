// Package video orchestrates MP4 narration jobs: probe, extract the audio
// track, normalize it, and remux it back under the untouched video stream.
package video

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"narration-tuner/domain/audio"
	"narration-tuner/domain/video"
	"narration-tuner/pkg/logger"
)

// Normalizer processes one audio file in place.
type Normalizer interface {
	NormalizeFile(ctx context.Context, path string) audio.Outcome
}

// Copier performs byte-for-byte file copies.
type Copier interface {
	Copy(src, dst string) error
}

// Finder lists files with a given extension in a directory, sorted by name.
type Finder interface {
	List(dir, ext string) ([]string, error)
}

// Prompter asks the user a yes/no question.
type Prompter interface {
	Confirm(message string) (bool, error)
}

// Workspace is a scratch directory released on every exit path.
type Workspace interface {
	Root() string
	Release() error
}

// ScratchFunc acquires a fresh workspace.
type ScratchFunc func(prefix string) (Workspace, error)

// ValidationError contains details about an input validation failure
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// JobReport records the result of one video job.
type JobReport struct {
	Input    string
	Output   string
	Declined bool // user declined to overwrite the existing output
	Info     *video.Info
	Outcome  audio.Outcome
}

// BatchReport aggregates a directory run.
type BatchReport struct {
	Total     int
	Succeeded int
	Failed    int
	Reports   []*JobReport
}

// Service coordinates video normalization jobs.
type Service struct {
	prober     video.Prober
	extractor  video.AudioExtractor
	remuxer    video.Remuxer
	normalizer Normalizer
	copier     Copier
	checker    video.FileChecker
	finder     Finder
	prompter   Prompter
	scratch    ScratchFunc
	force      bool
	log        *logger.Logger
	output     io.Writer
}

// NewService creates a video job service with injected dependencies.
func NewService(
	prober video.Prober,
	extractor video.AudioExtractor,
	remuxer video.Remuxer,
	normalizer Normalizer,
	copier Copier,
	checker video.FileChecker,
	finder Finder,
	prompter Prompter,
	scratch ScratchFunc,
	force bool,
	log *logger.Logger,
	output io.Writer,
) *Service {
	return &Service{
		prober:     prober,
		extractor:  extractor,
		remuxer:    remuxer,
		normalizer: normalizer,
		copier:     copier,
		checker:    checker,
		finder:     finder,
		prompter:   prompter,
		scratch:    scratch,
		force:      force,
		log:        log,
		output:     output,
	}
}

// ProcessOne runs a single video job. Unlike container jobs, a skipped or
// failed audio normalization fails the whole job: there is no partial
// output for a video.
func (s *Service) ProcessOne(ctx context.Context, inputPath, outputPath string) (*JobReport, error) {
	// All preconditions are checked before any scratch space is created,
	// so a rejected input leaves no artifacts behind.
	info, err := s.validate(ctx, inputPath)
	if err != nil {
		return nil, err
	}

	if s.checker.Exists(outputPath) && !s.force {
		ok, err := s.prompter.Confirm(fmt.Sprintf("Output file '%s' already exists. Overwrite?", outputPath))
		if err != nil {
			return nil, err
		}
		if !ok {
			fmt.Fprintln(s.output, "Skipped (file exists).")
			return &JobReport{Input: inputPath, Output: outputPath, Declined: true}, nil
		}
	}

	ws, err := s.scratch("narration-tuner-video-")
	if err != nil {
		return nil, err
	}
	defer ws.Release()

	report := &JobReport{Input: inputPath, Output: outputPath, Info: info}

	s.logStage(video.StageExtractingAudio, inputPath)
	wavPath := filepath.Join(ws.Root(), "audio.wav")
	if err := s.extractor.ExtractAudio(ctx, inputPath, wavPath); err != nil {
		return nil, err
	}

	s.logStage(video.StageNormalizing, inputPath)
	outcome := s.normalizer.NormalizeFile(ctx, wavPath)
	report.Outcome = outcome
	if outcome.Kind != audio.OutcomeSuccess {
		return nil, fmt.Errorf("audio normalization %s: %s", outcome.Kind, outcome.Reason)
	}

	s.logStage(video.StageRemuxing, inputPath)
	staged := filepath.Join(ws.Root(), "output"+video.Extension)
	if err := s.remuxer.ReplaceAudio(ctx, inputPath, wavPath, staged); err != nil {
		return nil, err
	}
	if err := s.copier.Copy(staged, outputPath); err != nil {
		return nil, err
	}

	s.logStage(video.StageDone, inputPath)
	fmt.Fprintf(s.output, "Normalized audio: %s\n", outcome)
	fmt.Fprintf(s.output, "Output written to: %s\n", outputPath)
	return report, nil
}

// validate probes the input and rejects it before any work is staged.
func (s *Service) validate(ctx context.Context, inputPath string) (*video.Info, error) {
	if !s.checker.Exists(inputPath) {
		return nil, &ValidationError{Message: fmt.Sprintf("input file does not exist: %s", inputPath)}
	}
	if !strings.EqualFold(filepath.Ext(inputPath), video.Extension) {
		return nil, &ValidationError{Message: fmt.Sprintf("input file must be an MP4 video: %s", inputPath)}
	}

	s.logStage(video.StageProbing, inputPath)
	info, err := s.prober.Probe(ctx, inputPath)
	if err != nil {
		return nil, err
	}
	if !info.HasVideo {
		return nil, &ValidationError{Message: fmt.Sprintf("no video stream found in: %s", inputPath)}
	}
	if !info.HasAudio {
		return nil, &ValidationError{Message: fmt.Sprintf("no audio stream found in: %s", inputPath)}
	}
	return info, nil
}

func (s *Service) logStage(stage video.Stage, inputPath string) {
	s.log.Info(stage.String(), zap.String("file", filepath.Base(inputPath)))
}

// ProcessDirectory runs a job for every MP4 in inputDir, writing outputs
// under outputDir with the same filenames. A job failure is recorded and
// the batch continues; the batch fails if any job failed.
func (s *Service) ProcessDirectory(ctx context.Context, inputDir, outputDir string) (*BatchReport, error) {
	inputs, err := s.finder.List(inputDir, video.Extension)
	if err != nil {
		return nil, &ValidationError{Message: fmt.Sprintf("cannot read input directory: %v", err)}
	}
	if len(inputs) == 0 {
		fmt.Fprintf(s.output, "No MP4 files found in: %s\n", inputDir)
		return &BatchReport{}, nil
	}

	fmt.Fprintf(s.output, "Found %d MP4 file(s) to process\n\n", len(inputs))

	batch := &BatchReport{Total: len(inputs)}
	var errs error
	for i, input := range inputs {
		if err := ctx.Err(); err != nil {
			return batch, err
		}
		fmt.Fprintf(s.output, "Processing file %d/%d: %s\n", i+1, len(inputs), filepath.Base(input))

		report, err := s.ProcessOne(ctx, input, filepath.Join(outputDir, filepath.Base(input)))
		if err != nil {
			s.log.Error("job failed", zap.String("input", input), zap.Error(err))
			fmt.Fprintf(s.output, "Failed to process %s: %v\n\n", filepath.Base(input), err)
			batch.Failed++
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", filepath.Base(input), err))
			continue
		}
		batch.Succeeded++
		batch.Reports = append(batch.Reports, report)
		fmt.Fprintln(s.output)
	}

	fmt.Fprintln(s.output, "Batch processing complete")
	fmt.Fprintf(s.output, "Total files:            %d\n", batch.Total)
	fmt.Fprintf(s.output, "Successfully processed: %d\n", batch.Succeeded)
	if batch.Failed > 0 {
		fmt.Fprintf(s.output, "Errors:                 %d\n", batch.Failed)
		return batch, fmt.Errorf("%d of %d file(s) failed: %w", batch.Failed, batch.Total, errs)
	}
	return batch, nil
}
