// Package pptx orchestrates container jobs: validate, extract, normalize
// every audio entry, and repack a byte-compatible archive.
package pptx

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"narration-tuner/domain/audio"
	"narration-tuner/domain/container"
	"narration-tuner/pkg/logger"
)

// Normalizer processes audio files in place, one outcome per file.
type Normalizer interface {
	NormalizeAll(ctx context.Context, paths []string) []audio.Outcome
}

// Copier performs byte-for-byte file copies.
type Copier interface {
	Copy(src, dst string) error
}

// FileChecker reports file existence.
type FileChecker interface {
	Exists(path string) bool
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

// JobReport records the result of one container job.
type JobReport struct {
	Input    string
	Output   string
	Copied   bool // no audio entries: output is a verbatim copy
	Declined bool // user declined to overwrite the existing output
	Outcomes []audio.Outcome
}

// Counts tallies outcomes by kind.
func (r *JobReport) Counts() (succeeded, skipped, failed int) {
	for _, o := range r.Outcomes {
		switch o.Kind {
		case audio.OutcomeSuccess:
			succeeded++
		case audio.OutcomeSkipped:
			skipped++
		case audio.OutcomeFailed:
			failed++
		}
	}
	return
}

// BatchReport aggregates a directory run.
type BatchReport struct {
	Total     int
	Succeeded int
	Failed    int
	Reports   []*JobReport
}

// Service coordinates container normalization jobs.
type Service struct {
	archiver   container.Archiver
	normalizer Normalizer
	copier     Copier
	checker    FileChecker
	finder     Finder
	prompter   Prompter
	scratch    ScratchFunc
	force      bool
	log        *logger.Logger
	output     io.Writer
}

// NewService creates a container job service with injected dependencies.
func NewService(
	archiver container.Archiver,
	normalizer Normalizer,
	copier Copier,
	checker FileChecker,
	finder Finder,
	prompter Prompter,
	scratch ScratchFunc,
	force bool,
	log *logger.Logger,
	output io.Writer,
) *Service {
	return &Service{
		archiver:   archiver,
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

// ProcessOne runs a single container job. Per-asset failures become
// outcomes and do not fail the job; only validation, extraction, and
// repack failures do.
func (s *Service) ProcessOne(ctx context.Context, inputPath, outputPath string) (*JobReport, error) {
	if err := s.archiver.Validate(inputPath); err != nil {
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

	ws, err := s.scratch("narration-tuner-")
	if err != nil {
		return nil, err
	}
	defer ws.Release()

	s.log.Info("extracting container", zap.String("input", inputPath))
	treePath, manifest, err := s.archiver.Extract(inputPath, ws.Root())
	if err != nil {
		return nil, err
	}
	s.log.Info("found audio entries", zap.Int("count", len(manifest.AudioPaths)))

	report := &JobReport{Input: inputPath, Output: outputPath}

	if len(manifest.AudioPaths) == 0 {
		// Nothing to normalize: a verbatim copy preserves container
		// fidelity trivially.
		fmt.Fprintln(s.output, "No audio files found. Creating a copy of the original.")
		if err := s.copier.Copy(inputPath, outputPath); err != nil {
			return nil, err
		}
		report.Copied = true
		fmt.Fprintf(s.output, "Output written to: %s\n", outputPath)
		return report, nil
	}

	report.Outcomes = s.normalizer.NormalizeAll(ctx, manifest.AudioPaths)

	// Repack into the scratch tree first; the final path is written only
	// after the whole pipeline succeeded.
	staged := filepath.Join(ws.Root(), "output"+filepath.Ext(outputPath))
	if err := s.archiver.Repack(treePath, manifest, staged); err != nil {
		return nil, err
	}
	if err := s.copier.Copy(staged, outputPath); err != nil {
		return nil, err
	}

	s.printSummary(report, len(manifest.AudioPaths))
	fmt.Fprintf(s.output, "Output written to: %s\n", outputPath)
	return report, nil
}

func (s *Service) printSummary(report *JobReport, total int) {
	succeeded, skipped, failed := report.Counts()
	if succeeded > 0 {
		fmt.Fprintf(s.output, "Normalized %d of %d audio file(s):\n", succeeded, total)
		for _, o := range report.Outcomes {
			if o.Kind == audio.OutcomeSuccess {
				fmt.Fprintf(s.output, "  %s\n", o)
			}
		}
	} else {
		fmt.Fprintln(s.output, "No audio files were normalized.")
	}
	if skipped+failed > 0 {
		fmt.Fprintf(s.output, "Warning: %d file(s) skipped or failed:\n", skipped+failed)
		for _, o := range report.Outcomes {
			if o.Kind != audio.OutcomeSuccess {
				fmt.Fprintf(s.output, "  %s\n", o)
			}
		}
	}
}

// ProcessDirectory runs a job for every container in inputDir, writing
// outputs under outputDir with the same filenames. A job failure is
// recorded and the batch continues; the batch fails if any job failed.
func (s *Service) ProcessDirectory(ctx context.Context, inputDir, outputDir string) (*BatchReport, error) {
	inputs, err := s.finder.List(inputDir, ".pptx")
	if err != nil {
		return nil, &ValidationError{Message: fmt.Sprintf("cannot read input directory: %v", err)}
	}
	if len(inputs) == 0 {
		fmt.Fprintf(s.output, "No PPTX files found in: %s\n", inputDir)
		return &BatchReport{}, nil
	}

	fmt.Fprintf(s.output, "Found %d PPTX file(s) to process\n\n", len(inputs))

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
