package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"narration-tuner/application/normalize"
	apppptx "narration-tuner/application/pptx"
	"narration-tuner/domain/audio"
	"narration-tuner/domain/container"
	"narration-tuner/infrastructure/dsp"
	"narration-tuner/infrastructure/ffmpeg"
	"narration-tuner/infrastructure/filesystem"
	infrapptx "narration-tuner/infrastructure/pptx"
	"narration-tuner/infrastructure/wav"
	"narration-tuner/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	pptxInputPath  string
	pptxOutputPath string
	pptxInputDir   string
	pptxOutputDir  string
	pptxForce      bool
	pptxTuning     tuningOptions
)

var pptxCmd = &cobra.Command{
	Use:   "pptx",
	Short: "Normalize the embedded audio files of a PPTX presentation",
	Long: `Normalize every audio file embedded in a PPTX presentation to the
target loudness and write a new presentation with the adjusted audio.
Everything else in the presentation is preserved byte for byte.

Files too short or too quiet to measure are left untouched. A presentation
without audio is copied verbatim.

With --input-dir, every .pptx file in the directory is processed and the
outputs are written to --output-dir under the same names.

Example:
  narration-tuner pptx --input lecture.pptx
  narration-tuner pptx --input lecture.pptx --output fixed.pptx --denoise
  narration-tuner pptx --input-dir ./decks --output-dir ./normalized`,
	RunE: runPptx,
}

func init() {
	rootCmd.AddCommand(pptxCmd)
	pptxCmd.Flags().StringVar(&pptxInputPath, "input", "", "Path to the input PPTX file")
	pptxCmd.Flags().StringVar(&pptxOutputPath, "output", "", "Path for the output PPTX file (default <input>_normalized.pptx)")
	pptxCmd.Flags().StringVar(&pptxInputDir, "input-dir", "", "Process every PPTX file in this directory")
	pptxCmd.Flags().StringVar(&pptxOutputDir, "output-dir", "", "Output directory for batch mode (required with --input-dir)")
	pptxCmd.Flags().BoolVarP(&pptxForce, "force", "f", false, "Overwrite existing output files without asking")
	registerTuningFlags(pptxCmd, &pptxTuning)
	pptxCmd.MarkFlagsMutuallyExclusive("input", "input-dir")
	pptxCmd.MarkFlagsRequiredTogether("input-dir", "output-dir")
}

func runPptx(cmd *cobra.Command, args []string) error {
	if pptxInputPath == "" && pptxInputDir == "" {
		return fmt.Errorf("either --input or --input-dir is required")
	}
	if pptxInputDir != "" && !filesystem.NewChecker().IsDir(pptxInputDir) {
		return fmt.Errorf("input directory does not exist: %s", pptxInputDir)
	}

	pptxTuning.resolve(cmd, GetConfig())
	if err := pptxTuning.validate(cmd, os.Stdout); err != nil {
		return err
	}

	log, err := logger.New(verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	toolCfg := GetConfig().Tools
	transcoder := ffmpeg.NewTranscoder(
		ffmpeg.WithFFmpegPath(toolCfg.FFmpegPath),
		ffmpeg.WithBitrate(pptxTuning.Bitrate),
	)

	input := PptxInput{
		InputPath:       pptxInputPath,
		OutputPath:      pptxOutputPath,
		InputDir:        pptxInputDir,
		OutputDir:       pptxOutputDir,
		Force:           pptxForce,
		TargetLUFS:      pptxTuning.TargetLUFS,
		Denoise:         pptxTuning.Denoise,
		DenoiseStrength: pptxTuning.DenoiseStrength,
	}

	return RunPptxWithDependencies(
		cmd.Context(),
		infrapptx.NewArchiver(),
		dsp.NewLoudnessMeter(),
		dsp.NewSpectralGate(),
		wav.NewCodec(),
		transcoder,
		filesystem.NewChecker(),
		filesystem.NewFinder(),
		DefaultPrompter,
		input,
		log,
		os.Stdout,
	)
}

// PptxInput contains the input parameters for the pptx command
type PptxInput struct {
	InputPath       string
	OutputPath      string
	InputDir        string
	OutputDir       string
	Force           bool
	TargetLUFS      float64
	Denoise         bool
	DenoiseStrength float64
}

// RunPptxWithDependencies runs the pptx command with injected dependencies
// (for testing).
func RunPptxWithDependencies(
	ctx context.Context,
	archiver container.Archiver,
	meter audio.Meter,
	denoiser audio.Denoiser,
	codec audio.Codec,
	transcoder audio.Transcoder,
	checker apppptx.FileChecker,
	finder apppptx.Finder,
	prompter Prompter,
	input PptxInput,
	log *logger.Logger,
	output io.Writer,
) error {
	// Compressed formats go through ffmpeg; fail fast when it is missing.
	if verifiable, ok := transcoder.(interface{ VerifyInstalled(context.Context) error }); ok {
		verifyCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := verifiable.VerifyInstalled(verifyCtx); err != nil {
			return fmt.Errorf("ffmpeg verification failed: %w", err)
		}
	}

	normalizer := normalize.NewService(meter, denoiser, codec, transcoder, normalize.Options{
		TargetLUFS:      input.TargetLUFS,
		Denoise:         input.Denoise,
		DenoiseStrength: input.DenoiseStrength,
	}, log)

	service := apppptx.NewService(
		archiver,
		normalizer,
		filesystem.NewCopier(),
		checker,
		finder,
		confirmPrompter{p: prompter},
		func(prefix string) (apppptx.Workspace, error) { return filesystem.NewScratch(prefix) },
		input.Force,
		log,
		output,
	)

	if input.InputDir != "" {
		_, err := service.ProcessDirectory(ctx, input.InputDir, input.OutputDir)
		return err
	}

	outputPath := input.OutputPath
	if outputPath == "" {
		outputPath = defaultOutputPath(input.InputPath)
	}
	_, err := service.ProcessOne(ctx, input.InputPath, outputPath)
	return err
}
