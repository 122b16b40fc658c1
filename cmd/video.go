package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"narration-tuner/application/normalize"
	appvideo "narration-tuner/application/video"
	"narration-tuner/domain/audio"
	"narration-tuner/domain/video"
	"narration-tuner/infrastructure/dsp"
	"narration-tuner/infrastructure/ffmpeg"
	"narration-tuner/infrastructure/filesystem"
	"narration-tuner/infrastructure/wav"
	"narration-tuner/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	videoInputPath  string
	videoOutputPath string
	videoInputDir   string
	videoOutputDir  string
	videoForce      bool
	videoTuning     tuningOptions
)

var videoCmd = &cobra.Command{
	Use:   "video",
	Short: "Normalize the audio track of an MP4 video",
	Long: `Normalize the audio track of an MP4 video to the target loudness
and write a new video. The video stream is copied without re-encoding;
only the audio is processed and re-encoded to AAC.

The input must contain both a video and an audio stream.

With --input-dir, every .mp4 file in the directory is processed and the
outputs are written to --output-dir under the same names.

Example:
  narration-tuner video --input lecture.mp4
  narration-tuner video --input lecture.mp4 --target-lufs -14 --denoise
  narration-tuner video --input-dir ./recordings --output-dir ./normalized`,
	RunE: runVideo,
}

func init() {
	rootCmd.AddCommand(videoCmd)
	videoCmd.Flags().StringVar(&videoInputPath, "input", "", "Path to the input MP4 file")
	videoCmd.Flags().StringVar(&videoOutputPath, "output", "", "Path for the output MP4 file (default <input>_normalized.mp4)")
	videoCmd.Flags().StringVar(&videoInputDir, "input-dir", "", "Process every MP4 file in this directory")
	videoCmd.Flags().StringVar(&videoOutputDir, "output-dir", "", "Output directory for batch mode (required with --input-dir)")
	videoCmd.Flags().BoolVarP(&videoForce, "force", "f", false, "Overwrite existing output files without asking")
	registerTuningFlags(videoCmd, &videoTuning)
	videoCmd.MarkFlagsMutuallyExclusive("input", "input-dir")
	videoCmd.MarkFlagsRequiredTogether("input-dir", "output-dir")
}

func runVideo(cmd *cobra.Command, args []string) error {
	if videoInputPath == "" && videoInputDir == "" {
		return fmt.Errorf("either --input or --input-dir is required")
	}
	if videoInputDir != "" && !filesystem.NewChecker().IsDir(videoInputDir) {
		return fmt.Errorf("input directory does not exist: %s", videoInputDir)
	}

	videoTuning.resolve(cmd, GetConfig())
	if err := videoTuning.validate(cmd, os.Stdout); err != nil {
		return err
	}

	log, err := logger.New(verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	toolCfg := GetConfig().Tools
	media := ffmpeg.NewMedia(
		ffmpeg.WithMediaFFmpegPath(toolCfg.FFmpegPath),
		ffmpeg.WithMediaBitrate(videoTuning.Bitrate),
	)
	prober := ffmpeg.NewProber(ffmpeg.WithFFprobePath(toolCfg.FFprobePath))
	transcoder := ffmpeg.NewTranscoder(
		ffmpeg.WithFFmpegPath(toolCfg.FFmpegPath),
		ffmpeg.WithBitrate(videoTuning.Bitrate),
	)

	input := VideoInput{
		InputPath:       videoInputPath,
		OutputPath:      videoOutputPath,
		InputDir:        videoInputDir,
		OutputDir:       videoOutputDir,
		Force:           videoForce,
		TargetLUFS:      videoTuning.TargetLUFS,
		Denoise:         videoTuning.Denoise,
		DenoiseStrength: videoTuning.DenoiseStrength,
	}

	return RunVideoWithDependencies(
		cmd.Context(),
		prober,
		media,
		media,
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

// VideoInput contains the input parameters for the video command
type VideoInput struct {
	InputPath       string
	OutputPath      string
	InputDir        string
	OutputDir       string
	Force           bool
	TargetLUFS      float64
	Denoise         bool
	DenoiseStrength float64
}

// RunVideoWithDependencies runs the video command with injected dependencies
// (for testing).
func RunVideoWithDependencies(
	ctx context.Context,
	prober video.Prober,
	extractor video.AudioExtractor,
	remuxer video.Remuxer,
	meter audio.Meter,
	denoiser audio.Denoiser,
	codec audio.Codec,
	transcoder audio.Transcoder,
	checker video.FileChecker,
	finder appvideo.Finder,
	prompter Prompter,
	input VideoInput,
	log *logger.Logger,
	output io.Writer,
) error {
	// Both ffprobe and ffmpeg are required for video jobs.
	if verifiable, ok := prober.(interface{ VerifyInstalled(context.Context) error }); ok {
		verifyCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := verifiable.VerifyInstalled(verifyCtx); err != nil {
			return fmt.Errorf("ffprobe verification failed: %w", err)
		}
	}
	if verifiable, ok := extractor.(interface{ VerifyInstalled(context.Context) error }); ok {
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

	service := appvideo.NewService(
		prober,
		extractor,
		remuxer,
		normalizer,
		filesystem.NewCopier(),
		checker,
		finder,
		confirmPrompter{p: prompter},
		func(prefix string) (appvideo.Workspace, error) { return filesystem.NewScratch(prefix) },
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
