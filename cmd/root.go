package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"narration-tuner/infrastructure/config"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "narration-tuner",
	Short: "Normalize narration audio loudness in PPTX presentations and MP4 videos",
	Long: `narration-tuner brings recorded narration to a uniform perceived loudness:

  - Normalize every audio file embedded in a PPTX presentation
  - Normalize the audio track of an MP4 video without re-encoding the video
  - Optionally reduce stationary background noise before normalizing

Loudness is measured per ITU-R BS.1770 and each file is adjusted to the
target level (default -16 LUFS). Compressed formats are re-encoded through
ffmpeg; WAV files are processed directly.

Example:
  narration-tuner pptx --input lecture.pptx
  narration-tuner video --input lecture.mp4 --target-lufs -14 --denoise`,
}

// Execute runs the root command with an interrupt-aware context so a
// Ctrl-C mid-job still releases scratch directories.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func initConfig() {
	if cfgFile == "" {
		cfgFile = "config/config.yaml"
	}

	loaded, err := config.Load(cfgFile)
	if err != nil {
		// The config file is optional; built-in defaults apply and flags
		// can override everything.
		cfg = config.Default()
		return
	}
	cfg = loaded
}

// GetConfig returns the loaded configuration
func GetConfig() *config.Config {
	return cfg
}
