package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"narration-tuner/infrastructure/config"

	"github.com/spf13/cobra"
)

// defaultOutputPath derives the output filename when --output is omitted,
// e.g. lecture.pptx becomes lecture_normalized.pptx.
func defaultOutputPath(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + "_normalized" + ext
}

// tuningOptions holds the audio parameters shared by the pptx and video
// commands. Flag values win over config file values, which win over the
// built-in defaults.
type tuningOptions struct {
	TargetLUFS      float64
	Denoise         bool
	DenoiseStrength float64
	Bitrate         string
}

func registerTuningFlags(c *cobra.Command, o *tuningOptions) {
	c.Flags().Float64Var(&o.TargetLUFS, "target-lufs", -16.0, "Target integrated loudness in LUFS (-70 to 0)")
	c.Flags().BoolVar(&o.Denoise, "denoise", false, "Reduce stationary background noise before normalizing")
	c.Flags().Float64Var(&o.DenoiseStrength, "denoise-strength", 0.5, "Noise reduction strength (0.0 to 1.0)")
	c.Flags().StringVar(&o.Bitrate, "bitrate", "", "Encoder bitrate for lossy formats (default 192k)")
}

// resolve fills in config file values for flags the user did not set.
func (o *tuningOptions) resolve(c *cobra.Command, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if !c.Flags().Changed("target-lufs") {
		o.TargetLUFS = cfg.Audio.TargetLUFS
	}
	if !c.Flags().Changed("denoise") {
		o.Denoise = cfg.Audio.Denoise
	}
	if !c.Flags().Changed("denoise-strength") {
		o.DenoiseStrength = cfg.Audio.DenoiseStrength
	}
	if o.Bitrate == "" {
		o.Bitrate = cfg.Audio.Bitrate
	}
}

// validate rejects out-of-range parameters and warns when a strength was
// given without enabling denoising.
func (o *tuningOptions) validate(c *cobra.Command, output io.Writer) error {
	if o.TargetLUFS < -70 || o.TargetLUFS > 0 {
		return fmt.Errorf("target loudness must be between -70 and 0 LUFS, got %.1f", o.TargetLUFS)
	}
	if o.DenoiseStrength < 0 || o.DenoiseStrength > 1 {
		return fmt.Errorf("denoise strength must be between 0.0 and 1.0, got %.2f", o.DenoiseStrength)
	}
	if c.Flags().Changed("denoise-strength") && !o.Denoise {
		fmt.Fprintln(output, "Warning: --denoise-strength has no effect without --denoise")
	}
	return nil
}
