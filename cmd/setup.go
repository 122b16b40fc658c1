package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"narration-tuner/infrastructure/config"

	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create configuration file interactively",
	Long: `Prompts for configuration values and creates config/config.yaml.

All values become the defaults for the pptx and video commands and can
still be overridden per run with flags.`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	return RunSetupWithPrompter(DefaultPrompter, "config/config.yaml")
}

// RunSetupWithPrompter runs the setup with a given prompter (for testing)
func RunSetupWithPrompter(prompter Prompter, configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		overwrite, err := prompter.Confirm("config.yaml already exists. Overwrite?", false)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if !overwrite {
			fmt.Println("Setup cancelled.")
			return nil
		}
	}

	fmt.Println("Welcome to narration-tuner setup!")
	fmt.Println()

	cfg := config.Default()

	if err := promptAudio(prompter, cfg); err != nil {
		return err
	}
	if err := promptTools(prompter, cfg); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := config.Save(cfg, configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Println()
	fmt.Printf("Configuration saved to %s\n", configPath)
	return nil
}

func promptAudio(prompter Prompter, cfg *config.Config) error {
	target, err := prompter.Input("Target loudness in LUFS (-70 to 0)?", fmt.Sprintf("%.1f", cfg.Audio.TargetLUFS))
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	lufs, err := strconv.ParseFloat(target, 64)
	if err != nil || lufs < -70 || lufs > 0 {
		return fmt.Errorf("target loudness must be a number between -70 and 0")
	}
	cfg.Audio.TargetLUFS = lufs

	bitrate, err := prompter.Input("Encoder bitrate for lossy formats?", cfg.Audio.Bitrate)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if bitrate != "" {
		cfg.Audio.Bitrate = bitrate
	}

	denoise, err := prompter.Confirm("Reduce background noise by default?", cfg.Audio.Denoise)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.Audio.Denoise = denoise

	if denoise {
		strength, err := prompter.Input("Noise reduction strength (0.0 to 1.0)?", fmt.Sprintf("%.1f", cfg.Audio.DenoiseStrength))
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		value, err := strconv.ParseFloat(strength, 64)
		if err != nil || value < 0 || value > 1 {
			return fmt.Errorf("denoise strength must be a number between 0.0 and 1.0")
		}
		cfg.Audio.DenoiseStrength = value
	}
	return nil
}

func promptTools(prompter Prompter, cfg *config.Config) error {
	ffmpeg, err := prompter.Input("Path to ffmpeg (empty to use $PATH)?", cfg.Tools.FFmpegPath)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.Tools.FFmpegPath = ffmpeg

	ffprobe, err := prompter.Input("Path to ffprobe (empty to use $PATH)?", cfg.Tools.FFprobePath)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.Tools.FFprobePath = ffprobe
	return nil
}
