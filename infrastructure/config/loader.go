package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration
type Config struct {
	Audio AudioConfig `yaml:"audio"`
	Tools ToolsConfig `yaml:"tools"`
}

// AudioConfig contains normalization defaults, overridable per run by flags
type AudioConfig struct {
	TargetLUFS      float64 `yaml:"target_lufs"`
	Bitrate         string  `yaml:"bitrate"`
	Denoise         bool    `yaml:"denoise"`
	DenoiseStrength float64 `yaml:"denoise_strength"`
}

// ToolsConfig contains external tool locations
type ToolsConfig struct {
	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`
}

// Default returns the built-in configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Audio: AudioConfig{
			TargetLUFS:      -16.0,
			Bitrate:         "192k",
			Denoise:         false,
			DenoiseStrength: 0.5,
		},
	}
}

// Load reads and parses the configuration from the specified YAML file.
// Missing fields keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the specified YAML file
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
