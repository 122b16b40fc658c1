package ffmpeg

import (
	"context"
	"fmt"

	"narration-tuner/domain/video"
)

// Media implements video.AudioExtractor and video.Remuxer using ffmpeg.
type Media struct {
	ffmpegPath string
	bitrate    string
	runner     CommandRunner
}

// MediaOption is a functional option for configuring Media
type MediaOption func(*Media)

// WithMediaFFmpegPath sets a custom ffmpeg executable path
func WithMediaFFmpegPath(path string) MediaOption {
	return func(m *Media) {
		if path != "" {
			m.ffmpegPath = path
		}
	}
}

// WithMediaBitrate sets the remux audio bitrate
func WithMediaBitrate(bitrate string) MediaOption {
	return func(m *Media) {
		if bitrate != "" {
			m.bitrate = bitrate
		}
	}
}

// WithMediaCommandRunner sets a custom command runner (for testing)
func WithMediaCommandRunner(runner CommandRunner) MediaOption {
	return func(m *Media) {
		m.runner = runner
	}
}

// NewMedia creates a new FFmpeg-based audio extractor and remuxer
func NewMedia(opts ...MediaOption) *Media {
	m := &Media{
		ffmpegPath: "ffmpeg",
		bitrate:    DefaultBitrate,
		runner:     &ExecCommandRunner{},
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// ExtractAudio demuxes the audio track into a 48 kHz stereo 16-bit WAV.
func (m *Media) ExtractAudio(ctx context.Context, videoPath, wavPath string) error {
	inv := Invocation{
		Input:  videoPath,
		Output: wavPath,
		Args: []string{
			"-vn",
			"-acodec", "pcm_s16le",
			"-ar", bridgeSampleRate,
			"-ac", bridgeChannels,
		},
	}
	if err := run(ctx, m.runner, m.ffmpegPath, inv); err != nil {
		return fmt.Errorf("audio extraction failed: %w", err)
	}
	return nil
}

// ReplaceAudio remuxes the video with the processed audio track. The video
// stream is copied byte-identically, the audio is encoded to AAC at the
// configured bitrate, and -shortest truncates to the shorter stream.
func (m *Media) ReplaceAudio(ctx context.Context, videoPath, wavPath, outputPath string) error {
	argv := []string{
		"-i", videoPath,
		"-i", wavPath,
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", m.bitrate,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-shortest",
		"-y",
		"-loglevel", "error",
		outputPath,
	}
	if err := m.runner.Run(ctx, m.ffmpegPath, argv...); err != nil {
		return fmt.Errorf("audio replacement failed: %w", err)
	}
	return nil
}

// VerifyInstalled checks that ffmpeg is available
func (m *Media) VerifyInstalled(ctx context.Context) error {
	_, err := m.runner.Output(ctx, m.ffmpegPath, "-version")
	if err != nil {
		return fmt.Errorf("ffmpeg not found or not executable: %w", err)
	}
	return nil
}

// Ensure Media implements the video ports
var (
	_ video.AudioExtractor = (*Media)(nil)
	_ video.Remuxer        = (*Media)(nil)
)
