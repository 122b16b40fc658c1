package ffmpeg

import (
	"context"
	"fmt"

	"narration-tuner/domain/audio"
)

// Intermediate PCM representation for bridged formats.
const (
	bridgeSampleRate = "48000"
	bridgeChannels   = "2"
)

// DefaultBitrate is the encoder bitrate for lossy formats.
const DefaultBitrate = "192k"

// Transcoder implements audio.Transcoder using the ffmpeg command line.
type Transcoder struct {
	ffmpegPath string
	bitrate    string
	runner     CommandRunner
}

// TranscoderOption is a functional option for configuring Transcoder
type TranscoderOption func(*Transcoder)

// WithFFmpegPath sets a custom ffmpeg executable path
func WithFFmpegPath(path string) TranscoderOption {
	return func(t *Transcoder) {
		if path != "" {
			t.ffmpegPath = path
		}
	}
}

// WithBitrate sets the encoder bitrate for lossy formats
func WithBitrate(bitrate string) TranscoderOption {
	return func(t *Transcoder) {
		if bitrate != "" {
			t.bitrate = bitrate
		}
	}
}

// WithCommandRunner sets a custom command runner (for testing)
func WithCommandRunner(runner CommandRunner) TranscoderOption {
	return func(t *Transcoder) {
		t.runner = runner
	}
}

// NewTranscoder creates a new FFmpeg-based transcoder
func NewTranscoder(opts ...TranscoderOption) *Transcoder {
	t := &Transcoder{
		ffmpegPath: "ffmpeg",
		bitrate:    DefaultBitrate,
		runner:     &ExecCommandRunner{},
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// ToWAV converts a compressed audio file to the intermediate 48 kHz
// stereo 16-bit PCM representation.
func (t *Transcoder) ToWAV(ctx context.Context, inputPath, wavPath string) error {
	inv := Invocation{
		Input:  inputPath,
		Output: wavPath,
		Args: []string{
			"-acodec", "pcm_s16le",
			"-ar", bridgeSampleRate,
			"-ac", bridgeChannels,
		},
	}
	if err := run(ctx, t.runner, t.ffmpegPath, inv); err != nil {
		return fmt.Errorf("decode to wav failed: %w", err)
	}
	return nil
}

// FromWAV converts the intermediate WAV back to the original codec family
// using the fixed per-format encoder table. Unlisted families fall back to
// a copy/passthrough encoder.
func (t *Transcoder) FromWAV(ctx context.Context, wavPath, outputPath string, family audio.CodecFamily) error {
	inv := Invocation{
		Input:  wavPath,
		Output: outputPath,
		Args:   t.encoderArgs(family),
	}
	if err := run(ctx, t.runner, t.ffmpegPath, inv); err != nil {
		return fmt.Errorf("encode to %s failed: %w", family, err)
	}
	return nil
}

// encoderArgs returns the encoder arguments for a codec family.
func (t *Transcoder) encoderArgs(family audio.CodecFamily) []string {
	switch family {
	case audio.CodecMP3:
		return []string{"-acodec", "libmp3lame", "-b:a", t.bitrate}
	case audio.CodecM4A, audio.CodecAAC:
		return []string{"-acodec", "aac", "-b:a", t.bitrate}
	case audio.CodecWMA:
		return []string{"-acodec", "wmav2", "-b:a", t.bitrate}
	case audio.CodecFLAC:
		return []string{"-acodec", "flac"}
	case audio.CodecOGG:
		return []string{"-acodec", "libvorbis", "-b:a", t.bitrate}
	default:
		return []string{"-acodec", "copy"}
	}
}

// VerifyInstalled checks that ffmpeg is available
func (t *Transcoder) VerifyInstalled(ctx context.Context) error {
	_, err := t.runner.Output(ctx, t.ffmpegPath, "-version")
	if err != nil {
		return fmt.Errorf("ffmpeg not found or not executable: %w", err)
	}
	return nil
}

// Ensure Transcoder implements audio.Transcoder
var _ audio.Transcoder = (*Transcoder)(nil)
