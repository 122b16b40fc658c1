package video

import "context"

// Prober returns stream metadata for a media file.
// This is a port implemented by the ffprobe infrastructure adapter.
type Prober interface {
	Probe(ctx context.Context, path string) (*Info, error)
}

// AudioExtractor demuxes the audio track of a video into a 48 kHz stereo
// 16-bit PCM WAV file.
type AudioExtractor interface {
	ExtractAudio(ctx context.Context, videoPath, wavPath string) error
}

// Remuxer rebuilds a video file with a replaced audio track. The video
// stream is copied without re-encoding, the audio is encoded at a fixed
// bitrate, and the output duration is the shorter of the two inputs.
type Remuxer interface {
	ReplaceAudio(ctx context.Context, videoPath, wavPath, outputPath string) error
}

// FileChecker defines the interface for file existence checks
// This is a port that can be implemented by different infrastructure adapters
type FileChecker interface {
	Exists(path string) bool
}
