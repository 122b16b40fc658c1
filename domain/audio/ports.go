package audio

import "context"

// MinMeasurableSeconds is the shortest duration the gated loudness
// measurement is defined for; shorter audio is skipped, not measured.
const MinMeasurableSeconds = 0.4

// Meter measures integrated loudness of decoded PCM.
// The result is in LUFS; silence yields -Inf and invalid audio yields NaN.
type Meter interface {
	Measure(buf *Buffer) float64
}

// Denoiser applies noise reduction to decoded PCM. Strength is in
// [0.0, 1.0]; the returned buffer has the same shape and sample count
// as the input.
type Denoiser interface {
	Reduce(buf *Buffer, strength float64) (*Buffer, error)
}

// Codec decodes and encodes audio files in the pipeline's native format.
// Encode writes the buffer back in the buffer's source sample format.
type Codec interface {
	Decode(path string) (*Buffer, error)
	Encode(path string, buf *Buffer) error
}

// Transcoder bridges compressed formats to and from the intermediate
// uncompressed representation (48 kHz stereo 16-bit WAV) via an external
// tool. A non-zero exit of the tool is a hard failure for the asset.
type Transcoder interface {
	ToWAV(ctx context.Context, inputPath, wavPath string) error
	FromWAV(ctx context.Context, wavPath, outputPath string, family CodecFamily) error
}
