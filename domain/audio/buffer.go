package audio

import "math"

// SampleFormat identifies the sample encoding of the source file, so a
// decoded buffer can be written back in the same format.
type SampleFormat int

const (
	FormatPCM16 SampleFormat = iota
	FormatPCM24
	FormatPCM32
	FormatFloat32
)

// Buffer holds decoded PCM audio in planar form: one sample slice per
// channel, all of equal length, with samples in [-1, 1] full scale.
type Buffer struct {
	SampleRate int
	Format     SampleFormat
	Samples    [][]float64
}

// NewBuffer allocates a zeroed buffer with the given shape.
func NewBuffer(sampleRate, channels, frames int) *Buffer {
	samples := make([][]float64, channels)
	for ch := range samples {
		samples[ch] = make([]float64, frames)
	}
	return &Buffer{SampleRate: sampleRate, Samples: samples}
}

// Channels returns the channel count.
func (b *Buffer) Channels() int {
	return len(b.Samples)
}

// Frames returns the number of sample frames per channel.
func (b *Buffer) Frames() int {
	if len(b.Samples) == 0 {
		return 0
	}
	return len(b.Samples[0])
}

// Duration returns the decoded duration in seconds.
func (b *Buffer) Duration() float64 {
	if b.SampleRate == 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	samples := make([][]float64, len(b.Samples))
	for ch, src := range b.Samples {
		samples[ch] = make([]float64, len(src))
		copy(samples[ch], src)
	}
	return &Buffer{SampleRate: b.SampleRate, Format: b.Format, Samples: samples}
}

// ApplyGain scales every sample by the given gain in decibels.
// Samples are not clamped to full scale afterwards; integer encoders
// saturate on write instead.
func (b *Buffer) ApplyGain(gainDB float64) {
	scale := math.Pow(10, gainDB/20.0)
	for _, ch := range b.Samples {
		for i := range ch {
			ch[i] *= scale
		}
	}
}
