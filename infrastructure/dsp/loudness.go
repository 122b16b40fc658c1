// Package dsp implements the signal-processing core: BS.1770 integrated
// loudness measurement and stationary spectral-gating noise reduction.
package dsp

import (
	"math"

	"narration-tuner/domain/audio"
)

// Gating constants from ITU-R BS.1770-4: 400 ms blocks with 75 % overlap,
// an absolute gate at -70 LUFS and a relative gate 10 LU below the
// absolutely-gated mean.
const (
	blockSeconds  = 0.400
	blockOverlap  = 0.75
	absoluteGate  = -70.0
	relativeDrop  = 10.0
	loudnessConst = -0.691
)

// LoudnessMeter measures integrated loudness per ITU-R BS.1770.
type LoudnessMeter struct{}

// NewLoudnessMeter creates a gated-measurement loudness meter.
func NewLoudnessMeter() *LoudnessMeter {
	return &LoudnessMeter{}
}

// Measure returns the integrated loudness of the buffer in LUFS.
// Silence yields -Inf; audio shorter than one gating block or containing
// invalid samples yields NaN.
func (m *LoudnessMeter) Measure(buf *audio.Buffer) float64 {
	frames := buf.Frames()
	rate := buf.SampleRate
	if rate <= 0 || frames < int(blockSeconds*float64(rate)) {
		return math.NaN()
	}

	// K-weight each channel. Filters are stateful, so each channel gets
	// fresh instances.
	weighted := make([][]float64, buf.Channels())
	for ch, samples := range buf.Samples {
		stages := newKWeighting(rate)
		y := stages[0].process(samples)
		y = stages[1].process(y)
		weighted[ch] = y
	}

	step := blockSeconds * (1 - blockOverlap)
	blockFrames := int(blockSeconds * float64(rate))
	stepFrames := int(step * float64(rate))
	numBlocks := (frames-blockFrames)/stepFrames + 1

	// Mean square energy per channel per block.
	z := make([][]float64, buf.Channels())
	for ch := range z {
		z[ch] = make([]float64, numBlocks)
		for j := 0; j < numBlocks; j++ {
			lo := j * stepFrames
			hi := lo + blockFrames
			var sum float64
			for _, v := range weighted[ch][lo:hi] {
				sum += v * v
			}
			z[ch][j] = sum / float64(blockFrames)
		}
	}

	blockLoudness := make([]float64, numBlocks)
	for j := 0; j < numBlocks; j++ {
		blockLoudness[j] = loudnessConst + 10*math.Log10(weightedSumAt(z, j))
	}

	// Absolute gating.
	aboveAbsolute := func(j int) bool { return blockLoudness[j] > absoluteGate }
	avg, ok := gatedAverage(z, numBlocks, aboveAbsolute)
	if !ok {
		return math.Inf(-1)
	}
	relativeGate := loudnessConst + 10*math.Log10(avg) - relativeDrop

	// Relative gating on top of the absolute gate.
	avg, ok = gatedAverage(z, numBlocks, func(j int) bool {
		return aboveAbsolute(j) && blockLoudness[j] > relativeGate
	})
	if !ok {
		return math.Inf(-1)
	}
	return loudnessConst + 10*math.Log10(avg)
}

// Ensure LoudnessMeter implements audio.Meter
var _ audio.Meter = (*LoudnessMeter)(nil)

// weightedSumAt sums channel energies for block j with the BS.1770 channel
// weights: unity for the first three channels, +1.5 dB (1.41) for surround.
func weightedSumAt(z [][]float64, j int) float64 {
	var sum float64
	for ch := range z {
		sum += channelWeight(ch) * z[ch][j]
	}
	return sum
}

func channelWeight(ch int) float64 {
	if ch < 3 {
		return 1.0
	}
	return 1.41
}

// gatedAverage returns the channel-weighted mean energy over the blocks
// selected by keep, or ok=false when no block passes the gate.
func gatedAverage(z [][]float64, numBlocks int, keep func(int) bool) (float64, bool) {
	var sum float64
	var count int
	for j := 0; j < numBlocks; j++ {
		if keep(j) {
			sum += weightedSumAt(z, j)
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}
