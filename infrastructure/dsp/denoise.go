package dsp

import (
	"errors"
	"math"
	"math/cmplx"

	"narration-tuner/domain/audio"
)

// STFT parameters for spectral gating. The hop is a quarter window so the
// Hann analysis window overlap-adds to a constant.
const (
	fftSize = 1024
	hopSize = fftSize / 4

	// noiseGateStdDevs sets the per-bin noise threshold above the mean
	// of the dB spectrum; bins below it are treated as noise-dominated.
	noiseGateStdDevs = 1.5

	magnitudeFloor = 1e-12
)

// ErrTooShortToProfile reports audio too short to estimate a noise profile
// from. The caller falls back to the original, non-denoised signal.
var ErrTooShortToProfile = errors.New("audio too short to estimate a noise profile")

// SpectralGate reduces stationary background noise by attenuating
// frequency bins whose energy stays near the estimated noise floor.
// Each channel is processed independently; channel count and sample
// count are preserved exactly.
type SpectralGate struct {
	window []float64
}

// NewSpectralGate creates a denoiser with a Hann analysis window.
func NewSpectralGate() *SpectralGate {
	window := make([]float64, fftSize)
	for i := range window {
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(fftSize)))
	}
	return &SpectralGate{window: window}
}

// Reduce applies spectral gating at the given strength in [0.0, 1.0].
// Strength 0 returns the input unchanged.
func (g *SpectralGate) Reduce(buf *audio.Buffer, strength float64) (*audio.Buffer, error) {
	if strength <= 0 {
		return buf.Clone(), nil
	}
	if strength > 1 {
		strength = 1
	}
	if buf.Frames() < fftSize+hopSize {
		return nil, ErrTooShortToProfile
	}

	out := buf.Clone()
	for ch, samples := range buf.Samples {
		reduced, err := g.reduceChannel(samples, strength)
		if err != nil {
			return nil, err
		}
		out.Samples[ch] = reduced
	}
	return out, nil
}

func (g *SpectralGate) reduceChannel(samples []float64, strength float64) ([]float64, error) {
	n := len(samples)
	numFrames := (n-fftSize)/hopSize + 1
	if numFrames < 2 {
		return nil, ErrTooShortToProfile
	}
	bins := fftSize/2 + 1

	// Forward STFT.
	spectra := make([][]complex128, numFrames)
	levels := make([][]float64, numFrames) // dB magnitude per half-spectrum bin
	frame := make([]complex128, fftSize)
	for f := 0; f < numFrames; f++ {
		lo := f * hopSize
		for i := 0; i < fftSize; i++ {
			frame[i] = complex(samples[lo+i]*g.window[i], 0)
		}
		fft(frame)

		spectrum := make([]complex128, fftSize)
		copy(spectrum, frame)
		spectra[f] = spectrum

		level := make([]float64, bins)
		for k := 0; k < bins; k++ {
			level[k] = 20 * math.Log10(cmplx.Abs(spectrum[k])+magnitudeFloor)
		}
		levels[f] = level
	}

	// Stationary noise profile: per-bin mean and spread of the dB
	// spectrum over the whole signal.
	threshold := noiseThreshold(levels, numFrames, bins)

	// Binary speech/noise mask, smoothed over time and frequency, then
	// scaled by strength: gain = 1 - strength*(1 - mask).
	mask := make([][]float64, numFrames)
	for f := 0; f < numFrames; f++ {
		mask[f] = make([]float64, bins)
		for k := 0; k < bins; k++ {
			if levels[f][k] > threshold[k] {
				mask[f][k] = 1
			}
		}
	}
	mask = smoothMask(mask, numFrames, bins)

	// Apply the gain and invert, mirroring the gain onto the conjugate
	// half of the spectrum.
	acc := make([]float64, n+fftSize)
	norm := make([]float64, n+fftSize)
	for f := 0; f < numFrames; f++ {
		spectrum := spectra[f]
		for k := 0; k < bins; k++ {
			gain := complex(1-strength*(1-mask[f][k]), 0)
			spectrum[k] *= gain
			if k > 0 && k < fftSize/2 {
				spectrum[fftSize-k] *= gain
			}
		}
		ifft(spectrum)

		lo := f * hopSize
		for i := 0; i < fftSize; i++ {
			w := g.window[i]
			acc[lo+i] += real(spectrum[i]) * w
			norm[lo+i] += w * w
		}
	}

	// A Hann window with a quarter-window hop overlap-adds w*w to a
	// constant 1.5 wherever four windows cover a sample.
	const fullOverlap = 1.5

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		if norm[i] >= fullOverlap/2 {
			out[i] = acc[i] / norm[i]
		} else {
			// Edges covered by less than half the full overlap pass
			// through unchanged; there the normalizer is a single window
			// tail and the division is unstable.
			out[i] = samples[i]
		}
	}
	return out, nil
}

func noiseThreshold(levels [][]float64, numFrames, bins int) []float64 {
	threshold := make([]float64, bins)
	for k := 0; k < bins; k++ {
		var sum float64
		for f := 0; f < numFrames; f++ {
			sum += levels[f][k]
		}
		mean := sum / float64(numFrames)

		var variance float64
		for f := 0; f < numFrames; f++ {
			d := levels[f][k] - mean
			variance += d * d
		}
		std := math.Sqrt(variance / float64(numFrames))
		threshold[k] = mean + noiseGateStdDevs*std
	}
	return threshold
}

// Ensure SpectralGate implements audio.Denoiser
var _ audio.Denoiser = (*SpectralGate)(nil)

// smoothMask averages the binary mask over a small neighbourhood in time
// and frequency to avoid musical-noise artifacts from isolated bins.
func smoothMask(mask [][]float64, numFrames, bins int) [][]float64 {
	const radius = 2
	smoothed := make([][]float64, numFrames)
	for f := 0; f < numFrames; f++ {
		smoothed[f] = make([]float64, bins)
		for k := 0; k < bins; k++ {
			var sum float64
			var count int
			for df := -radius; df <= radius; df++ {
				for dk := -radius; dk <= radius; dk++ {
					ff, kk := f+df, k+dk
					if ff < 0 || ff >= numFrames || kk < 0 || kk >= bins {
						continue
					}
					sum += mask[ff][kk]
					count++
				}
			}
			smoothed[f][k] = sum / float64(count)
		}
	}
	return smoothed
}
