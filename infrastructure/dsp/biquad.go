package dsp

import "math"

// biquad is a second-order IIR filter section in direct form I, with
// coefficients normalized by a0.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// process filters the signal out of place.
func (f *biquad) process(in []float64) []float64 {
	out := make([]float64, len(in))
	var x1, x2, y1, y2 float64
	for i, x := range in {
		y := f.b0*x + f.b1*x1 + f.b2*x2 - f.a1*y1 - f.a2*y2
		x2, x1 = x1, x
		y2, y1 = y1, y
		out[i] = y
	}
	return out
}

// K-weighting prototype parameters from ITU-R BS.1770: a high-shelf boost
// modelling head diffraction followed by a high-pass modelling the reduced
// sensitivity to low frequencies. Center frequencies and Q are the analog
// prototype values; coefficients are derived for the actual sample rate.
const (
	kHighShelfFreq = 1681.9744509555319
	kHighShelfGain = 3.99984385397
	kHighShelfQ    = 0.7071752369554196

	kHighPassFreq = 38.13547087602444
	kHighPassQ    = 0.5003270373238773
)

// newKWeighting returns the two-stage K-weighting filter for the given
// sample rate.
func newKWeighting(sampleRate int) [2]*biquad {
	return [2]*biquad{
		newHighShelf(kHighShelfFreq, kHighShelfGain, kHighShelfQ, sampleRate),
		newHighPass(kHighPassFreq, kHighPassQ, sampleRate),
	}
}

func newHighShelf(freq, gainDB, q float64, sampleRate int) *biquad {
	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * freq / float64(sampleRate)
	alpha := math.Sin(w0) / (2 * q)
	cosw0 := math.Cos(w0)

	b0 := a * ((a + 1) + (a-1)*cosw0 + 2*math.Sqrt(a)*alpha)
	b1 := -2 * a * ((a - 1) + (a+1)*cosw0)
	b2 := a * ((a + 1) + (a-1)*cosw0 - 2*math.Sqrt(a)*alpha)
	a0 := (a + 1) - (a-1)*cosw0 + 2*math.Sqrt(a)*alpha
	a1 := 2 * ((a - 1) - (a+1)*cosw0)
	a2 := (a + 1) - (a-1)*cosw0 - 2*math.Sqrt(a)*alpha

	return &biquad{b0: b0 / a0, b1: b1 / a0, b2: b2 / a0, a1: a1 / a0, a2: a2 / a0}
}

func newHighPass(freq, q float64, sampleRate int) *biquad {
	w0 := 2 * math.Pi * freq / float64(sampleRate)
	alpha := math.Sin(w0) / (2 * q)
	cosw0 := math.Cos(w0)

	b0 := (1 + cosw0) / 2
	b1 := -(1 + cosw0)
	b2 := (1 + cosw0) / 2
	a0 := 1 + alpha
	a1 := -2 * cosw0
	a2 := 1 - alpha

	return &biquad{b0: b0 / a0, b1: b1 / a0, b2: b2 / a0, a1: a1 / a0, a2: a2 / a0}
}
