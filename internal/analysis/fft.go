package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Pad removes the mean of samples, applies a Hann window and zero-fills the
// result up to the next power of two.
func Pad(samples []float64) []float64 {
	n := 1
	for n < len(samples) {
		n <<= 1
	}
	var mean float64
	for _, s := range samples {
		mean += s
	}
	if len(samples) > 0 {
		mean /= float64(len(samples))
	}

	out := make([]float64, n)
	last := float64(len(samples) - 1)
	for i, s := range samples {
		window := 1.0
		if last > 0 {
			window = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/last))
		}
		out[i] = (s - mean) * window
	}
	return out
}

// PowerSpectrum returns the magnitude of the first half of the transform of
// Pad(samples). Bin k sits at k/(n*dt) for padded length n.
func PowerSpectrum(samples []float64) []float64 {
	spectrum := fft.FFTReal(Pad(samples))
	ps := make([]float64, len(spectrum)/2)

	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}

	return ps
}

// DominantFrequency returns the frequency, in cycles per unit time, of the
// strongest non-DC bin of samples taken every dt. It returns 0 when there
// are fewer than four samples or the signal is constant.
func DominantFrequency(samples []float64, dt float64) float64 {
	if len(samples) < 4 || dt <= 0 {
		return 0
	}
	ps := PowerSpectrum(samples)

	best, peak := 0, 0.0
	for k := 1; k < len(ps); k++ {
		if ps[k] > peak {
			best, peak = k, ps[k]
		}
	}
	if best == 0 || peak < 1e-12 {
		return 0
	}

	n := 2 * len(ps)
	return float64(best) / (float64(n) * dt)
}
