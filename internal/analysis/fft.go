package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT transforms data zero-padded to a power of two, so bin k of an n-sample
// series always maps to frequency k/(n*dt) with n the padded length.
func FFT(data []float64) []complex128 {
	if len(data) == 0 {
		return nil
	}
	return fft.FFTReal(padPow2(data))
}

func padPow2(data []float64) []float64 {
	n := len(data)
	if n <= 1 || n&(n-1) == 0 {
		return data
	}
	size := 1
	for size < n {
		size <<= 1
	}
	out := make([]float64, size)
	copy(out, data)
	return out
}

// PowerSpectrum returns the magnitude of the first half of the transform of
// the mean-removed series.
func PowerSpectrum(data []float64) []float64 {
	fft := FFT(Detrend(data))
	ps := make([]float64, len(fft)/2)

	for i := range ps {
		ps[i] = cmplx.Abs(fft[i])
	}

	return ps
}

// Detrend subtracts the mean so the DC bin does not dominate.
func Detrend(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}
	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = v - mean
	}
	return out
}

// Rhythm is the strongest periodic component of a series.
type Rhythm struct {
	Bin       int
	Frequency float64
	Period    float64
	Power     float64
}

// DominantRhythm finds the strongest non-DC bin of data sampled every dt
// time units. ok is false for series that are too short or flat.
func DominantRhythm(data []float64, dt float64) (Rhythm, bool) {
	if len(data) < 4 || dt <= 0 {
		return Rhythm{}, false
	}
	ps := PowerSpectrum(data)
	n := len(padPow2(data))

	best := Rhythm{}
	for k := 1; k < len(ps); k++ {
		if ps[k] > best.Power {
			best = Rhythm{Bin: k, Power: ps[k]}
		}
	}
	if best.Bin == 0 || best.Power < 1e-9 {
		return Rhythm{}, false
	}
	best.Frequency = float64(best.Bin) / (float64(n) * dt)
	best.Period = 1 / best.Frequency
	return best, true
}
