// Package spectral converts blocks of real samples into complex spectra.
package spectral

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"

	"github.com/andrepxx/go-dsp-guitar/fft"
	"github.com/mjibson/go-dsp/window"
)

// Window selects the taper applied to a frame before transforming it.
type Window int

const (
	Hann Window = iota
	Hamming
)

func (w Window) String() string {
	switch w {
	case Hann:
		return "hann"
	case Hamming:
		return "hamming"
	}
	return fmt.Sprintf("Window(%d)", int(w))
}

// ParseWindow maps a configuration name onto a Window.
func ParseWindow(name string) (Window, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	}
	return Hann, fmt.Errorf("unknown window function %q", name)
}

// Coefficients returns the window of length n.
func (w Window) Coefficients(n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{1}
	}
	if w == Hamming {
		return window.Hamming(n)
	}
	return window.Hann(n)
}

// Spectrum is the output of Transform. Size is always a power of two and
// equals len(Bins). Bins above Size/2 mirror the lower half and are never
// read by the peak helpers.
type Spectrum struct {
	Bins       []complex128
	Size       int
	SampleRate int
}

// Resolution is the width of one bin in Hz.
func (s Spectrum) Resolution() float64 {
	if s.Size == 0 {
		return 0
	}
	return float64(s.SampleRate) / float64(s.Size)
}

// Nyquist is the index of the highest meaningful bin.
func (s Spectrum) Nyquist() int {
	return s.Size / 2
}

// Magnitude returns |X[k]|, or 0 outside 0..Nyquist.
func (s Spectrum) Magnitude(k int) float64 {
	if k < 0 || k > s.Nyquist() || k >= len(s.Bins) {
		return 0
	}
	return cmplx.Abs(s.Bins[k])
}

// Bin maps a frequency to the nearest bin index.
func (s Spectrum) Bin(freq float64) int {
	res := s.Resolution()
	if res == 0 {
		return 0
	}
	return int(math.Round(freq / res))
}

// Frequency returns the centre frequency of bin k.
func (s Spectrum) Frequency(k int) float64 {
	return float64(k) * s.Resolution()
}

// PeakNear returns the largest magnitude within radius bins of k. The
// search is clamped to 0..Nyquist.
func (s Spectrum) PeakNear(k, radius int) float64 {
	lo := k - radius
	hi := k + radius
	if lo < 0 {
		lo = 0
	}
	if hi > s.Nyquist() {
		hi = s.Nyquist()
	}
	peak := 0.0
	for i := lo; i <= hi; i++ {
		if m := s.Magnitude(i); m > peak {
			peak = m
		}
	}
	return peak
}

// Magnitudes returns |X[k]| for k in 0..Nyquist.
func (s Spectrum) Magnitudes() []float64 {
	if s.Size == 0 {
		return nil
	}
	out := make([]float64, s.Nyquist()+1)
	for k := range out {
		out[k] = cmplx.Abs(s.Bins[k])
	}
	return out
}

// Transform windows samples, zero-pads them to the next power of two and
// returns their spectrum. An empty input yields an empty Spectrum.
func Transform(samples []float64, sampleRate int, w Window) Spectrum {
	n := len(samples)
	if n == 0 {
		return Spectrum{SampleRate: sampleRate}
	}
	size64, _ := fft.NextPowerOfTwo(uint64(n))
	size := int(size64)
	coeffs := w.Coefficients(n)
	bins := make([]complex128, size)
	for i, x := range samples {
		bins[i] = complex(x*coeffs[i], 0)
	}
	fft.CreateFourierTransform().Fourier(bins, fft.SCALING_DEFAULT, fft.MODE_INPLACE)
	return Spectrum{
		Bins:       bins,
		Size:       size,
		SampleRate: sampleRate,
	}
}

// FromPCM scales 16-bit samples into [-1, 1) and transforms them.
func FromPCM(samples []int16, sampleRate int, w Window) Spectrum {
	x := make([]float64, len(samples))
	for i, s := range samples {
		x[i] = float64(s) / 32768
	}
	return Transform(x, sampleRate, w)
}
