package chord

import (
	"fmt"
	"strings"

	"github.com/metalblueberry/strum/pkg/spectral"
)

// RootStrategy decides the reference root frequency for a spectrum.
type RootStrategy interface {
	Root(spec spectral.Spectrum) float64
}

// FixedRoot always reports the same frequency.
type FixedRoot float64

// Root returns f regardless of the spectrum.
func (f FixedRoot) Root(spectral.Spectrum) float64 {
	return float64(f)
}

// LowestPeakRoot reports the lowest local spectral peak between Min and Max
// whose magnitude reaches Fraction of the strongest bin in that range. When
// nothing qualifies, Fallback is used.
type LowestPeakRoot struct {
	Min      float64
	Max      float64
	Fraction float64
	Fallback float64
}

// NewLowestPeakRoot creates a lowest-peak strategy over the guitar range.
func NewLowestPeakRoot(fallback float64) LowestPeakRoot {
	return LowestPeakRoot{
		Min:      70,
		Max:      700,
		Fraction: 0.3,
		Fallback: fallback,
	}
}

// Root returns the frequency of the qualifying peak, or Fallback.
func (l LowestPeakRoot) Root(spec spectral.Spectrum) float64 {
	if spec.Size == 0 {
		return l.Fallback
	}
	lo := spec.Bin(l.Min)
	hi := spec.Bin(l.Max)
	if lo < 1 {
		lo = 1
	}
	if hi >= spec.Nyquist() {
		hi = spec.Nyquist() - 1
	}
	if hi < lo {
		return l.Fallback
	}

	strongest := 0.0
	for k := lo; k <= hi; k++ {
		if m := spec.Magnitude(k); m > strongest {
			strongest = m
		}
	}
	if strongest == 0 {
		return l.Fallback
	}

	limit := l.Fraction * strongest
	for k := lo; k <= hi; k++ {
		m := spec.Magnitude(k)
		if m < limit {
			continue
		}
		if m >= spec.Magnitude(k-1) && m >= spec.Magnitude(k+1) {
			return spec.Frequency(k)
		}
	}
	return l.Fallback
}

// ParseRootStrategy parses a root strategy name. Known names are "fixed"
// and "lowest-peak".
func ParseRootStrategy(name string, frequency float64) (RootStrategy, error) {
	if frequency <= 0 {
		frequency = DefaultRootFrequency
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "fixed":
		return FixedRoot(frequency), nil
	case "lowest-peak", "lowest_peak":
		return NewLowestPeakRoot(frequency), nil
	}
	return nil, fmt.Errorf("unknown root strategy %q", name)
}
