// Package gate separates silence from activity in a PCM stream.
package gate

import (
	"math"
	"time"

	"golang.org/x/exp/constraints"
)

// DefaultDebounce is how long the signal must stay quiet before a new
// stroke may trigger.
const DefaultDebounce = 500 * time.Millisecond

type sample interface {
	constraints.Integer | constraints.Float
}

// RMS returns sqrt(sum(x^2)/N), or 0 for an empty slice.
func RMS[T sample](samples []T) float64 {
	if len(samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// Active reports whether the RMS of samples reaches threshold.
func Active[T sample](samples []T, threshold float64) bool {
	if len(samples) == 0 {
		return false
	}
	return RMS(samples) >= threshold
}

// Decision is the outcome of observing one chunk.
type Decision struct {
	Active bool
	RMS    float64
	// Trigger is set on the first active chunk of a stroke.
	Trigger bool
}

// Gate tracks strokes across chunks. A stroke triggers once; the detected
// flag resets only after the signal has been quiet for Debounce. Time is
// taken from the chunk timestamps so that file input replays correctly.
//
// A Gate is not safe for concurrent use.
type Gate struct {
	Threshold float64
	Debounce  time.Duration

	detected   bool
	quiet      bool
	quietSince time.Time
}

// New returns a gate. A non-positive debounce selects DefaultDebounce.
func New(threshold float64, debounce time.Duration) *Gate {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Gate{Threshold: threshold, Debounce: debounce}
}

// Observe classifies samples captured at time at.
func (g *Gate) Observe(samples []int16, at time.Time) Decision {
	rms := RMS(samples)
	d := Decision{RMS: rms, Active: len(samples) > 0 && rms >= g.Threshold}

	if d.Active {
		g.quiet = false
		if !g.detected {
			g.detected = true
			d.Trigger = true
		}
		return d
	}

	if !g.quiet {
		g.quiet = true
		g.quietSince = at
	}
	if g.detected && at.Sub(g.quietSince) >= g.Debounce {
		g.detected = false
	}
	return d
}

// Detected reports whether a stroke is in progress.
func (g *Gate) Detected() bool {
	return g.detected
}

// Reset forgets any stroke in progress.
func (g *Gate) Reset() {
	g.detected = false
	g.quiet = false
	g.quietSince = time.Time{}
}
