package tuner

import (
	"math"

	"github.com/metalblueberry/strum/pkg/note"
)

/*
 * An open string of an instrument.
 */
type String struct {
	Name      string
	Frequency float64
}

/*
 * A set of open strings, lowest first.
 */
type Tuning struct {
	Name    string
	Strings []String
}

/*
 * Feedback for a detected frequency. Cents is the deviation from the
 * nearest equal-tempered note, StringCents the deviation from the nearest
 * open string.
 */
type Reading struct {
	Frequency   float64 `json:"frequency"`
	Note        string  `json:"note"`
	Cents       float64 `json:"cents"`
	String      string  `json:"string,omitempty"`
	StringCents float64 `json:"string_cents,omitempty"`
}

/*
 * Standard six-string guitar tuning.
 */
var Standard = mustTuning("standard", "E2", "A2", "D3", "G3", "B3", "E4")

/*
 * Creates a tuning from note names such as "E2".
 */
func NewTuning(name string, notes ...string) (Tuning, error) {
	t := Tuning{Name: name}

	for _, n := range notes {
		freq, err := note.Frequency(n)

		if err != nil {
			return Tuning{}, err
		}

		t.Strings = append(t.Strings, String{Name: n, Frequency: freq})
	}

	return t, nil
}

func mustTuning(name string, notes ...string) Tuning {
	t, err := NewTuning(name, notes...)

	if err != nil {
		panic(err)
	}

	return t
}

/*
 * Returns the open string closest to freq in cents, and the deviation.
 */
func (t Tuning) Nearest(freq float64) (String, float64, bool) {
	best := String{}
	bestCents := math.Inf(1)

	if freq <= 0 || math.IsNaN(freq) || math.IsInf(freq, 0) {
		return best, 0, false
	}

	for _, s := range t.Strings {
		cents := 1200.0 * math.Log2(freq/s.Frequency)

		if math.Abs(cents) < math.Abs(bestCents) {
			best = s
			bestCents = cents
		}

	}

	if math.IsInf(bestCents, 0) {
		return String{}, 0, false
	}

	return best, bestCents, true
}

/*
 * Describes freq against the chromatic scale and this tuning. A frequency
 * of 0 yields a reading for the Unknown note.
 */
func (t Tuning) Read(freq float64) Reading {
	r := Reading{
		Frequency: freq,
		Note:      note.Name(freq),
		Cents:     note.Cents(freq),
	}

	if s, cents, ok := t.Nearest(freq); ok {
		r.String = s.Name
		r.StringCents = cents
	}

	return r
}
