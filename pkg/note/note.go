// Package note names frequencies on the equal-tempered scale with A4 = 440 Hz.
//
// Octaves follow the MIDI convention: MIDI note 60 is C4 (261.63 Hz) and the
// octave of a note is floor(midi/12) - 1. This is the same as counting
// octaves up from A4 with 4 + floor((offset+9)/12), where offset is the
// number of semitones above A4. Floor division is used in both forms so the
// boundaries between B and C agree for notes below C0 as well.
package note

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// Reference is the frequency of A4.
	Reference = 440.0
	// ReferenceMIDI is the MIDI number of A4.
	ReferenceMIDI = 69
	// Unknown is returned for frequencies that carry no pitch.
	Unknown = "Unknown"
)

// Names holds the pitch classes in chromatic order starting at C.
var Names = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var flats = map[string]string{
	"Db": "C#",
	"Eb": "D#",
	"Gb": "F#",
	"Ab": "G#",
	"Bb": "A#",
	"Cb": "B",
	"Fb": "E",
	"E#": "F",
	"B#": "C",
}

func valid(freq float64) bool {
	return freq > 0 && !math.IsInf(freq, 0) && !math.IsNaN(freq)
}

// Offset returns the number of semitones between freq and A4, rounded to
// the nearest semitone.
func Offset(freq float64) int {
	return int(math.Round(12 * math.Log2(freq/Reference)))
}

// MIDI returns the nearest MIDI note number for freq.
func MIDI(freq float64) int {
	return ReferenceMIDI + Offset(freq)
}

// PitchClassOf returns the index into Names for a semitone offset from A4.
func PitchClassOf(offset int) int {
	return ((offset+9)%12 + 12) % 12
}

// OctaveOf returns the octave for a semitone offset from A4.
func OctaveOf(offset int) int {
	return 4 + floorDiv(offset+9, 12)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Name returns the pitch class and octave closest to freq, e.g. "A4".
// Non-positive frequencies return Unknown.
func Name(freq float64) string {
	if !valid(freq) {
		return Unknown
	}
	offset := Offset(freq)
	return Names[PitchClassOf(offset)] + strconv.Itoa(OctaveOf(offset))
}

// Class returns the pitch class of freq without octave, e.g. "A".
func Class(freq float64) string {
	if !valid(freq) {
		return Unknown
	}
	return Names[PitchClassOf(Offset(freq))]
}

// Cents returns the deviation of freq from the nearest equal-tempered note.
func Cents(freq float64) float64 {
	if !valid(freq) {
		return 0
	}
	semis := 12 * math.Log2(freq/Reference)
	return 100 * (semis - math.Round(semis))
}

// FromOffset returns the frequency of the note offset semitones above A4.
func FromOffset(offset float64) float64 {
	return Reference * math.Pow(2, offset/12)
}

// PitchClass returns the chromatic index of a pitch-class name. Sharps and
// flats are both accepted.
func PitchClass(name string) (int, bool) {
	name = strings.TrimSpace(name)
	if len(name) == 0 {
		return 0, false
	}
	name = strings.ToUpper(name[:1]) + name[1:]
	if sharp, ok := flats[name]; ok {
		name = sharp
	}
	for i, n := range Names {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

// Frequency parses a note name such as "A4", "C#3" or "Bb2" and returns its
// equal-tempered frequency.
func Frequency(name string) (float64, error) {
	name = strings.TrimSpace(name)
	idx := strings.IndexAny(name, "-0123456789")
	if idx <= 0 {
		return 0, fmt.Errorf("note %q: missing octave", name)
	}
	class, ok := PitchClass(name[:idx])
	if !ok {
		return 0, fmt.Errorf("note %q: unknown pitch class", name)
	}
	octave, err := strconv.Atoi(name[idx:])
	if err != nil {
		return 0, fmt.Errorf("note %q: %w", name, err)
	}
	midi := (octave+1)*12 + class + crossing(name[:idx])
	return FromOffset(float64(midi - ReferenceMIDI)), nil
}

// crossing corrects spellings whose letter belongs to the neighbouring
// octave: Cb4 is B3 and B#3 is C4.
func crossing(spelling string) int {
	switch strings.ToLower(spelling) {
	case "cb":
		return -12
	case "b#":
		return 12
	}
	return 0
}
