package engine

import (
	"strings"
	"time"

	"github.com/metalblueberry/strum/pkg/chord"
	"github.com/metalblueberry/strum/pkg/note"
	"github.com/metalblueberry/strum/pkg/tuner"
)

// Kind tags the payload of a Result.
type Kind string

const (
	KindTuning Kind = "tuning"
	KindChord  Kind = "chord"
)

// TuningResult is the pitch detected in one chunk.
type TuningResult = tuner.Reading

// ChordResult is the chord detected after one stroke.
type ChordResult struct {
	Name  string       `json:"name"`
	Notes []string     `json:"notes,omitempty"`
	Votes []chord.Vote `json:"votes,omitempty"`
}

// Result is produced once per analysis and handed to the Handler. Exactly
// one of Tuning and Chord is set, according to Kind.
type Result struct {
	Kind      Kind          `json:"kind"`
	SessionID string        `json:"session"`
	Time      time.Time     `json:"time"`
	Tuning    *TuningResult `json:"tuning,omitempty"`
	Chord     *ChordResult  `json:"chord,omitempty"`
}

// Matches reports whether the result is what the player was asked to play.
// Chord targets compare by name, ignoring case. Tuning targets may carry an
// octave ("A4") or name a pitch class only ("A", "Bb").
func (r Result) Matches(target string) bool {
	target = strings.TrimSpace(target)
	if target == "" {
		return false
	}
	switch r.Kind {
	case KindChord:
		if r.Chord == nil {
			return false
		}
		return strings.EqualFold(r.Chord.Name, target)
	case KindTuning:
		if r.Tuning == nil || r.Tuning.Frequency <= 0 {
			return false
		}
		if freq, err := note.Frequency(target); err == nil {
			return note.Name(freq) == r.Tuning.Note
		}
		want, ok := note.PitchClass(target)
		if !ok {
			return false
		}
		got, _ := note.PitchClass(note.Class(r.Tuning.Frequency))
		return got == want
	}
	return false
}
