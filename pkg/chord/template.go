// Package chord recognises strummed chords by harmonic summing over a
// spectrum and majority voting across several frames.
package chord

import (
	_ "embed"
	"math"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/metalblueberry/strum/pkg/note"
)

// UnknownChord is returned when no template scores above the floor.
const UnknownChord = "Unknown Chord"

//go:embed templates.yaml
var defaultTable []byte

var defaultTemplates = mustParse(defaultTable)

// Template is a chord shape. Intervals are semitones above the root. A
// template without a Root is scored directly at the reference root
// frequency; one with a Root pitch class is moved to the octave nearest the
// reference root.
type Template struct {
	Name      string `yaml:"name"`
	Root      string `yaml:"root,omitempty"`
	Intervals []int  `yaml:"intervals"`
}

// IsFundamental reports whether interval belongs to the root-third-fifth
// triad.
func IsFundamental(interval int) bool {
	switch interval {
	case 0, 4, 7:
		return true
	}
	return false
}

// Split partitions the intervals into fundamental and extension sets.
func (t Template) Split() (fundamental, extension []int) {
	for _, i := range t.Intervals {
		if IsFundamental(i) {
			fundamental = append(fundamental, i)
		} else {
			extension = append(extension, i)
		}
	}
	return fundamental, extension
}

// RootFrequency returns the frequency the template is scored at when the
// reference root is rootHz.
func (t Template) RootFrequency(rootHz float64) float64 {
	if t.Root == "" || rootHz <= 0 {
		return rootHz
	}
	pc, ok := note.PitchClass(t.Root)
	if !ok {
		return rootHz
	}
	ref := note.Offset(rootHz)
	diff := ((pc-note.PitchClassOf(ref))%12 + 12) % 12
	if diff > 5 {
		diff -= 12
	}
	return note.FromOffset(float64(ref + diff))
}

// Notes returns the pitch-class names sounded by the template at rootHz.
func (t Template) Notes(rootHz float64) []string {
	root := t.RootFrequency(rootHz)
	notes := make([]string, 0, len(t.Intervals))
	for _, i := range t.Intervals {
		notes = append(notes, note.Class(root*math.Pow(2, float64(i)/12)))
	}
	return notes
}

// DefaultTemplates returns a copy of the built-in table.
func DefaultTemplates() []Template {
	out := make([]Template, len(defaultTemplates))
	for i, t := range defaultTemplates {
		t.Intervals = append([]int(nil), t.Intervals...)
		out[i] = t
	}
	return out
}

// ParseTemplates decodes a YAML list of templates.
func ParseTemplates(data []byte) ([]Template, error) {
	var templates []Template
	if err := yaml.Unmarshal(data, &templates); err != nil {
		return nil, errors.Wrap(err, "decode chord templates")
	}
	if len(templates) == 0 {
		return nil, errors.New("chord template table is empty")
	}
	for i, t := range templates {
		if t.Name == "" {
			return nil, errors.Errorf("chord template %d has no name", i)
		}
		if len(t.Intervals) == 0 {
			return nil, errors.Errorf("chord template %q has no intervals", t.Name)
		}
		if t.Root != "" {
			if _, ok := note.PitchClass(t.Root); !ok {
				return nil, errors.Errorf("chord template %q: unknown root %q", t.Name, t.Root)
			}
		}
	}
	return templates, nil
}

// LoadTemplates reads a template table from a YAML file.
func LoadTemplates(path string) ([]Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read chord templates")
	}
	templates, err := ParseTemplates(data)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return templates, nil
}

func mustParse(data []byte) []Template {
	templates, err := ParseTemplates(data)
	if err != nil {
		panic(err)
	}
	return templates
}
