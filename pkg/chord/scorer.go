package chord

import (
	"math"

	"github.com/metalblueberry/strum/pkg/spectral"
)

const (
	DefaultHarmonics      = 4
	DefaultExtensionRatio = 0.1
	DefaultPeakRadius     = 1
	DefaultRootFrequency  = 261.63

	epsilon = 1e-6
)

// CandidateScore is the evaluation of one template against one spectrum.
type CandidateScore struct {
	Name        string  `json:"name"`
	Fundamental float64 `json:"fundamental"`
	Extension   float64 `json:"extension"`
	Total       float64 `json:"total"`
}

// Match is the outcome of scoring a spectrum.
type Match struct {
	Name       string
	Root       float64
	Notes      []string
	Candidates []CandidateScore
}

// Params tunes the harmonic-summing scorer.
type Params struct {
	// Harmonics is the number of partials summed per chord tone.
	Harmonics int
	// ExtensionRatio is the minimum extension to fundamental energy ratio
	// for extension energy to count.
	ExtensionRatio float64
	// PeakRadius is the number of neighbouring bins searched for a peak.
	PeakRadius int
	// Floor is the score a template must exceed to be reported.
	Floor float64
}

// DefaultParams returns the default scoring parameters.
func DefaultParams() Params {
	return Params{
		Harmonics:      DefaultHarmonics,
		ExtensionRatio: DefaultExtensionRatio,
		PeakRadius:     DefaultPeakRadius,
	}
}

// Score evaluates every template at rootHz and returns the best one. Ties
// go to the template listed first.
func Score(spec spectral.Spectrum, rootHz float64, templates []Template, harmonics int, ratio float64) Match {
	p := DefaultParams()
	p.Harmonics = harmonics
	p.ExtensionRatio = ratio
	return p.Score(spec, rootHz, templates)
}

// Score evaluates every template at rootHz and returns the best one.
func (p Params) Score(spec spectral.Spectrum, rootHz float64, templates []Template) Match {
	m := Match{Name: UnknownChord, Root: rootHz}
	if spec.Size == 0 || rootHz <= 0 || math.IsNaN(rootHz) || math.IsInf(rootHz, 0) {
		return m
	}

	best := -1
	bestTotal := p.Floor
	m.Candidates = make([]CandidateScore, 0, len(templates))
	for i, t := range templates {
		c := p.candidate(spec, t.RootFrequency(rootHz), t)
		m.Candidates = append(m.Candidates, c)
		if c.Total > bestTotal {
			best = i
			bestTotal = c.Total
		}
	}
	if best < 0 {
		return m
	}
	m.Name = templates[best].Name
	m.Notes = templates[best].Notes(rootHz)
	return m
}

func (p Params) candidate(spec spectral.Spectrum, root float64, t Template) CandidateScore {
	fundamental, extension := t.Split()
	c := CandidateScore{
		Name:        t.Name,
		Fundamental: p.energy(spec, root, fundamental),
		Extension:   p.energy(spec, root, extension),
	}
	c.Total = c.Fundamental
	if c.Extension/(c.Fundamental+epsilon) >= p.ExtensionRatio {
		c.Total += c.Extension
	}
	return c
}

// energy sums the weighted peak magnitudes of the first p.Harmonics
// partials of every interval.
func (p Params) energy(spec spectral.Spectrum, root float64, intervals []int) float64 {
	harmonics := p.Harmonics
	if harmonics <= 0 {
		harmonics = DefaultHarmonics
	}
	radius := p.PeakRadius
	if radius < 0 {
		radius = 0
	}
	nyquist := spec.Nyquist()
	sum := 0.0
	for _, i := range intervals {
		f := root * math.Pow(2, float64(i)/12)
		for h := 1; h <= harmonics; h++ {
			k := spec.Bin(f * float64(h))
			if k > nyquist {
				break
			}
			sum += spec.PeakNear(k, radius) / float64(h)
		}
	}
	return sum
}

// Labeler names the chord in a spectrum.
type Labeler interface {
	Label(spec spectral.Spectrum) string
}

// Scorer binds a template table, a root strategy and scoring parameters.
type Scorer struct {
	Templates []Template
	Root      RootStrategy
	Params    Params
}

// NewScorer returns a scorer over the default table with a fixed root at
// middle C.
func NewScorer() *Scorer {
	return &Scorer{
		Templates: DefaultTemplates(),
		Root:      FixedRoot(DefaultRootFrequency),
		Params:    DefaultParams(),
	}
}

// Match scores spec.
func (s *Scorer) Match(spec spectral.Spectrum) Match {
	root := s.Root
	if root == nil {
		root = FixedRoot(DefaultRootFrequency)
	}
	return s.Params.Score(spec, root.Root(spec), s.Templates)
}

// Notes returns the pitch classes of the template called name at the root
// chosen for spec, or nil when no template has that name.
func (s *Scorer) Notes(name string, spec spectral.Spectrum) []string {
	for _, t := range s.Templates {
		if t.Name != name {
			continue
		}
		root := s.Root
		if root == nil {
			root = FixedRoot(DefaultRootFrequency)
		}
		return t.Notes(root.Root(spec))
	}
	return nil
}

// Label implements Labeler.
func (s *Scorer) Label(spec spectral.Spectrum) string {
	return s.Match(spec).Name
}
