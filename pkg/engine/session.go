package engine

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/metalblueberry/strum/pkg/capture"
	"github.com/metalblueberry/strum/pkg/chord"
	"github.com/metalblueberry/strum/pkg/circular"
	"github.com/metalblueberry/strum/pkg/gate"
	"github.com/metalblueberry/strum/pkg/pitch"
	"github.com/metalblueberry/strum/pkg/spectral"
)

// Mode selects what a session listens for.
type Mode int

const (
	Tuning Mode = iota
	Chord
)

func (m Mode) String() string {
	switch m {
	case Tuning:
		return "tuning"
	case Chord:
		return "chord"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode maps "tuning" or "chord" onto a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tuning", "tuner":
		return Tuning, nil
	case "chord", "chords":
		return Chord, nil
	}
	return Tuning, fmt.Errorf("unknown mode %q", s)
}

// State is the lifecycle of a session.
type State int

const (
	Idle State = iota
	Recording
)

func (s State) String() string {
	if s == Recording {
		return "recording"
	}
	return "idle"
}

// Session is the analysis state of one recording. Process is only ever
// called from the capture goroutine; nothing else touches the history
// buffer or the gate.
type Session struct {
	ID   string
	Mode Mode

	state     State
	opts      Options
	handler   Handler
	log       logrus.FieldLogger
	gate      *gate.Gate
	estimator pitch.Estimator
	history   *circular.Buffer[int16]
	span      int

	// Samples collected since the last attack, or -1 when no stroke is
	// pending.
	collected int
}

func newSession(mode Mode, opts Options, handler Handler, log logrus.FieldLogger) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		Mode:      mode,
		state:     Recording,
		opts:      opts,
		handler:   handler,
		gate:      gate.New(opts.Threshold, opts.Debounce),
		collected: -1,
	}
	s.log = log.WithFields(logrus.Fields{
		"session": s.ID,
		"mode":    mode.String(),
	})

	switch mode {
	case Tuning:
		s.estimator = opts.NewEstimator()
	case Chord:
		s.span = opts.Frames.Span(opts.SampleRate)
		s.history = circular.CreateBuffer[int16](2*s.span + opts.ChunkSize)
	}
	return s
}

// State returns the lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Process analyzes one chunk.
func (s *Session) Process(c capture.Chunk) {
	d := s.gate.Observe(c.Samples, c.Time)

	switch s.Mode {
	case Tuning:
		if !d.Active {
			return
		}
		freq := s.estimator.Estimate(c.Samples, c.SampleRate)
		reading := s.opts.Tuning.Read(freq)
		s.log.WithFields(logrus.Fields{
			"rms":       d.RMS,
			"frequency": freq,
			"note":      reading.Note,
		}).Debug("pitch")
		s.emit(Result{Kind: KindTuning, Time: c.Time, Tuning: &reading})

	case Chord:
		s.history.Enqueue(c.Samples...)
		if d.Trigger && s.collected < 0 {
			s.log.WithField("rms", d.RMS).Debug("attack")
			s.collected = 0
		}
		if s.collected < 0 {
			return
		}
		s.collected += len(c.Samples)
		if s.collected < s.span {
			return
		}
		raw := s.history.Tail(s.collected)
		s.collected = -1
		s.emit(Result{Kind: KindChord, Time: c.Time, Chord: s.evaluate(raw, c.SampleRate)})
	}
}

func (s *Session) evaluate(raw []int16, sampleRate int) *ChordResult {
	votes := s.opts.Aggregator.Votes(raw, sampleRate, s.opts.Frames)
	res := &ChordResult{Name: chord.Majority(votes), Votes: votes}

	if s.opts.Scorer != nil {
		start, size, _ := s.opts.Frames.Geometry(sampleRate)
		if start+size <= len(raw) {
			spec := spectral.FromPCM(raw[start:start+size], sampleRate, s.opts.Aggregator.Window)
			res.Notes = s.opts.Scorer.Notes(res.Name, spec)
		}
	}
	s.log.WithFields(logrus.Fields{
		"chord": res.Name,
		"votes": votes,
	}).Debug("stroke evaluated")
	return res
}

func (s *Session) emit(r Result) {
	r.SessionID = s.ID
	if s.handler != nil {
		s.handler(r)
	}
}
