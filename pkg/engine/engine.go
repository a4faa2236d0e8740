// Package engine ties capture, gating and analysis together into sessions.
package engine

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/metalblueberry/strum/pkg/capture"
	"github.com/metalblueberry/strum/pkg/chord"
	"github.com/metalblueberry/strum/pkg/gate"
	"github.com/metalblueberry/strum/pkg/pitch"
	"github.com/metalblueberry/strum/pkg/spectral"
	"github.com/metalblueberry/strum/pkg/tuner"
)

// DefaultThreshold is the RMS gate level on the 16-bit sample scale.
const DefaultThreshold = 300

// Handler receives every result on the capture goroutine. It must not call
// Engine.Stop or Engine.Start.
type Handler func(Result)

// Options configures the analysis. Zero fields take defaults in New.
type Options struct {
	SampleRate int
	ChunkSize  int
	Threshold  float64
	Debounce   time.Duration

	// NewEstimator is called once per tuning session.
	NewEstimator func() pitch.Estimator
	Tuning       tuner.Tuning

	Scorer     *chord.Scorer
	Aggregator *chord.Aggregator
	Frames     chord.FrameParams

	// MediaClock stamps chunks with their position in the input rather
	// than arrival time. Useful for files.
	MediaClock bool
}

func (o Options) withDefaults() Options {
	if o.SampleRate <= 0 {
		o.SampleRate = capture.DefaultSampleRate
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = capture.DefaultChunkSize
	}
	if o.Threshold <= 0 {
		o.Threshold = DefaultThreshold
	}
	if o.Debounce <= 0 {
		o.Debounce = gate.DefaultDebounce
	}
	if o.NewEstimator == nil {
		o.NewEstimator = func() pitch.Estimator {
			return pitch.NewYIN(pitch.DefaultThreshold)
		}
	}
	if len(o.Tuning.Strings) == 0 {
		o.Tuning = tuner.Standard
	}
	if o.Scorer == nil {
		o.Scorer = chord.NewScorer()
	}
	if o.Aggregator == nil {
		o.Aggregator = &chord.Aggregator{Window: spectral.Hann, Labeler: o.Scorer}
	}
	if o.Frames.NumFrames <= 0 || o.Frames.FrameDuration <= 0 {
		o.Frames = chord.DefaultFrameParams()
	}
	return o
}

// Engine owns the capture device and at most one session.
type Engine struct {
	mu      sync.Mutex
	device  capture.Device
	handler Handler
	opts    Options
	log     logrus.FieldLogger

	session *Session
	stream  *capture.Stream
}

// New returns an idle engine reading from device.
func New(device capture.Device, handler Handler, opts Options, log logrus.FieldLogger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{
		device:  device,
		handler: handler,
		opts:    opts.withDefaults(),
		log:     log,
	}
}

// Start begins a session in mode. A running session is stopped first. Device
// errors are returned and leave the engine idle.
func (e *Engine) Start(mode Mode) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session != nil {
		e.log.WithField("session", e.session.ID).Info("restarting session")
		e.stopLocked()
	}

	s := newSession(mode, e.opts, e.handler, e.log)
	opts := []capture.Option{capture.WithLogger(s.log)}
	if e.opts.MediaClock {
		opts = append(opts, capture.WithMediaClock(time.Now()))
	}
	stream := capture.NewStream(e.device, e.opts.SampleRate, e.opts.ChunkSize, s.Process, opts...)
	if err := stream.Start(); err != nil {
		s.state = Idle
		return err
	}

	e.session = s
	e.stream = stream
	s.log.Info("session started")
	return nil
}

// Stop ends the current session and releases the device. It returns the
// error that ended the capture loop, if any. Stop is idempotent.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopLocked()
}

func (e *Engine) stopLocked() error {
	if e.session == nil {
		return nil
	}
	err := e.stream.Stop()
	e.session.state = Idle
	e.session.log.Info("session stopped")
	e.session = nil
	e.stream = nil
	return err
}

// Session returns the running session, or nil.
func (e *Engine) Session() *Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

// Done is closed when the capture loop of the current session exits, for
// example at the end of a file. It is nil when no session is running.
func (e *Engine) Done() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stream == nil {
		return nil
	}
	return e.stream.Done()
}

// Options returns the effective options.
func (e *Engine) Options() Options {
	return e.opts
}
