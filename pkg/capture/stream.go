package capture

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	DefaultSampleRate = 44100
	DefaultChunkSize  = 4096
)

// Consumer receives every chunk, synchronously, on the capture goroutine.
type Consumer func(Chunk)

// Option configures a Stream.
type Option func(*Stream)

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Stream) {
		s.log = log
	}
}

// WithMediaClock stamps chunks with origin plus the playing time of the
// samples before them instead of the wall clock.
func WithMediaClock(origin time.Time) Option {
	return func(s *Stream) {
		s.mediaClock = true
		s.origin = origin
	}
}

// Stream runs one capture loop over a Device. The loop blocks on the device
// and invokes the consumer inline, so a slow consumer slows the reads down
// instead of queueing chunks.
type Stream struct {
	device     Device
	sampleRate int
	chunkSize  int
	consumer   Consumer
	log        logrus.FieldLogger
	mediaClock bool
	origin     time.Time

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	err     error
}

// NewStream returns a stopped stream. Non-positive sizes select the
// defaults.
func NewStream(device Device, sampleRate, chunkSize int, consumer Consumer, opts ...Option) *Stream {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	s := &Stream{
		device:     device,
		sampleRate: sampleRate,
		chunkSize:  chunkSize,
		consumer:   consumer,
		log:        logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the device and starts the capture loop. Open errors are
// returned to the caller. Calling Start on a running stream does nothing.
func (s *Stream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.log.Warn("capture already running, ignoring start")
		return nil
	}

	if err := s.device.Open(s.sampleRate, s.chunkSize); err != nil {
		return errors.Wrap(err, "open capture device")
	}
	rate := s.sampleRate
	if r, ok := s.device.(RateReporter); ok && r.SampleRate() > 0 {
		rate = r.SampleRate()
	}

	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.running = true
	s.cancel = cancel
	s.done = make(chan struct{})
	s.err = nil
	go s.loop(ctx, rate, s.done)

	s.log.WithFields(logrus.Fields{
		"sample_rate": rate,
		"chunk_size":  s.chunkSize,
	}).Debug("capture started")
	return nil
}

func (s *Stream) loop(ctx context.Context, rate int, done chan struct{}) {
	var loopErr error
	defer func() {
		if err := s.device.Close(); err != nil && loopErr == nil {
			loopErr = err
		}
		s.mu.Lock()
		s.running = false
		s.err = loopErr
		s.mu.Unlock()
		close(done)
	}()

	buf := make([]int16, s.chunkSize)
	var read int64
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := s.device.Read(buf)
		if err == io.EOF {
			s.log.Debug("capture reached end of input")
			return
		}
		if err != nil {
			loopErr = errors.Wrap(err, "read capture device")
			s.log.WithError(err).Error("capture stopped")
			return
		}
		if n <= 0 {
			continue
		}
		// A Stop during the read discards the chunk.
		if ctx.Err() != nil {
			return
		}

		chunk := Chunk{
			Samples:    append([]int16(nil), buf[:n]...),
			SampleRate: rate,
			Time:       time.Now(),
		}
		if s.mediaClock {
			chunk.Time = s.origin.Add(time.Duration(read) * time.Second / time.Duration(rate))
		}
		read += int64(n)
		s.consumer(chunk)
	}
}

// Stop cancels the loop, waits for it to exit and returns the error that
// ended it, if any. Stop is idempotent. It must not be called from the
// consumer.
func (s *Stream) Stop() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return s.Err()
}

// Done is closed when the current loop exits. It is nil before the first
// Start.
func (s *Stream) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Running reports whether the loop is active.
func (s *Stream) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Err returns the error that ended the last loop.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
