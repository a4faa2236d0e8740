// Package capture reads fixed-size PCM chunks from an audio source and
// hands them to a single consumer.
package capture

import "time"

// Chunk is one block of mono 16-bit samples. A chunk is never modified after
// it has been handed to the consumer.
type Chunk struct {
	Samples    []int16
	SampleRate int
	Time       time.Time
}

// Duration returns the playing time of the chunk.
func (c Chunk) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(c.Samples)) * time.Second / time.Duration(c.SampleRate)
}

// Device is a blocking source of mono 16-bit samples.
//
// Read fills dst and returns the number of samples written. A device that
// runs out of input returns io.EOF.
type Device interface {
	Open(sampleRate, chunkSize int) error
	Read(dst []int16) (int, error)
	Close() error
}

// RateReporter is implemented by devices whose sample rate is dictated by
// the source, such as files.
type RateReporter interface {
	SampleRate() int
}
