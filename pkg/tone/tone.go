// Package tone synthesizes reference tones as 16-bit PCM.
package tone

import (
	"encoding/binary"
	"io"
	"math"
	"time"
)

// Sine describes a periodic tone. Harmonics lists the relative amplitudes
// of the overtones 2f, 3f, ... on top of the fundamental.
type Sine struct {
	Frequency  float64
	SampleRate int
	Amplitude  float64
	Harmonics  []float64
	Phase      float64
}

func (s Sine) peak() float64 {
	total := 1.0
	for _, h := range s.Harmonics {
		total += math.Abs(h)
	}
	return total
}

// At returns the value of the tone at sample index i in [-Amplitude, Amplitude].
func (s Sine) At(i int) float64 {
	t := float64(i) / float64(s.SampleRate)
	v := math.Sin(2*math.Pi*s.Frequency*t + s.Phase)
	for n, h := range s.Harmonics {
		v += h * math.Sin(2*math.Pi*s.Frequency*float64(n+2)*t+s.Phase)
	}
	return s.Amplitude * v / s.peak()
}

// Samples renders n samples.
func (s Sine) Samples(n int) []int16 {
	return s.Render(0, n)
}

// Render renders n samples starting at sample index offset.
func (s Sine) Render(offset, n int) []int16 {
	out := make([]int16, n)
	if s.SampleRate <= 0 {
		return out
	}
	for i := range out {
		out[i] = toPCM(s.At(offset + i))
	}
	return out
}

func toPCM(v float64) int16 {
	v *= 32767
	if v > math.MaxInt16 {
		v = math.MaxInt16
	} else if v < math.MinInt16 {
		v = math.MinInt16
	}
	return int16(math.Round(v))
}

// Mix sums tones sample by sample, clamping to the 16-bit range.
func Mix(n int, tones ...Sine) []int16 {
	out := make([]int16, n)
	for i := range out {
		v := 0.0
		for _, s := range tones {
			if s.SampleRate > 0 {
				v += s.At(i)
			}
		}
		out[i] = toPCM(v)
	}
	return out
}

// Reader streams a tone as little-endian signed 16-bit mono PCM.
type Reader struct {
	tone      Sine
	pos       int
	remaining int
}

// NewReader returns a Reader that produces d worth of samples.
func NewReader(s Sine, d time.Duration) *Reader {
	return &Reader{
		tone:      s,
		remaining: int(d.Seconds() * float64(s.SampleRate)),
	}
}

func (r *Reader) Read(p []byte) (int, error) {
	if r.remaining <= 0 {
		return 0, io.EOF
	}
	n := len(p) / 2
	if n > r.remaining {
		n = r.remaining
	}
	if n == 0 {
		return 0, nil
	}
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(p[2*i:], uint16(toPCM(r.tone.At(r.pos))))
		r.pos++
	}
	r.remaining -= n
	return 2 * n, nil
}
