package capture

import (
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"
)

// WAVFile replays a PCM WAV file as if it were a microphone. Multi-channel
// files are mixed down to mono and samples are rescaled to 16 bits. The
// file's own sample rate wins over the requested one.
type WAVFile struct {
	Path string

	file     *os.File
	decoder  *wav.Decoder
	buf      *audio.IntBuffer
	channels int
	depth    int
	rate     int
}

// Open checks the header and prepares a decode buffer of chunkSize frames.
func (w *WAVFile) Open(sampleRate, chunkSize int) error {
	f, err := os.Open(w.Path)
	if err != nil {
		return errors.Wrap(err, "open wav file")
	}
	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		f.Close()
		return errors.Errorf("%s: not a valid wav file", w.Path)
	}
	w.file = f
	w.decoder = d
	w.channels = int(d.NumChans)
	if w.channels < 1 {
		w.channels = 1
	}
	w.depth = int(d.BitDepth)
	w.rate = int(d.SampleRate)
	if w.rate <= 0 {
		w.rate = sampleRate
	}
	w.buf = &audio.IntBuffer{
		Format: &audio.Format{NumChannels: w.channels, SampleRate: w.rate},
		Data:   make([]int, chunkSize*w.channels),
	}
	return nil
}

// SampleRate implements RateReporter.
func (w *WAVFile) SampleRate() int {
	return w.rate
}

// Read decodes up to len(dst) frames. It returns io.EOF once the file is
// exhausted.
func (w *WAVFile) Read(dst []int16) (int, error) {
	if w.decoder == nil {
		return 0, errors.New("wav file is not open")
	}
	frames := len(dst)
	if need := frames * w.channels; len(w.buf.Data) < need {
		w.buf.Data = make([]int, need)
	}
	w.buf.Data = w.buf.Data[:frames*w.channels]

	n, err := w.decoder.PCMBuffer(w.buf)
	if n == 0 {
		if err != nil && err != io.EOF {
			return 0, errors.Wrap(err, "decode wav")
		}
		return 0, io.EOF
	}
	if err != nil && err != io.EOF {
		return 0, errors.Wrap(err, "decode wav")
	}

	frames = n / w.channels
	for i := 0; i < frames; i++ {
		sum := 0
		for c := 0; c < w.channels; c++ {
			sum += w.buf.Data[i*w.channels+c]
		}
		dst[i] = toInt16(sum/w.channels, w.depth)
	}
	return frames, nil
}

// Close releases the file.
func (w *WAVFile) Close() error {
	w.decoder = nil
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return errors.Wrap(err, "close wav file")
}

// toInt16 rescales a sample of the given bit depth. 8-bit WAV data is
// unsigned.
func toInt16(v, depth int) int16 {
	switch {
	case depth == 8:
		return int16((v - 128) << 8)
	case depth > 16:
		return int16(v >> uint(depth-16))
	}
	return int16(v)
}
