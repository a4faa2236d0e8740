package capture

import (
	"strings"

	"github.com/gordonklaus/portaudio"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// PortAudio captures from a microphone. An empty Name selects the default
// input device; otherwise the first input device whose name contains Name
// is used.
type PortAudio struct {
	Name string
	Log  logrus.FieldLogger

	stream *portaudio.Stream
	buf    []int16
}

func (p *PortAudio) logger() logrus.FieldLogger {
	if p.Log == nil {
		return logrus.StandardLogger()
	}
	return p.Log
}

// Open initializes PortAudio and starts a mono input stream that delivers
// chunkSize samples per read.
func (p *PortAudio) Open(sampleRate, chunkSize int) error {
	if err := portaudio.Initialize(); err != nil {
		return errors.Wrap(err, "initialize portaudio")
	}
	p.buf = make([]int16, chunkSize)

	var err error
	if p.Name == "" {
		p.stream, err = portaudio.OpenDefaultStream(1, 0, float64(sampleRate), chunkSize, p.buf)
	} else {
		p.stream, err = p.openNamed(sampleRate, chunkSize)
	}
	if err != nil {
		portaudio.Terminate()
		return errors.Wrap(err, "open input stream")
	}

	if err := p.stream.Start(); err != nil {
		p.stream.Close()
		portaudio.Terminate()
		return errors.Wrap(err, "start input stream")
	}
	p.logger().WithFields(logrus.Fields{
		"device":      p.Name,
		"sample_rate": sampleRate,
		"chunk_size":  chunkSize,
	}).Info("microphone opened")
	return nil
}

func (p *PortAudio) openNamed(sampleRate, chunkSize int) (*portaudio.Stream, error) {
	h, err := portaudio.DefaultHostApi()
	if err != nil {
		return nil, err
	}
	var input *portaudio.DeviceInfo
	for _, device := range h.Devices {
		if device.MaxInputChannels > 0 && strings.Contains(device.Name, p.Name) {
			input = device
			break
		}
	}
	if input == nil {
		return nil, errors.Errorf("no input device matching %q", p.Name)
	}

	params := portaudio.HighLatencyParameters(input, nil)
	params.Input.Channels = 1
	params.Output.Channels = 0
	params.SampleRate = float64(sampleRate)
	params.FramesPerBuffer = chunkSize
	return portaudio.OpenStream(params, p.buf)
}

// Read blocks until the next chunk is captured and copies it into dst. An
// input overflow drops samples but is not an error.
func (p *PortAudio) Read(dst []int16) (int, error) {
	if p.stream == nil {
		return 0, errors.New("input stream is not open")
	}
	if err := p.stream.Read(); err != nil {
		if err != portaudio.InputOverflowed {
			return 0, errors.Wrap(err, "read input stream")
		}
		p.logger().Debug("input overflowed")
	}
	return copy(dst, p.buf), nil
}

// Close stops the stream and releases PortAudio.
func (p *PortAudio) Close() error {
	if p.stream == nil {
		return nil
	}
	stopErr := p.stream.Stop()
	closeErr := p.stream.Close()
	p.stream = nil
	portaudio.Terminate()
	if stopErr != nil {
		return errors.Wrap(stopErr, "stop input stream")
	}
	return errors.Wrap(closeErr, "close input stream")
}
