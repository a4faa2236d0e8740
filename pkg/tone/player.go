package tone

import (
	"context"
	"time"

	"github.com/hajimehoshi/oto/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Player plays reference tones on the default output device.
type Player struct {
	ctx        *oto.Context
	sampleRate int
	log        logrus.FieldLogger
}

// NewPlayer creates a player for mono 16-bit output at sampleRate. It
// blocks until the output device is ready.
func NewPlayer(sampleRate int, log logrus.FieldLogger) (*Player, error) {
	ctx, ready, err := oto.NewContext(sampleRate, 1, oto.FormatSignedInt16LE)
	if err != nil {
		return nil, errors.Wrap(err, "open audio output")
	}
	<-ready
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Player{ctx: ctx, sampleRate: sampleRate, log: log}, nil
}

// Play plays the tone for duration d, or until ctx is cancelled.
func (p *Player) Play(ctx context.Context, s Sine, d time.Duration) error {
	s.SampleRate = p.sampleRate
	player := p.ctx.NewPlayer(NewReader(s, d))
	defer player.Close()

	p.log.WithFields(logrus.Fields{
		"frequency": s.Frequency,
		"duration":  d,
	}).Info("playing reference tone")
	player.Play()

	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
	return errors.Wrap(player.Err(), "play reference tone")
}
