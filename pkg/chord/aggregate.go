package chord

import (
	"math"
	"time"

	"github.com/metalblueberry/strum/pkg/spectral"
)

// Unknown is the aggregate result when no frame could be labelled.
const Unknown = "Unknown"

// FrameParams describes how frames are cut out of the audio following an
// attack.
type FrameParams struct {
	AttackDelay   time.Duration
	FrameDuration time.Duration
	NumFrames     int
	// Overlap is the fraction of a frame shared with the next one, in [0, 1).
	Overlap float64
}

// DefaultFrameParams returns 3 frames of 100 ms, half overlapping, starting
// 50 ms after the attack.
func DefaultFrameParams() FrameParams {
	return FrameParams{
		AttackDelay:   50 * time.Millisecond,
		FrameDuration: 100 * time.Millisecond,
		NumFrames:     3,
		Overlap:       0.5,
	}
}

// Geometry converts the parameters into sample counts. A negative attack
// delay starts at the attack itself.
func (p FrameParams) Geometry(sampleRate int) (start, size, shift int) {
	rate := float64(sampleRate)
	start = int(math.Round(rate * p.AttackDelay.Seconds()))
	if start < 0 {
		start = 0
	}
	size = int(math.Round(rate * p.FrameDuration.Seconds()))
	shift = int(float64(size) * (1 - p.Overlap))
	if shift < 1 {
		shift = 1
	}
	return start, size, shift
}

// Span returns the number of samples after the attack needed to cut every
// frame.
func (p FrameParams) Span(sampleRate int) int {
	start, size, shift := p.Geometry(sampleRate)
	if p.NumFrames <= 0 || size <= 0 {
		return start
	}
	return start + (p.NumFrames-1)*shift + size
}

// Vote is the number of frames that agreed on a label.
type Vote struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Aggregator labels several frames of a stroke and keeps the majority.
type Aggregator struct {
	Window  spectral.Window
	Labeler Labeler
}

// Votes labels each frame and tallies the labels in first-seen order.
func (a *Aggregator) Votes(raw []int16, sampleRate int, p FrameParams) []Vote {
	start, size, shift := p.Geometry(sampleRate)
	if size <= 0 || a.Labeler == nil {
		return nil
	}
	var votes []Vote
	for i := 0; i < p.NumFrames; i++ {
		from := start + i*shift
		if from+size > len(raw) {
			break
		}
		label := a.Labeler.Label(spectral.FromPCM(raw[from:from+size], sampleRate, a.Window))
		votes = tally(votes, label)
	}
	return votes
}

// Aggregate returns the label most frames agree on.
func (a *Aggregator) Aggregate(raw []int16, sampleRate int, p FrameParams) string {
	return Majority(a.Votes(raw, sampleRate, p))
}

// Majority returns the label with the most votes. Ties go to the label
// seen first. An empty tally yields Unknown.
func Majority(votes []Vote) string {
	winner := Unknown
	best := 0
	for _, v := range votes {
		if v.Count > best {
			winner = v.Label
			best = v.Count
		}
	}
	return winner
}

func tally(votes []Vote, label string) []Vote {
	for i := range votes {
		if votes[i].Label == label {
			votes[i].Count++
			return votes
		}
	}
	return append(votes, Vote{Label: label, Count: 1})
}
