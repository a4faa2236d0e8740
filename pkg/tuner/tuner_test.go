package tuner

import (
	"math"
	"testing"

	"github.com/metalblueberry/strum/pkg/pitch"
	"github.com/metalblueberry/strum/pkg/tone"
)

var _ pitch.Estimator = (*Autocorrelator)(nil)

func TestAutocorrelatorSine(t *testing.T) {
	tests := []float64{82.41, 110, 146.83, 196, 246.94, 329.63, 440}
	for _, freq := range tests {
		a := NewAutocorrelator(0)
		samples := tone.Sine{Frequency: freq, SampleRate: 44100, Amplitude: 0.8}.Samples(DefaultBufferSize)
		got := a.Estimate(samples, 44100)
		if math.Abs(got-freq) > 1 {
			t.Errorf("Estimate(%.2f Hz) = %.3f", freq, got)
		}
	}
}

func TestAutocorrelatorLowStringsPerChunk(t *testing.T) {
	tests := []float64{82.41, 87.31, 92.5, 110}
	for _, freq := range tests {
		a := NewAutocorrelator(0)
		samples := tone.Sine{Frequency: freq, SampleRate: 44100, Amplitude: 0.8}.Samples(4096)
		got := a.Estimate(samples, 44100)
		if math.Abs(got-freq) > 1 {
			t.Errorf("Estimate(%.2f Hz) over one 4096-sample chunk = %.3f", freq, got)
		}
	}
}

func TestAutocorrelatorHarmonics(t *testing.T) {
	a := NewAutocorrelator(0)
	s := tone.Sine{Frequency: 82.41, SampleRate: 44100, Amplitude: 0.5, Harmonics: []float64{0.8, 0.5, 0.3}}
	got := a.Estimate(s.Samples(4096), 44100)
	if math.Abs(got-82.41) > 1 {
		t.Fatalf("expected ~82.41 Hz for a low E with overtones, got %.3f", got)
	}
}

func TestAutocorrelatorSilence(t *testing.T) {
	a := NewAutocorrelator(1024)
	if f := a.Estimate(make([]int16, 1024), 44100); f != 0 {
		t.Fatalf("expected 0 for silence, got %f", f)
	}
	if f := a.Estimate(nil, 44100); f != 0 {
		t.Fatalf("expected 0 for empty input, got %f", f)
	}
}

func TestAutocorrelatorStreams(t *testing.T) {
	a := NewAutocorrelator(8192)
	s := tone.Sine{Frequency: 196, SampleRate: 44100, Amplitude: 0.5}
	var got float64
	for i := 0; i < 4; i++ {
		got = a.Estimate(s.Render(i*2048, 2048), 44100)
	}
	if math.Abs(got-196) > 1 {
		t.Fatalf("expected ~196 Hz after streaming, got %.3f", got)
	}
}

func TestStandardTuning(t *testing.T) {
	if len(Standard.Strings) != 6 {
		t.Fatalf("expected 6 strings, got %d", len(Standard.Strings))
	}
	if math.Abs(Standard.Strings[0].Frequency-82.41) > 0.01 {
		t.Fatalf("low E is %.3f", Standard.Strings[0].Frequency)
	}
	if _, err := NewTuning("broken", "E2", "X9"); err == nil {
		t.Fatal("expected error for bad note")
	}
}

func TestRead(t *testing.T) {
	tests := []struct {
		freq   float64
		note   string
		str    string
		flat   bool
		sharp  bool
		intune bool
	}{
		{440, "A4", "E4", false, true, false},
		{110, "A2", "A2", false, false, true},
		{80, "D#2", "E2", true, false, false},
		{198, "G3", "G3", false, true, false},
	}
	for _, tt := range tests {
		r := Standard.Read(tt.freq)
		if r.Note != tt.note || r.String != tt.str {
			t.Errorf("Read(%.1f) = %+v", tt.freq, r)
			continue
		}
		if tt.flat && r.StringCents >= 0 {
			t.Errorf("Read(%.1f): expected flat, got %.1f cents", tt.freq, r.StringCents)
		}
		if tt.sharp && r.StringCents <= 0 {
			t.Errorf("Read(%.1f): expected sharp, got %.1f cents", tt.freq, r.StringCents)
		}
		if tt.intune && math.Abs(r.StringCents) > 0.01 {
			t.Errorf("Read(%.1f): expected in tune, got %.1f cents", tt.freq, r.StringCents)
		}
	}
}

func TestReadNoPitch(t *testing.T) {
	r := Standard.Read(0)
	if r.Note != "Unknown" || r.String != "" || r.Cents != 0 {
		t.Fatalf("unexpected reading %+v", r)
	}
}
