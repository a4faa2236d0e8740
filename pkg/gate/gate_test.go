package gate

import (
	"math"
	"testing"
	"time"
)

func TestRMS(t *testing.T) {
	tests := []struct {
		name string
		in   []int16
		want float64
	}{
		{"empty", nil, 0},
		{"zero", make([]int16, 4096), 0},
		{"constant", []int16{300, -300, 300, -300}, 300},
		{"mixed", []int16{3, 4}, math.Sqrt(12.5)},
	}
	for _, tt := range tests {
		if got := RMS(tt.in); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: RMS = %f, want %f", tt.name, got, tt.want)
		}
	}
	if got := RMS([]float64{0.5, -0.5}); got != 0.5 {
		t.Errorf("float RMS = %f", got)
	}
}

func TestActive(t *testing.T) {
	if Active(make([]int16, 4096), 300) {
		t.Fatal("silence must not be active")
	}
	if Active([]int16{}, 0) {
		t.Fatal("empty chunk must not be active")
	}
	if !Active([]int16{300, -300}, 300) {
		t.Fatal("rms equal to threshold must be active")
	}
	if Active([]int16{299, -299}, 300) {
		t.Fatal("rms below threshold must not be active")
	}
}

func loud() []int16 {
	return []int16{1000, -1000, 1000, -1000}
}

func TestGateTriggersOncePerStroke(t *testing.T) {
	g := New(300, 500*time.Millisecond)
	t0 := time.Unix(0, 0)
	step := 100 * time.Millisecond
	quiet := make([]int16, 4)

	triggers := 0
	feed := func(samples []int16, i int) Decision {
		d := g.Observe(samples, t0.Add(time.Duration(i)*step))
		if d.Trigger {
			triggers++
		}
		return d
	}

	// A ringing note spans several chunks.
	for i := 0; i < 5; i++ {
		feed(loud(), i)
	}
	if triggers != 1 {
		t.Fatalf("expected 1 trigger, got %d", triggers)
	}

	// A short dip shorter than the debounce does not re-arm.
	feed(quiet, 5)
	feed(quiet, 6)
	feed(loud(), 7)
	if triggers != 1 {
		t.Fatalf("dip re-armed the gate: %d triggers", triggers)
	}

	// Quiet for the full debounce re-arms.
	for i := 8; i <= 13; i++ {
		feed(quiet, i)
	}
	if g.Detected() {
		t.Fatal("gate should have reset after debounce")
	}
	if d := feed(loud(), 14); !d.Trigger {
		t.Fatal("next stroke should trigger")
	}
	if triggers != 2 {
		t.Fatalf("expected 2 triggers, got %d", triggers)
	}
}

func TestGateReset(t *testing.T) {
	g := New(300, 0)
	if g.Debounce != DefaultDebounce {
		t.Fatalf("expected default debounce, got %v", g.Debounce)
	}
	now := time.Now()
	if d := g.Observe(loud(), now); !d.Trigger {
		t.Fatal("first stroke should trigger")
	}
	g.Reset()
	if d := g.Observe(loud(), now); !d.Trigger {
		t.Fatal("reset gate should trigger again")
	}
}
