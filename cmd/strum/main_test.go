package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/metalblueberry/strum/pkg/engine"
	"github.com/metalblueberry/strum/pkg/tone"
)

func writeTone(t *testing.T, freq float64, n int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	samples := tone.Sine{Frequency: freq, SampleRate: 44100, Amplitude: 0.8}.Samples(n)
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}
	enc := wav.NewEncoder(f, 44100, 16, 1, 1)
	buf := &audio.IntBuffer{Format: &audio.Format{NumChannels: 1, SampleRate: 44100}, Data: data, SourceBitDepth: 16}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAnalyzeTuning(t *testing.T) {
	path := writeTone(t, 110, 4*4096)
	cmd := newRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{"analyze", "--mode", "tuning", "--json", "--log-level", "error", path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("analyze: %v", err)
	}

	scanner := bufio.NewScanner(out)
	lines := 0
	for scanner.Scan() {
		var r engine.Result
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			t.Fatalf("decode %q: %v", scanner.Text(), err)
		}
		if r.Kind != engine.KindTuning || r.Tuning == nil || r.Tuning.Note != "A2" {
			t.Fatalf("unexpected result %s", scanner.Text())
		}
		lines++
	}
	if lines != 4 {
		t.Fatalf("expected 4 results, got %d", lines)
	}
}

func TestAnalyzeRejectsBadMode(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetArgs([]string{"analyze", "--mode", "drums", "--log-level", "error", "x.wav"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestToneRejectsBadNote(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetArgs([]string{"tone", "--log-level", "error", "Q9"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for unknown note")
	}
}
