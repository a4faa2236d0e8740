package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/metalblueberry/strum/pkg/chord"
	"github.com/metalblueberry/strum/pkg/pitch"
	"github.com/metalblueberry/strum/pkg/tuner"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	c, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Audio.SampleRate != 44100 || c.Audio.ChunkSize != 4096 {
		t.Fatalf("unexpected audio defaults %+v", c.Audio)
	}
	if c.Gate.Debounce != 500*time.Millisecond || c.Gate.AmplitudeThreshold != 300 {
		t.Fatalf("unexpected gate defaults %+v", c.Gate)
	}
	if c.Chord.AttackDelay != 50*time.Millisecond || c.Chord.FrameDuration != 100*time.Millisecond {
		t.Fatalf("unexpected chord durations %+v", c.Chord)
	}
	if c.Chord.NumFrames != 3 || c.Chord.Overlap != 0.5 || c.Chord.HarmonicCount != 4 {
		t.Fatalf("unexpected chord defaults %+v", c.Chord)
	}
	if c.Pitch.Method != "yin" || c.Pitch.YINThreshold != 0.15 {
		t.Fatalf("unexpected pitch defaults %+v", c.Pitch)
	}
}

func TestFileEnvAndFlags(t *testing.T) {
	path := writeFile(t, "strum.yaml", `
audio:
  sample_rate: 48000
gate:
  amplitude_threshold: 500
  debounce: 250ms
chord:
  window: hamming
  root_strategy: lowest-peak
pitch:
  method: autocorrelation
`)
	t.Setenv("STRUM_AUDIO_CHUNK_SIZE", "2048")
	t.Setenv("STRUM_GATE_AMPLITUDE_THRESHOLD", "700")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Float64("threshold", 0, "")
	flags.String("log-level", "info", "")
	if err := flags.Parse([]string{"--log-level", "debug"}); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path, flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Audio.SampleRate != 48000 {
		t.Fatalf("file value ignored: %d", c.Audio.SampleRate)
	}
	if c.Audio.ChunkSize != 2048 {
		t.Fatalf("env value ignored: %d", c.Audio.ChunkSize)
	}
	if c.Gate.AmplitudeThreshold != 700 {
		t.Fatalf("env should beat file and unset flag, got %g", c.Gate.AmplitudeThreshold)
	}
	if c.Gate.Debounce != 250*time.Millisecond {
		t.Fatalf("duration not decoded: %v", c.Gate.Debounce)
	}
	if c.Log.Level != "debug" {
		t.Fatalf("flag ignored: %s", c.Log.Level)
	}

	opts, err := c.EngineOptions()
	if err != nil {
		t.Fatalf("engine options: %v", err)
	}
	if _, ok := opts.NewEstimator().(*tuner.Autocorrelator); !ok {
		t.Fatal("expected autocorrelation estimator")
	}
	if _, ok := opts.Scorer.Root.(chord.LowestPeakRoot); !ok {
		t.Fatalf("expected lowest-peak root, got %T", opts.Scorer.Root)
	}
}

func TestEngineOptionsTemplates(t *testing.T) {
	path := writeFile(t, "chords.yaml", `
- name: E
  root: E
  intervals: [0, 4, 7]
`)
	c, err := Load(writeFile(t, "strum.yaml", "chord:\n  templates: "+path+"\n"), nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	opts, err := c.EngineOptions()
	if err != nil {
		t.Fatalf("engine options: %v", err)
	}
	if len(opts.Scorer.Templates) != 1 || opts.Scorer.Templates[0].Name != "E" {
		t.Fatalf("unexpected templates %+v", opts.Scorer.Templates)
	}
	if _, ok := opts.NewEstimator().(*pitch.YIN); !ok {
		t.Fatal("expected yin estimator")
	}

	c.Chord.Templates = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := c.EngineOptions(); err == nil {
		t.Fatal("expected error for missing template file")
	}
}

func TestValidate(t *testing.T) {
	tests := map[string]string{
		"sample rate":   "audio:\n  sample_rate: 0\n",
		"overlap":       "chord:\n  overlap: 1\n",
		"window":        "chord:\n  window: kaiser\n",
		"root strategy": "chord:\n  root_strategy: guess\n",
		"pitch method":  "pitch:\n  method: zcr\n",
		"log level":     "log:\n  level: loud\n",
		"log format":    "log:\n  format: xml\n",
		"attack delay":  "chord:\n  attack_delay: -50ms\n",
	}
	for name, content := range tests {
		if _, err := Load(writeFile(t, "strum.yaml", content), nil); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestValidateAttackDelayFromEnv(t *testing.T) {
	t.Setenv("STRUM_CHORD_ATTACK_DELAY", "-50ms")
	if _, err := Load(writeFile(t, "strum.yaml", "audio:\n  device: mic\n"), nil); err == nil {
		t.Fatal("expected negative chord.attack_delay to be rejected")
	}
}

func TestMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestConfigureLogger(t *testing.T) {
	c := &Config{Log: Log{Level: "warn", Format: "json"}}
	l := logrus.New()
	if err := c.ConfigureLogger(l); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if l.GetLevel() != logrus.WarnLevel {
		t.Fatalf("expected warn level, got %v", l.GetLevel())
	}
	if _, ok := l.Formatter.(*logrus.JSONFormatter); !ok {
		t.Fatalf("expected json formatter, got %T", l.Formatter)
	}
}
