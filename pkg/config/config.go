// Package config loads strum settings from file, environment and flags.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/metalblueberry/strum/pkg/chord"
	"github.com/metalblueberry/strum/pkg/engine"
	"github.com/metalblueberry/strum/pkg/pitch"
	"github.com/metalblueberry/strum/pkg/spectral"
	"github.com/metalblueberry/strum/pkg/tuner"
)

// EnvPrefix prefixes environment overrides, e.g. STRUM_AUDIO_SAMPLE_RATE.
const EnvPrefix = "STRUM"

type Config struct {
	Audio Audio `mapstructure:"audio"`
	Gate  Gate  `mapstructure:"gate"`
	Pitch Pitch `mapstructure:"pitch"`
	Chord Chord `mapstructure:"chord"`
	Feed  Feed  `mapstructure:"feed"`
	Log   Log   `mapstructure:"log"`
}

type Audio struct {
	SampleRate int    `mapstructure:"sample_rate"`
	ChunkSize  int    `mapstructure:"chunk_size"`
	Device     string `mapstructure:"device"`
}

type Gate struct {
	AmplitudeThreshold float64       `mapstructure:"amplitude_threshold"`
	Debounce           time.Duration `mapstructure:"debounce"`
}

type Pitch struct {
	Method       string  `mapstructure:"method"`
	YINThreshold float64 `mapstructure:"yin_threshold"`
	BufferSize   int     `mapstructure:"buffer_size"`
}

type Chord struct {
	Window         string        `mapstructure:"window"`
	FrameDuration  time.Duration `mapstructure:"frame_duration"`
	AttackDelay    time.Duration `mapstructure:"attack_delay"`
	NumFrames      int           `mapstructure:"num_frames"`
	Overlap        float64       `mapstructure:"overlap"`
	HarmonicCount  int           `mapstructure:"harmonic_count"`
	ExtensionRatio float64       `mapstructure:"extension_ratio"`
	PeakRadius     int           `mapstructure:"peak_radius"`
	ScoreFloor     float64       `mapstructure:"score_floor"`
	RootStrategy   string        `mapstructure:"root_strategy"`
	RootFrequency  float64       `mapstructure:"root_frequency"`
	Templates      string        `mapstructure:"templates"`
}

type Feed struct {
	Listen string `mapstructure:"listen"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// flagKeys maps command line flags onto configuration keys.
var flagKeys = map[string]string{
	"device":    "audio.device",
	"threshold": "gate.amplitude_threshold",
	"listen":    "feed.listen",
	"log-level": "log.level",
	"window":    "chord.window",
	"pitch":     "pitch.method",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("audio.sample_rate", 44100)
	v.SetDefault("audio.chunk_size", 4096)
	v.SetDefault("audio.device", "")

	v.SetDefault("gate.amplitude_threshold", engine.DefaultThreshold)
	v.SetDefault("gate.debounce", "500ms")

	v.SetDefault("pitch.method", "yin")
	v.SetDefault("pitch.yin_threshold", pitch.DefaultThreshold)
	v.SetDefault("pitch.buffer_size", tuner.DefaultBufferSize)

	v.SetDefault("chord.window", "hann")
	v.SetDefault("chord.frame_duration", "100ms")
	v.SetDefault("chord.attack_delay", "50ms")
	v.SetDefault("chord.num_frames", 3)
	v.SetDefault("chord.overlap", 0.5)
	v.SetDefault("chord.harmonic_count", chord.DefaultHarmonics)
	v.SetDefault("chord.extension_ratio", chord.DefaultExtensionRatio)
	v.SetDefault("chord.peak_radius", chord.DefaultPeakRadius)
	v.SetDefault("chord.score_floor", 0.0)
	v.SetDefault("chord.root_strategy", "fixed")
	v.SetDefault("chord.root_frequency", chord.DefaultRootFrequency)
	v.SetDefault("chord.templates", "")

	v.SetDefault("feed.listen", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Load reads configuration. With an empty path, strum.yaml is searched in
// the working directory and ./config; a missing file is not an error.
// Flags that were set on the command line override everything else.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("strum")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.Wrapf(err, "bind flag %s", name)
				}
			}
		}
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Audio.SampleRate <= 0:
		return errors.Errorf("audio.sample_rate must be positive, got %d", c.Audio.SampleRate)
	case c.Audio.ChunkSize <= 0:
		return errors.Errorf("audio.chunk_size must be positive, got %d", c.Audio.ChunkSize)
	case c.Gate.AmplitudeThreshold < 0:
		return errors.Errorf("gate.amplitude_threshold must not be negative, got %g", c.Gate.AmplitudeThreshold)
	case c.Chord.Overlap < 0 || c.Chord.Overlap >= 1:
		return errors.Errorf("chord.overlap must be in [0, 1), got %g", c.Chord.Overlap)
	case c.Chord.NumFrames <= 0:
		return errors.Errorf("chord.num_frames must be positive, got %d", c.Chord.NumFrames)
	case c.Chord.FrameDuration <= 0:
		return errors.Errorf("chord.frame_duration must be positive, got %v", c.Chord.FrameDuration)
	case c.Chord.AttackDelay < 0:
		return errors.Errorf("chord.attack_delay must not be negative, got %v", c.Chord.AttackDelay)
	}
	if _, err := spectral.ParseWindow(c.Chord.Window); err != nil {
		return errors.Wrap(err, "chord.window")
	}
	if _, err := chord.ParseRootStrategy(c.Chord.RootStrategy, c.Chord.RootFrequency); err != nil {
		return errors.Wrap(err, "chord.root_strategy")
	}
	switch strings.ToLower(c.Pitch.Method) {
	case "yin", "autocorrelation":
	default:
		return errors.Errorf("pitch.method must be yin or autocorrelation, got %q", c.Pitch.Method)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "log.level")
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return errors.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// ConfigureLogger applies the log level and format to l.
func (c *Config) ConfigureLogger(l *logrus.Logger) error {
	level, err := logrus.ParseLevel(c.Log.Level)
	if err != nil {
		return errors.Wrap(err, "log.level")
	}
	l.SetLevel(level)
	if strings.ToLower(c.Log.Format) == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}

// EngineOptions builds the analysis options. The template table is read
// from disk when chord.templates is set.
func (c *Config) EngineOptions() (engine.Options, error) {
	window, err := spectral.ParseWindow(c.Chord.Window)
	if err != nil {
		return engine.Options{}, err
	}
	root, err := chord.ParseRootStrategy(c.Chord.RootStrategy, c.Chord.RootFrequency)
	if err != nil {
		return engine.Options{}, err
	}
	templates := chord.DefaultTemplates()
	if c.Chord.Templates != "" {
		if templates, err = chord.LoadTemplates(c.Chord.Templates); err != nil {
			return engine.Options{}, err
		}
	}

	scorer := &chord.Scorer{
		Templates: templates,
		Root:      root,
		Params: chord.Params{
			Harmonics:      c.Chord.HarmonicCount,
			ExtensionRatio: c.Chord.ExtensionRatio,
			PeakRadius:     c.Chord.PeakRadius,
			Floor:          c.Chord.ScoreFloor,
		},
	}

	opts := engine.Options{
		SampleRate: c.Audio.SampleRate,
		ChunkSize:  c.Audio.ChunkSize,
		Threshold:  c.Gate.AmplitudeThreshold,
		Debounce:   c.Gate.Debounce,
		Tuning:     tuner.Standard,
		Scorer:     scorer,
		Aggregator: &chord.Aggregator{Window: window, Labeler: scorer},
		Frames: chord.FrameParams{
			AttackDelay:   c.Chord.AttackDelay,
			FrameDuration: c.Chord.FrameDuration,
			NumFrames:     c.Chord.NumFrames,
			Overlap:       c.Chord.Overlap,
		},
	}

	yinThreshold := c.Pitch.YINThreshold
	bufferSize := c.Pitch.BufferSize
	if strings.ToLower(c.Pitch.Method) == "autocorrelation" {
		opts.NewEstimator = func() pitch.Estimator { return tuner.NewAutocorrelator(bufferSize) }
	} else {
		opts.NewEstimator = func() pitch.Estimator { return pitch.NewYIN(yinThreshold) }
	}
	return opts, nil
}
