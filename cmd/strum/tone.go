package main

import (
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/metalblueberry/strum/pkg/note"
	"github.com/metalblueberry/strum/pkg/tone"
)

func newToneCommand() *cobra.Command {
	var duration time.Duration
	var amplitude float64
	var harmonics []float64
	cmd := &cobra.Command{
		Use:   "tone NOTE",
		Short: "Play a reference tone, e.g. strum tone E2",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			freq, err := note.Frequency(args[0])
			if err != nil {
				return err
			}
			player, err := tone.NewPlayer(cfg.Audio.SampleRate, log)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return player.Play(ctx, tone.Sine{
				Frequency: freq,
				Amplitude: amplitude,
				Harmonics: harmonics,
			}, duration)
		},
	}
	cmd.Flags().DurationVar(&duration, "duration", 2*time.Second, "how long to play")
	cmd.Flags().Float64Var(&amplitude, "amplitude", 0.5, "peak level between 0 and 1")
	cmd.Flags().Float64SliceVar(&harmonics, "harmonics", nil, "relative levels of the 2nd, 3rd, ... partials")
	return cmd
}
