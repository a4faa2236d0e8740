package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/metalblueberry/strum/pkg/capture"
	"github.com/metalblueberry/strum/pkg/engine"
)

func newAnalyzeCommand() *cobra.Command {
	var mode, target string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "analyze FILE.wav",
		Short: "Run the analysis over a recorded WAV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := engine.ParseMode(mode)
			if err != nil {
				return err
			}
			opts, err := cfg.EngineOptions()
			if err != nil {
				return err
			}
			opts.MediaClock = true

			enc := json.NewEncoder(cmd.OutOrStdout())
			handler := func(r engine.Result) {
				if asJSON {
					if err := enc.Encode(r); err != nil {
						log.WithError(err).Warn("write result")
					}
					return
				}
				report(r, target)
			}

			e := engine.New(&capture.WAVFile{Path: args[0]}, handler, opts, log)
			if err := e.Start(m); err != nil {
				return err
			}
			select {
			case <-e.Done():
			case <-cmd.Context().Done():
			}
			return e.Stop()
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "chord", "tuning or chord")
	cmd.Flags().StringVar(&target, "target", "", "note or chord the recording should contain")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON lines")
	return cmd
}
