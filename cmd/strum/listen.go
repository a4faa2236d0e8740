package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/metalblueberry/strum/pkg/capture"
	"github.com/metalblueberry/strum/pkg/engine"
	"github.com/metalblueberry/strum/pkg/feed"
)

func newListenCommand() *cobra.Command {
	var mode, target string
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Analyze the microphone until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := engine.ParseMode(mode)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return listen(ctx, m, target)
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "tuning", "tuning or chord")
	cmd.Flags().StringVar(&target, "target", "", "note or chord the player is asked to play")
	cmd.Flags().String("device", "", "input device name (default system input)")
	cmd.Flags().String("listen", "", "serve results as a websocket feed on this address, e.g. :8080")
	return cmd
}

func listen(ctx context.Context, mode engine.Mode, target string) error {
	opts, err := cfg.EngineOptions()
	if err != nil {
		return err
	}

	var hub *feed.Hub
	if cfg.Feed.Listen != "" {
		hub = feed.NewHub(log)
	}

	handler := func(r engine.Result) {
		report(r, target)
		if hub != nil {
			if err := hub.Publish(r); err != nil {
				log.WithError(err).Warn("publish result")
			}
		}
	}

	device := &capture.PortAudio{Name: cfg.Audio.Device, Log: log}
	e := engine.New(device, handler, opts, log)
	if err := e.Start(mode); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	if hub != nil {
		mux := http.NewServeMux()
		mux.Handle("/results", hub)
		srv := &http.Server{Addr: cfg.Feed.Listen, Handler: mux}

		g.Go(func() error {
			log.WithField("addr", cfg.Feed.Listen).Info("serving result feed on /results")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return errors.Wrap(err, "result feed")
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			hub.Close()
			shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdown)
		})
	}
	g.Go(func() error {
		select {
		case <-ctx.Done():
		case <-e.Done():
		}
		return e.Stop()
	})
	return g.Wait()
}

func report(r engine.Result, target string) {
	entry := log.WithFields(logrus.Fields{
		"session": r.SessionID,
		"kind":    r.Kind,
	})
	if target != "" {
		entry = entry.WithFields(logrus.Fields{
			"target": target,
			"match":  r.Matches(target),
		})
	}
	switch {
	case r.Tuning != nil:
		entry.WithFields(logrus.Fields{
			"frequency":    r.Tuning.Frequency,
			"note":         r.Tuning.Note,
			"cents":        r.Tuning.Cents,
			"string":       r.Tuning.String,
			"string_cents": r.Tuning.StringCents,
		}).Info("pitch")
	case r.Chord != nil:
		entry.WithFields(logrus.Fields{
			"chord": r.Chord.Name,
			"notes": r.Chord.Notes,
		}).Info("chord")
	}
}
