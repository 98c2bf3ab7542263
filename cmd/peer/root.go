// GeoPresence - Live Location Sharing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geopresence

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tomtom215/geopresence/internal/config"
	"github.com/tomtom215/geopresence/internal/geolocation"
	"github.com/tomtom215/geopresence/internal/logging"
	"github.com/tomtom215/geopresence/internal/peerclient"
	"github.com/tomtom215/geopresence/internal/reconciler"
	"github.com/tomtom215/geopresence/internal/termui"
)

const commandBuffer = 64

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "peer",
		Short:         "Share a simulated live location and watch other peers",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}
	opts.register(cmd.Flags())
	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := opts.apply(cmd.Flags(), cfg); err != nil {
		return err
	}

	logCfg, closer, err := opts.loggingConfig(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()
	logging.Init(logCfg)

	sessionCfg, err := opts.sessionConfig(cfg)
	if err != nil {
		return err
	}
	source, err := geolocation.NewSimulated(opts.simulatedConfig(cfg))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commands := reconciler.NewCommandChannel(commandBuffer)
	rec := reconciler.New(cfg.ToReconcilerConfig(), commands)

	var status peerclient.StatusFunc
	drawn := make(chan struct{})
	if opts.plain {
		status = logStatus
		go func() {
			defer close(drawn)
			logCommands(commands.Commands())
		}()
	} else {
		board := termui.NewBoard()
		status = board.SetStatus
		go func() {
			defer close(drawn)
			// The board stops when the command stream closes, after the
			// session can no longer issue commands.
			board.Run(context.Background(), commands.Commands(), cmd.OutOrStdout(), opts.refresh)
		}()
	}

	logging.Info().Str("url", sessionCfg.URL).Msg("joining presence hub")
	session := peerclient.New(sessionCfg, source, rec, peerclient.WithStatus(status))
	err = session.Run(ctx)

	commands.Close()
	<-drawn
	return err
}

func logStatus(st peerclient.Status) {
	event := logging.Info()
	if st.Err != nil {
		event = logging.Warn().Err(st.Err)
	}
	event.
		Str("state", string(st.State)).
		Str("connection_id", st.SelfID).
		Int("peers", st.Peers).
		Dur("retry_in", st.RetryIn).
		Msg("session status")
}

func logCommands(commands <-chan reconciler.MarkerCommand) {
	for cmd := range commands {
		event := logging.Info().Str("peer_id", cmd.Peer.ID)
		switch cmd.Kind {
		case reconciler.CommandAdd, reconciler.CommandMove:
			event = event.
				Float64("latitude", cmd.Peer.Latitude).
				Float64("longitude", cmd.Peer.Longitude).
				Int64("reported_at", cmd.Peer.ReportedAt)
			if cmd.Peer.Accuracy != nil {
				event = event.Float64("accuracy", *cmd.Peer.Accuracy)
			}
		}
		event.Msg("peer " + string(cmd.Kind))
	}
}
