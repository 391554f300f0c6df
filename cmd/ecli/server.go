package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"ecli/internal/config"
	"ecli/internal/httpapi"
	"ecli/pkg/types"
)

const shutdownTimeout = 5 * time.Second

func newServerCmd(opts *options) *cobra.Command {
	var (
		addr        string
		corsOrigins string
	)
	cmd := &cobra.Command{
		Use:     "server",
		Short:   "Serve the tracker HTTP API",
		Example: "  ecli server --addr :8527\n  ecli server --config ecli.toml --cors-origins http://localhost:5173",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := &opts.cfg
			cfg.RunSelected = config.ModeServer
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if origins := splitCSV(corsOrigins); origins != nil {
				cfg.Server.CORS.Enabled = true
				cfg.Server.CORS.Origins = origins
			}
			trackers, err := opts.enabledTrackers()
			if err != nil {
				return err
			}
			opts.exitCode = serve(opts, trackers)
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (default "+config.DefaultAddr+")")
	cmd.Flags().StringVar(&corsOrigins, "cors-origins", "", "Comma-separated allowed CORS origins; enables CORS")
	return cmd
}

func serve(opts *options, trackers []types.TrackerConfig) int {
	cfg := opts.cfg
	httpapi.SetMaxBodyBytes(cfg.Server.MaxBodyBytes)
	httpapi.SetCORSOptions(cfg.Server.CORS.Enabled, cfg.Server.CORS.Origins, cfg.Server.CORS.Methods, cfg.Server.CORS.Headers)
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	httpapi.SetBaseContext(baseCtx)

	c := opts.newCore(trackers)
	defer c.Close()
	hub := httpapi.NewHub()
	defer hub.Close()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           httpapi.NewMux(c, hub),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("ecli server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Configured trackers start once the listener is up. With exit_after
	// set this blocks for the bounded run.
	code := c.StartEunomia()
	if code == 0 && cfg.ExitAfter == 0 {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(stop)
		select {
		case <-stop:
		case err, ok := <-serveErr:
			if ok {
				log.Error().Err(err).Msg("server error")
				code = 1
			}
		}
	}

	cancelBase()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
	log.Info().Int("trackers", len(c.ListAllTrackers())).Msg("stopping trackers")
	return code
}
