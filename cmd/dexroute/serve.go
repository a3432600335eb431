package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/dexroute/internal/api"
	"github.com/katalvlaran/dexroute/internal/metrics"
	"github.com/katalvlaran/dexroute/router"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve routing requests over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := loadSnapshot()
		if err != nil {
			return err
		}
		reg, m := metrics.NewRegistry()
		rt := router.New(cfg.Routing, router.WithLogger(logger), router.WithMetrics(m))
		st := g.Stats()
		m.ObserveGraph(st.Assets, st.Pools)

		server := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           api.New(rt, g, reg, logger).Handler(),
			ReadHeaderTimeout: 2 * time.Second,
			ReadTimeout:       time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
			WriteTimeout:      time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		}
		errCh := make(chan error, 1)
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()
		logger.Info().Str("addr", cfg.Server.Addr).Int("assets", st.Assets).Int("pools", st.Pools).Msg("dexroute serving")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case s := <-sigCh:
			logger.Info().Str("signal", s.String()).Msg("shutdown signal received")
		case err := <-errCh:
			if err != nil {
				return err
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
			return err
		}
		logger.Info().Msg("shutdown complete")
		return nil
	},
}
