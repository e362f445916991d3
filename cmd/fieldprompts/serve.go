package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/fieldprompts/internal/web"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the prompt JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}

// serve runs the HTTP server until ctx is cancelled, then lets running
// imports finish within the shutdown timeout.
func (a *app) serve(ctx context.Context) error {
	svc := a.service()
	server := web.NewServer(svc, a.cfg)

	slog.Info("configuration loaded",
		"addr", a.cfg.Server.Addr(),
		"driver", a.cfg.Database.Driver,
		"db_max_conns", a.cfg.Database.MaxConns,
		"ingest_max_concurrent", a.cfg.Ingest.MaxConcurrent,
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Server.ShutdownTimeout)
		defer cancel()

		if limiter := svc.Limiter(); limiter != nil && limiter.Active() > 0 {
			slog.Info("waiting for imports to complete", "active", limiter.Active())
			if err := limiter.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			}
		}

		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return withCode(exitInternal, err)
	}
	slog.Info("server stopped")
	return nil
}
