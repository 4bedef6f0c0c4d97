package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roguepikachu/reviewsite/internal/app"
	"github.com/roguepikachu/reviewsite/internal/config"
	"github.com/roguepikachu/reviewsite/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg := config.Conf
		stores, err := app.OpenStores(ctx, cfg)
		if err != nil {
			return err
		}
		defer stores.Close()
		if err := stores.Migrate(ctx); err != nil {
			return err
		}

		port := cfg.Port
		if port == "" {
			logger.Info(ctx, "no port configured, falling back to default: 8080")
			port = "8080"
		}
		srv := &http.Server{
			Addr:              ":" + port,
			Handler:           app.NewRouter(cfg, stores),
			ReadHeaderTimeout: 5 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info(ctx, "listening on :%s with %s store", port, cfg.StoreDriver)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}

		logger.Info(context.Background(), "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}
