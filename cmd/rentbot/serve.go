package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/propertytek/rentbot"
	httpAdapter "github.com/propertytek/rentbot/pkg/adapters/http"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Starts the assistant as a JSON API over HTTP.

Endpoints:
  POST /chat          process one turn
  GET  /events        stream replies for a user_id (SSE)
  GET  /health, /info service status
  GET  /metrics       Prometheus metrics
  GET  /openapi.yaml  API description (browse it at /swagger)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, err := openApp(ctx, cmd, map[string]string{"http.addr": "addr"})
		if err != nil {
			return err
		}
		defer app.Close()

		cfg := app.Config
		handler, err := httpAdapter.NewHandler(app,
			httpAdapter.WithMetrics(app.Metrics),
			httpAdapter.WithRateLimit(cfg.HTTP.RateLimit, cfg.HTTP.RateBurst),
			httpAdapter.WithVersion(rentbot.Version),
			httpAdapter.WithLogger(app.Logger.With("component", "http")),
		)
		if err != nil {
			return fmt.Errorf("failed to build HTTP handler: %w", err)
		}

		srv := &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go app.Run(ctx)

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			app.Logger.Info("Starting Rentbot Server", "address", srv.Addr, "version", rentbot.Version, "markets", app.Gate.Markets())
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			app.Logger.Info("Start shutdown")

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				app.Logger.Error("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			app.Logger.Info("Rentbot Server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (default :8080)")
}
