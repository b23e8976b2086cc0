package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/kintai-backend-go/internal/app"
	"github.com/cmlabs-hris/kintai-backend-go/internal/pkg/migration"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveMigrate bool

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the HTTP API server",
	Long: `Starts the HTTP API server. Usage:

	kintai serve [--migrate]
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if serveMigrate && cfg.Database.Driver == "postgres" {
			if err := migration.Up(cfg.DatabaseURL()); err != nil {
				return err
			}
		}

		application, err := app.New(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		defer application.Close()

		application.Scheduler.Start(ctx)
		defer application.Scheduler.Stop()

		// No write timeout: the admin event stream stays open.
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.App.Port),
			Handler:           application.Router,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			slog.Info("Server running", "addr", srv.Addr)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		slog.Info("Shutting down", "timeout", shutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		slog.Info("Server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "apply pending migrations before serving")
}
