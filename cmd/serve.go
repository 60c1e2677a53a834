package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/lakeshore-events/photostrip/internal/config"
	"github.com/lakeshore-events/photostrip/internal/handlers"
	"github.com/lakeshore-events/photostrip/internal/settings"
	"github.com/lakeshore-events/photostrip/internal/storage"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the booth and admin backend",
		Long: `Starts the photostrip backend: the settings endpoint the booth polls,
the strip submission endpoint, and the admin API for listing, printing,
and deleting submitted strips.`,
		Example: `  # Start server on default port 8888
  photostrip serve

  # Start server on custom port
  photostrip serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}

			store, err := storage.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			handler := handlers.New(store, cfg.MediaDir, settings.Settings{
				EventLabel:  cfg.EventLabel,
				TemplateRef: cfg.TemplateRef,
			})

			if cfg.SettingsURL != "" {
				// Mirror settings from an upstream event coordinator.
				poller := settings.NewPoller(settings.NewClient(cfg.SettingsURL), cfg.PollInterval, handler.SetSettings)
				go poller.Run(cmd.Context())
			}

			addr := ":" + cfg.Port
			server := &http.Server{
				Addr:    addr,
				Handler: handler.Routes(),
			}

			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Photostrip backend available", "addr", addr, "db", cfg.DBPath, "media_dir", cfg.MediaDir)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (overrides PHOTOSTRIP_PORT)")

	return cmd
}
