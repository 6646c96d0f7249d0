package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	httpapi "github.com/dexpulse/dexpulse/internal/interfaces/http"
)

func newServeCmd() *cobra.Command {
	var streamInterval time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the screener HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			app, err := buildApp(cfg)
			if err != nil {
				return err
			}
			defer app.close()

			handlers := httpapi.NewHandlers(app.pipeline, app.ledger, cfg.Stores.PerfHistoryPath)
			hub := httpapi.NewStreamHub(app.pipeline, streamInterval)
			server := httpapi.NewServer(httpapi.ServerConfig{
				Host:         cfg.Server.Host,
				Port:         cfg.Server.Port,
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
				IdleTimeout:  cfg.Server.IdleTimeout,
				StaticDir:    cfg.Server.StaticDir,
			}, handlers, hub, app.registry)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			go hub.Run(ctx)

			errCh := make(chan error, 1)
			go func() { errCh <- server.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("shutdown incomplete")
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&streamInterval, "stream-interval", 30*time.Second, "Websocket feed refresh interval")
	return cmd
}
