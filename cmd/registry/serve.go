package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/registry-dashboard/pkg/dashboard"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := loadApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			srv, err := dashboard.NewServer(dashboard.Config{
				Port:        a.cfg.Port,
				Collector:   a.aggregator,
				Credentials: a.credentials,
				Redis:       a.redis,
			})
			if err != nil {
				return err
			}

			log.Info().
				Str("registry", a.cfg.BaseURL).
				Str("user_agent", a.cfg.UserAgent).
				Bool("redis", a.redis != nil).
				Msg("Dashboard configured")

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Stop(shutdownCtx)
		},
	}
}
