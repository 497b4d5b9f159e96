package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"brandforge/internal/httpserver"
	"brandforge/internal/infra"
)

const shutdownGrace = 5 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve generated assets and run history to a browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			defer app.Close()

			handler := httpserver.NewRouter(&httpserver.App{
				State:    app.state,
				History:  app.history,
				AssetDir: app.store.BasePath(),
				Logger:   &app.logger,
			})
			server := infra.NewHTTPServer(app.cfg, handler)

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- server.Start() }()
			app.logger.Info().Str("addr", app.cfg.ListenAddr).Msg("viewer listening")
			fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s\n", app.cfg.ListenAddr)

			select {
			case err := <-errCh:
				return err
			case <-runCtx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}
}
