package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/resolvd/internal/logging"
	"github.com/example/resolvd/internal/telemetry"
	"github.com/example/resolvd/internal/version"
	"github.com/example/resolvd/internal/wire"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat widget and hub HTTP API",
		Long: `Run the resolvd HTTP server.

Routes:
  /api/chat/...   customer conversation (rate limited)
  /api/hub/...    staff case hub (bearer JWT)
  /health         liveness
  /metrics        Prometheus metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint)
			if err != nil {
				return err
			}

			c, err := wire.Build(cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			if cfg.Auth.JWTSecret == "" {
				logging.Warn(ctx).Msg("auth.jwt_secret is empty; hub routes will reject every request")
			}
			if c.RateLimiter != nil {
				go c.RateLimiter.Run(ctx, time.Minute)
			}

			srv := &http.Server{
				Addr:         cfg.Server.Addr,
				Handler:      c.HTTPServer().Router(),
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
				IdleTimeout:  60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logging.Info(ctx).
					Str("addr", cfg.Server.Addr).
					Str("version", version.String()).
					Str("orders", cfg.Orders.Source).
					Str("cases", cfg.Cases.Sink).
					Str("session_lock", cfg.SessionLock.Backend).
					Msg("resolvd listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server error: %w", err)
				}
			case <-ctx.Done():
			}

			logging.Info(context.Background()).Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logging.Error(shutdownCtx).Err(err).Msg("server shutdown error")
			}
			if err := shutdownTracing(shutdownCtx); err != nil {
				logging.Error(shutdownCtx).Err(err).Msg("tracing shutdown error")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")

	return cmd
}
