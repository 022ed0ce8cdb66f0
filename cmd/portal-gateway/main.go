package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/europgreen/portal-gateway/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "starting portal gateway",
		"addr", cfg.HTTP.Addr,
		"identity_base_url", cfg.Identity.BaseURL,
		"session_registry", cfg.Redis.Enabled,
		"audit_trail", cfg.Postgres.Enabled,
	)

	app, err := bootstrap.BuildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	server := bootstrap.StartHTTPServer(cfg.HTTP, app, logger)

	// Block until interrupted, then drain in-flight requests.
	stopCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-stopCtx.Done()

	return bootstrap.ShutdownHTTPServer(ctx, server, cfg.HTTP.ShutdownTimeout, logger)
}
