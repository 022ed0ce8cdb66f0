package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/europgreen/portal-gateway/config"
	"github.com/europgreen/portal-gateway/internal/adapters/identity"
	redisadapter "github.com/europgreen/portal-gateway/internal/adapters/redis"
	"github.com/europgreen/portal-gateway/internal/data"
	httpx "github.com/europgreen/portal-gateway/internal/http"
	"github.com/europgreen/portal-gateway/internal/observability/notify"
	"github.com/europgreen/portal-gateway/internal/observability/notify/webhook"
	"github.com/europgreen/portal-gateway/internal/ports"
	"github.com/europgreen/portal-gateway/internal/service"
)

// App holds the wired application graph.
type App struct {
	Sessions *service.Manager
	Guard    *service.Guard
	Notifier notify.Sink
	// AuditQuery is set when the postgres audit trail is enabled.
	AuditQuery httpx.AuditQuerier

	closers []func()
}

// Close releases backing connections in reverse wiring order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// BuildApp wires adapters and services from configuration. Optional
// backends (redis registry, postgres audit) are skipped when disabled.
func BuildApp(ctx context.Context, cfg config.AppConfig, logger *slog.Logger) (*App, error) {
	app := &App{}

	var snapshots ports.SnapshotStore
	if cfg.Redis.Enabled {
		client, err := ConnectRedis(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, func() { _ = client.Close() })
		snapshots = redisadapter.NewSnapshotStore(client)
	} else {
		logger.Info("session registry disabled, sessions will not survive restarts")
	}

	var audit ports.AuditLog
	if cfg.Postgres.Enabled {
		pool, err := ConnectPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.closers = append(app.closers, pool.Close)
		repo := data.NewAuthEventRepo(pool)
		audit = repo
		app.AuditQuery = repo
	} else {
		logger.Info("audit trail disabled")
	}

	notifier, err := buildNotifier(cfg.Notify, logger)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Notifier = notifier

	app.Sessions = service.NewManager(service.ManagerOptions{
		NewProvider: func() (ports.IdentityProvider, error) {
			return identity.NewClient(identity.Config{
				BaseURL: cfg.Identity.BaseURL,
				Timeout: cfg.Identity.Timeout,
			})
		},
		Snapshots: snapshots,
		Audit:     audit,
		TTL:       cfg.HTTP.SessionTTL,
		Logger:    logger,
	})

	app.Guard = service.NewGuard(service.GuardConfig{
		PublicRoutes: cfg.Guard.PublicRoutes,
	})

	return app, nil
}

// buildNotifier assembles the failure sink chain: structured logging
// always, webhook delivery when configured.
func buildNotifier(cfg config.NotifyConfig, logger *slog.Logger) (notify.Sink, error) {
	sinks := notify.Fanout{notify.SlogSink{Logger: logger}}

	if cfg.WebhookURL != "" {
		hook, err := webhook.NewSink(webhook.Config{
			URL:        cfg.WebhookURL,
			Source:     cfg.Source,
			AckExpr:    cfg.AckExpr,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			return nil, fmt.Errorf("build webhook sink: %w", err)
		}
		sinks = append(sinks, hook)
	}

	return sinks, nil
}
