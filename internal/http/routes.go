package httpx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/europgreen/portal-gateway/internal/observability/notify"
	"github.com/europgreen/portal-gateway/internal/service"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Sessions *service.Manager
	Guard    *service.Guard
	Notifier notify.Sink
	// AuditQuery backs the admin audit endpoint. Nil disables the route.
	AuditQuery AuditQuerier

	CookieDomain string
	SessionTTL   time.Duration
	Logger       *slog.Logger
}

// NewRouter creates and configures the gateway's HTTP router. Every /api
// route runs behind the session middleware; health checks stay outside it.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	withSession := WithSession(services.Sessions, SessionCookieConfig{
		Domain: services.CookieDomain,
		TTL:    services.SessionTTL,
		Logger: logger,
	})
	wrap := func(h http.HandlerFunc) http.Handler {
		return withSession(h)
	}

	sessionHandlers := &SessionHandlers{
		Sessions:     services.Sessions,
		CookieDomain: services.CookieDomain,
		Logger:       logger,
	}
	navigationHandlers := &NavigationHandlers{Guard: services.Guard}
	proxyHandlers := &ProxyHandlers{Notifier: services.Notifier, Logger: logger}

	mux.Handle("POST /api/session/login", wrap(sessionHandlers.Login))
	mux.Handle("POST /api/session/logout", wrap(sessionHandlers.Logout))
	mux.Handle("GET /api/session", wrap(sessionHandlers.Current))
	mux.Handle("GET /api/navigation/decision", wrap(navigationHandlers.Decide))
	mux.Handle("/api/data/{upstream...}", wrap(proxyHandlers.Forward))

	if services.AuditQuery != nil {
		auditHandlers := &AuditHandlers{Events: services.AuditQuery, Logger: logger}
		mux.Handle("GET /api/admin/auth-events", wrap(auditHandlers.RecentForEmail))
	}

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	return Logging(logger)(Recover(logger)(mux))
}
