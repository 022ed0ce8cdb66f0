package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/europgreen/portal-gateway/internal/service"
)

// sessionCookieName is the gateway's own browser-facing session cookie. Its
// value is an opaque ID; the upstream credential never reaches the browser.
const sessionCookieName = "egs_session"

// SessionCookieConfig groups cookie attributes for the session middleware.
type SessionCookieConfig struct {
	Domain string
	// TTL bounds the cookie lifetime. Defaults to 24h.
	TTL    time.Duration
	Logger *slog.Logger
}

// WithSession returns a middleware that binds each request to its session
// store. First contact mints a session ID and sets the cookie; subsequent
// requests resolve the existing store.
func WithSession(manager *service.Manager, cfg SessionCookieConfig) func(http.Handler) http.Handler {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := sessionIDFromRequest(r)
			if sessionID == "" {
				sessionID = manager.NewSessionID()
				setSessionCookie(w, r, sessionCookieParams{
					ID:     sessionID,
					Domain: cfg.Domain,
					TTL:    ttl,
				})
			}

			store, err := manager.Resolve(r.Context(), sessionID)
			if err != nil {
				logger.ErrorContext(r.Context(), "resolve session failed",
					slog.String("session_id", sessionID),
					slog.Any("error", err),
				)
				WriteError(w, ErrorParams{
					Code:    http.StatusInternalServerError,
					ErrCode: "session_unavailable",
					Err:     errors.New("session could not be resolved"),
				})
				return
			}

			ctx := SetStoreInContext(r.Context(), store)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionIDFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// sessionCookieParams groups values needed to set the session cookie.
type sessionCookieParams struct {
	ID     string
	Domain string
	TTL    time.Duration
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, p sessionCookieParams) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    p.ID,
		Path:     "/",
		Domain:   p.Domain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(p.TTL.Seconds()),
	})
}

// clearSessionCookie expires the session cookie, mirroring the attributes
// used when setting it so browsers actually drop it.
func clearSessionCookie(w http.ResponseWriter, r *http.Request, domain string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   domain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
	})
}

func isSecureRequest(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
