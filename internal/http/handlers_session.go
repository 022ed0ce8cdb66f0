package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/europgreen/portal-gateway/internal/ports"
	"github.com/europgreen/portal-gateway/internal/service"
)

// SessionHandlers provides HTTP handlers for session lifecycle operations.
type SessionHandlers struct {
	Sessions     *service.Manager
	CookieDomain string
	Logger       *slog.Logger
}

func (h *SessionHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// loginRequest is the credential payload submitted by the login form.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates the session against the upstream identity API.
// POST /api/session/login.
//
// The response is always 200 with a result payload; a failed attempt is a
// normal outcome, not an HTTP error.
func (h *SessionHandlers) Login(w http.ResponseWriter, r *http.Request) {
	store := StoreFromContext(r.Context())
	if store == nil {
		writeNoSession(w)
		return
	}

	var req loginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	result := store.Login(r.Context(), ports.Credentials{
		Email:    req.Email,
		Password: req.Password,
	})

	WriteJSON(w, http.StatusOK, map[string]any{
		"success":       result.Success,
		"message":       result.Message,
		"landing_route": store.LandingRoute(),
	})
}

// Logout invalidates the session upstream and drops the gateway session.
// POST /api/session/logout.
func (h *SessionHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	store := StoreFromContext(r.Context())
	if store == nil {
		writeNoSession(w)
		return
	}

	store.Logout(r.Context())
	h.Sessions.Drop(store.SessionID())
	clearSessionCookie(w, r, h.CookieDomain)
	h.logger().InfoContext(r.Context(), "session signed out",
		slog.String("session_id", store.SessionID()))

	WriteJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

// Current reports who is signed in on this gateway session.
// GET /api/session.
func (h *SessionHandlers) Current(w http.ResponseWriter, r *http.Request) {
	store := StoreFromContext(r.Context())
	if store == nil {
		writeNoSession(w)
		return
	}

	user := store.User()
	if user == nil {
		WriteJSON(w, http.StatusOK, map[string]any{
			"authenticated": false,
			"landing_route": store.LandingRoute(),
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user":          user,
		"landing_route": store.LandingRoute(),
	})
}

func writeNoSession(w http.ResponseWriter) {
	WriteError(w, ErrorParams{
		Code:    http.StatusInternalServerError,
		ErrCode: "session_unavailable",
		Err:     errors.New("no session bound to request"),
	})
}
