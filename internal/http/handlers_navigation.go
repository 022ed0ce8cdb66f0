package httpx

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/europgreen/portal-gateway/internal/service"
)

// NavigationHandlers answers the front-end's pre-navigation checks.
type NavigationHandlers struct {
	Guard *service.Guard
}

// Decide runs the route guard for one navigation attempt.
// GET /api/navigation/decision?name=<route-name>&path=<path>.
//
// The call blocks until the session is resolved, including the silent
// refresh chain, so the front-end can commit or redirect in one round trip.
func (h *NavigationHandlers) Decide(w http.ResponseWriter, r *http.Request) {
	store := StoreFromContext(r.Context())
	if store == nil {
		writeNoSession(w)
		return
	}

	path := safeNavigationPath(r.URL.Query().Get("path"))
	if path == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_path",
			Err:     errors.New("path must be a relative application path"),
		})
		return
	}

	decision := h.Guard.Evaluate(r.Context(), store, service.Route{
		Name: r.URL.Query().Get("name"),
		Path: path,
	})

	payload := map[string]any{"decision": decision.Kind}
	if decision.Location != "" {
		payload["location"] = decision.Location
	}
	WriteJSON(w, http.StatusOK, payload)
}

// safeNavigationPath admits only same-origin relative paths starting with
// "/". Returns "" when invalid.
func safeNavigationPath(candidate string) string {
	if candidate == "" {
		return ""
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return ""
	}
	return candidate
}
