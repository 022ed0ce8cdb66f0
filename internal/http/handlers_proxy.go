package httpx

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/europgreen/portal-gateway/internal/observability/notify"
	"github.com/europgreen/portal-gateway/internal/ports"
	"github.com/europgreen/portal-gateway/internal/service"
)

// maxProxyBody bounds request bodies accepted for forwarding.
const maxProxyBody = 8 << 20

// ProxyHandlers forwards data calls to the upstream API on behalf of the
// session, with transparent credential renewal on rejection.
type ProxyHandlers struct {
	Notifier notify.Sink
	Logger   *slog.Logger
}

// Forward relays one data call upstream.
// ANY /api/data/{upstream...}.
//
// Upstream responses pass through opaquely. A credential rejection triggers
// one silent refresh and one retry; a terminal failure surfaces as 502
// after the failure sink has been notified.
func (h *ProxyHandlers) Forward(w http.ResponseWriter, r *http.Request) {
	store := StoreFromContext(r.Context())
	if store == nil {
		writeNoSession(w)
		return
	}

	fetcher, ok := store.Resources()
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadGateway,
			ErrCode: "upstream_unavailable",
			Err:     errors.New("session provider cannot forward data calls"),
		})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxProxyBody))
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_body",
			Err:     err,
		})
		return
	}

	upstreamPath := "/" + r.PathValue("upstream")
	if r.URL.RawQuery != "" {
		upstreamPath += "?" + r.URL.RawQuery
	}

	deps := service.CallDeps{Session: store, Notifier: h.Notifier, Logger: h.Logger}
	resp, ok := service.Do(r.Context(), deps, func(ctx context.Context) (ports.ResourceResponse, error) {
		return fetcher.FetchResource(ctx, ports.ResourceRequest{
			Method: r.Method,
			Path:   upstreamPath,
			Header: r.Header,
			Body:   body,
		})
	})
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadGateway,
			ErrCode: "request_failed",
			Err:     errors.New("upstream request could not complete"),
		})
		return
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.Status)
	if _, err := w.Write(resp.Body); err != nil {
		// Client disconnects are not recoverable here.
		return
	}
}
