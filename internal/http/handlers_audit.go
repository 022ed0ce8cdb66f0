package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/europgreen/portal-gateway/internal/ports"
)

// AuditQuerier answers audit-trail queries for the admin surface.
type AuditQuerier interface {
	RecentForEmail(ctx context.Context, email string, limit int) ([]ports.AuditEvent, error)
}

// AuditHandlers exposes the session audit trail to superusers.
type AuditHandlers struct {
	Events AuditQuerier
	Logger *slog.Logger
}

func (h *AuditHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

type auditEventView struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Email      string    `json:"email"`
	Kind       string    `json:"kind"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// RecentForEmail lists the latest lifecycle events recorded for one
// account, newest first.
// GET /api/admin/auth-events?email=...&limit=N. Superusers only.
func (h *AuditHandlers) RecentForEmail(w http.ResponseWriter, r *http.Request) {
	store := StoreFromContext(r.Context())
	if store == nil {
		writeNoSession(w)
		return
	}

	user := store.User()
	if user == nil {
		if err := store.FetchUser(r.Context()); err == nil {
			user = store.User()
		}
	}
	if user == nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "unauthorized",
			Err:     errors.New("sign-in required"),
		})
		return
	}
	if !user.IsSuperuser {
		WriteError(w, ErrorParams{
			Code:    http.StatusForbidden,
			ErrCode: "forbidden",
			Err:     errors.New("superuser required"),
		})
		return
	}

	email := r.URL.Query().Get("email")
	if email == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_email",
			Err:     errors.New("email query parameter is required"),
		})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	events, err := h.Events.RecentForEmail(r.Context(), email, limit)
	if err != nil {
		h.logger().WarnContext(r.Context(), "audit trail query failed",
			slog.String("email", email),
			slog.Any("error", err),
		)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "audit_query_failed",
			Err:     err,
		})
		return
	}

	views := make([]auditEventView, 0, len(events))
	for _, ev := range events {
		views = append(views, auditEventView{
			ID:         ev.ID,
			SessionID:  ev.SessionID,
			Email:      ev.Email,
			Kind:       ev.Kind,
			Detail:     ev.Detail,
			OccurredAt: ev.OccurredAt,
		})
	}
	WriteJSON(w, http.StatusOK, map[string]any{"events": views})
}
