package data

// Package data holds Postgres-backed repositories.

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/europgreen/portal-gateway/internal/errors"
	"github.com/europgreen/portal-gateway/internal/ports"
)

// AuthEventRepo records session lifecycle events in the auth_events table.
// It is the durable counterpart of the upstream's audit log: the gateway
// keeps its own trail of logins, refresh failures and logouts.
type AuthEventRepo struct {
	pool *pgxpool.Pool
}

var _ ports.AuditLog = (*AuthEventRepo)(nil)

// NewAuthEventRepo creates a new AuthEventRepo.
func NewAuthEventRepo(pool *pgxpool.Pool) *AuthEventRepo {
	return &AuthEventRepo{pool: pool}
}

// Record inserts one audit event. Missing ID and timestamp are filled in;
// database failures come back mapped through the shared classifier and it
// is the caller's contract to log rather than propagate them.
func (r *AuthEventRepo) Record(ctx context.Context, event ports.AuditEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	const q = `
		INSERT INTO auth_events (id, session_id, email, kind, detail, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.pool.Exec(ctx, q,
		event.ID, event.SessionID, event.Email, event.Kind, event.Detail, event.OccurredAt)
	return apperrors.MapDBError(err)
}

// RecentForEmail returns the latest events for one account, newest first.
// Used by the admin surface to answer "what happened to this login".
func (r *AuthEventRepo) RecentForEmail(ctx context.Context, email string, limit int) ([]ports.AuditEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	const q = `
		SELECT id, session_id, email, kind, detail, occurred_at
		FROM auth_events
		WHERE email = $1
		ORDER BY occurred_at DESC
		LIMIT $2`
	rows, err := r.pool.Query(ctx, q, email, limit)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	defer rows.Close()

	var events []ports.AuditEvent
	for rows.Next() {
		var ev ports.AuditEvent
		if scanErr := rows.Scan(&ev.ID, &ev.SessionID, &ev.Email, &ev.Kind, &ev.Detail, &ev.OccurredAt); scanErr != nil {
			return nil, apperrors.MapDBError(scanErr)
		}
		events = append(events, ev)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, apperrors.MapDBError(rowsErr)
	}
	return events, nil
}
